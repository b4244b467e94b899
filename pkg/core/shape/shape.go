// Package shape describes the 2D/3D extent of a cell detection.
//
// A shape never carries an absolute position; it is stored next to a
// position. Shapes serialize to a flat list whose first element names the
// variant, e.g. ["ellipse", dx, dy, ...]. An empty list is the unknown shape.
package shape

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

var (
	// ErrUnknownShape is returned by [FromList] when the tag is not a known variant.
	ErrUnknownShape = errors.New("unknown shape type")

	// ErrMalformedShape is returned by [FromList] when the values after the tag
	// have the wrong count or type.
	ErrMalformedShape = errors.New("malformed shape")
)

// Variant tags used in the list form.
const (
	TagEllipse  = "ellipse"
	TagGaussian = "gaussian"
)

// Shape is implemented by every shape variant.
type Shape interface {
	// RawArea is the area of the raw detection, in pixels.
	RawArea() float64
	// FittedArea is the area of the fitted geometric shape, in pixels.
	FittedArea() float64
	// Area is the best available area: raw when known, else fitted.
	Area() float64
	Perimeter() float64
	// IsUnknown reports whether no shape information is available at all.
	IsUnknown() bool
	// IsEccentric reports whether the detection did not touch its own center,
	// which usually means a strange (mother) cell or a misdetection.
	IsEccentric() bool
	// Director returns the main direction in degrees, 0 <= d < 180. With
	// requireReliable set, ok is false for near-round shapes.
	Director(requireReliable bool) (degrees float64, ok bool)
	// ToList converts the shape to its list form; see [FromList].
	ToList() []any
}

// Unknown is the shape of a detection without shape data.
type Unknown struct{}

func (Unknown) RawArea() float64    { return 0 }
func (Unknown) FittedArea() float64 { return 0 }
func (Unknown) Area() float64       { return 0 }
func (Unknown) Perimeter() float64  { return 0 }
func (Unknown) IsUnknown() bool     { return true }
func (Unknown) IsEccentric() bool   { return false }
func (Unknown) ToList() []any       { return []any{} }

func (Unknown) Director(requireReliable bool) (float64, bool) {
	return 0, !requireReliable
}

// Ellipse is a 2D ellipse fitted around the detection. Width is always the
// smaller axis. Angle is in degrees, 0 <= angle < 180.
type Ellipse struct {
	Dx, Dy        float64 // Offset from the position
	Width, Height float64
	Angle         float64

	// OriginalPerimeter is the perimeter of the raw contour; nil when unknown.
	OriginalPerimeter *float64
	OriginalArea      float64
	Eccentric         bool
}

func (e Ellipse) RawArea() float64 { return e.OriginalArea }

func (e Ellipse) FittedArea() float64 {
	return math.Pi * e.Width / 2 * e.Height / 2
}

func (e Ellipse) Area() float64 {
	if e.OriginalArea > 0 {
		return e.OriginalArea
	}
	return e.FittedArea()
}

// Perimeter returns the original perimeter when known, and otherwise a
// series approximation of the ellipse perimeter.
func (e Ellipse) Perimeter() float64 {
	if e.OriginalPerimeter != nil {
		return *e.OriginalPerimeter
	}
	a, b := e.Width/2, e.Height/2
	if a+b == 0 {
		return 0
	}
	h := (a - b) * (a - b) / ((a + b) * (a + b))
	return math.Pi * (a + b) * (1 + h/4 + h*h/64 + h*h*h/256)
}

func (e Ellipse) IsUnknown() bool   { return false }
func (e Ellipse) IsEccentric() bool { return e.Eccentric }

func (e Ellipse) Director(requireReliable bool) (float64, bool) {
	if requireReliable && (e.Width == 0 || e.Height/e.Width < 1.2) {
		return 0, false
	}
	return e.Angle, true
}

func (e Ellipse) ToList() []any {
	var perimeter any
	if e.OriginalPerimeter != nil {
		perimeter = *e.OriginalPerimeter
	}
	return []any{TagEllipse, e.Dx, e.Dy, e.Width, e.Height, e.Angle, perimeter, e.OriginalArea, e.Eccentric}
}

// Gaussian is a 3D Gaussian fitted to the detection intensity.
type Gaussian struct {
	A                   float64 // Peak intensity
	MuX, MuY, MuZ       float64 // Offset of the mean from the position
	CovXX, CovYY, CovZZ float64
	CovXY, CovXZ, CovYZ float64
}

// axes returns the semi-axes (a >= b) and the major-axis angle of the 1-sigma
// ellipse in the xy plane.
func (g Gaussian) axes() (a, b, angle float64) {
	tr := g.CovXX + g.CovYY
	det := g.CovXX*g.CovYY - g.CovXY*g.CovXY
	disc := math.Sqrt(math.Max(0, tr*tr/4-det))
	l1, l2 := tr/2+disc, tr/2-disc
	a, b = math.Sqrt(math.Max(0, l1)), math.Sqrt(math.Max(0, l2))

	angle = 0.5 * math.Atan2(2*g.CovXY, g.CovXX-g.CovYY) * 180 / math.Pi
	angle = math.Mod(angle+180, 180)
	return a, b, angle
}

func (g Gaussian) RawArea() float64 { return g.FittedArea() }

func (g Gaussian) FittedArea() float64 {
	det := g.CovXX*g.CovYY - g.CovXY*g.CovXY
	if det <= 0 {
		return 0
	}
	return math.Pi * math.Sqrt(det)
}

func (g Gaussian) Area() float64 { return g.FittedArea() }

// Perimeter uses Ramanujan's approximation on the 1-sigma ellipse.
func (g Gaussian) Perimeter() float64 {
	a, b, _ := g.axes()
	return math.Pi * (3*(a+b) - math.Sqrt((3*a+b)*(a+3*b)))
}

func (g Gaussian) IsUnknown() bool   { return false }
func (g Gaussian) IsEccentric() bool { return false }

func (g Gaussian) Director(requireReliable bool) (float64, bool) {
	a, b, angle := g.axes()
	if requireReliable && (b == 0 || a/b < 1.2) {
		return 0, false
	}
	return angle, true
}

func (g Gaussian) ToList() []any {
	return []any{TagGaussian, g.A, g.MuX, g.MuY, g.MuZ, g.CovXX, g.CovYY, g.CovZZ, g.CovXY, g.CovXZ, g.CovYZ}
}

// FromList decodes the list form produced by ToList. An empty or nil list
// yields [Unknown]. Numeric elements may be any Go number type or a
// json.Number, so lists straight out of a JSON decoder are accepted.
func FromList(list []any) (Shape, error) {
	if len(list) == 0 {
		return Unknown{}, nil
	}
	tag, ok := list[0].(string)
	if !ok {
		return nil, fmt.Errorf("%w: tag %v is not a string", ErrMalformedShape, list[0])
	}
	args := list[1:]
	switch tag {
	case TagEllipse:
		return ellipseFromList(args)
	case TagGaussian:
		return gaussianFromList(args)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownShape, tag)
}

func ellipseFromList(args []any) (Shape, error) {
	if len(args) != 7 && len(args) != 8 {
		return nil, fmt.Errorf("%w: ellipse needs 7 or 8 values, got %d", ErrMalformedShape, len(args))
	}
	nums := make([]float64, 5)
	for i := range nums {
		f, err := toFloat(args[i])
		if err != nil {
			return nil, err
		}
		nums[i] = f
	}
	e := Ellipse{Dx: nums[0], Dy: nums[1], Width: nums[2], Height: nums[3], Angle: nums[4]}
	if args[5] != nil {
		p, err := toFloat(args[5])
		if err != nil {
			return nil, err
		}
		e.OriginalPerimeter = &p
	}
	area, err := toFloat(args[6])
	if err != nil {
		return nil, err
	}
	e.OriginalArea = area
	if len(args) == 8 {
		switch v := args[7].(type) {
		case bool:
			e.Eccentric = v
		case nil:
		default:
			f, err := toFloat(v)
			if err != nil {
				return nil, err
			}
			e.Eccentric = f != 0
		}
	}
	return e, nil
}

func gaussianFromList(args []any) (Shape, error) {
	if len(args) != 10 {
		return nil, fmt.Errorf("%w: gaussian needs 10 values, got %d", ErrMalformedShape, len(args))
	}
	var nums [10]float64
	for i := range nums {
		f, err := toFloat(args[i])
		if err != nil {
			return nil, err
		}
		nums[i] = f
	}
	return Gaussian{
		A: nums[0], MuX: nums[1], MuY: nums[2], MuZ: nums[3],
		CovXX: nums[4], CovYY: nums[5], CovZZ: nums[6],
		CovXY: nums[7], CovXZ: nums[8], CovYZ: nums[9],
	}, nil
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrMalformedShape, err)
		}
		return f, nil
	}
	return 0, fmt.Errorf("%w: %v (%T) is not a number", ErrMalformedShape, v, v)
}
