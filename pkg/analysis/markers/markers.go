// Package markers reads and writes the well-known metadata keys that the
// analysis algorithms attach to positions and lineages: error and warning
// markers, end-of-track markers and lineage colors.
//
// All functions go through the generic metadata API of [links.Links], so
// markers survive saving and loading like any other metadata.
package markers

import (
	"slices"

	"github.com/matzehuels/celltrack/pkg/core/color"
	"github.com/matzehuels/celltrack/pkg/core/links"
	"github.com/matzehuels/celltrack/pkg/core/position"
)

// Metadata keys.
const (
	KeyError           = "error"
	KeySuppressedError = "suppressed_error"
	KeyWarning         = "warning"
	KeyEnding          = "ending"
	KeyLineageColor    = "color"
)

// ====================================================================================
// End markers
// ====================================================================================

// EndMarker explains why a track has no future positions. The zero value
// means no marker was set.
type EndMarker int

const (
	EndUnknown EndMarker = iota
	Dead
	Shed
	OutOfView
)

var endMarkerNames = map[EndMarker]string{
	Dead:      "DEAD",
	Shed:      "SHED",
	OutOfView: "OUT_OF_VIEW",
}

func (m EndMarker) String() string {
	if s, ok := endMarkerNames[m]; ok {
		return s
	}
	return "UNKNOWN"
}

// ParseEndMarker converts a stored name back to a marker. Unknown names
// yield EndUnknown.
func ParseEndMarker(s string) EndMarker {
	for m, name := range endMarkerNames {
		if name == s {
			return m
		}
	}
	return EndUnknown
}

// GetEndMarker returns the end marker of p.
func GetEndMarker(l *links.Links, p position.Position) EndMarker {
	s, ok := l.PositionData(p, KeyEnding).AsString()
	if !ok {
		return EndUnknown
	}
	return ParseEndMarker(s)
}

// SetEndMarker marks why the track ends at p. EndUnknown removes the marker.
func SetEndMarker(l *links.Links, p position.Position, m EndMarker) {
	if m == EndUnknown {
		setPositionData(l, p, KeyEnding, links.Absent)
		return
	}
	setPositionData(l, p, KeyEnding, links.String(m.String()))
}

// FindDeathAndShedPositions returns all positions marked DEAD or SHED.
func FindDeathAndShedPositions(l *links.Links) []position.Position {
	return slices.DeleteFunc(l.FindAllPositionsWithData(KeyEnding), func(p position.Position) bool {
		m := GetEndMarker(l, p)
		return m != Dead && m != Shed
	})
}

// IsLive reports whether the cell at p is not marked as dead or shed.
func IsLive(l *links.Links, p position.Position) bool {
	m := GetEndMarker(l, p)
	return m != Dead && m != Shed
}

// ====================================================================================
// Error and warning markers
// ====================================================================================

// Error is the kind of a tracking error attached to a position.
type Error int

const (
	ErrorNone Error = iota
	ErrorNoFuturePosition
	ErrorTooManyDaughterCells
	ErrorNoPastPosition
	ErrorCellMerge
	ErrorPotentiallyNotAMother
	ErrorShortCellCycle
	ErrorLinkNotForward
	ErrorSkippedTimePoints
)

var errorMessages = map[Error]string{
	ErrorNoFuturePosition:      "cell has no future position, but is not marked as dead or shed",
	ErrorTooManyDaughterCells:  "cell has more than two daughters",
	ErrorNoPastPosition:        "cell appeared out of nowhere",
	ErrorCellMerge:             "two cells merged into one",
	ErrorPotentiallyNotAMother: "cell divides, but does not look like a mother",
	ErrorShortCellCycle:        "cell cycle is unusually short",
	ErrorLinkNotForward:        "link does not go forward in time",
	ErrorSkippedTimePoints:     "link skips one or more time points",
}

// Message returns a human readable description of the error.
func (e Error) Message() string {
	if s, ok := errorMessages[e]; ok {
		return s
	}
	return "unknown error"
}

func (e Error) String() string { return e.Message() }

// ErrorForIssue maps a validation issue kind to the error marker it sets.
func ErrorForIssue(k links.IssueKind) Error {
	switch k {
	case links.IssueMultipleParents:
		return ErrorCellMerge
	case links.IssueTooManyDaughters:
		return ErrorTooManyDaughterCells
	case links.IssueBackwardLink:
		return ErrorLinkNotForward
	case links.IssueSkippedTimePoints:
		return ErrorSkippedTimePoints
	}
	return ErrorNone
}

func storedError(l *links.Links, p position.Position, key string) Error {
	v, ok := l.PositionData(p, key).AsInt()
	if !ok {
		return ErrorNone
	}
	return Error(v)
}

// GetErrorMarker returns the active error at p. Suppressed errors are not
// reported; ok is false when there is no active error.
func GetErrorMarker(l *links.Links, p position.Position) (e Error, ok bool) {
	e = storedError(l, p, KeyError)
	if e == ErrorNone || IsErrorSuppressed(l, p) {
		return ErrorNone, false
	}
	return e, true
}

// SetErrorMarker attaches an error to p, optionally already suppressed.
// ErrorNone removes the error and its suppression.
func SetErrorMarker(l *links.Links, p position.Position, e Error, suppressed bool) {
	if e == ErrorNone {
		setPositionData(l, p, KeyError, links.Absent)
		setPositionData(l, p, KeySuppressedError, links.Absent)
		return
	}
	setPositionData(l, p, KeyError, links.Int(int(e)))
	if suppressed {
		setPositionData(l, p, KeySuppressedError, links.Int(int(e)))
	} else {
		setPositionData(l, p, KeySuppressedError, links.Absent)
	}
}

// SuppressErrorMarker marks the current error at p as seen by the user.
// The same error found again by a later check stays suppressed.
func SuppressErrorMarker(l *links.Links, p position.Position) {
	if e := storedError(l, p, KeyError); e != ErrorNone {
		setPositionData(l, p, KeySuppressedError, links.Int(int(e)))
	}
}

// IsErrorSuppressed reports whether the error at p was suppressed.
func IsErrorSuppressed(l *links.Links, p position.Position) bool {
	e := storedError(l, p, KeyError)
	return e != ErrorNone && storedError(l, p, KeySuppressedError) == e
}

// GetWarningMarker returns the free-text warning at p.
func GetWarningMarker(l *links.Links, p position.Position) (string, bool) {
	return l.PositionData(p, KeyWarning).AsString()
}

// SetWarningMarker attaches a warning to p. An empty text removes it.
func SetWarningMarker(l *links.Links, p position.Position, text string) {
	if text == "" {
		setPositionData(l, p, KeyWarning, links.Absent)
		return
	}
	setPositionData(l, p, KeyWarning, links.String(text))
}

// DismissIssue handles one flagged position: its error is suppressed and
// its warning removed.
func DismissIssue(l *links.Links, p position.Position) {
	SuppressErrorMarker(l, p)
	SetWarningMarker(l, p, "")
}

// FindErroredPositions returns every position with an active error.
func FindErroredPositions(l *links.Links) []position.Position {
	return slices.DeleteFunc(l.FindAllPositionsWithData(KeyError), func(p position.Position) bool {
		_, ok := GetErrorMarker(l, p)
		return !ok
	})
}

// FindWarnedPositions returns every position with a warning.
func FindWarnedPositions(l *links.Links) []position.Position {
	return l.FindAllPositionsWithData(KeyWarning)
}

// ApplyValidation writes the given validation issues as error markers.
// A position whose error was suppressed keeps the suppression if the same
// error is found again. When one position has several issues, the last one
// wins. It returns the number of error markers written.
func ApplyValidation(l *links.Links, issues []links.Issue) int {
	flagged := 0
	for _, is := range issues {
		e := ErrorForIssue(is.Kind)
		if e == ErrorNone {
			continue
		}
		if storedError(l, is.Position, KeyError) == e {
			continue
		}
		SetErrorMarker(l, is.Position, e, false)
		flagged++
	}
	return flagged
}

// ====================================================================================
// Lineage colors
// ====================================================================================

// GetLineageColor returns the color of the lineage containing track, black
// if none was assigned.
func GetLineageColor(l *links.Links, track *links.LinkingTrack) color.Color {
	v, ok := l.LineageData(track, KeyLineageColor).AsInt()
	if !ok {
		return color.Black
	}
	return color.FromInt(v)
}

// SetLineageColor assigns a color to the lineage containing track. Black
// removes the color.
func SetLineageColor(l *links.Links, track *links.LinkingTrack, c color.Color) {
	if c.IsBlack() {
		setLineageData(l, track, KeyLineageColor, links.Absent)
		return
	}
	setLineageData(l, track, KeyLineageColor, links.Int(c.Int()))
}

// Marker keys are never reserved, so storing them cannot fail.
func setPositionData(l *links.Links, p position.Position, key string, v links.Value) {
	_ = l.SetPositionData(p, key, v)
}

func setLineageData(l *links.Links, track *links.LinkingTrack, key string, v links.Value) {
	_ = l.SetLineageData(track, key, v)
}
