// Package config loads celltrack settings from a TOML file.
//
// Every field is optional. Analysis and resolution values override what a
// data file stores, but only when set:
//
//	[analysis]
//	division_lookahead_time_points = 80
//	min_spur_length = 4
//	edge_margin = 10
//
//	[resolution]
//	x_um = 0.32
//	y_um = 0.32
//	z_um = 2.0
//	t_m = 12.0
//
//	[cache]
//	redis_url = "redis://localhost:6379/0"
//
//	[store]
//	backend = "mongo"
//	mongo_uri = "mongodb://localhost:27017"
//
//	[server]
//	addr = ":8080"
package config

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/celltrack/pkg/core/experiment"
	"github.com/matzehuels/celltrack/pkg/errors"
	"github.com/matzehuels/celltrack/pkg/storage"
)

// AppName names the configuration, cache and data directories.
const AppName = "celltrack"

// DefaultAddr is the address of the query API server.
const DefaultAddr = "localhost:8080"

// Config is the content of a configuration file.
type Config struct {
	Analysis   Analysis       `toml:"analysis"`
	Resolution Resolution     `toml:"resolution"`
	Cache      Cache          `toml:"cache"`
	Store      storage.Config `toml:"store"`
	Server     Server         `toml:"server"`
}

// Analysis overrides the experiment settings. Zero means "keep".
type Analysis struct {
	DivisionLookahead int     `toml:"division_lookahead_time_points"`
	MinSpurLength     int     `toml:"min_spur_length"`
	EdgeMargin        float64 `toml:"edge_margin"`
	ImageWidth        float64 `toml:"image_width"`
	ImageHeight       float64 `toml:"image_height"`
}

// Resolution overrides the image resolution. Zero means "keep".
type Resolution struct {
	PixelSizeX        float64 `toml:"x_um"`
	PixelSizeY        float64 `toml:"y_um"`
	PixelSizeZ        float64 `toml:"z_um"`
	TimePointInterval float64 `toml:"t_m"`
}

// Cache selects the result cache. A Redis URL takes precedence over Dir.
type Cache struct {
	Dir      string `toml:"dir"`
	RedisURL string `toml:"redis_url"`
	Disabled bool   `toml:"disabled"`
}

// Server configures the query API.
type Server struct {
	Addr string `toml:"addr"`
}

// Default returns the configuration used without a file: a file cache and a
// bolt store in the XDG directories.
func Default() Config {
	var c Config
	c.Server.Addr = DefaultAddr
	c.Store.Backend = storage.BackendBolt
	if dir, err := CacheDir(); err == nil {
		c.Cache.Dir = dir
	}
	if dir, err := DataDir(); err == nil {
		c.Store.Path = filepath.Join(dir, "store.db")
	}
	return c
}

// Load reads the file at path on top of [Default]. Unknown keys are
// rejected, so typos do not go unnoticed.
func Load(path string) (Config, error) {
	c := Default()
	md, err := toml.DecodeFile(path, &c)
	if os.IsNotExist(err) {
		return Config{}, errors.New(errors.ErrCodeFileNotFound, "config file not found: %s", path)
	}
	if err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return Config{}, errors.New(errors.ErrCodeInvalidFormat, "%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// LoadDefault loads the file at [DefaultPath] if it exists, and returns
// [Default] otherwise.
func LoadDefault() (Config, error) {
	path, err := DefaultPath()
	if err != nil {
		return Default(), nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}
	return Load(path)
}

// Validate rejects negative values.
func (c Config) Validate() error {
	a, r := c.Analysis, c.Resolution
	for name, v := range map[string]float64{
		"analysis.division_lookahead_time_points": float64(a.DivisionLookahead),
		"analysis.min_spur_length":                float64(a.MinSpurLength),
		"analysis.edge_margin":                    a.EdgeMargin,
		"analysis.image_width":                    a.ImageWidth,
		"analysis.image_height":                   a.ImageHeight,
		"resolution.x_um":                         r.PixelSizeX,
		"resolution.y_um":                         r.PixelSizeY,
		"resolution.z_um":                         r.PixelSizeZ,
		"resolution.t_m":                          r.TimePointInterval,
	} {
		if v < 0 {
			return errors.New(errors.ErrCodeInvalidInput, "%s cannot be negative, got %g", name, v)
		}
	}
	return nil
}

// Apply writes the non-zero analysis and resolution values into exp.
func (c Config) Apply(exp *experiment.Experiment) {
	a := c.Analysis
	s := &exp.Settings
	setInt(&s.DivisionLookaheadTimePoints, a.DivisionLookahead)
	setInt(&s.MinSpurLength, a.MinSpurLength)
	setFloat(&s.EdgeMargin, a.EdgeMargin)
	setFloat(&s.ImageWidth, a.ImageWidth)
	setFloat(&s.ImageHeight, a.ImageHeight)

	r := c.Resolution
	res := &exp.Resolution
	setFloat(&res.PixelSizeX, r.PixelSizeX)
	setFloat(&res.PixelSizeY, r.PixelSizeY)
	setFloat(&res.PixelSizeZ, r.PixelSizeZ)
	setFloat(&res.TimePointInterval, r.TimePointInterval)
}

func setInt(dst *int, v int) {
	if v > 0 {
		*dst = v
	}
}

func setFloat(dst *float64, v float64) {
	if v > 0 {
		*dst = v
	}
}
