package bridge

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/wippyai/pybridge/dynlib"
)

// Environment variables read by Open.
const (
	EnvDebug   = "PYBRIDGE_DEBUG"
	EnvLibrary = "PYBRIDGE_LIBRARY"
	EnvPath    = "PYBRIDGE_PATH"
)

// Library is a loaded shared library. Bind resolves name and stores a
// callable into fptr, a pointer to a func variable whose type mirrors the C
// signature.
type Library interface {
	Bind(name string, fptr any) error
	Close() error
}

// Loader opens the library at path.
type Loader func(path string) (Library, error)

// LookupFunc reads a named environment value. It has the shape of os.LookupEnv.
type LookupFunc func(string) (string, bool)

// Config holds everything a session needs before it starts.
type Config struct {
	// Logger receives diagnostics. Nil falls back to a development logger
	// when Debug is set, and to the package Logger otherwise.
	Logger *zap.Logger

	// Loader opens LibraryPath. Nil uses dynlib.Open.
	Loader Loader

	// LibraryPath names the interpreter's shared library. Required.
	LibraryPath string

	// SearchPath entries are appended to sys.path after initialization.
	SearchPath []string

	// Debug enables the ownership ledger and reference count reporting.
	Debug bool
}

// Option adjusts a Config after it has been read from the environment.
type Option func(*Config)

// WithLogger sets the session logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// WithLoader replaces the shared library loader.
func WithLoader(l Loader) Option {
	return func(c *Config) { c.Loader = l }
}

// WithLibraryPath overrides PYBRIDGE_LIBRARY.
func WithLibraryPath(path string) Option {
	return func(c *Config) {
		if path != "" {
			c.LibraryPath = path
		}
	}
}

// WithSearchPath appends module search path entries.
func WithSearchPath(dirs ...string) Option {
	return func(c *Config) { c.SearchPath = append(c.SearchPath, dirs...) }
}

// WithDebug forces diagnostic mode on or off.
func WithDebug(on bool) Option {
	return func(c *Config) { c.Debug = on }
}

// ConfigFromEnv builds a Config from PYBRIDGE_DEBUG, PYBRIDGE_LIBRARY and
// PYBRIDGE_PATH. A nil lookup reads the process environment. A missing
// library path is left empty and reported by New.
func ConfigFromEnv(lookup LookupFunc) Config {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	var cfg Config
	if v, ok := lookup(EnvDebug); ok {
		cfg.Debug = enabled(v)
	}
	if v, ok := lookup(EnvLibrary); ok {
		cfg.LibraryPath = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvPath); ok && v != "" {
		for _, dir := range filepath.SplitList(v) {
			if dir != "" {
				cfg.SearchPath = append(cfg.SearchPath, dir)
			}
		}
	}
	return cfg
}

func enabled(v string) bool {
	v = strings.TrimSpace(v)
	switch strings.ToLower(v) {
	case "yes", "on", "y":
		return true
	}
	b, err := strconv.ParseBool(v)
	return err == nil && b
}

func (c *Config) loader() Loader {
	if c.Loader != nil {
		return c.Loader
	}
	return openShared
}

func openShared(path string) (Library, error) {
	lib, err := dynlib.Open(path)
	if err != nil {
		return nil, err
	}
	return lib, nil
}

func (c *Config) logger() *zap.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	if c.Debug {
		if l, err := zap.NewDevelopment(); err == nil {
			return l
		}
	}
	return Logger()
}
