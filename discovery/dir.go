package discovery

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	goplugin "plugin"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/pluginfamily/plugin"
)

// Exported symbol names looked up in a shared-object plugin unit.
const (
	SymbolNew  = "New"
	SymbolCode = "Code"
)

// SharedObjectExt is the file extension of loadable units.
const SharedObjectExt = ".so"

// ErrStaleUnit is reported for a shared object rewritten after it was
// loaded. The previously loaded code keeps being served.
var ErrStaleUnit = errors.New("shared object changed after it was loaded, ship it under a new file name")

// Lookuper resolves exported symbols of an opened unit. *plugin.Plugin from
// the standard library satisfies it.
type Lookuper interface {
	Lookup(symName string) (goplugin.Symbol, error)
}

// Opener opens the unit stored at path.
type Opener func(path string) (Lookuper, error)

func openSharedObject(path string) (Lookuper, error) {
	return goplugin.Open(path)
}

// DirSource loads candidates from Go shared objects in a directory. Every
// *.so file is one unit named after the file.
//
// The Go runtime opens a given path at most once per process and never
// unloads it, so rewriting a .so in place keeps serving the code loaded
// first. Ship a new version under a new file name and remove the old file.
// A rewritten file is reported through LoadErrors as ErrStaleUnit.
type DirSource struct {
	dir    string
	open   Opener
	logger *zap.Logger

	mu       sync.Mutex
	loadErrs []error
	// modified records each unit's modification time when first loaded.
	modified map[string]time.Time
}

// DirOption configures a DirSource.
type DirOption func(*DirSource)

// WithOpener replaces the shared-object opener.
func WithOpener(open Opener) DirOption {
	return func(s *DirSource) { s.open = open }
}

// WithDirLogger sets the logger.
func WithDirLogger(logger *zap.Logger) DirOption {
	return func(s *DirSource) { s.logger = logger }
}

// NewDirSource creates a DirSource for dir.
func NewDirSource(dir string, opts ...DirOption) *DirSource {
	s := &DirSource{
		dir:    dir,
		open:     openSharedObject,
		logger:   zap.NewNop(),
		modified: make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(zap.String("component", "plugin_dir_source"), zap.String("dir", dir))
	return s
}

// Name implements Source.
func (s *DirSource) Name() string { return "dir:" + s.dir }

// Dir returns the scanned directory.
func (s *DirSource) Dir() string { return s.dir }

// LoadErrors returns the per-unit failures of the last Discover call.
func (s *DirSource) LoadErrors() []error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]error(nil), s.loadErrs...)
}

// Discover implements Source. A unit that fails to load is logged and
// skipped; the other units are still returned.
func (s *DirSource) Discover(ctx context.Context, owner string) ([]Candidate, error) {
	s.logger.Debug("scanning for plugins")

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.Debug("plugin directory does not exist")
			s.setLoadErrors(nil)
			return nil, nil
		}
		return nil, fmt.Errorf("read plugin directory %s: %w", s.dir, err)
	}

	var (
		out      []Candidate
		loadErrs []error
	)
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.IsDir() || filepath.Ext(entry.Name()) != SharedObjectExt {
			continue
		}
		unit := strings.TrimSuffix(entry.Name(), SharedObjectExt)
		if IsOrganizational(unit) {
			continue
		}

		path := filepath.Join(s.dir, entry.Name())
		name := QualifiedName(owner, unit)
		s.logger.Debug("importing plugin", zap.String("unit", name))

		c, err := s.load(path)
		if err != nil {
			lerr := &LoadError{Unit: name, Path: path, Err: err}
			s.logger.Warn("plugin unit failed to load", zap.String("unit", name), zap.Error(err))
			loadErrs = append(loadErrs, lerr)
			continue
		}
		c.Unit = unit
		c.Name = name
		c.Source = s.Name()
		out = append(out, c)

		if s.rewritten(path, entry) {
			s.logger.Warn("plugin unit was rewritten in place, still serving the version loaded first",
				zap.String("unit", name))
			loadErrs = append(loadErrs, &LoadError{Unit: name, Path: path, Err: ErrStaleUnit})
		}
	}

	s.setLoadErrors(loadErrs)
	return out, nil
}

func (s *DirSource) setLoadErrors(errs []error) {
	s.mu.Lock()
	s.loadErrs = errs
	s.mu.Unlock()
}

// rewritten reports whether path changed since the first time it was loaded.
func (s *DirSource) rewritten(path string, entry fs.DirEntry) bool {
	info, err := entry.Info()
	if err != nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	first, seen := s.modified[path]
	if !seen {
		s.modified[path] = info.ModTime()
		return false
	}
	return !info.ModTime().Equal(first)
}

func (s *DirSource) load(path string) (c Candidate, err error) {
	// A broken unit may panic while its package initializers run.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while opening: %v", r)
		}
	}()

	lib, err := s.open(path)
	if err != nil {
		return Candidate{}, err
	}

	sym, err := lib.Lookup(SymbolNew)
	if err != nil {
		return Candidate{}, err
	}
	ctor, err := constructorOf(sym)
	if err != nil {
		return Candidate{}, err
	}
	c.New = ctor

	if sym, err := lib.Lookup(SymbolCode); err == nil {
		c.CodeHint = codeOf(sym)
	}
	return c, nil
}

func constructorOf(sym goplugin.Symbol) (plugin.Constructor, error) {
	switch fn := sym.(type) {
	case func(...any) (any, error):
		return fn, nil
	case *func(...any) (any, error):
		return *fn, nil
	case plugin.Constructor:
		return fn, nil
	case *plugin.Constructor:
		return *fn, nil
	case func() any:
		return plugin.Func(fn), nil
	case *func() any:
		return plugin.Func(*fn), nil
	}
	return nil, fmt.Errorf("symbol %s has unsupported type %T", SymbolNew, sym)
}

func codeOf(sym goplugin.Symbol) string {
	switch v := sym.(type) {
	case *string:
		return *v
	case func() string:
		return v()
	case *func() string:
		return (*v)()
	}
	return ""
}
