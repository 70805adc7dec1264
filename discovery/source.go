package discovery

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Static is a fixed list of candidates keyed by unit name.
type Static struct {
	name  string
	units []staticUnit
}

type staticUnit struct {
	unit string
	c    Candidate
}

// NewStatic creates an empty Static source.
func NewStatic(name string) *Static {
	if name == "" {
		name = "static"
	}
	return &Static{name: name}
}

// Add appends a candidate. Unit, Name and Source are filled in at discovery.
func (s *Static) Add(unit string, c Candidate) *Static {
	s.units = append(s.units, staticUnit{unit: unit, c: c})
	return s
}

// Name implements Source.
func (s *Static) Name() string { return s.name }

// Discover implements Source.
func (s *Static) Discover(ctx context.Context, owner string) ([]Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]Candidate, 0, len(s.units))
	for _, u := range s.units {
		if IsOrganizational(u.unit) {
			continue
		}
		c := u.c
		c.Unit = u.unit
		c.Name = QualifiedName(owner, u.unit)
		c.Source = s.name
		out = append(out, c)
	}
	return out, nil
}

type multiSource struct {
	sources []Source
}

// Multi runs every source concurrently and concatenates their candidates in
// argument order. Any source error fails the whole discovery.
func Multi(sources ...Source) Source {
	return &multiSource{sources: sources}
}

func (m *multiSource) Name() string {
	names := make([]string, 0, len(m.sources))
	for _, s := range m.sources {
		names = append(names, s.Name())
	}
	return "multi(" + strings.Join(names, ",") + ")"
}

func (m *multiSource) Discover(ctx context.Context, owner string) ([]Candidate, error) {
	results := make([][]Candidate, len(m.sources))

	g, gctx := errgroup.WithContext(ctx)
	for i, src := range m.sources {
		g.Go(func() error {
			cands, err := src.Discover(gctx, owner)
			if err != nil {
				return err
			}
			results[i] = cands
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []Candidate
	for _, r := range results {
		out = append(out, r...)
	}
	return out, nil
}
