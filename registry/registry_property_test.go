package registry

import (
	"context"
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/BaSui01/pluginfamily/discovery"
	"github.com/BaSui01/pluginfamily/plugin"
)

// labelled is a Shape whose code is chosen at construction and which keeps
// the arguments it was built with.
type labelled struct {
	code string
	args []any
}

func (l *labelled) Code() string  { return l.code }
func (l *labelled) Area() float64 { return float64(len(l.args)) }

func labelledCtor(code string) plugin.Constructor {
	return func(args ...any) (any, error) {
		return &labelled{code: code, args: args}, nil
	}
}

func staticOf(codes []string, incomplete []bool) *discovery.Static {
	src := discovery.NewStatic("generated")
	for i, code := range codes {
		unit := fmt.Sprintf("unit_%d", i)
		if incomplete[i] {
			src.Add(unit, discovery.Candidate{New: func(...any) (any, error) { return noArea{}, nil }})
			continue
		}
		src.Add(unit, discovery.Candidate{New: labelledCtor(code)})
	}
	return src
}

func genCodes() *rapid.Generator[[]string] {
	return rapid.SliceOfN(rapid.StringMatching(`[a-z][a-z_]{0,8}`), 0, 12)
}

func TestProperty_CompletenessFiltering(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		codes := genCodes().Draw(rt, "codes")
		incomplete := rapid.SliceOfN(rapid.Bool(), len(codes), len(codes)).Draw(rt, "incomplete")

		r := New[Shape](testOwner, WithSources(staticOf(codes, incomplete)))
		require.NoError(rt, r.Initialise(context.Background()))

		want := map[string]bool{}
		for i, code := range codes {
			if !incomplete[i] {
				want[code] = true
			}
		}

		got := r.Codes()
		assert.Len(rt, got, len(want))
		for _, code := range got {
			assert.True(rt, want[code], "unexpected code %q", code)
		}
	})
}

func TestProperty_RoundTripLookup(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		codes := genCodes().Draw(rt, "codes")
		r := New[Shape](testOwner, WithSources(staticOf(codes, make([]bool, len(codes)))))
		ctx := context.Background()
		require.NoError(rt, r.Initialise(ctx))

		for _, code := range r.Codes() {
			s, ok, err := r.Instantiate(ctx, code)
			require.NoError(rt, err)
			require.True(rt, ok)
			assert.Equal(rt, code, s.Code())
		}
	})
}

func TestProperty_ArgumentForwarding(t *testing.T) {
	r := New[Shape](testOwner, WithSources(
		discovery.NewStatic("one").Add("labelled", discovery.Candidate{New: labelledCtor("labelled")}),
	))
	ctx := context.Background()
	require.NoError(t, r.Initialise(ctx))

	rapid.Check(t, func(rt *rapid.T) {
		ints := rapid.SliceOf(rapid.Int()).Draw(rt, "ints")
		key := rapid.StringMatching(`[a-z]{1,6}`).Draw(rt, "key")
		args := make([]any, 0, len(ints)+1)
		for _, i := range ints {
			args = append(args, i)
		}
		args = append(args, plugin.Kwargs{key: len(ints)})

		s, ok, err := r.Instantiate(ctx, "labelled", args...)
		require.NoError(rt, err)
		require.True(rt, ok)
		assert.Equal(rt, args, s.(*labelled).args)

		// The registry keeps no arguments from earlier calls.
		bare, ok, err := r.Instantiate(ctx, "labelled")
		require.NoError(rt, err)
		require.True(rt, ok)
		assert.Empty(rt, bare.(*labelled).args)
	})
}

func TestProperty_IdempotentInitialisation(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50

	properties := gopter.NewProperties(parameters)

	properties.Property("repeated initialise keeps the first index", prop.ForAll(
		func(codes []string, repeats int) bool {
			src := &countingSource{inner: staticOf(codes, make([]bool, len(codes)))}
			r := New[Shape](testOwner, WithSources(src))
			ctx := context.Background()

			if err := r.Initialise(ctx); err != nil {
				return false
			}
			first := r.Codes()
			gen := r.Generation()

			for range repeats {
				if err := r.Initialise(ctx); err != nil {
					return false
				}
			}
			return src.calls.Load() == 1 &&
				assert.ObjectsAreEqual(first, r.Codes()) &&
				gen == r.Generation()
		},
		gen.SliceOf(gen.Identifier()),
		gen.IntRange(1, 10),
	))

	properties.TestingRun(t)
}

func TestProperty_UnknownCodeIsAbsent(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("codes outside the index are reported absent", prop.ForAll(
		func(codes []string, probe string) bool {
			r := New[Shape](testOwner, WithSources(staticOf(codes, make([]bool, len(codes)))))
			ctx := context.Background()
			if err := r.Initialise(ctx); err != nil {
				return false
			}
			for _, c := range codes {
				if c == probe {
					return true
				}
			}
			s, ok, err := r.Instantiate(ctx, probe)
			return !ok && err == nil && s == nil
		},
		gen.SliceOf(gen.Identifier()),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}
