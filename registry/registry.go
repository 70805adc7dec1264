package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/BaSui01/pluginfamily/discovery"
	"github.com/BaSui01/pluginfamily/plugin"
)

// index is an immutable, fully built code -> descriptor mapping.
type index[T plugin.Plugin] struct {
	order      []string
	byCode     map[string]Descriptor[T]
	generation string
	builtAt    time.Time
}

// Registry maps plugin codes to descriptors for one owner.
type Registry[T plugin.Plugin] struct {
	owner    string
	source   discovery.Source
	logger   *zap.Logger
	recorder Recorder
	tracer   trace.Tracer
	policy   ProbePolicy

	mu  sync.RWMutex
	idx *index[T]
	// epoch advances on every build start and on Reset. An index is only
	// installed if no later build or Reset happened while it was built.
	epoch uint64

	group singleflight.Group
}

// New creates an empty Registry for owner, the qualified location that
// discovery derives plugin unit names from.
func New[T plugin.Plugin](owner string, opts ...Option) *Registry[T] {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.recorder == nil {
		o.recorder = nopRecorder{}
	}

	var src discovery.Source
	switch len(o.sources) {
	case 0:
		src = discovery.NewStatic("empty")
	case 1:
		src = o.sources[0]
	default:
		src = discovery.Multi(o.sources...)
	}

	return &Registry[T]{
		owner:    owner,
		source:   src,
		logger:   o.logger.With(zap.String("component", "plugin_registry"), zap.String("owner", owner)),
		recorder: o.recorder,
		tracer:   o.tracer,
		policy:   o.policy,
	}
}

// Owner returns the registry's qualified location.
func (r *Registry[T]) Owner() string { return r.owner }

// Initialised reports whether an index is installed.
func (r *Registry[T]) Initialised() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.idx != nil
}

// Initialise discovers and registers plugins unless that already happened.
// Concurrent callers share a single pass, which is not cancelled when one
// caller gives up. A failed pass leaves the registry uninitialised so a later
// call retries.
func (r *Registry[T]) Initialise(ctx context.Context) error {
	if r.Initialised() {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	shared := context.WithoutCancel(ctx)
	ch := r.group.DoChan("initialise", func() (any, error) {
		if r.Initialised() {
			return nil, nil
		}
		return nil, r.rebuild(shared)
	})
	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Reload rebuilds the index from the current sources and swaps it in. On
// failure the previous index stays in place. A build overtaken by a later
// Reload, Initialise or Reset is discarded.
func (r *Registry[T]) Reload(ctx context.Context) error {
	return r.rebuild(ctx)
}

// Reset clears the index. The next Initialise runs discovery again, and any
// build still running is discarded.
func (r *Registry[T]) Reset() {
	r.mu.Lock()
	r.epoch++
	r.idx = nil
	r.mu.Unlock()
	r.recorder.IndexInstalled(r.owner, 0)
	r.logger.Debug("plugin registry reset")
}

func (r *Registry[T]) rebuild(ctx context.Context) error {
	r.mu.Lock()
	r.epoch++
	epoch := r.epoch
	r.mu.Unlock()

	idx, err := r.build(ctx)
	if err != nil {
		return err
	}
	if !r.install(idx, epoch) {
		r.logger.Debug("discarding superseded plugin index",
			zap.String("generation", idx.generation))
		return nil
	}
	r.logger.Info("plugin index installed",
		zap.String("generation", idx.generation),
		zap.Int("plugins", len(idx.order)))
	return nil
}

// Generation identifies the installed index build. It is empty before
// initialisation.
func (r *Registry[T]) Generation() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.idx == nil {
		return ""
	}
	return r.idx.generation
}

// BuiltAt returns when the installed index was built.
func (r *Registry[T]) BuiltAt() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.idx == nil {
		return time.Time{}
	}
	return r.idx.builtAt
}

// Len returns the number of registered plugins.
func (r *Registry[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.idx == nil {
		return 0
	}
	return len(r.idx.order)
}

// Codes returns the registered codes in registration order. The slice is a
// copy.
func (r *Registry[T]) Codes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.idx == nil {
		return []string{}
	}
	return append([]string{}, r.idx.order...)
}

// Plugins returns the registered descriptors in registration order. The
// slice is a copy.
func (r *Registry[T]) Plugins() []Descriptor[T] {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.idx == nil {
		return []Descriptor[T]{}
	}
	out := make([]Descriptor[T], 0, len(r.idx.order))
	for _, code := range r.idx.order {
		out = append(out, r.idx.byCode[code])
	}
	return out
}

// Lookup returns the descriptor registered under code.
func (r *Registry[T]) Lookup(code string) (Descriptor[T], bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.idx == nil {
		return Descriptor[T]{}, false
	}
	d, ok := r.idx.byCode[code]
	return d, ok
}

// Instantiate constructs a new instance of the plugin registered under code,
// forwarding args verbatim. ok is false when no such plugin exists; err is
// only set when the plugin's constructor fails.
func (r *Registry[T]) Instantiate(ctx context.Context, code string, args ...any) (p T, ok bool, err error) {
	_, span := r.tracer.Start(ctx, "plugin.instantiate", trace.WithAttributes(
		attribute.String("plugin.owner", r.owner),
		attribute.String("plugin.code", code),
	))
	defer span.End()

	d, found := r.Lookup(code)
	if !found {
		span.SetAttributes(attribute.Bool("plugin.found", false))
		r.recorder.Instantiated(r.owner, code, false, nil)
		return p, false, nil
	}

	p, err = d.New(args...)
	r.recorder.Instantiated(r.owner, code, true, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return p, true, err
	}
	return p, true, nil
}

// install swaps idx in unless the registry moved past epoch meanwhile.
func (r *Registry[T]) install(idx *index[T], epoch uint64) bool {
	r.mu.Lock()
	if r.epoch != epoch {
		r.mu.Unlock()
		return false
	}
	r.idx = idx
	r.mu.Unlock()
	r.recorder.IndexInstalled(r.owner, len(idx.order))
	return true
}

// build runs discovery followed by registration into a fresh index.
func (r *Registry[T]) build(ctx context.Context) (*index[T], error) {
	ctx, span := r.tracer.Start(ctx, "plugin.discover", trace.WithAttributes(
		attribute.String("plugin.owner", r.owner),
		attribute.String("plugin.source", r.source.Name()),
	))
	defer span.End()

	r.logger.Debug("scanning for plugins", zap.String("source", r.source.Name()))

	start := time.Now()
	cands, err := r.source.Discover(ctx, r.owner)
	if err != nil {
		err = fmt.Errorf("discover plugins for %s: %w", r.owner, err)
		r.recorder.DiscoveryCompleted(r.owner, time.Since(start), 0, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	idx, err := r.register(cands)
	r.recorder.DiscoveryCompleted(r.owner, time.Since(start), len(cands), err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("plugin.candidates", len(cands)),
		attribute.Int("plugin.registered", len(idx.order)),
		attribute.String("plugin.generation", idx.generation),
	)
	return idx, nil
}

// register validates every candidate and indexes the valid ones.
func (r *Registry[T]) register(cands []discovery.Candidate) (*index[T], error) {
	idx := &index[T]{
		byCode:     make(map[string]Descriptor[T], len(cands)),
		generation: uuid.NewString(),
		builtAt:    time.Now(),
	}

	for _, c := range cands {
		d, err := r.validate(c)
		switch {
		case err == nil:
		case errors.Is(err, plugin.ErrIncomplete):
			r.logger.Error("could not register plugin",
				zap.String("unit", c.Name),
				zap.Error(err))
			r.recorder.CandidateSkipped(r.owner, ReasonIncomplete)
			continue
		case r.policy == ProbeFail:
			return nil, err
		default:
			r.logger.Error("could not register plugin",
				zap.String("unit", c.Name),
				zap.Error(err))
			r.recorder.CandidateSkipped(r.owner, ReasonProbeFailed)
			continue
		}

		if prev, exists := idx.byCode[d.Code]; exists {
			r.logger.Warn("plugin code collision, last registered wins",
				zap.String("code", d.Code),
				zap.String("previous_unit", prev.Unit),
				zap.String("unit", d.Unit))
			r.recorder.CodeCollision(r.owner, d.Code)
		} else {
			idx.order = append(idx.order, d.Code)
		}
		idx.byCode[d.Code] = d

		r.logger.Info("registering plugin",
			zap.String("code", d.Code),
			zap.String("unit", d.Unit),
			zap.String("source", d.Source))
	}

	return idx, nil
}

// validate probes c with a zero-argument construction and derives its
// descriptor.
func (r *Registry[T]) validate(c discovery.Candidate) (Descriptor[T], error) {
	if c.New == nil {
		return Descriptor[T]{}, fmt.Errorf("%s has no constructor: %w", c.Name, plugin.ErrIncomplete)
	}
	d := Descriptor[T]{Unit: c.Name, Source: c.Source, ctor: c.New}

	probe, err := construct(c.New, nil)
	if err != nil {
		if errors.Is(err, plugin.ErrIncomplete) {
			return Descriptor[T]{}, fmt.Errorf("%s: %w", c.Name, err)
		}
		if c.CodeHint != "" && r.policy != ProbeFail {
			r.logger.Debug("probe failed, using declared code",
				zap.String("unit", c.Name),
				zap.String("code", c.CodeHint),
				zap.Error(err))
			d.Code = c.CodeHint
			d.Display = c.CodeHint
			return d, nil
		}
		return Descriptor[T]{}, fmt.Errorf("%w: %s: %v", ErrProbeFailed, c.Name, err)
	}

	p, ok := probe.(T)
	if !ok {
		return Descriptor[T]{}, fmt.Errorf("%s produced %T: %w", c.Name, probe, plugin.ErrIncomplete)
	}
	code, err := codeOf(p)
	if err != nil {
		return Descriptor[T]{}, fmt.Errorf("%s: %v: %w", c.Name, err, plugin.ErrIncomplete)
	}
	if code == "" {
		return Descriptor[T]{}, fmt.Errorf("%s has an empty code: %w", c.Name, plugin.ErrIncomplete)
	}
	if c.CodeHint != "" && c.CodeHint != code {
		r.logger.Warn("declared code differs from plugin code, using plugin code",
			zap.String("unit", c.Name),
			zap.String("declared", c.CodeHint),
			zap.String("code", code))
	}

	d.Code = code
	d.Display = displayOf(p)
	return d, nil
}

func displayOf[T plugin.Plugin](p T) (s string) {
	defer func() {
		if recover() != nil {
			s = ""
		}
	}()
	return plugin.Display(p)
}
