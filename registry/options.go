package registry

import (
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/BaSui01/pluginfamily/discovery"
)

// ProbePolicy decides what happens to a candidate whose zero-argument probe
// fails for a reason other than incompleteness.
type ProbePolicy string

const (
	// ProbeSkip registers the candidate under its declared code if it has
	// one and skips it otherwise.
	ProbeSkip ProbePolicy = "skip"
	// ProbeFail aborts the registration pass. The previous index is kept.
	ProbeFail ProbePolicy = "fail"
)

// ParseProbePolicy parses a policy name. The empty string means ProbeSkip.
func ParseProbePolicy(s string) (ProbePolicy, error) {
	switch ProbePolicy(s) {
	case "", ProbeSkip:
		return ProbeSkip, nil
	case ProbeFail:
		return ProbeFail, nil
	}
	return "", fmt.Errorf("unknown probe policy %q", s)
}

// Recorder receives registry events, typically to export metrics.
type Recorder interface {
	DiscoveryCompleted(owner string, duration time.Duration, candidates int, err error)
	CandidateSkipped(owner, reason string)
	CodeCollision(owner, code string)
	IndexInstalled(owner string, size int)
	Instantiated(owner, code string, found bool, err error)
}

type nopRecorder struct{}

func (nopRecorder) DiscoveryCompleted(string, time.Duration, int, error) {}
func (nopRecorder) CandidateSkipped(string, string)                      {}
func (nopRecorder) CodeCollision(string, string)                         {}
func (nopRecorder) IndexInstalled(string, int)                           {}
func (nopRecorder) Instantiated(string, string, bool, error)             {}

// Skip reasons reported to Recorder.CandidateSkipped.
const (
	ReasonIncomplete  = "incomplete"
	ReasonProbeFailed = "probe_failed"
)

type options struct {
	sources  []discovery.Source
	logger   *zap.Logger
	recorder Recorder
	tracer   trace.Tracer
	policy   ProbePolicy
}

// Option configures a Registry.
type Option func(*options)

// WithSources replaces the discovery sources. The default is
// discovery.DefaultCatalog.
func WithSources(sources ...discovery.Source) Option {
	return func(o *options) { o.sources = sources }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithRecorder sets the event recorder.
func WithRecorder(r Recorder) Option {
	return func(o *options) { o.recorder = r }
}

// WithTracer sets the tracer used for discovery and instantiation spans.
func WithTracer(t trace.Tracer) Option {
	return func(o *options) { o.tracer = t }
}

// WithProbePolicy sets the probe failure policy.
func WithProbePolicy(p ProbePolicy) Option {
	return func(o *options) { o.policy = p }
}

func defaultOptions() options {
	return options{
		sources:  []discovery.Source{discovery.DefaultCatalog},
		logger:   zap.NewNop(),
		recorder: nopRecorder{},
		tracer:   otel.Tracer("github.com/BaSui01/pluginfamily/registry"),
		policy:   ProbeSkip,
	}
}
