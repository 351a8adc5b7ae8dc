// Package transformer turns raw utterances into letter body text.
//
// A Transformer fronts an optional remote Backend (the Bhashini pipeline) and
// a local Backend that applies a fixed, deterministic expansion. Remote
// failures are explicit *TransformError values inside this package; callers
// of Transformer.Transform only ever see a TransformResult, because
// translation is best-effort and must never block letter composition.
package transformer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/nadzzz/lekha/internal/langdetect"
	"github.com/nadzzz/lekha/internal/message"
	"github.com/nadzzz/lekha/internal/metrics"
)

// Backend is a single text transformation engine.
type Backend interface {
	// Name returns the backend identifier (e.g., "bhashini", "local").
	Name() string

	// Transform returns the transformed text or a *TransformError.
	Transform(ctx context.Context, req message.TransformRequest) (string, error)

	// Close releases any resources held by the backend.
	Close() error
}

// ErrorKind classifies a remote failure.
type ErrorKind string

const (
	KindNetwork ErrorKind = "network"
	KindTimeout ErrorKind = "timeout"
	KindStatus  ErrorKind = "status"
	KindDecode  ErrorKind = "decode"
	KindEmpty   ErrorKind = "empty"
)

// TransformError is a failed backend call.
type TransformError struct {
	Backend    string
	Kind       ErrorKind
	StatusCode int
	Err        error
}

func (e *TransformError) Error() string {
	msg := fmt.Sprintf("%s transform failed (%s", e.Backend, e.Kind)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(", status %d", e.StatusCode)
	}
	msg += ")"
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *TransformError) Unwrap() error { return e.Err }

// KindOf classifies err. Errors that are not a *TransformError are treated as
// timeouts when a deadline expired and as network failures otherwise.
func KindOf(err error) ErrorKind {
	var te *TransformError
	if errors.As(err, &te) {
		return te.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return KindTimeout
	}
	return KindNetwork
}

// Policy decides how a remote failure is recovered.
type Policy string

const (
	// PolicyPassthrough returns the original input unchanged. Expand requests
	// still use the local expansion.
	PolicyPassthrough Policy = "passthrough"

	// PolicyFallback applies the local deterministic expansion.
	PolicyFallback Policy = "fallback"
)

// ParsePolicy maps a config value to a Policy, defaulting to passthrough.
func ParsePolicy(s string) Policy {
	if Policy(s) == PolicyFallback {
		return PolicyFallback
	}
	return PolicyPassthrough
}

// Options configures a Transformer.
type Options struct {
	// Remote is the remote backend. Nil means no remote service is configured
	// and every non-identity request goes to Fallback.
	Remote Backend

	// Fallback is the local deterministic backend. Required.
	Fallback Backend

	OnFailure Policy

	// Timeout bounds each remote call. Zero means no extra bound beyond ctx.
	Timeout time.Duration

	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

// Transformer routes requests to the remote or local backend and absorbs
// remote failures.
type Transformer struct {
	remote    Backend
	fallback  Backend
	onFailure Policy
	timeout   time.Duration
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// New creates a Transformer.
func New(opts Options) *Transformer {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	policy := opts.OnFailure
	if policy != PolicyFallback {
		policy = PolicyPassthrough
	}
	return &Transformer{
		remote:    opts.Remote,
		fallback:  opts.Fallback,
		onFailure: policy,
		timeout:   opts.Timeout,
		metrics:   opts.Metrics,
		logger:    logger.With("component", "transformer"),
	}
}

// RemoteConfigured reports whether a remote backend is in use.
func (t *Transformer) RemoteConfigured() bool { return t.remote != nil }

// Transform runs req through the configured backends. It never fails: every
// error path recovers to a result and marks it Degraded when a configured
// remote service did not answer.
func (t *Transformer) Transform(ctx context.Context, req message.TransformRequest) message.TransformResult {
	if req.Mode == "" {
		req.Mode = message.ModeTranslate
	}
	if req.SourceLanguage == "" {
		req.SourceLanguage = langdetect.Detect(req.Text)
	}
	if !req.TargetLanguage.Valid() {
		req.TargetLanguage = message.DefaultLanguage
	}

	if req.Mode == message.ModeIdentity {
		t.metrics.ObserveTransform("none", string(message.SourceIdentity))
		return message.TransformResult{Text: req.Text, Source: message.SourceIdentity}
	}

	if t.remote == nil {
		return t.local(ctx, req)
	}

	callCtx := ctx
	if t.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	start := time.Now()
	out, err := t.remote.Transform(callCtx, req)
	if err == nil {
		t.metrics.ObserveTransform(t.remote.Name(), string(message.SourceRemote))
		t.logger.Debug("remote transform complete",
			"backend", t.remote.Name(),
			"mode", req.Mode,
			"source", req.SourceLanguage,
			"target", req.TargetLanguage,
			"duration", time.Since(start))
		return message.TransformResult{Text: out, Source: message.SourceRemote}
	}

	kind := KindOf(err)
	t.metrics.ObserveTransformFailure(string(kind))
	t.logger.Warn("remote transform failed, recovering locally",
		"backend", t.remote.Name(),
		"kind", kind,
		"policy", t.onFailure,
		"target", req.TargetLanguage,
		"error", err)

	// An expanded result always wraps the input, whatever the policy.
	var res message.TransformResult
	if t.onFailure == PolicyFallback || req.Mode == message.ModeExpand {
		res = t.local(ctx, req)
	} else {
		res = t.passthrough(req)
	}
	res.Degraded = true
	res.DegradedReason = string(kind)
	return res
}

func (t *Transformer) local(ctx context.Context, req message.TransformRequest) message.TransformResult {
	out, err := t.fallback.Transform(ctx, req)
	if err != nil {
		t.logger.Warn("local transform failed, passing input through", "error", err)
		return t.passthrough(req)
	}
	t.metrics.ObserveTransform(t.fallback.Name(), string(message.SourceFallback))
	return message.TransformResult{Text: out, Source: message.SourceFallback}
}

func (t *Transformer) passthrough(req message.TransformRequest) message.TransformResult {
	t.metrics.ObserveTransform("none", string(message.SourcePassthrough))
	return message.TransformResult{Text: req.Text, Source: message.SourcePassthrough}
}

// Close releases both backends.
func (t *Transformer) Close() error {
	var errs []error
	if t.remote != nil {
		errs = append(errs, t.remote.Close())
	}
	if t.fallback != nil {
		errs = append(errs, t.fallback.Close())
	}
	return errors.Join(errs...)
}
