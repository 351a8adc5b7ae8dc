// Package dispatch implements the letter generation pipeline.
//
// The dispatcher receives a request from a transport or a session, detects
// the input language, then runs one transform and one composition per target
// language. Targets are rendered concurrently and independently: a slow or
// failed translation for one language never holds back the other.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nadzzz/lekha/internal/langdetect"
	"github.com/nadzzz/lekha/internal/message"
	"github.com/nadzzz/lekha/internal/metrics"
)

// ErrEmptyInput is returned when there is no text to build a letter from.
var ErrEmptyInput = errors.New("input text is empty")

// Transformer produces letter body text. Implementations never fail.
type Transformer interface {
	Transform(ctx context.Context, req message.TransformRequest) message.TransformResult
	RemoteConfigured() bool
}

// Composer renders letters.
type Composer interface {
	Compose(text string, category message.LetterCategory, lang message.Language, recipient *message.RecipientMetadata) message.ComposedLetter
	Categories() []string
	Languages() []string
}

// Options configures a Dispatcher.
type Options struct {
	// DefaultOutput applies when a request leaves Output empty.
	DefaultOutput message.OutputPreference

	Speech         bool
	SpeechLanguage string

	Metrics *metrics.Metrics
}

// Dispatcher is the generation pipeline.
type Dispatcher struct {
	transformer Transformer
	composer    Composer
	opts        Options
}

// New creates a new Dispatcher.
func New(t Transformer, c Composer, opts Options) *Dispatcher {
	if opts.DefaultOutput == "" {
		opts.DefaultOutput = message.OutputBoth
	}
	return &Dispatcher{transformer: t, composer: c, opts: opts}
}

// resolveMode picks the transform mode for one target. Expansion is honoured
// as asked; otherwise text already in the target language is left alone.
func resolveMode(requested message.TransformMode, source, target message.Language) message.TransformMode {
	if requested == message.ModeExpand {
		return message.ModeExpand
	}
	if source == target {
		return message.ModeIdentity
	}
	return message.ModeTranslate
}

// Generate builds one letter per requested language. Letters are ordered
// Telugu first. The only errors are ErrEmptyInput and cancellation of ctx.
func (d *Dispatcher) Generate(ctx context.Context, req *message.GenerateRequest) (*message.GenerateResult, error) {
	start := time.Now()

	if req == nil || strings.TrimSpace(req.Text) == "" {
		d.opts.Metrics.ObserveGenerate("rejected", time.Since(start))
		return nil, ErrEmptyInput
	}
	text := strings.TrimSpace(req.Text)

	output := req.Output
	if output == "" {
		output = d.opts.DefaultOutput
	}
	targets := output.Targets()
	source := langdetect.Detect(text)

	result := &message.GenerateResult{
		RequestID:        uuid.NewString(),
		DetectedLanguage: source,
		Letters:          make([]message.ComposedLetter, len(targets)),
	}
	logger := slog.With("request_id", result.RequestID)
	logger.Info("generation started",
		"detected_language", source,
		"targets", len(targets),
		"category", req.Category,
		"text_length", len(text))

	// Transform never fails, so each target runs to completion on its own.
	var wg sync.WaitGroup
	for i, target := range targets {
		wg.Go(func() {
			mode := resolveMode(req.Mode, source, target)
			res := d.transformer.Transform(ctx, message.TransformRequest{
				Text:           text,
				SourceLanguage: source,
				TargetLanguage: target,
				Mode:           mode,
			})

			letter := d.composer.Compose(res.Text, req.Category, target, req.Recipient)
			letter.TransformSource = res.Source
			letter.Degraded = res.Degraded
			result.Letters[i] = letter

			logger.Debug("letter composed",
				"language", target,
				"mode", mode,
				"transform_source", res.Source,
				"degraded", res.Degraded)
		})
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		d.opts.Metrics.ObserveGenerate("cancelled", time.Since(start))
		return nil, fmt.Errorf("generation %s: %w", result.RequestID, err)
	}

	outcome := "ok"
	for _, l := range result.Letters {
		if l.Degraded {
			outcome = "degraded"
			break
		}
	}
	d.opts.Metrics.ObserveGenerate(outcome, time.Since(start))
	logger.Info("generation complete", "outcome", outcome, "duration", time.Since(start))

	return result, nil
}

// Detect reports the language of text.
func (d *Dispatcher) Detect(text string) message.Language {
	return langdetect.Detect(text)
}

// Transform runs a single transform, for callers that only need the text.
func (d *Dispatcher) Transform(ctx context.Context, req message.TransformRequest) (message.TransformResult, error) {
	if strings.TrimSpace(req.Text) == "" {
		return message.TransformResult{}, ErrEmptyInput
	}
	return d.transformer.Transform(ctx, req), nil
}

// Capabilities describes this deployment.
func (d *Dispatcher) Capabilities() message.Capabilities {
	return message.Capabilities{
		Speech:            d.opts.Speech,
		SpeechLanguage:    d.opts.SpeechLanguage,
		RemoteTranslation: d.transformer.RemoteConfigured(),
		Languages:         d.composer.Languages(),
		Categories:        d.composer.Categories(),
	}
}
