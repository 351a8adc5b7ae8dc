// Package app assembles the letter pipeline from configuration, so the
// daemon and the Lambda entrypoint build it the same way.
package app

import (
	"fmt"
	"log/slog"

	"github.com/nadzzz/lekha/internal/composer"
	"github.com/nadzzz/lekha/internal/config"
	"github.com/nadzzz/lekha/internal/dispatch"
	"github.com/nadzzz/lekha/internal/message"
	"github.com/nadzzz/lekha/internal/metrics"
	"github.com/nadzzz/lekha/internal/transformer"
	"github.com/nadzzz/lekha/internal/transformer/bhashini"
	"github.com/nadzzz/lekha/internal/transformer/local"
)

// Pipeline is the assembled generation stack.
type Pipeline struct {
	Dispatcher  *dispatch.Dispatcher
	Transformer *transformer.Transformer
	Composer    *composer.Composer
}

// Close releases the transformer backends.
func (p *Pipeline) Close() error {
	return p.Transformer.Close()
}

// NewPipeline builds the transformer, composer and dispatcher from cfg.
// m may be nil.
func NewPipeline(cfg *config.Config, m *metrics.Metrics) (*Pipeline, error) {
	tables, err := composer.LoadTables(cfg.Letters.TemplatesFile)
	if err != nil {
		return nil, err
	}
	comp, err := composer.New(tables)
	if err != nil {
		return nil, fmt.Errorf("letter tables: %w", err)
	}

	opts := transformer.Options{
		Fallback:  local.New(cfg.Transform.Local),
		OnFailure: transformer.ParsePolicy(cfg.Transform.OnFailure),
		Timeout:   cfg.Transform.Timeout,
		Metrics:   m,
	}
	switch {
	case cfg.Transform.RemoteConfigured():
		opts.Remote = bhashini.New(cfg.Transform.Bhashini)
		slog.Info("using bhashini transformer",
			"endpoint", cfg.Transform.Bhashini.Endpoint,
			"timeout", cfg.Transform.Timeout,
			"on_failure", opts.OnFailure)
	case cfg.Transform.Backend == "bhashini":
		slog.Warn("bhashini api key not set, using local expansion only",
			"endpoint", cfg.Transform.Bhashini.Endpoint)
	default:
		slog.Info("using local transformer")
	}
	tr := transformer.New(opts)

	d := dispatch.New(tr, comp, dispatch.Options{
		DefaultOutput:  message.OutputPreference(cfg.Letters.DefaultOutput),
		Speech:         cfg.Speech.Enabled,
		SpeechLanguage: cfg.Speech.DefaultLanguage,
		Metrics:        m,
	})

	return &Pipeline{Dispatcher: d, Transformer: tr, Composer: comp}, nil
}
