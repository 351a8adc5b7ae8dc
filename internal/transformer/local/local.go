// Package local implements the transformer Backend without any network
// access.
//
// It does not translate or paraphrase. It wraps the input, verbatim, between
// a fixed lead sentence and a fixed closing sentence written in the target
// language, so a letter can always be produced when the remote pipeline is
// missing or down.
package local

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/nadzzz/lekha/internal/config"
	"github.com/nadzzz/lekha/internal/message"
)

// defaultLeads open the expanded body, per language.
var defaultLeads = map[message.Language]string{
	message.LanguageEnglish: "I wish to bring the following matter to your kind attention.",
	message.LanguageTelugu:  "ఈ క్రింది విషయాన్ని మీ దృష్టికి తీసుకురావాలనుకుంటున్నాను.",
}

// defaultClosings end the expanded body, per language.
var defaultClosings = map[message.Language]string{
	message.LanguageEnglish: "I kindly request you to take the necessary action at the earliest.",
	message.LanguageTelugu:  "దయచేసి వీలైనంత త్వరగా తగిన చర్య తీసుకోవలసిందిగా కోరుతున్నాను.",
}

// Backend applies the fixed expansion.
type Backend struct {
	leads    map[message.Language]string
	closings map[message.Language]string
}

// New creates a local backend, merging configured sentences over the defaults.
func New(cfg config.LocalConfig) *Backend {
	return &Backend{
		leads:    merge(defaultLeads, cfg.Leads),
		closings: merge(defaultClosings, cfg.Closings),
	}
}

func merge(defaults map[message.Language]string, overrides map[string]string) map[message.Language]string {
	out := make(map[message.Language]string, len(defaults))
	for k, v := range defaults {
		out[k] = v
	}
	for k, v := range overrides {
		lang := message.Language(strings.ToLower(k))
		if lang.Valid() && strings.TrimSpace(v) != "" {
			out[lang] = strings.TrimSpace(v)
		}
	}
	return out
}

// Name returns the backend identifier.
func (b *Backend) Name() string { return "local" }

// Transform expands req.Text in the target language. It never fails.
func (b *Backend) Transform(_ context.Context, req message.TransformRequest) (string, error) {
	return b.Expand(req.Text, req.TargetLanguage), nil
}

// Expand wraps text in the lead and closing sentences for lang. The text
// appears unchanged and contiguous in the result, surrounding whitespace
// included. Unsupported languages use English.
func (b *Backend) Expand(text string, lang message.Language) string {
	if !lang.Valid() {
		lang = message.LanguageEnglish
	}
	lead, closing := b.leads[lang], b.closings[lang]

	if strings.TrimSpace(text) == "" {
		return lead + " " + closing
	}
	body := text
	if !endsSentence(body) {
		body += "."
	}
	return lead + " " + body + " " + closing
}

// Close is a no-op for the local backend.
func (b *Backend) Close() error { return nil }

// endsSentence reports whether s already ends in terminal punctuation,
// including the Devanagari danda that Telugu text sometimes borrows.
func endsSentence(s string) bool {
	r, _ := utf8.DecodeLastRuneInString(strings.TrimRightFunc(s, unicode.IsSpace))
	switch r {
	case '.', '!', '?', '।', '॥':
		return true
	}
	return false
}
