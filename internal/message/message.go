// Package message defines the core data types flowing through the lekha pipeline.
//
// Every value here is request-scoped: it is created for one generation,
// handed down the detector → transformer → composer chain, and discarded.
package message

import "strings"

// Language identifies one of the two supported script families.
type Language string

const (
	// LanguageTelugu is text written in the Telugu script.
	LanguageTelugu Language = "te"

	// LanguageEnglish is text written in the Latin script.
	LanguageEnglish Language = "en"
)

// DefaultLanguage is what detection reports for input with no Telugu runes,
// including the empty string.
const DefaultLanguage = LanguageEnglish

// Valid reports whether l is one of the supported languages.
func (l Language) Valid() bool {
	return l == LanguageTelugu || l == LanguageEnglish
}

// TransformMode selects what the transformer does with the text.
type TransformMode string

const (
	// ModeIdentity returns the text unchanged without any network call.
	ModeIdentity TransformMode = "identity"

	// ModeTranslate translates the text into the target language.
	ModeTranslate TransformMode = "translate"

	// ModeExpand expands the text into fuller sentences in the target language.
	ModeExpand TransformMode = "expand"
)

// TransformRequest is a single call into the transformer.
type TransformRequest struct {
	Text           string        `json:"text" validate:"required"`
	SourceLanguage Language      `json:"source_language,omitempty" validate:"omitempty,oneof=te en"`
	TargetLanguage Language      `json:"target_language" validate:"required,oneof=te en"`
	Mode           TransformMode `json:"mode,omitempty" validate:"omitempty,oneof=identity translate expand"`
}

// TransformSource records which path produced a TransformResult.
type TransformSource string

const (
	SourceIdentity    TransformSource = "identity"
	SourceRemote      TransformSource = "remote"
	SourceFallback    TransformSource = "fallback"
	SourcePassthrough TransformSource = "passthrough"
)

// TransformResult is the fully materialised output of the transformer.
type TransformResult struct {
	Text   string          `json:"text"`
	Source TransformSource `json:"source"`

	// Degraded is set when the remote service was configured but failed and
	// the text was recovered locally.
	Degraded       bool   `json:"degraded,omitempty"`
	DegradedReason string `json:"degraded_reason,omitempty"`
}

// LetterCategory selects the subject line. Unknown values are allowed and
// render with the generic subject.
type LetterCategory string

const (
	CategoryComplaint   LetterCategory = "complaint"
	CategoryApplication LetterCategory = "application"
	CategoryReport      LetterCategory = "report"
	CategoryRequest     LetterCategory = "request"
)

// HonorificMode selects the suffix appended to a recipient's name.
type HonorificMode string

const (
	HonorificGaru HonorificMode = "garu"
	HonorificSir  HonorificMode = "sir"
	HonorificNone HonorificMode = "none"
)

// RecipientMetadata is optional addressing information for a letter.
type RecipientMetadata struct {
	Name      string        `json:"name,omitempty" validate:"omitempty,max=200"`
	Honorific HonorificMode `json:"honorific,omitempty"`
	Location  string        `json:"location,omitempty" validate:"omitempty,max=200"`
}

// OutputPreference controls which letters a generation produces.
type OutputPreference string

const (
	OutputTelugu  OutputPreference = "te"
	OutputEnglish OutputPreference = "en"
	OutputBoth    OutputPreference = "both"
)

// Targets returns the languages to render, Telugu first.
// An unrecognised preference renders both.
func (o OutputPreference) Targets() []Language {
	switch OutputPreference(strings.ToLower(string(o))) {
	case OutputTelugu:
		return []Language{LanguageTelugu}
	case OutputEnglish:
		return []Language{LanguageEnglish}
	default:
		return []Language{LanguageTelugu, LanguageEnglish}
	}
}

// GenerateRequest asks for one letter per target language.
type GenerateRequest struct {
	// Text is the raw utterance. Session generations may leave it empty to
	// use the session's current transcript.
	Text      string             `json:"text"`
	Output    OutputPreference   `json:"output,omitempty" validate:"omitempty,oneof=te en both"`
	Category  LetterCategory     `json:"category,omitempty" validate:"omitempty,max=64"`
	Mode      TransformMode      `json:"mode,omitempty" validate:"omitempty,oneof=translate expand"`
	Recipient *RecipientMetadata `json:"recipient,omitempty"`
}

// ComposedLetter is the final rendering for one language.
type ComposedLetter struct {
	Language        Language        `json:"language"`
	Category        LetterCategory  `json:"category,omitempty"`
	Subject         string          `json:"subject"`
	Text            string          `json:"text"`
	TransformSource TransformSource `json:"transform_source,omitempty"`
	Degraded        bool            `json:"degraded,omitempty"`
}

// GenerateResult is the outcome of one generation.
type GenerateResult struct {
	RequestID        string           `json:"request_id"`
	DetectedLanguage Language         `json:"detected_language"`
	Letters          []ComposedLetter `json:"letters"`
}

// Letter returns the letter rendered for lang, if any.
func (r *GenerateResult) Letter(lang Language) (ComposedLetter, bool) {
	if r == nil {
		return ComposedLetter{}, false
	}
	for _, l := range r.Letters {
		if l.Language == lang {
			return l, true
		}
	}
	return ComposedLetter{}, false
}

// Capabilities describes what this deployment can do, so a client can
// disable controls up front instead of failing later.
type Capabilities struct {
	Speech            bool     `json:"speech"`
	SpeechLanguage    string   `json:"speech_language,omitempty"`
	RemoteTranslation bool     `json:"remote_translation"`
	Languages         []string `json:"languages"`
	Categories        []string `json:"categories"`
}
