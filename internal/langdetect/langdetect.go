// Package langdetect classifies text by script family.
//
// Detection is a coarse rune-range test: a single Telugu rune anywhere in the
// input classifies the whole string as Telugu. No normalisation is applied.
package langdetect

import (
	"strings"

	"golang.org/x/text/language"

	"github.com/nadzzz/lekha/internal/message"
)

// Telugu Unicode block.
const (
	teluguFirst = '\u0C00'
	teluguLast  = '\u0C7F'
)

// Detect returns LanguageTelugu if text contains at least one rune in the
// Telugu block, and DefaultLanguage otherwise. It never fails, including on
// empty input.
func Detect(text string) message.Language {
	if strings.IndexFunc(text, isTelugu) >= 0 {
		return message.LanguageTelugu
	}
	return message.DefaultLanguage
}

func isTelugu(r rune) bool {
	return r >= teluguFirst && r <= teluguLast
}

// FromHint maps a BCP-47 speech hint such as "te-IN" or "EN" to a supported
// language. It reports false for malformed tags and unsupported languages.
func FromHint(hint string) (message.Language, bool) {
	hint = strings.TrimSpace(hint)
	if hint == "" {
		return "", false
	}
	tag, err := language.Parse(hint)
	if err != nil {
		return "", false
	}
	base, _ := tag.Base()
	lang := message.Language(base.String())
	if !lang.Valid() {
		return "", false
	}
	return lang, true
}

// Hint returns the canonical BCP-47 speech hint for lang, for clients that
// start a recognizer from a Language.
func Hint(lang message.Language) string {
	switch lang {
	case message.LanguageTelugu:
		return "te-IN"
	default:
		return "en-IN"
	}
}
