// Package composer renders the final letter text for each language.
//
// Subjects, honorific suffixes and the letter layout are data, not code: they
// come from an embedded YAML table (templates.yaml) that a deployment can
// replace with its own file. Adding a category or changing wording needs no
// code change.
package composer

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"

	"github.com/nadzzz/lekha/internal/message"
)

//go:embed templates.yaml
var defaultTables []byte

// Tables is the on-disk shape of the letter tables.
type Tables struct {
	Languages map[string]LanguageTable `yaml:"languages"`
}

// LanguageTable holds everything needed to render one language.
type LanguageTable struct {
	DefaultSubject string            `yaml:"default_subject"`
	Subjects       map[string]string `yaml:"subjects"`
	Honorifics     map[string]string `yaml:"honorifics"`
	Letter         string            `yaml:"letter"`
}

// DefaultTables returns the built-in tables.
func DefaultTables() (Tables, error) {
	return ParseTables(defaultTables)
}

// ParseTables decodes a YAML table document.
func ParseTables(data []byte) (Tables, error) {
	var t Tables
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Tables{}, fmt.Errorf("parsing letter tables: %w", err)
	}
	return t, nil
}

// LoadTables reads tables from path, or returns the built-in tables when path
// is empty.
func LoadTables(path string) (Tables, error) {
	if path == "" {
		return DefaultTables()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Tables{}, fmt.Errorf("reading letter tables: %w", err)
	}
	return ParseTables(data)
}

type letterData struct {
	Recipient string
	Location  string
	Subject   string
	Body      string
}

type language struct {
	defaultSubject string
	subjects       map[string]string
	honorifics     map[string]string
	letter         *template.Template
}

// Composer renders letters from validated tables. It is safe for concurrent use.
type Composer struct {
	langs map[message.Language]*language
}

// New validates t and prepares its templates. An English table is required
// because it is the fallback for unknown languages.
func New(t Tables) (*Composer, error) {
	c := &Composer{langs: make(map[message.Language]*language, len(t.Languages))}

	for code, lt := range t.Languages {
		lang := message.Language(strings.ToLower(code))
		if !lang.Valid() {
			return nil, fmt.Errorf("letter tables: unsupported language %q", code)
		}
		if strings.TrimSpace(lt.DefaultSubject) == "" {
			return nil, fmt.Errorf("letter tables: %s: default_subject is required", lang)
		}
		if strings.TrimSpace(lt.Letter) == "" {
			return nil, fmt.Errorf("letter tables: %s: letter template is required", lang)
		}
		tmpl, err := template.New(string(lang)).Option("missingkey=error").Parse(lt.Letter)
		if err != nil {
			return nil, fmt.Errorf("letter tables: %s: %w", lang, err)
		}
		// Both extremes of optional metadata must render.
		for _, sample := range []letterData{
			{Subject: "s", Body: "b"},
			{Recipient: "r", Location: "l", Subject: "s", Body: "b"},
		} {
			if err := tmpl.Execute(&strings.Builder{}, sample); err != nil {
				return nil, fmt.Errorf("letter tables: %s: %w", lang, err)
			}
		}

		c.langs[lang] = &language{
			defaultSubject: strings.TrimSpace(lt.DefaultSubject),
			subjects:       lowerKeys(lt.Subjects),
			honorifics:     lowerKeys(lt.Honorifics),
			letter:         tmpl,
		}
	}

	if _, ok := c.langs[message.LanguageEnglish]; !ok {
		return nil, fmt.Errorf("letter tables: an %q table is required", message.LanguageEnglish)
	}
	return c, nil
}

func lowerKeys(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[strings.ToLower(strings.TrimSpace(k))] = strings.TrimSpace(v)
	}
	return out
}

func (c *Composer) table(lang message.Language) (message.Language, *language) {
	if l, ok := c.langs[lang]; ok {
		return lang, l
	}
	return message.LanguageEnglish, c.langs[message.LanguageEnglish]
}

// Compose renders text as a letter in lang. It is pure and never fails:
// absent metadata is omitted, unknown categories get the generic subject and
// unknown languages render in English.
func (c *Composer) Compose(text string, category message.LetterCategory, lang message.Language, recipient *message.RecipientMetadata) message.ComposedLetter {
	lang, l := c.table(lang)

	data := letterData{
		Recipient: c.recipientLine(l, recipient),
		Subject:   l.subject(category),
		Body:      strings.TrimSpace(text),
	}
	if recipient != nil {
		data.Location = strings.TrimSpace(recipient.Location)
	}

	var sb strings.Builder
	if err := l.letter.Execute(&sb, data); err != nil {
		// Unreachable with validated tables.
		slog.Error("letter template failed", "language", lang, "error", err)
		sb.Reset()
		sb.WriteString(data.Subject + "\n\n" + data.Body)
	}

	return message.ComposedLetter{
		Language: lang,
		Category: category,
		Subject:  data.Subject,
		Text:     sb.String(),
	}
}

// Subject returns the subject line for category in lang.
func (c *Composer) Subject(category message.LetterCategory, lang message.Language) string {
	_, l := c.table(lang)
	return l.subject(category)
}

func (l *language) subject(category message.LetterCategory) string {
	if s, ok := l.subjects[strings.ToLower(strings.TrimSpace(string(category)))]; ok && s != "" {
		return s
	}
	return l.defaultSubject
}

// RecipientLine returns the addressee line for lang, or "" when there is no
// recipient name.
func (c *Composer) RecipientLine(recipient *message.RecipientMetadata, lang message.Language) string {
	_, l := c.table(lang)
	return c.recipientLine(l, recipient)
}

func (c *Composer) recipientLine(l *language, recipient *message.RecipientMetadata) string {
	if recipient == nil {
		return ""
	}
	name := strings.TrimSpace(recipient.Name)
	if name == "" {
		return ""
	}
	mode := strings.ToLower(strings.TrimSpace(string(recipient.Honorific)))
	if suffix, ok := l.honorifics[mode]; ok && suffix != "" {
		return name + " " + suffix
	}
	return name
}

// Categories lists every category with a dedicated subject in any language.
func (c *Composer) Categories() []string {
	seen := make(map[string]struct{})
	for _, l := range c.langs {
		for k := range l.subjects {
			seen[k] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Languages lists the languages with a table, sorted.
func (c *Composer) Languages() []string {
	out := make([]string, 0, len(c.langs))
	for lang := range c.langs {
		out = append(out, string(lang))
	}
	sort.Strings(out)
	return out
}
