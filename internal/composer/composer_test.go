package composer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nadzzz/lekha/internal/message"
)

func newDefault(t *testing.T) *Composer {
	t.Helper()
	tables, err := DefaultTables()
	require.NoError(t, err)
	c, err := New(tables)
	require.NoError(t, err)
	return c
}

func TestCompose_EnglishComplaint(t *testing.T) {
	c := newDefault(t)

	got := c.Compose("road needs repair near the market", message.CategoryComplaint, message.LanguageEnglish, nil)

	assert.Equal(t, message.LanguageEnglish, got.Language)
	assert.Equal(t, "Complaint regarding a civic issue", got.Subject)
	want := "To,\n" +
		"The Concerned Officer\n" +
		"\n" +
		"Subject: Complaint regarding a civic issue\n" +
		"\n" +
		"Respected Sir/Madam,\n" +
		"\n" +
		"road needs repair near the market\n" +
		"\n" +
		"Thanking you."
	assert.Equal(t, want, got.Text)
}

func TestCompose_WithRecipient(t *testing.T) {
	c := newDefault(t)

	got := c.Compose("please fix the drain", message.CategoryRequest, message.LanguageEnglish, &message.RecipientMetadata{
		Name:      "Ramesh",
		Honorific: message.HonorificGaru,
		Location:  "Guntur",
	})

	assert.True(t, strings.HasPrefix(got.Text, "To,\nRamesh Garu,\nThe Concerned Officer,\nGuntur\n\nSubject: Request for assistance\n"), got.Text)
}

func TestCompose_TeluguLayout(t *testing.T) {
	c := newDefault(t)

	body := "రోడ్డు మరమ్మతు చేయాలి"
	got := c.Compose(body, message.CategoryComplaint, message.LanguageTelugu, &message.RecipientMetadata{
		Name:      "రమేష్",
		Honorific: message.HonorificGaru,
		Location:  "గుంటూరు",
	})

	assert.Equal(t, message.LanguageTelugu, got.Language)
	want := "గౌరవనీయులైన అధికారి గారికి,\n" +
		"రమేష్ గారు,\n" +
		"గుంటూరు\n" +
		"\n" +
		"విషయం: ప్రజా సమస్యపై ఫిర్యాదు\n" +
		"\n" +
		"అయ్యా/అమ్మా,\n" +
		"\n" +
		body + "\n" +
		"\n" +
		"ధన్యవాదాలు."
	assert.Equal(t, want, got.Text)
}

func TestCompose_MetadataOmitted(t *testing.T) {
	c := newDefault(t)

	for _, r := range []*message.RecipientMetadata{nil, {}, {Honorific: message.HonorificSir}} {
		for _, lang := range []message.Language{message.LanguageEnglish, message.LanguageTelugu} {
			got := c.Compose("body", message.CategoryReport, lang, r)
			assert.NotContains(t, got.Text, "<no value>")
			assert.NotContains(t, got.Text, "\n\n\n")
			assert.NotContains(t, got.Text, ",,")
		}
	}
}

func TestCompose_UnknownCategoryUsesDefaultSubject(t *testing.T) {
	c := newDefault(t)

	for _, cat := range []message.LetterCategory{"", "pothole", "COMPLAINTS"} {
		got := c.Compose("x", cat, message.LanguageEnglish, nil)
		assert.Equal(t, "Regarding a related matter", got.Subject, "category %q", cat)
		assert.Contains(t, got.Text, "Subject: Regarding a related matter")
	}

	got := c.Compose("x", "unknown", message.LanguageTelugu, nil)
	assert.Equal(t, "సంబంధిత విషయం గురించి", got.Subject)
}

func TestCompose_CategoryIsCaseInsensitive(t *testing.T) {
	c := newDefault(t)
	assert.Equal(t, "Complaint regarding a civic issue", c.Subject(" Complaint ", message.LanguageEnglish))
}

func TestCompose_UnknownLanguageRendersEnglish(t *testing.T) {
	c := newDefault(t)

	got := c.Compose("x", message.CategoryReport, "hi", nil)
	assert.Equal(t, message.LanguageEnglish, got.Language)
	assert.Contains(t, got.Text, "Subject: Report on the matter")
}

func TestCompose_Deterministic(t *testing.T) {
	c := newDefault(t)
	r := &message.RecipientMetadata{Name: "A", Honorific: message.HonorificSir, Location: "B"}

	first := c.Compose("same input", message.CategoryApplication, message.LanguageTelugu, r)
	for range 10 {
		assert.Equal(t, first, c.Compose("same input", message.CategoryApplication, message.LanguageTelugu, r))
	}
}

func TestRecipientLine(t *testing.T) {
	c := newDefault(t)

	tests := []struct {
		name      string
		recipient *message.RecipientMetadata
		lang      message.Language
		want      string
	}{
		{"no metadata", nil, message.LanguageEnglish, ""},
		{"blank name", &message.RecipientMetadata{Name: "  ", Honorific: message.HonorificGaru}, message.LanguageEnglish, ""},
		{"garu en", &message.RecipientMetadata{Name: "Lakshmi", Honorific: message.HonorificGaru}, message.LanguageEnglish, "Lakshmi Garu"},
		{"sir en", &message.RecipientMetadata{Name: "Lakshmi", Honorific: message.HonorificSir}, message.LanguageEnglish, "Lakshmi Sir"},
		{"garu te", &message.RecipientMetadata{Name: "లక్ష్మి", Honorific: message.HonorificGaru}, message.LanguageTelugu, "లక్ష్మి గారు"},
		{"sir te", &message.RecipientMetadata{Name: "లక్ష్మి", Honorific: message.HonorificSir}, message.LanguageTelugu, "లక్ష్మి గారికి"},
		{"none", &message.RecipientMetadata{Name: "Lakshmi", Honorific: message.HonorificNone}, message.LanguageEnglish, "Lakshmi"},
		{"unknown mode", &message.RecipientMetadata{Name: "Lakshmi", Honorific: "madam"}, message.LanguageEnglish, "Lakshmi"},
		{"mode case", &message.RecipientMetadata{Name: "Lakshmi", Honorific: "GARU"}, message.LanguageEnglish, "Lakshmi Garu"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.RecipientLine(tt.recipient, tt.lang))
		})
	}
}

func TestCategoriesAndLanguages(t *testing.T) {
	c := newDefault(t)
	assert.Equal(t, []string{"application", "complaint", "report", "request"}, c.Categories())
	assert.Equal(t, []string{"en", "te"}, c.Languages())
}

func TestNew_Validation(t *testing.T) {
	valid := LanguageTable{DefaultSubject: "d", Letter: "{{.Subject}} {{.Body}}"}

	tests := []struct {
		name   string
		tables Tables
		errMsg string
	}{
		{"missing english", Tables{Languages: map[string]LanguageTable{"te": valid}}, `"en" table is required`},
		{"unsupported language", Tables{Languages: map[string]LanguageTable{"en": valid, "fr": valid}}, "unsupported language"},
		{"missing default subject", Tables{Languages: map[string]LanguageTable{"en": {Letter: "x"}}}, "default_subject is required"},
		{"missing letter", Tables{Languages: map[string]LanguageTable{"en": {DefaultSubject: "d"}}}, "letter template is required"},
		{"bad syntax", Tables{Languages: map[string]LanguageTable{"en": {DefaultSubject: "d", Letter: "{{.Subject"}}}, "en"},
		{"unknown field", Tables{Languages: map[string]LanguageTable{"en": {DefaultSubject: "d", Letter: "{{.Signature}}"}}}, "Signature"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.tables)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestLoadTables_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "letters.yaml")
	doc := `languages:
  en:
    default_subject: General
    subjects:
      noise: Noise complaint
    letter: "Subject: {{.Subject}}\n{{.Body}}"
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	tables, err := LoadTables(path)
	require.NoError(t, err)
	c, err := New(tables)
	require.NoError(t, err)

	got := c.Compose("loud music", "noise", message.LanguageEnglish, nil)
	assert.Equal(t, "Subject: Noise complaint\nloud music", got.Text)
	assert.Equal(t, "General", c.Subject("other", message.LanguageTelugu))
}

func TestLoadTables_EmptyPathUsesDefaults(t *testing.T) {
	tables, err := LoadTables("")
	require.NoError(t, err)
	assert.Contains(t, tables.Languages, "en")
	assert.Contains(t, tables.Languages, "te")
}

func TestLoadTables_Errors(t *testing.T) {
	_, err := LoadTables(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("languages: [unclosed"), 0o600))
	_, err = LoadTables(path)
	require.Error(t, err)
}
