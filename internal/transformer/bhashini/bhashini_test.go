package bhashini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nadzzz/lekha/internal/config"
	"github.com/nadzzz/lekha/internal/message"
	"github.com/nadzzz/lekha/internal/transformer"
	"github.com/nadzzz/lekha/internal/transformer/local"
)

func teToEn(text string) message.TransformRequest {
	return message.TransformRequest{
		Text:           text,
		SourceLanguage: message.LanguageTelugu,
		TargetLanguage: message.LanguageEnglish,
		Mode:           message.ModeTranslate,
	}
}

func newBackend(url string) *Backend {
	return New(config.BhashiniConfig{Endpoint: url, APIKey: "test-key"})
}

func TestTransformSendsPipelineRequest(t *testing.T) {
	var got pipelineRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		_, _ = w.Write([]byte(`{"pipelineResponse":[{"taskType":"translation","output":[{"source":"x","target":"road needs repair"},{"target":"second"}]}]}`))
	}))
	defer srv.Close()

	out, err := newBackend(srv.URL).Transform(context.Background(), teToEn("రోడ్డు మరమ్మత్తు"))
	require.NoError(t, err)
	assert.Equal(t, "road needs repair", out)

	require.Len(t, got.PipelineTasks, 1)
	assert.Equal(t, "translation", got.PipelineTasks[0].TaskType)
	assert.Equal(t, "te", got.PipelineTasks[0].Config.Language.SourceLanguage)
	assert.Equal(t, "en", got.PipelineTasks[0].Config.Language.TargetLanguage)
	require.Len(t, got.InputData.Input, 1)
	assert.Equal(t, "రోడ్డు మరమ్మత్తు", got.InputData.Input[0].Source)
}

func TestTransformErrors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantKind   transformer.ErrorKind
		wantStatus int
	}{
		{"unauthorized", http.StatusUnauthorized, `{"detail":"invalid key"}`, transformer.KindStatus, http.StatusUnauthorized},
		{"server error", http.StatusInternalServerError, `oops`, transformer.KindStatus, http.StatusInternalServerError},
		{"malformed json", http.StatusOK, `{"pipelineResponse":`, transformer.KindDecode, 0},
		{"no tasks", http.StatusOK, `{"pipelineResponse":[]}`, transformer.KindDecode, 0},
		{"no candidates", http.StatusOK, `{"pipelineResponse":[{"output":[]}]}`, transformer.KindDecode, 0},
		{"missing key", http.StatusOK, `{}`, transformer.KindDecode, 0},
		{"empty target", http.StatusOK, `{"pipelineResponse":[{"output":[{"target":"  "}]}]}`, transformer.KindEmpty, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := newBackend(srv.URL).Transform(context.Background(), teToEn("రోడ్డు"))
			require.Error(t, err)

			var te *transformer.TransformError
			require.True(t, errors.As(err, &te))
			assert.Equal(t, tt.wantKind, te.Kind)
			assert.Equal(t, tt.wantStatus, te.StatusCode)
			assert.Equal(t, "bhashini", te.Backend)
		})
	}
}

func TestTransformNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := newBackend(url).Transform(context.Background(), teToEn("రోడ్డు"))
	require.Error(t, err)
	assert.Equal(t, transformer.KindNetwork, transformer.KindOf(err))
}

func TestTransformTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := newBackend(srv.URL).Transform(ctx, teToEn("రోడ్డు"))
	require.Error(t, err)
	assert.Equal(t, transformer.KindTimeout, transformer.KindOf(err))
}

// A network failure behind the resilient transformer yields the original
// input unchanged, never an error.
func TestUnreachableServiceDegradesToPassthrough(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	tr := transformer.New(transformer.Options{
		Remote:    newBackend(url),
		Fallback:  local.New(config.LocalConfig{}),
		OnFailure: transformer.PolicyPassthrough,
		Timeout:   time.Second,
	})

	res := tr.Transform(context.Background(), teToEn("రోడ్డు మరమ్మత్తు అవసరం"))
	assert.Equal(t, "రోడ్డు మరమ్మత్తు అవసరం", res.Text)
	assert.Equal(t, message.SourcePassthrough, res.Source)
	assert.True(t, res.Degraded)
}

func TestUnreachableServiceExpandsLocally(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	tr := transformer.New(transformer.Options{
		Remote:    newBackend(url),
		Fallback:  local.New(config.LocalConfig{}),
		OnFailure: transformer.ParsePolicy(""),
		Timeout:   time.Second,
	})

	inputs := map[message.Language]string{
		message.LanguageTelugu:  "రోడ్డు మరమ్మత్తు అవసరం",
		message.LanguageEnglish: "road needs repair",
	}
	for lang, in := range inputs {
		res := tr.Transform(context.Background(), message.TransformRequest{
			Text:           in,
			TargetLanguage: lang,
			Mode:           message.ModeExpand,
		})
		assert.Contains(t, res.Text, in, "lang=%s", lang)
		assert.Greater(t, len(res.Text), len(in))
		assert.Equal(t, message.SourceFallback, res.Source)
		assert.True(t, res.Degraded)
	}
}

func TestTransformLogsWithComponent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"pipelineResponse":[{"output":[{"target":"road needs repair"}]}]}`))
	}))
	defer srv.Close()

	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })
	b := newBackend(srv.URL)

	_, err := b.Transform(context.Background(), teToEn("రోడ్డు"))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "component=bhashini")
	assert.Contains(t, buf.String(), "transform complete")
	assert.NotContains(t, buf.String(), "test-key")
}
