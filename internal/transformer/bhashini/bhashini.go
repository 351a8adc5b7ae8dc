// Package bhashini implements the transformer Backend using the Bhashini
// (Dhruva) inference pipeline API.
//
// One call carries a single translation task:
//
//	{"pipelineTasks": [{"taskType": "translation",
//	    "config": {"language": {"sourceLanguage": "te", "targetLanguage": "en"}}}],
//	 "inputData": {"input": [{"source": "..."}]}}
//
// and the result is the first output candidate of the first task:
//
//	{"pipelineResponse": [{"output": [{"target": "..."}]}]}
package bhashini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/nadzzz/lekha/internal/config"
	"github.com/nadzzz/lekha/internal/message"
	"github.com/nadzzz/lekha/internal/transformer"
)

const name = "bhashini"

// Backend calls the Bhashini pipeline over HTTP.
type Backend struct {
	endpoint string
	apiKey   string
	client   *http.Client
	logger   *slog.Logger
}

// New creates a new Bhashini backend from config.
func New(cfg config.BhashiniConfig) *Backend {
	return &Backend{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		client:   &http.Client{},
		logger:   slog.Default().With("component", name),
	}
}

// Name returns the backend identifier.
func (b *Backend) Name() string { return name }

// Transform sends the text to the pipeline and returns the first candidate.
func (b *Backend) Transform(ctx context.Context, req message.TransformRequest) (string, error) {
	bodyBytes, err := json.Marshal(newPipelineRequest(req))
	if err != nil {
		return "", &transformer.TransformError{Backend: name, Kind: transformer.KindDecode, Err: fmt.Errorf("marshalling request: %w", err)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, b.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", &transformer.TransformError{Backend: name, Kind: transformer.KindNetwork, Err: fmt.Errorf("creating request: %w", err)}
	}
	httpReq.Header.Set("Authorization", "Bearer "+b.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := b.client.Do(httpReq)
	if err != nil {
		kind := transformer.KindNetwork
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			kind = transformer.KindTimeout
		}
		return "", &transformer.TransformError{Backend: name, Kind: kind, Err: fmt.Errorf("pipeline request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", &transformer.TransformError{
			Backend:    name,
			Kind:       transformer.KindStatus,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("pipeline rejected request: %s", strings.TrimSpace(string(respBody))),
		}
	}

	var pr pipelineResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4<<20)).Decode(&pr); err != nil {
		return "", &transformer.TransformError{Backend: name, Kind: transformer.KindDecode, Err: fmt.Errorf("decoding pipeline response: %w", err)}
	}

	target, err := pr.firstTarget()
	if err != nil {
		return "", &transformer.TransformError{Backend: name, Kind: transformer.KindDecode, Err: err}
	}
	if strings.TrimSpace(target) == "" {
		return "", &transformer.TransformError{Backend: name, Kind: transformer.KindEmpty, Err: errors.New("pipeline returned an empty target")}
	}

	b.logger.Debug("transform complete",
		"source", req.SourceLanguage,
		"target", req.TargetLanguage,
		"text_length", len(target))
	return target, nil
}

// Close is a no-op; connections are per-request.
func (b *Backend) Close() error { return nil }

// --- Wire types ---

type pipelineRequest struct {
	PipelineTasks []pipelineTask `json:"pipelineTasks"`
	InputData     inputData      `json:"inputData"`
}

type pipelineTask struct {
	TaskType string     `json:"taskType"`
	Config   taskConfig `json:"config"`
}

type taskConfig struct {
	Language languagePair `json:"language"`
}

type languagePair struct {
	SourceLanguage string `json:"sourceLanguage"`
	TargetLanguage string `json:"targetLanguage"`
}

type inputData struct {
	Input []inputItem `json:"input"`
}

type inputItem struct {
	Source string `json:"source"`
}

type pipelineResponse struct {
	PipelineResponse []struct {
		Output []struct {
			Target string `json:"target"`
		} `json:"output"`
	} `json:"pipelineResponse"`
}

func newPipelineRequest(req message.TransformRequest) pipelineRequest {
	return pipelineRequest{
		PipelineTasks: []pipelineTask{{
			TaskType: "translation",
			Config: taskConfig{Language: languagePair{
				SourceLanguage: string(req.SourceLanguage),
				TargetLanguage: string(req.TargetLanguage),
			}},
		}},
		InputData: inputData{Input: []inputItem{{Source: req.Text}}},
	}
}

func (p pipelineResponse) firstTarget() (string, error) {
	if len(p.PipelineResponse) == 0 {
		return "", errors.New("pipeline response has no tasks")
	}
	if len(p.PipelineResponse[0].Output) == 0 {
		return "", errors.New("pipeline response has no output candidates")
	}
	return p.PipelineResponse[0].Output[0].Target, nil
}
