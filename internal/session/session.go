// Package session holds per-client controller state.
//
// A Controller is everything a single browser tab used to keep in globals:
// whether speech capture is running, the captured transcript, which letters
// are shown, and the last generated result. All of it is owned by the
// controller and changed only through its methods.
package session

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/nadzzz/lekha/internal/langdetect"
	"github.com/nadzzz/lekha/internal/message"
)

var (
	// ErrNotFound is returned for an unknown or expired session id.
	ErrNotFound = errors.New("session not found")

	// ErrGenerationInFlight is returned when a generation is requested while
	// the previous one has not finished.
	ErrGenerationInFlight = errors.New("a generation is already in progress")

	// ErrCapabilityUnavailable is returned for speech actions when speech
	// capture is not available in this deployment.
	ErrCapabilityUnavailable = errors.New("speech capture is not available")

	// ErrInvalidView is returned for a view other than te, en or both.
	ErrInvalidView = errors.New("view must be one of te|en|both")

	// ErrInvalidHint is returned for a language hint outside te and en.
	ErrInvalidHint = errors.New("language hint must be a te or en BCP-47 tag")
)

// CaptureState is the speech capture state.
type CaptureState string

const (
	StateIdle      CaptureState = "idle"
	StateListening CaptureState = "listening"
)

// Status is the human-readable progress line shown next to the controls.
type Status string

const (
	StatusReady       Status = "Ready"
	StatusListening   Status = "Listening"
	StatusCaptured    Status = "Captured"
	StatusSpeechError Status = "Speech error"
	StatusGenerating  Status = "Generating"
	StatusDone        Status = "Done"
	StatusFailed      Status = "Generation failed"
)

// Generator produces letters. *dispatch.Dispatcher satisfies it.
type Generator interface {
	Generate(ctx context.Context, req *message.GenerateRequest) (*message.GenerateResult, error)
}

// Snapshot is a point-in-time copy of a controller's state.
type Snapshot struct {
	ID           string                   `json:"id"`
	State        CaptureState             `json:"state"`
	Status       Status                   `json:"status"`
	LanguageHint string                   `json:"language_hint"`
	Transcript   string                   `json:"transcript"`
	View         message.OutputPreference `json:"view"`
	Generating   bool                     `json:"generating"`
	Result       *message.GenerateResult  `json:"result,omitempty"`
	LastError    string                   `json:"last_error,omitempty"`
	CreatedAt    time.Time                `json:"created_at"`
	UpdatedAt    time.Time                `json:"updated_at"`
}

// Controller is the state of one client session. It is safe for concurrent use.
type Controller struct {
	id     string
	gen    Generator
	speech bool
	now    func() time.Time
	logger *slog.Logger

	mu         sync.Mutex
	state      CaptureState
	status     Status
	hint       string
	transcript string
	view       message.OutputPreference
	generating bool
	result     *message.GenerateResult
	lastErr    string
	created    time.Time
	updated    time.Time
}

// ID returns the session id.
func (c *Controller) ID() string { return c.id }

func (c *Controller) touch() { c.updated = c.now() }

// StartListening moves idle to listening. hint is a BCP-47 tag such as
// "te-IN"; an empty hint keeps the current one. It reports whether the state
// changed; starting while already listening is a no-op.
func (c *Controller) StartListening(hint string) (bool, error) {
	if !c.speech {
		return false, ErrCapabilityUnavailable
	}

	var lang message.Language
	if hint != "" {
		var ok bool
		if lang, ok = langdetect.FromHint(hint); !ok {
			return false, ErrInvalidHint
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateListening {
		return false, nil
	}
	if lang != "" {
		c.hint = langdetect.Hint(lang)
	}
	c.state = StateListening
	c.status = StatusListening
	c.lastErr = ""
	c.touch()
	c.logger.Debug("capture started", "hint", c.hint)
	return true, nil
}

// StopListening moves listening to idle. Stopping while idle is a no-op.
func (c *Controller) StopListening() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateIdle {
		return false
	}
	c.state = StateIdle
	c.status = StatusReady
	c.touch()
	c.logger.Debug("capture stopped")
	return true
}

// RecordResult stores a recognised transcript. A result ends the capture.
func (c *Controller) RecordResult(transcript string) error {
	if !c.speech {
		return ErrCapabilityUnavailable
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transcript = strings.TrimSpace(transcript)
	c.state = StateIdle
	c.status = StatusCaptured
	c.lastErr = ""
	c.touch()
	c.logger.Debug("capture result", "text_length", len(c.transcript))
	return nil
}

// RecordError stores a recogniser failure. An error ends the capture and
// leaves the transcript as it was.
func (c *Controller) RecordError(reason string) error {
	if !c.speech {
		return ErrCapabilityUnavailable
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = StateIdle
	c.status = StatusSpeechError
	c.lastErr = strings.TrimSpace(reason)
	c.touch()
	c.logger.Info("capture error", "reason", c.lastErr)
	return nil
}

// SetView selects which letters the client shows.
func (c *Controller) SetView(view message.OutputPreference) error {
	switch v := message.OutputPreference(strings.ToLower(string(view))); v {
	case message.OutputTelugu, message.OutputEnglish, message.OutputBoth:
		c.mu.Lock()
		c.view = v
		c.touch()
		c.mu.Unlock()
		return nil
	default:
		return ErrInvalidView
	}
}

// Generate runs one generation from req.Text, or from the captured
// transcript when req.Text is blank. Only one generation runs at a time; a
// call made while another is running fails with ErrGenerationInFlight. The
// output slot is replaced as a whole on success and left as it was on
// failure.
func (c *Controller) Generate(ctx context.Context, req *message.GenerateRequest) (*message.GenerateResult, error) {
	r := message.GenerateRequest{}
	if req != nil {
		r = *req
	}

	c.mu.Lock()
	if c.generating {
		c.mu.Unlock()
		return nil, ErrGenerationInFlight
	}
	if strings.TrimSpace(r.Text) == "" {
		r.Text = c.transcript
	}
	startTranscript := c.transcript
	c.generating = true
	c.status = StatusGenerating
	c.touch()
	c.mu.Unlock()

	res, err := c.gen.Generate(ctx, &r)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.generating = false
	c.touch()
	if err != nil {
		c.status = StatusFailed
		c.lastErr = err.Error()
		c.logger.Warn("generation failed", "error", err)
		return nil, err
	}
	// A recognizer result recorded while generating is newer than r.Text.
	if c.transcript == startTranscript {
		c.transcript = strings.TrimSpace(r.Text)
	}
	c.result = res
	c.status = StatusDone
	c.lastErr = ""
	return res, nil
}

// Letter returns the letter for lang from the last successful generation.
func (c *Controller) Letter(lang message.Language) (message.ComposedLetter, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result.Letter(lang)
}

// Snapshot returns a copy of the controller state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		ID:           c.id,
		State:        c.state,
		Status:       c.status,
		LanguageHint: c.hint,
		Transcript:   c.transcript,
		View:         c.view,
		Generating:   c.generating,
		Result:       c.result,
		LastError:    c.lastErr,
		CreatedAt:    c.created,
		UpdatedAt:    c.updated,
	}
}

// idleSince reports the last activity time, and whether the controller is
// busy and must not be expired.
func (c *Controller) idleSince() (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.updated, c.generating
}
