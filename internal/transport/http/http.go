// Package http implements the REST transport for lekha.
//
// This transport exposes the stateless pipeline (detect, transform,
// generate) and the per-tab session controller. The browser only talks to
// this API; the translation credential stays on the server.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/nadzzz/lekha/internal/dispatch"
	"github.com/nadzzz/lekha/internal/message"
	"github.com/nadzzz/lekha/internal/session"
	"github.com/nadzzz/lekha/internal/transport"
	"github.com/nadzzz/lekha/internal/transport/validate"
)

const maxBodyBytes = 1 << 20

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// DetectRequest is the body of POST /v1/detect.
type DetectRequest struct {
	Text string `json:"text"`
}

// DetectResponse is the result of POST /v1/detect.
type DetectResponse struct {
	Language message.Language `json:"language"`
}

// CaptureStartRequest is the optional body of POST /v1/sessions/{id}/capture/start.
type CaptureStartRequest struct {
	LanguageHint string `json:"language_hint,omitempty" validate:"omitempty,max=35"`
}

// CaptureResultRequest is the body of POST /v1/sessions/{id}/capture/result.
type CaptureResultRequest struct {
	Transcript string `json:"transcript" validate:"required"`
}

// CaptureErrorRequest is the body of POST /v1/sessions/{id}/capture/error.
type CaptureErrorRequest struct {
	Reason string `json:"reason" validate:"required,max=200"`
}

// CaptureResponse reports a capture transition.
type CaptureResponse struct {
	Changed bool             `json:"changed"`
	Session session.Snapshot `json:"session"`
}

// ViewRequest is the body of PUT /v1/sessions/{id}/view.
type ViewRequest struct {
	View message.OutputPreference `json:"view" validate:"required,oneof=te en both"`
}

// Transport implements transport.Transport over HTTP.
type Transport struct {
	port     int
	sessions *session.Manager
	validate *validator.Validate

	mu     sync.Mutex
	server *http.Server
	closed bool
}

// New creates a new HTTP transport on the given port. Session routes are
// served when sessions is non-nil.
func New(port int, sessions *session.Manager) *Transport {
	return &Transport{
		port:     port,
		sessions: sessions,
		validate: validate.New(),
	}
}

// Name returns the transport identifier.
func (t *Transport) Name() string { return "http" }

// Handler builds the route table for svc.
func (t *Transport) Handler(svc transport.Service) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/detect", func(w http.ResponseWriter, r *http.Request) { t.handleDetect(w, r, svc) })
	mux.HandleFunc("POST /v1/transform", func(w http.ResponseWriter, r *http.Request) { t.handleTransform(w, r, svc) })
	mux.HandleFunc("POST /v1/generate", func(w http.ResponseWriter, r *http.Request) { t.handleGenerate(w, r, svc) })
	mux.HandleFunc("GET /v1/capabilities", func(w http.ResponseWriter, r *http.Request) { t.handleCapabilities(w, r, svc) })

	if t.sessions != nil {
		mux.HandleFunc("POST /v1/sessions", t.handleCreateSession)
		mux.HandleFunc("GET /v1/sessions/{id}", t.handleGetSession)
		mux.HandleFunc("DELETE /v1/sessions/{id}", t.handleDeleteSession)
		mux.HandleFunc("POST /v1/sessions/{id}/capture/start", t.handleCaptureStart)
		mux.HandleFunc("POST /v1/sessions/{id}/capture/stop", t.handleCaptureStop)
		mux.HandleFunc("POST /v1/sessions/{id}/capture/result", t.handleCaptureResult)
		mux.HandleFunc("POST /v1/sessions/{id}/capture/error", t.handleCaptureError)
		mux.HandleFunc("POST /v1/sessions/{id}/generate", t.handleSessionGenerate)
		mux.HandleFunc("PUT /v1/sessions/{id}/view", t.handleSetView)
		mux.HandleFunc("GET /v1/sessions/{id}/letters/{lang}", t.handleLetter)
	}

	// Swagger UI, backed by the docs registered in package docs.
	mux.Handle("GET /swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	return logRequests(mux)
}

// Listen starts the HTTP server and serves requests from svc.
func (t *Transport) Listen(ctx context.Context, svc transport.Service) error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", t.port))
	if err != nil {
		return fmt.Errorf("http listen: %w", err)
	}
	slog.Info("http transport listening", "port", t.port)
	return t.Serve(ctx, lis, svc)
}

// Serve serves svc on lis until ctx is cancelled or Close is called. It
// returns nil without serving if the transport is already closed.
func (t *Transport) Serve(ctx context.Context, lis net.Listener, svc transport.Service) error {
	srv := &http.Server{
		Handler:           t.Handler(svc),
		ReadHeaderTimeout: 10 * time.Second,
	}

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		_ = lis.Close()
		return nil
	}
	t.server = srv
	t.mu.Unlock()

	go func() {
		<-ctx.Done()
		slog.Info("http transport shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.Serve(lis); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http serve: %w", err)
	}
	return nil
}

// Close gracefully shuts down the HTTP server. A later Serve returns at once.
func (t *Transport) Close() error {
	t.mu.Lock()
	t.closed = true
	srv := t.server
	t.mu.Unlock()

	if srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

// handleDetect processes a POST /v1/detect request.
//
// @Summary     Detect the input language
// @Description Reports "te" when the text contains any Telugu-script character and "en" otherwise.
// @Tags        pipeline
// @Accept      json
// @Produce     json
// @Param       request  body      DetectRequest  true  "Text to inspect"
// @Success     200      {object}  DetectResponse
// @Failure     400      {object}  ErrorResponse
// @Router      /v1/detect [post]
func (t *Transport) handleDetect(w http.ResponseWriter, r *http.Request, svc transport.Service) {
	var req DetectRequest
	if err := t.decode(w, r, &req, false); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, DetectResponse{Language: svc.Detect(req.Text)})
}

// handleTransform processes a POST /v1/transform request.
//
// @Summary     Transform text server-side
// @Description Translates or expands text through the configured backend. Remote failures degrade
// @Description to the original text (or the local expansion) and are reported in the result.
// @Tags        pipeline
// @Accept      json
// @Produce     json
// @Param       request  body      message.TransformRequest  true  "Transform request"
// @Success     200      {object}  message.TransformResult
// @Failure     400      {object}  ErrorResponse
// @Router      /v1/transform [post]
func (t *Transport) handleTransform(w http.ResponseWriter, r *http.Request, svc transport.Service) {
	var req message.TransformRequest
	if err := t.decode(w, r, &req, false); err != nil {
		writeError(w, err)
		return
	}
	res, err := svc.Transform(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleGenerate processes a POST /v1/generate request.
//
// @Summary     Generate letters
// @Description Detects the input language and renders one letter per requested output language.
// @Tags        pipeline
// @Accept      json
// @Produce     json
// @Param       request  body      message.GenerateRequest  true  "Generation request"
// @Success     200      {object}  message.GenerateResult
// @Failure     400      {object}  ErrorResponse
// @Router      /v1/generate [post]
func (t *Transport) handleGenerate(w http.ResponseWriter, r *http.Request, svc transport.Service) {
	var req message.GenerateRequest
	if err := t.decode(w, r, &req, false); err != nil {
		writeError(w, err)
		return
	}
	res, err := svc.Generate(r.Context(), &req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleCapabilities processes a GET /v1/capabilities request.
//
// @Summary     Describe the deployment
// @Description Reports whether speech capture and remote translation are available, and the supported
// @Description languages and categories, so clients can disable controls up front.
// @Tags        pipeline
// @Produce     json
// @Success     200  {object}  message.Capabilities
// @Router      /v1/capabilities [get]
func (t *Transport) handleCapabilities(w http.ResponseWriter, _ *http.Request, svc transport.Service) {
	writeJSON(w, http.StatusOK, svc.Capabilities())
}

// handleCreateSession processes a POST /v1/sessions request.
//
// @Summary     Create a session
// @Tags        sessions
// @Produce     json
// @Success     201  {object}  session.Snapshot
// @Router      /v1/sessions [post]
func (t *Transport) handleCreateSession(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusCreated, t.sessions.Create().Snapshot())
}

// @Summary     Get a session
// @Tags        sessions
// @Produce     json
// @Param       id   path      string  true  "Session id"
// @Success     200  {object}  session.Snapshot
// @Failure     404  {object}  ErrorResponse
// @Router      /v1/sessions/{id} [get]
func (t *Transport) handleGetSession(w http.ResponseWriter, r *http.Request) {
	c, err := t.sessions.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c.Snapshot())
}

// @Summary     Delete a session
// @Tags        sessions
// @Param       id   path  string  true  "Session id"
// @Success     204
// @Failure     404  {object}  ErrorResponse
// @Router      /v1/sessions/{id} [delete]
func (t *Transport) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := t.sessions.Delete(r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// @Summary     Start speech capture
// @Description Moves the session from idle to listening. Starting while listening changes nothing.
// @Tags        sessions
// @Accept      json
// @Produce     json
// @Param       id       path      string               true   "Session id"
// @Param       request  body      CaptureStartRequest  false  "Optional BCP-47 language hint"
// @Success     200      {object}  CaptureResponse
// @Failure     400      {object}  ErrorResponse
// @Failure     404      {object}  ErrorResponse
// @Failure     503      {object}  ErrorResponse  "Speech capture unavailable"
// @Router      /v1/sessions/{id}/capture/start [post]
func (t *Transport) handleCaptureStart(w http.ResponseWriter, r *http.Request) {
	c, err := t.sessions.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	var req CaptureStartRequest
	if err := t.decode(w, r, &req, true); err != nil {
		writeError(w, err)
		return
	}
	changed, err := c.StartListening(req.LanguageHint)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, CaptureResponse{Changed: changed, Session: c.Snapshot()})
}

// @Summary     Stop speech capture
// @Description Moves the session from listening to idle. Stopping while idle changes nothing.
// @Tags        sessions
// @Produce     json
// @Param       id   path      string  true  "Session id"
// @Success     200  {object}  CaptureResponse
// @Failure     404  {object}  ErrorResponse
// @Router      /v1/sessions/{id}/capture/stop [post]
func (t *Transport) handleCaptureStop(w http.ResponseWriter, r *http.Request) {
	c, err := t.sessions.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	changed := c.StopListening()
	writeJSON(w, http.StatusOK, CaptureResponse{Changed: changed, Session: c.Snapshot()})
}

// @Summary     Report a recognised transcript
// @Tags        sessions
// @Accept      json
// @Produce     json
// @Param       id       path      string                true  "Session id"
// @Param       request  body      CaptureResultRequest  true  "Recognised text"
// @Success     200      {object}  session.Snapshot
// @Failure     400      {object}  ErrorResponse
// @Failure     404      {object}  ErrorResponse
// @Failure     503      {object}  ErrorResponse
// @Router      /v1/sessions/{id}/capture/result [post]
func (t *Transport) handleCaptureResult(w http.ResponseWriter, r *http.Request) {
	c, err := t.sessions.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	var req CaptureResultRequest
	if err := t.decode(w, r, &req, false); err != nil {
		writeError(w, err)
		return
	}
	if err := c.RecordResult(req.Transcript); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c.Snapshot())
}

// @Summary     Report a recogniser error
// @Tags        sessions
// @Accept      json
// @Produce     json
// @Param       id       path      string               true  "Session id"
// @Param       request  body      CaptureErrorRequest  true  "Error reported by the recogniser"
// @Success     200      {object}  session.Snapshot
// @Failure     400      {object}  ErrorResponse
// @Failure     404      {object}  ErrorResponse
// @Failure     503      {object}  ErrorResponse
// @Router      /v1/sessions/{id}/capture/error [post]
func (t *Transport) handleCaptureError(w http.ResponseWriter, r *http.Request) {
	c, err := t.sessions.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	var req CaptureErrorRequest
	if err := t.decode(w, r, &req, false); err != nil {
		writeError(w, err)
		return
	}
	if err := c.RecordError(req.Reason); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c.Snapshot())
}

// @Summary     Generate letters for a session
// @Description Uses the request text, or the captured transcript when text is empty. Only one
// @Description generation runs per session; a second request while one is running gets 409.
// @Tags        sessions
// @Accept      json
// @Produce     json
// @Param       id       path      string                   true  "Session id"
// @Param       request  body      message.GenerateRequest  true  "Generation request"
// @Success     200      {object}  message.GenerateResult
// @Failure     400      {object}  ErrorResponse
// @Failure     404      {object}  ErrorResponse
// @Failure     409      {object}  ErrorResponse  "Generation already in progress"
// @Router      /v1/sessions/{id}/generate [post]
func (t *Transport) handleSessionGenerate(w http.ResponseWriter, r *http.Request) {
	c, err := t.sessions.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	var req message.GenerateRequest
	if err := t.decode(w, r, &req, true); err != nil {
		writeError(w, err)
		return
	}
	res, err := c.Generate(r.Context(), &req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// @Summary     Select the visible letters
// @Tags        sessions
// @Accept      json
// @Produce     json
// @Param       id       path      string       true  "Session id"
// @Param       request  body      ViewRequest  true  "te, en or both"
// @Success     200      {object}  session.Snapshot
// @Failure     400      {object}  ErrorResponse
// @Failure     404      {object}  ErrorResponse
// @Router      /v1/sessions/{id}/view [put]
func (t *Transport) handleSetView(w http.ResponseWriter, r *http.Request) {
	c, err := t.sessions.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	var req ViewRequest
	if err := t.decode(w, r, &req, false); err != nil {
		writeError(w, err)
		return
	}
	if err := c.SetView(req.View); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c.Snapshot())
}

// handleLetter serves one letter as plain text for copy-to-clipboard.
//
// @Summary     Get a letter as plain text
// @Tags        sessions
// @Produce     plain
// @Param       id    path      string  true  "Session id"
// @Param       lang  path      string  true  "te or en"
// @Success     200   {string}  string  "Letter text"
// @Failure     404   {object}  ErrorResponse
// @Router      /v1/sessions/{id}/letters/{lang} [get]
func (t *Transport) handleLetter(w http.ResponseWriter, r *http.Request) {
	c, err := t.sessions.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	letter, ok := c.Letter(message.Language(r.PathValue("lang")))
	if !ok {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "no letter for that language"})
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, letter.Text)
}

// decode reads a JSON body into dst and validates it. An empty body is
// accepted when optional is set.
func (t *Transport) decode(w http.ResponseWriter, r *http.Request, dst any, optional bool) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if !(optional && errors.Is(err, io.EOF)) {
			return fmt.Errorf("%w: invalid json: %v", validate.ErrInvalid, err)
		}
	}
	return validate.Struct(t.validate, dst)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, validate.ErrInvalid),
		errors.Is(err, dispatch.ErrEmptyInput),
		errors.Is(err, session.ErrInvalidView),
		errors.Is(err, session.ErrInvalidHint):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrGenerationInFlight):
		return http.StatusConflict
	case errors.Is(err, session.ErrCapabilityUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "error", err)
	}
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		slog.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start))
	})
}
