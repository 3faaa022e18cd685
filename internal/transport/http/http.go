// Package http implements the HTTP transport for glados.
//
// This transport exposes a small REST API: POST /say speaks the request text
// and returns the WAV file, or the JSON result when ?format=json is given.
// It is best suited for scripts, home automation hooks and browsers.
package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/nadzzz/glados/internal/message"
	"github.com/nadzzz/glados/internal/transport"

	httpSwagger "github.com/swaggo/http-swagger/v2"
)

// maxTextBytes bounds request bodies; a line of speech is never this long.
const maxTextBytes = 1 << 20

// Transport implements transport.Transport over HTTP.
type Transport struct {
	port   int
	server *http.Server
}

// New creates a new HTTP transport on the given port.
func New(port int) *Transport {
	return &Transport{port: port}
}

// Name returns the transport identifier.
func (t *Transport) Name() string { return "http" }

// Handler returns the routes served by the transport.
func (t *Transport) Handler(handler transport.Handler) http.Handler {
	mux := http.NewServeMux()

	// POST /say: accepts JSON or plain text, returns WAV or JSON.
	mux.HandleFunc("POST /say", func(w http.ResponseWriter, r *http.Request) {
		t.handleSay(w, r, handler)
	})

	// Swagger UI: serves the registered OpenAPI docs.
	mux.Handle("GET /swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	return mux
}

// Listen starts the HTTP server and routes incoming requests to the handler.
func (t *Transport) Listen(ctx context.Context, handler transport.Handler) error {
	t.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", t.port),
		Handler:           t.Handler(handler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.Info("http transport listening", "port", t.port)

	go func() {
		<-ctx.Done()
		slog.Info("http transport shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = t.server.Shutdown(shutdownCtx)
	}()

	if err := t.server.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("http listen: %w", err)
	}
	return nil
}

// handleSay processes a POST /say request.
//
// @Summary     Speak text
// @Description Synthesizes every non-empty line of the request text and writes the last line to the
// @Description configured output file. The response is the concatenated audio as a 16-bit mono WAV,
// @Description or the JSON result (audio base64-encoded) when format=json.
// @Tags        speech
// @Accept      json
// @Accept      plain
// @Produce     audio/wav
// @Produce     json
// @Param       message  body    message.Message  true   "Speech request (JSON). For plain text, POST the text directly."
// @Param       format   query   string           false  "Response format: wav (default) or json"
// @Param       X-Glados-Source  header  string  false  "Sender identifier (used with plain-text bodies)"
// @Success     200  {object}  message.Result  "Synthesized audio"
// @Failure     400  {string}  string          "Invalid request body"
// @Failure     422  {object}  message.Result  "No line produced audio"
// @Failure     500  {string}  string          "Internal processing error"
// @Router      /say [post]
func (t *Transport) handleSay(w http.ResponseWriter, r *http.Request, handler transport.Handler) {
	var msg message.Message

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	body := io.LimitReader(r.Body, maxTextBytes)
	switch mediaType {
	case "application/json":
		if err := json.NewDecoder(body).Decode(&msg); err != nil {
			http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
			return
		}
	default:
		// Treat body as the text to speak; sender comes from headers.
		text, err := io.ReadAll(body)
		if err != nil {
			http.Error(w, "reading text: "+err.Error(), http.StatusBadRequest)
			return
		}
		msg.Text = string(text)
		msg.Source = r.Header.Get("X-Glados-Source")
	}
	if msg.Source == "" {
		msg.Source = "http"
	}

	asJSON := r.URL.Query().Get("format") == "json"
	if !asJSON {
		msg.ResponseMode = message.ResponseModeAudio
	}

	result, err := handler(r.Context(), &msg)
	if err != nil {
		slog.Error("say failed", "error", err)
		http.Error(w, "say error: "+err.Error(), http.StatusInternalServerError)
		return
	}

	audio, err := result.AudioBytes()
	if asJSON || len(audio) == 0 || err != nil {
		code := http.StatusOK
		if result.Error != "" {
			code = http.StatusUnprocessableEntity
		}
		writeJSON(w, code, result)
		return
	}

	w.Header().Set("Content-Type", result.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(audio)))
	w.Header().Set("X-Glados-Message-Id", result.MessageID)
	w.Header().Set("X-Glados-Lines", strconv.Itoa(result.Lines))
	w.Header().Set("X-Glados-Skipped", strconv.Itoa(result.Skipped))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(audio)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// Close gracefully shuts down the HTTP server.
func (t *Transport) Close() error {
	if t.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return t.server.Shutdown(ctx)
	}
	return nil
}
