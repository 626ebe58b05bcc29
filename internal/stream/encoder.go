// Package stream frames research events as server-sent events over a
// long-lived HTTP response.
package stream

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/rotisserie/eris"

	"github.com/lineupscout/festival-cli/internal/model"
)

// Encode writes one event in SSE framing: "data: <json>\n\n".
func Encode(w io.Writer, ev model.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return eris.Wrap(err, "stream: marshal event")
	}
	if _, err := w.Write([]byte("data: ")); err != nil {
		return eris.Wrap(err, "stream: write prefix")
	}
	if _, err := w.Write(payload); err != nil {
		return eris.Wrap(err, "stream: write payload")
	}
	if _, err := w.Write([]byte("\n\n")); err != nil {
		return eris.Wrap(err, "stream: write terminator")
	}
	return nil
}

// Encoder serializes events onto an HTTP response, flushing after each so
// the client sees progress as it happens rather than on completion.
type Encoder struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// NewEncoder prepares the response for event streaming and returns the
// encoder. Headers are written immediately.
func NewEncoder(w http.ResponseWriter) *Encoder {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)
	return &Encoder{w: w, flusher: flusher}
}

// Emit writes and flushes one event. Write errors are swallowed: a client
// that went away is detected through the request context, not here.
func (e *Encoder) Emit(ev model.Event) {
	if err := Encode(e.w, ev); err != nil {
		return
	}
	if e.flusher != nil {
		e.flusher.Flush()
	}
}
