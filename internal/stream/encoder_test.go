package stream

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lineupscout/festival-cli/internal/model"
)

func TestEncode_Framing(t *testing.T) {
	var buf bytes.Buffer
	conf := 0.42
	ev := model.ProgressEvent(model.PhaseFetchingNews, &conf, map[string]any{"articles": 3}, 1, 0)

	require.NoError(t, Encode(&buf, ev))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "data: "))
	assert.True(t, strings.HasSuffix(out, "\n\n"))

	var decoded model.Event
	payload := strings.TrimSuffix(strings.TrimPrefix(out, "data: "), "\n\n")
	require.NoError(t, json.Unmarshal([]byte(payload), &decoded))
	assert.Equal(t, model.EventProgress, decoded.Type)
	assert.Equal(t, model.PhaseFetchingNews, decoded.Phase)
	require.NotNil(t, decoded.Confidence)
	assert.InDelta(t, 0.42, *decoded.Confidence, 1e-9)
}

func TestEncoder_EmitsEventsWithHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	enc := NewEncoder(rec)

	enc.Emit(model.ProgressEvent(model.PhaseStarting, nil, nil, 0, 0))
	report := model.ResearchReport{News: &model.NewsResult{Confidence: 0.3}}
	enc.Emit(model.CompleteEvent(true, true, &report))

	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))

	frames := strings.Split(strings.TrimSuffix(rec.Body.String(), "\n\n"), "\n\n")
	require.Len(t, frames, 2)

	var last model.Event
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(frames[1], "data: ")), &last))
	assert.Equal(t, model.EventComplete, last.Type)
	require.NotNil(t, last.SavedToDatabase)
	assert.True(t, *last.SavedToDatabase)
	require.NotNil(t, last.Result)
}
