package webhook

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evaldomacielf-sketch/jurisnexo-sub000/pkg/protocol"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFactory_RequiresURL(t *testing.T) {
	_, err := NewFactory().Create(map[string]any{})
	require.Error(t, err)

	var actionErr *protocol.ActionError

	require.ErrorAs(t, err, &actionErr)
	assert.Contains(t, actionErr.Message, "url is required")
}

func TestExecute_SuccessDecodesJSON(t *testing.T) {
	var gotMethod, gotHeader string

	var gotBody map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotHeader = r.Header.Get("X-Api-Key")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"received": true}`))
	}))
	defer server.Close()

	action, err := NewFactory().Create(map[string]any{
		"url":     server.URL,
		"headers": map[string]any{"X-Api-Key": "secret"},
		"body":    map[string]any{"invoice_id": "inv-1"},
	})
	require.NoError(t, err)

	output, err := action.Execute(context.Background(), "tenant-1", testLogger())
	require.NoError(t, err)

	result, ok := output.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, result["success"])
	assert.Equal(t, http.StatusOK, result["status"])
	assert.Equal(t, map[string]any{"received": true}, result["data"])

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "secret", gotHeader)
	assert.Equal(t, map[string]any{"invoice_id": "inv-1"}, gotBody)
}

func TestExecute_NonSuccessStatusIsAnOutput(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down"))
	}))
	defer server.Close()

	action, err := NewFactory().Create(map[string]any{"url": server.URL, "method": "GET"})
	require.NoError(t, err)

	output, err := action.Execute(context.Background(), "tenant-1", testLogger())
	require.NoError(t, err)

	result, ok := output.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, false, result["success"])
	assert.Equal(t, http.StatusBadGateway, result["status"])
	assert.Contains(t, result["error"], "upstream down")
}

func TestExecute_TransportErrorFailsStep(t *testing.T) {
	action, err := NewFactory().Create(map[string]any{
		"url":       "http://127.0.0.1:1",
		"timeoutMs": 200.0,
	})
	require.NoError(t, err)

	_, err = action.Execute(context.Background(), "tenant-1", testLogger())
	require.Error(t, err)

	var actionErr *protocol.ActionError

	assert.ErrorAs(t, err, &actionErr)
}
