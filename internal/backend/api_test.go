package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func apiTransport(t *testing.T, handler http.HandlerFunc) *APITransport {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	tr := NewAPITransport()
	tr.url = srv.URL
	tr.keyFunc = func() string { return "sk-test" }
	return tr
}

func TestAPIGenerate(t *testing.T) {
	tr := apiTransport(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "sk-test", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))

		var req apiRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, apiModel, req.Model)
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "the prompt", req.Messages[0].Content)

		json.NewEncoder(w).Encode(map[string]any{
			"content": []map[string]string{
				{"type": "text", "text": "# Minutes\n"},
				{"type": "text", "text": "## Overview\n"},
			},
		})
	})

	text, err := tr.Generate(context.Background(), "the prompt")
	require.NoError(t, err)
	assert.Equal(t, "# Minutes\n## Overview\n", text)
}

func TestAPIGenerateAuthError(t *testing.T) {
	tr := apiTransport(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"type":"authentication_error"}}`, http.StatusUnauthorized)
	})

	_, err := tr.Generate(context.Background(), "p")
	var be *Error
	require.ErrorAs(t, err, &be)
	assert.Equal(t, KindAuth, be.Kind)
}

func TestAPIGenerateTransientOn503(t *testing.T) {
	tr := apiTransport(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	})

	_, err := tr.Generate(context.Background(), "p")
	var be *Error
	require.ErrorAs(t, err, &be)
	assert.Equal(t, KindTransient, be.Kind)
}

func TestAPIGenerateTransientOn429(t *testing.T) {
	tr := apiTransport(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	})

	_, err := tr.Generate(context.Background(), "p")
	var be *Error
	require.ErrorAs(t, err, &be)
	assert.Equal(t, KindTransient, be.Kind)
}

func TestAPIGenerateRejectedOnRefusal(t *testing.T) {
	tr := apiTransport(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"type": "invalid_request_error", "message": "declined"},
		})
	})

	_, err := tr.Generate(context.Background(), "p")
	var be *Error
	require.ErrorAs(t, err, &be)
	assert.Equal(t, KindRejected, be.Kind)
}

func TestAPIAvailability(t *testing.T) {
	tr := NewAPITransport()
	tr.keyFunc = func() string { return "" }
	assert.False(t, tr.Available(context.Background()))

	tr.keyFunc = func() string { return "sk-test" }
	assert.True(t, tr.Available(context.Background()))
}

func TestAPIGenerateMissingKey(t *testing.T) {
	tr := NewAPITransport()
	tr.keyFunc = func() string { return "" }

	_, err := tr.Generate(context.Background(), "p")
	var be *Error
	require.ErrorAs(t, err, &be)
	assert.Equal(t, KindAuth, be.Kind)
}
