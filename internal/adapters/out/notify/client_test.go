package notify_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"dispatch/internal/adapters/out/notify"
	"dispatch/internal/core/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_SendSms(t *testing.T) {
	var received map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"messageId":"msg-42"}`))
	}))
	defer server.Close()

	client, err := notify.NewClient(server.URL)
	require.NoError(t, err)

	result, err := client.SendSms(t.Context(), "+15550100", ports.TemplateJobOffer,
		map[string]string{"date": "2026-09-01"})

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "msg-42", result.ProviderMessageID)

	assert.Equal(t, "sms", received["channel"])
	assert.Equal(t, "+15550100", received["to"])
	assert.Equal(t, "job_offer", received["template"])
	vars, ok := received["vars"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "2026-09-01", vars["date"])
}

func TestClient_SendEmail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "email", payload["channel"])

		_, _ = w.Write([]byte(`{"success":true,"messageId":"msg-7"}`))
	}))
	defer server.Close()

	client, err := notify.NewClient(server.URL)
	require.NoError(t, err)

	result, err := client.SendEmail(t.Context(), "ops@example.com", ports.TemplateOperatorPayoutFailed, nil)
	require.NoError(t, err)
	assert.True(t, result.Success)
}

func TestClient_ProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client, err := notify.NewClient(server.URL)
	require.NoError(t, err)

	_, err = client.SendSms(t.Context(), "+15550100", ports.TemplateJobOffer, nil)
	require.Error(t, err)
}

func TestNewClient_RequiresBaseURL(t *testing.T) {
	_, err := notify.NewClient("")
	require.Error(t, err)
}
