package settle_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"dispatch/internal/adapters/out/settle"
	"dispatch/internal/core/domain/model/kernel"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_ProcessRoutePayout(t *testing.T) {
	routeID := kernel.NewUUID()

	var received map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/payouts", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"amount":64.20,"transferId":"tr-1"}`))
	}))
	defer server.Close()

	client, err := settle.NewClient(server.URL)
	require.NoError(t, err)

	result, err := client.ProcessRoutePayout(t.Context(), routeID)

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.InDelta(t, 64.20, result.Amount, 0.001)
	assert.Equal(t, "tr-1", result.TransferID)

	assert.Equal(t, "route", received["kind"])
	assert.Equal(t, routeID.String(), received["referenceId"])
}

func TestClient_ProcessOrderPayout_Declined(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "order", payload["kind"])

		_, _ = w.Write([]byte(`{"success":false}`))
	}))
	defer server.Close()

	client, err := settle.NewClient(server.URL)
	require.NoError(t, err)

	result, err := client.ProcessOrderPayout(t.Context(), kernel.NewUUID())
	require.NoError(t, err)
	assert.False(t, result.Success)
}

func TestClient_ProcessorError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client, err := settle.NewClient(server.URL)
	require.NoError(t, err)

	_, err = client.ProcessRoutePayout(t.Context(), kernel.NewUUID())
	require.Error(t, err)
}

func TestNewClient_RequiresBaseURL(t *testing.T) {
	_, err := settle.NewClient("")
	require.Error(t, err)
}
