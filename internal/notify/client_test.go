package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/cleaning-dispatch/internal/config"
	"github.com/spec-kit/cleaning-dispatch/internal/domain"
)

func TestHTTPSender_SendEmail(t *testing.T) {
	var got emailRequest
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	sender := NewHTTPSender(config.NotificationConfig{
		EmailFrom:   "agenda@limpeza.example",
		EmailAPIURL: srv.URL + "/v1/send",
		EmailAPIKey: "secret",
	}, zap.NewNop())

	err := sender.SendEmail(context.Background(), Message{To: "ana@example.com", Subject: "Oi", Text: "corpo"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer secret", auth)
	assert.Equal(t, emailRequest{From: "agenda@limpeza.example", To: "ana@example.com", Subject: "Oi", Text: "corpo"}, got)
}

func TestHTTPSender_RetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sender := NewHTTPSender(config.NotificationConfig{EmailAPIURL: srv.URL, RetryCount: 3}, zap.NewNop())

	require.NoError(t, sender.SendEmail(context.Background(), Message{To: "ana@example.com"}))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestHTTPSender_ProviderRejects(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"invalid recipient"}`))
	}))
	defer srv.Close()

	sender := NewHTTPSender(config.NotificationConfig{EmailAPIURL: srv.URL}, zap.NewNop())

	err := sender.SendEmail(context.Background(), Message{To: "ana@example.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
	assert.Contains(t, err.Error(), "invalid recipient")
}

func TestHTTPSender_NoProviderConfiguredLogsOnly(t *testing.T) {
	sender := NewHTTPSender(config.NotificationConfig{}, zap.NewNop())

	assert.NoError(t, sender.SendEmail(context.Background(), Message{To: "ana@example.com"}))
	assert.Error(t, sender.SendEmail(context.Background(), Message{To: " "}))
	assert.NoError(t, sender.PostWebhook(context.Background(), map[string]string{"a": "b"}))
}

func TestHTTPSender_PostWebhook(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sender := NewHTTPSender(config.NotificationConfig{WebhookURL: srv.URL}, zap.NewNop())
	require.NoError(t, sender.PostWebhook(context.Background(), map[string]string{"type": "assignment_created"}))
	assert.Equal(t, "assignment_created", body["type"])
}

func TestTemplates(t *testing.T) {
	req := &domain.ServiceRequest{
		ServiceType:   "Residencial",
		Address:       "Rua das Flores, 10",
		ScheduledDate: "2026-11-02",
		ScheduledTime: "09:00",
		Client:        domain.ClientContact{Name: "Ana", Email: "ana@example.com", Phone: "11 99999-0000"},
		Observations:  "Trazer escada",
	}
	a := &domain.Assignment{StaffName: "Maria", StaffEmail: "maria@example.com", StaffPhone: "11 98888-0000"}

	client := ClientMessage(a, req)
	assert.Equal(t, "ana@example.com", client.To)
	assert.Contains(t, client.Text, "Maria")
	assert.Contains(t, client.Text, "2026-11-02")

	staff := StaffMessage(a, req)
	assert.Equal(t, "maria@example.com", staff.To)
	assert.Contains(t, staff.Text, "Rua das Flores, 10")
	assert.Contains(t, staff.Text, "Trazer escada")

	release := ReleaseMessage(a, req)
	assert.Equal(t, "maria@example.com", release.To)
}
