package mailer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/letsdance/academy-api/pkg/config"
)

func TestClientSend(t *testing.T) {
	var got sendRequest
	var gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, sendEndpoint, r.URL.Path)
		gotKey = r.Header.Get("api-key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client := New(config.MailerConfig{
		APIKey:      "test-key",
		SenderEmail: "noreply@letsdanceacademy.in",
		SenderName:  "Let's Dance Academy",
		BaseURL:     server.URL,
	})

	err := client.Send(context.Background(), Message{
		To:          "asha@example.com",
		Subject:     "Enrollment Accepted",
		HTMLContent: "<p>hi</p>",
	})
	require.NoError(t, err)
	assert.Equal(t, "test-key", gotKey)
	assert.Equal(t, "noreply@letsdanceacademy.in", got.Sender.Email)
	require.Len(t, got.To, 1)
	assert.Equal(t, "asha@example.com", got.To[0].Email)
	// Text fallback comes from the subject when none is supplied.
	assert.Equal(t, "Enrollment Accepted", got.TextContent)
}

func TestClientSendErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"code":"unauthorized"}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	client := New(config.MailerConfig{APIKey: "bad-key", BaseURL: server.URL})
	err := client.Send(context.Background(), Message{To: "asha@example.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestClientSendRequiresAPIKey(t *testing.T) {
	client := New(config.MailerConfig{})
	err := client.Send(context.Background(), Message{To: "asha@example.com"})
	require.Error(t, err)
}

func TestEnrollmentStatusEmailVariants(t *testing.T) {
	accepted := EnrollmentStatusEmail("asha@example.com", "Asha", "active", "Salsa Foundations", "batch")
	assert.Contains(t, accepted.Subject, "Enrollment Accepted")
	assert.Contains(t, accepted.HTMLContent, "payment has been verified")

	rejected := EnrollmentStatusEmail("asha@example.com", "Asha", "rejected", "Salsa Foundations", "batch")
	assert.Contains(t, rejected.Subject, "Enrollment Update")
	assert.Contains(t, rejected.HTMLContent, "could not be processed")
}
