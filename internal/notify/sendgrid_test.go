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
)

func TestSendGrid_Send(t *testing.T) {
	var got mailSendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/mail/send", r.URL.Path)
		assert.Equal(t, "Bearer sg-key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	sg, err := NewSendGrid(SendGridConfig{APIKey: "sg-key", BaseURL: srv.URL, From: Address{Email: "noreply@excellere.test"}}, nil)
	require.NoError(t, err)

	err = sg.Send(context.Background(), Email{
		To:      Address{Email: "cfo@example.com", Name: "Dana"},
		Subject: "Your report was validated",
		Text:    "Congratulations.",
	})
	require.NoError(t, err)
	require.Len(t, got.Personalizations, 1)
	assert.Equal(t, "cfo@example.com", got.Personalizations[0].To[0].Email)
	assert.Equal(t, "noreply@excellere.test", got.From.Email)
	assert.Equal(t, []mailContent{{Type: "text/plain", Value: "Congratulations."}}, got.Content)
}

func TestSendGrid_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	sg, err := NewSendGrid(SendGridConfig{APIKey: "k", BaseURL: srv.URL, From: Address{Email: "a@b.c"}, MaxRetries: 1}, nil)
	require.NoError(t, err)
	require.NoError(t, sg.Send(context.Background(), Email{To: Address{Email: "x@y.z"}, Subject: "s", Text: "t"}))
	assert.Equal(t, int32(2), calls.Load())
}

func TestSendGrid_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"errors":[{"message":"invalid from"}]}`))
	}))
	defer srv.Close()

	sg, err := NewSendGrid(SendGridConfig{APIKey: "k", BaseURL: srv.URL, From: Address{Email: "a@b.c"}, MaxRetries: 3}, nil)
	require.NoError(t, err)
	err = sg.Send(context.Background(), Email{To: Address{Email: "x@y.z"}, Subject: "s", Text: "t"})

	var he *HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, "invalid from", he.Message)
	assert.Equal(t, int32(1), calls.Load())
}

func TestSendGrid_Validation(t *testing.T) {
	_, err := NewSendGrid(SendGridConfig{From: Address{Email: "a@b.c"}}, nil)
	require.Error(t, err)

	sg, err := NewSendGrid(SendGridConfig{APIKey: "k", From: Address{Email: "a@b.c"}}, nil)
	require.NoError(t, err)
	assert.Error(t, sg.Send(context.Background(), Email{Subject: "s", Text: "t"}))
	assert.Error(t, sg.Send(context.Background(), Email{To: Address{Email: "x@y.z"}, Text: "t"}))
	assert.Error(t, sg.Send(context.Background(), Email{To: Address{Email: "x@y.z"}, Subject: "s"}))

	assert.NoError(t, NewNop(nil).Send(context.Background(), Email{}))
}
