package mailing

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zefparis/pub/tasks"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestAddContactPostsToBrevo(t *testing.T) {
	var gotKey string
	var got contactRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		gotKey = r.Header.Get("api-key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":1}`))
	}))
	defer srv.Close()

	c := NewBrevoClient("secret", 7, quietLogger())
	c.endpoint = srv.URL

	require.NoError(t, c.AddContact(context.Background(), "fan@example.com"))
	assert.Equal(t, "secret", gotKey)
	assert.Equal(t, "fan@example.com", got.Email)
	assert.Equal(t, []int64{7}, got.ListIDs)
}

func TestAddContactReportsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":"invalid_parameter"}`))
	}))
	defer srv.Close()

	c := NewBrevoClient("secret", 0, quietLogger())
	c.endpoint = srv.URL

	err := c.AddContact(context.Background(), "bad")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}

func TestAddContactWithoutKeySkips(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	c := NewBrevoClient("", 0, quietLogger())
	c.endpoint = srv.URL

	assert.NoError(t, c.AddContact(context.Background(), "fan@example.com"))
	assert.False(t, called)
}

type mockEnqueuer struct {
	EnqueueFn func(ctx context.Context, queueName string, payload interface{}) error
}

func (m *mockEnqueuer) Enqueue(ctx context.Context, queueName string, payload interface{}) error {
	return m.EnqueueFn(ctx, queueName, payload)
}

func TestQueueSyncer(t *testing.T) {
	var queue string
	var payload interface{}
	s := NewQueueSyncer(&mockEnqueuer{EnqueueFn: func(_ context.Context, q string, p interface{}) error {
		queue, payload = q, p
		return nil
	}})

	require.NoError(t, s.AddContact(context.Background(), "fan@example.com"))
	assert.Equal(t, tasks.QueueContactSync, queue)
	assert.Equal(t, tasks.ContactSyncPayload{Email: "fan@example.com"}, payload)
}
