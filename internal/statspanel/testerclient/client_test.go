package testerclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitAsyncPostsRequest(t *testing.T) {
	var received SubmitRequest
	var requestId string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/test", r.URL.Path)
		requestId = r.Header.Get("X-Request-Id")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	client := New(server.URL, time.Second, 3).WithReturnUrl("http://statspanel/api/v2/results")
	err := client.SubmitAsync(context.Background(), &SubmitRequest{
		Uniid:       "mari",
		Hash:        "a1",
		GitTestRepo: "repoA",
	})

	require.NoError(t, err)
	assert.Equal(t, "mari", received.Uniid)
	assert.Equal(t, "a1", received.Hash)
	assert.Equal(t, "http://statspanel/api/v2/results", received.ReturnUrl)
	assert.NotEmpty(t, requestId)
}

func TestStateRetriesTransientFailures(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("OK"))
	}))
	defer server.Close()

	client := New(server.URL, time.Second, 5)
	state, err := client.State(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "OK", state)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestLogsGivesUpAfterConfiguredAttempts(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := New(server.URL, time.Second, 2)
	_, err := client.Logs(context.Background())

	require.Error(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}
