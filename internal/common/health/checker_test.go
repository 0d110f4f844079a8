package health

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStartupCompleteChecker(t *testing.T) {
	checker := NewStartupCompleteChecker()
	assert.Error(t, checker.Check())

	checker.MarkComplete()
	assert.NoError(t, checker.Check())
}

func TestStartupCheckerSafeUnderConcurrentProbes(t *testing.T) {
	checker := NewStartupCompleteChecker()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 1000; i++ {
			_ = checker.Check()
		}
	}()
	checker.MarkComplete()
	<-done

	assert.NoError(t, checker.Check())
}

func TestMultiCheckerFailsIfAnyCheckerFails(t *testing.T) {
	passing := NewStartupCompleteChecker()
	passing.MarkComplete()
	failing := NewStartupCompleteChecker()

	checker := NewMultiChecker(passing)
	assert.NoError(t, checker.Check())

	checker.Add(failing)
	assert.Error(t, checker.Check())
}

func TestHttpHandlerReportsCheckerState(t *testing.T) {
	checker := NewStartupCompleteChecker()
	handler := NewHealthCheckHttpHandler(checker)

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, recorder.Code)

	checker.MarkComplete()
	recorder = httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusNoContent, recorder.Code)
}
