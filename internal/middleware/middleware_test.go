package middleware_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/clubhouse/internal/middleware"
	"github.com/mcoot/clubhouse/internal/testutil"
)

func TestLoggingAssignsRequestID(t *testing.T) {
	logger, logs := testutil.CapturingLogger()

	var seen string
	r := mux.NewRouter()
	r.Use(middleware.Logging(logger))
	r.HandleFunc("/clubs/{id}", func(w http.ResponseWriter, r *http.Request) {
		seen = middleware.RequestID(r.Context())
		w.WriteHeader(http.StatusNotFound)
	})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/clubs/42", nil))

	require.NotEmpty(t, seen)
	assert.Equal(t, seen, rr.Header().Get(middleware.RequestIDHeader))
	assert.Contains(t, logs.String(), `"level":"WARN"`)
	assert.Contains(t, logs.String(), `"route":"/clubs/{id}"`)
	assert.Contains(t, logs.String(), `"status":404`)
}

func TestLoggingKeepsClientRequestID(t *testing.T) {
	logger, logs := testutil.CapturingLogger()
	h := middleware.Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(middleware.RequestIDHeader, "abc-123")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, "abc-123", rr.Header().Get(middleware.RequestIDHeader))
	assert.Contains(t, logs.String(), `"request_id":"abc-123"`)
	assert.Contains(t, logs.String(), `"level":"INFO"`)
}

func TestRecoveryUsesPanicHandler(t *testing.T) {
	logger, logs := testutil.CapturingLogger()

	var recovered error
	handler := func(w http.ResponseWriter, _ *http.Request, err error) {
		recovered = err
		w.WriteHeader(http.StatusTeapot)
	}
	h := middleware.Logging(logger)(middleware.Recovery(logger, handler)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/clubs", nil))

	assert.Equal(t, http.StatusTeapot, rr.Code)
	require.Error(t, recovered)
	assert.Equal(t, "panic: boom", recovered.Error())
	assert.Contains(t, logs.String(), "panic recovered")
	assert.Contains(t, logs.String(), `"request_id":"`+rr.Header().Get(middleware.RequestIDHeader)+`"`)
}

func TestRecoveryWrapsPanickedError(t *testing.T) {
	logger, _ := testutil.CapturingLogger()
	cause := errors.New("nil map")

	var recovered error
	handler := func(w http.ResponseWriter, _ *http.Request, err error) {
		recovered = err
		w.WriteHeader(http.StatusInternalServerError)
	}
	h := middleware.Recovery(logger, handler)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(cause)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.ErrorIs(t, recovered, cause)
}

func TestRecoveryLeavesStartedResponse(t *testing.T) {
	logger, logs := testutil.CapturingLogger()

	called := false
	handler := func(w http.ResponseWriter, _ *http.Request, _ error) {
		called = true
		w.WriteHeader(http.StatusInternalServerError)
	}
	h := middleware.Logging(logger)(middleware.Recovery(logger, handler)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		panic("half written")
	})))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/clubs", nil))

	assert.False(t, called)
	assert.Equal(t, http.StatusAccepted, rr.Code)
	assert.Contains(t, logs.String(), `"response_started":true`)
}

func TestRecoveryReraisesAbort(t *testing.T) {
	h := middleware.Recovery(testutil.NopLogger(), func(http.ResponseWriter, *http.Request, error) {
		t.Fatal("abort must not reach the panic handler")
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}
