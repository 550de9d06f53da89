package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gymdesk/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Envelope is dto.Response with a typed payload
type Envelope[T any] struct {
	Success bool           `json:"success"`
	Data    T              `json:"data"`
	Error   *dto.ErrorInfo `json:"error,omitempty"`
	Meta    *dto.Meta      `json:"meta,omitempty"`
}

// HTTPTestCase is one request sent through an http.Handler and the outcome
// expected from it
type HTTPTestCase struct {
	Name           string
	Method         string
	Path           string
	Body           any
	Headers        map[string]string
	ExpectedStatus int
	// ExpectedCode is the error code of a failed response
	ExpectedCode string
	Validate     func(t *testing.T, w *httptest.ResponseRecorder)
}

// RunHTTPTestCases runs every case as a subtest against h
func RunHTTPTestCases(t *testing.T, h http.Handler, cases []HTTPTestCase) {
	t.Helper()
	for _, tc := range cases {
		t.Run(tc.Name, func(t *testing.T) {
			RunHTTPTestCase(t, h, tc)
		})
	}
}

// RunHTTPTestCase sends one case and checks its status and error code
func RunHTTPTestCase(t *testing.T, h http.Handler, tc HTTPTestCase) {
	t.Helper()
	method := tc.Method
	if method == "" {
		method = http.MethodGet
	}
	w := Perform(t, h, method, tc.Path, tc.Body, tc.Headers)

	assert.Equal(t, tc.ExpectedStatus, w.Code, "body: %s", w.Body.String())
	if tc.ExpectedCode != "" {
		assert.Equal(t, tc.ExpectedCode, DecodeError(t, w).Code)
	}
	if tc.Validate != nil {
		tc.Validate(t, w)
	}
}

// Perform sends a request through h. A non-nil body is encoded as JSON
// unless it already is a string or io.Reader.
func Perform(t *testing.T, h http.Handler, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, ToReader(t, body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

// ToReader turns a request body into a reader
func ToReader(t *testing.T, body any) io.Reader {
	t.Helper()
	switch b := body.(type) {
	case nil:
		return nil
	case io.Reader:
		return b
	case string:
		return bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		return bytes.NewReader(raw)
	}
}

// DecodeData decodes a successful response and returns its payload
func DecodeData[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var env Envelope[T]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), "body: %s", w.Body.String())
	require.True(t, env.Success, "body: %s", w.Body.String())
	return env.Data
}

// DecodeError decodes a failed response and returns its error block
func DecodeError(t *testing.T, w *httptest.ResponseRecorder) *dto.ErrorInfo {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), "body: %s", w.Body.String())
	require.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	return resp.Error
}
