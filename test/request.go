package test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"reflect"
	"testing"

	"github.com/licensedesk/backend/internal/ledger"
	"github.com/licensedesk/backend/internal/router"
	"github.com/stretchr/testify/require"
)

// requestBody converts a test request body into a reader. Strings and
// buffers are sent as they are, everything else is sent as JSON.
func requestBody(t *testing.T, body any) io.Reader {
	switch b := body.(type) {
	case nil:
		return http.NoBody
	case string:
		return bytes.NewBufferString(b)
	case *bytes.Buffer:
		return b
	}

	data, err := json.Marshal(body)
	require.Nil(t, err, "Request body %#v could not be encoded", body)
	return bytes.NewReader(data)
}

// Request sends a request through a freshly configured router and returns
// the recorded response.
//
// The body can be a string, anything that marshals to JSON or a
// *bytes.Buffer, e.g. for multipart file uploads.
func Request(t *testing.T, method, reqURL string, body any, headers ...map[string]string) httptest.ResponseRecorder {
	apiURL, ok := os.LookupEnv("API_URL")
	require.True(t, ok, "environment variable API_URL must be set")

	baseURL, err := url.Parse(apiURL)
	require.Nil(t, err, "environment variable API_URL must be a valid URL")

	r, teardown, err := router.Config(baseURL, ledger.DefaultTolerance)
	defer teardown()
	require.Nil(t, err, "Router could not be initialized")

	router.AttachRoutes(r.Group("/"))

	req := httptest.NewRequest(method, reqURL, requestBody(t, body))
	for _, h := range headers {
		for name, value := range h {
			req.Header.Set(name, value)
		}
	}

	recorder := httptest.NewRecorder()
	r.ServeHTTP(recorder, req)

	return *recorder
}

// DecodeResponse decodes the JSON body of a response into target.
func DecodeResponse(t *testing.T, r *httptest.ResponseRecorder, target any) {
	err := json.Unmarshal(r.Body.Bytes(), &target)
	require.Nil(t, err, "Response %q could not be decoded into %v. Request ID: %s", r.Body, reflect.TypeOf(target), r.Result().Header.Get("x-request-id"))
}

// AssertHTTPStatus fails the test when the response has none of the expected status codes.
func AssertHTTPStatus(t *testing.T, r *httptest.ResponseRecorder, expectedStatus ...int) {
	require.Contains(t, expectedStatus, r.Code, "Unexpected HTTP status. Request ID: '%s' Response body: %s", r.Result().Header.Get("x-request-id"), r.Body.String())
}
