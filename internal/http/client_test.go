package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ddhttp "github.com/devdraft/saligen/internal/http"
	"github.com/devdraft/saligen/pkg/devdraft"
)

// MockLogger for testing.
type MockLogger struct {
	mu   sync.Mutex
	logs []map[string]interface{}
}

func (l *MockLogger) record(level, msg string, fields map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.logs = append(l.logs, map[string]interface{}{"level": level, "msg": msg, "fields": fields})
}

func (l *MockLogger) Debug(msg string, fields map[string]interface{}) { l.record("debug", msg, fields) }
func (l *MockLogger) Info(msg string, fields map[string]interface{})  { l.record("info", msg, fields) }
func (l *MockLogger) Warn(msg string, fields map[string]interface{})  { l.record("warn", msg, fields) }
func (l *MockLogger) Error(msg string, fields map[string]interface{}) { l.record("error", msg, fields) }

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestClient_Do(t *testing.T) {
	t.Parallel()
	t.Run("successful request", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "/v1/customers", request.URL.Path)
			assert.Equal(t, "GET", request.Method)
			assert.Equal(t, "Bearer test-token", request.Header.Get("Authorization"))

			writer.Header().Set("X-Request-Id", "req_1")
			_ = json.NewEncoder(writer).Encode(map[string]string{"id": "cus_1", "name": "Ada"})
		}))
		defer server.Close()

		client := ddhttp.NewClient()

		resp, err := client.Do(context.Background(), &devdraft.Request{
			Method:  "GET",
			URL:     server.URL + "/v1/customers",
			Headers: http.Header{"Authorization": []string{"Bearer test-token"}},
		})
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
		assert.Equal(t, "req_1", resp.Headers.Get("X-Request-Id"))

		var result map[string]string

		err = json.Unmarshal(resp.Body, &result)
		require.NoError(t, err)
		assert.Equal(t, "cus_1", result["id"])
		assert.Equal(t, "Ada", result["name"])
	})

	t.Run("query parameters merge into existing query", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "/v1/customers", request.URL.Path)
			assert.Equal(t, "active", request.URL.Query().Get("status"))
			assert.Equal(t, "2", request.URL.Query().Get("page"))
			writer.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := ddhttp.NewClient()

		resp, err := client.Do(context.Background(), &devdraft.Request{
			Method: "GET",
			URL:    server.URL + "/v1/customers?status=active",
			Query:  url.Values{"page": []string{"2"}},
		})
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
	})

	t.Run("request with body", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "POST", request.Method)
			assert.Equal(t, "application/json", request.Header.Get("Content-Type"))

			var body map[string]string

			_ = json.NewDecoder(request.Body).Decode(&body)
			assert.Equal(t, "Ada", body["name"])

			writer.WriteHeader(http.StatusCreated)
		}))
		defer server.Close()

		client := ddhttp.NewClient()

		resp, err := client.Do(context.Background(), &devdraft.Request{
			Method:  "POST",
			URL:     server.URL + "/v1/customers",
			Headers: http.Header{"Content-Type": []string{"application/json"}},
			Body:    []byte(`{"name":"Ada"}`),
		})
		require.NoError(t, err)
		assert.Equal(t, 201, resp.StatusCode)
	})

	t.Run("error status is a response, not an error", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			writer.WriteHeader(http.StatusServiceUnavailable)
			_, _ = writer.Write([]byte(`{"message":"down"}`))
		}))
		defer server.Close()

		attempts := 0
		client := ddhttp.NewClient()

		for range 2 {
			attempts++

			resp, err := client.Do(context.Background(), &devdraft.Request{Method: "GET", URL: server.URL})
			require.NoError(t, err)
			assert.Equal(t, 503, resp.StatusCode)
			assert.JSONEq(t, `{"message":"down"}`, string(resp.Body))
		}

		assert.Equal(t, 2, attempts)
	})

	t.Run("connection failure is a transport error", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		target := server.URL
		server.Close()

		client := ddhttp.NewClient()

		_, err := client.Do(context.Background(), &devdraft.Request{Method: "GET", URL: target})
		require.Error(t, err)

		transportErr := &devdraft.TransportError{}
		require.True(t, errors.As(err, &transportErr))
		assert.Equal(t, "GET", transportErr.Op)
	})

	t.Run("timeout is a transport error", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			time.Sleep(200 * time.Millisecond)
			writer.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := ddhttp.NewClient(ddhttp.WithTimeout(20 * time.Millisecond))

		_, err := client.Do(context.Background(), &devdraft.Request{Method: "GET", URL: server.URL})
		require.Error(t, err)

		transportErr := &devdraft.TransportError{}
		assert.True(t, errors.As(err, &transportErr))
	})

	t.Run("with debug logging", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			writer.WriteHeader(http.StatusOK)
			_ = json.NewEncoder(writer).Encode(map[string]string{"result": "ok"})
		}))
		defer server.Close()

		logger := &MockLogger{}
		client := ddhttp.NewClient(ddhttp.WithLogger(logger), ddhttp.WithDebug(true))

		_, err := client.Do(context.Background(), &devdraft.Request{Method: "GET", URL: server.URL + "/v1/customers"})
		require.NoError(t, err)

		// Should have logged request and response
		assert.Len(t, logger.logs, 2)
		assert.Equal(t, "HTTP Request", logger.logs[0]["msg"])
		assert.Equal(t, "HTTP Response", logger.logs[1]["msg"])
	})

	t.Run("no logging without debug", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			writer.WriteHeader(http.StatusNoContent)
		}))
		defer server.Close()

		logger := &MockLogger{}
		client := ddhttp.NewClient(ddhttp.WithLogger(logger))

		resp, err := client.Do(context.Background(), &devdraft.Request{Method: "DELETE", URL: server.URL})
		require.NoError(t, err)
		assert.Equal(t, 204, resp.StatusCode)
		assert.Empty(t, resp.Body)
		assert.Empty(t, logger.logs)
	})
}

func TestClient_Methods(t *testing.T) {
	t.Parallel()

	for _, method := range []string{"GET", "POST", "PUT", "PATCH", "DELETE"} {
		t.Run(method, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
				assert.Equal(t, method, request.Method)
				assert.Equal(t, "/test", request.URL.Path)
				writer.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			client := ddhttp.NewClient(ddhttp.WithHTTPClient(&http.Client{}), ddhttp.WithTimeout(5*time.Second))

			resp, err := client.Do(context.Background(), &devdraft.Request{Method: method, URL: server.URL + "/test"})
			require.NoError(t, err)
			assert.Equal(t, 200, resp.StatusCode)
		})
	}
}
