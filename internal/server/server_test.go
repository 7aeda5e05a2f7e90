package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/leapstack-labs/askql/internal/backend"
	"github.com/leapstack-labs/askql/internal/llm"
	"github.com/leapstack-labs/askql/internal/observe"
	"github.com/leapstack-labs/askql/internal/pipeline"
	"github.com/leapstack-labs/askql/internal/testutil"
	"github.com/leapstack-labs/askql/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/leapstack-labs/askql/pkg/adapters/sqlite"
)

// openAIStub serves chat completions whose content is produced by reply.
func openAIStub(t *testing.T, reply func(prompt string) string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		prompt := ""
		for _, m := range body.Messages {
			prompt += m.Content + "\n"
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   "gpt-test",
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": reply(prompt)},
				"finish_reason": "stop",
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestServer(t *testing.T, baseURL string) (http.Handler, *observe.Metrics) {
	t.Helper()
	logger := testutil.NewTestLogger(t)
	metrics := observe.NewMetrics()

	path := filepath.Join(t.TempDir(), "askql.db")
	router := backend.New(backend.Config{
		Embedded: core.StoreConfig{Type: "sqlite", Path: path},
	}, logger, backend.WithMetrics(metrics))
	t.Cleanup(func() { _ = router.Close() })

	var provider llm.Provider
	if baseURL != "" {
		p, err := llm.New(llm.Config{APIKey: "test-key", BaseURL: baseURL, Model: "gpt-test"}, logger, metrics)
		require.NoError(t, err)
		provider = p
	}

	svc := pipeline.Build(router, provider, pipeline.Options{ScriptDBPath: path}, logger, metrics)
	srv := NewServer(Config{Service: svc, Metrics: metrics, Logger: logger})
	return srv.Handler(), metrics
}

func do(t *testing.T, h http.Handler, method, path, contentType string, body io.Reader) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec, out
}

func postJSON(t *testing.T, h http.Handler, path string, v any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return do(t, h, http.MethodPost, path, "application/json", bytes.NewReader(b))
}

func multipartCSV(t *testing.T, filename, content string) (string, io.Reader) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return mw.FormDataContentType(), &buf
}

func TestPreflight(t *testing.T) {
	h, _ := newTestServer(t, "")

	tests := []struct {
		path   string
		method string
	}{
		{"/ask", "POST"},
		{"/csv/ask", "POST"},
		{"/upload", "POST"},
		{"/schema", "GET"},
		{"/datasets", "GET"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec, _ := do(t, h, http.MethodOptions, tt.path, "", nil)
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, tt.method+", OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
			assert.Equal(t, "Content-Type", rec.Header().Get("Access-Control-Allow-Headers"))
		})
	}
}

func TestAsk_InputErrors(t *testing.T) {
	h, _ := newTestServer(t, "")

	rec, body := postJSON(t, h, "/ask", map[string]any{"question": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Question is required", body["error"])

	rec, body = do(t, h, http.MethodPost, "/ask", "application/json", strings.NewReader("{not json"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid JSON body", body["error"])
}

func TestAsk_ModelUnreachable(t *testing.T) {
	dead := httptest.NewServer(http.NotFoundHandler())
	url := dead.URL
	dead.Close()

	h, _ := newTestServer(t, url)
	rec, body := postJSON(t, h, "/ask", map[string]any{"question": "how many items?"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, body["executed"])
	assert.Equal(t, "", body["sql"])
	assert.NotEmpty(t, body["error"])
}

func TestAsk_Executes(t *testing.T) {
	stub := openAIStub(t, func(string) string {
		return `{"sql": "SELECT name FROM sample_data ORDER BY value DESC", "explanation": "Names by value."}`
	})
	h, _ := newTestServer(t, stub.URL)

	rec, body := postJSON(t, h, "/ask", map[string]any{"question": "names by value"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["executed"])
	assert.EqualValues(t, 5, body["rowCount"])
	assert.Equal(t, "Names by value.", body["explanation"])
	rows := body["result"].([]any)
	assert.Equal(t, "Item 4", rows[0].(map[string]any)["name"])
	assert.NotEmpty(t, body["timestamp"])
}

func TestUploadAndDatasetAsk(t *testing.T) {
	var table string
	stub := openAIStub(t, func(prompt string) string {
		switch {
		case strings.Contains(prompt, "Python"):
			return "```python\nprint('ok')\n```"
		case strings.Contains(prompt, "Explain"):
			return "Average age."
		default:
			return fmt.Sprintf("```sql\nSELECT AVG(CAST(age AS REAL)) AS avg_age FROM %s\n```", table)
		}
	})
	h, _ := newTestServer(t, stub.URL)

	ct, payload := multipartCSV(t, "people.csv", "name,age\nAlice,30\nBob,25\nCara,41\n")
	rec, body := do(t, h, http.MethodPost, "/upload", ct, payload)
	require.Equal(t, http.StatusOK, rec.Code, body)
	assert.Equal(t, "people.csv", body["filename"])
	assert.EqualValues(t, 3, body["rowCount"])
	assert.EqualValues(t, 2, body["columnCount"])
	table = body["datasetId"].(string)
	assert.Equal(t, table, body["tableName"])

	rec, body = postJSON(t, h, "/csv/ask", map[string]any{"datasetId": table, "question": "average age?"})
	require.Equal(t, http.StatusOK, rec.Code, body)
	assert.Nil(t, body["error"])
	assert.Equal(t, table, body["tableName"])
	assert.Equal(t, "print('ok')", body["python"])
	assert.Equal(t, "Average age.", body["explanation"])
	preview := body["preview"].([]any)
	require.Len(t, preview, 1)
	assert.InDelta(t, 32.0, preview[0].(map[string]any)["avg_age"], 0.001)

	rec, body = do(t, h, http.MethodGet, "/datasets", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, body["count"])
}

func TestUpload_JSONAndErrors(t *testing.T) {
	h, _ := newTestServer(t, "")

	rec, body := postJSON(t, h, "/upload", map[string]any{"filename": "a.csv", "content": "x,y\n1,2"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, body["rowCount"])
	assert.Equal(t, "Detected 1 rows and 2 columns. Top columns: x, y.", body["analysis"])

	rec, body = postJSON(t, h, "/upload", map[string]any{"filename": "a.csv"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No file provided", body["error"])

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("other", "x"))
	require.NoError(t, mw.Close())
	rec, body = do(t, h, http.MethodPost, "/upload", mw.FormDataContentType(), &buf)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No file provided", body["error"])
}

func TestDatasetAsk_UnknownDataset(t *testing.T) {
	h, _ := newTestServer(t, "")

	rec, body := postJSON(t, h, "/csv/ask", map[string]any{"datasetId": "csv_missing", "question": "q"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No dataset found. Please upload a CSV first.", body["error"])
}

func TestSchema_Stable(t *testing.T) {
	h, _ := newTestServer(t, "")

	_, first := do(t, h, http.MethodGet, "/schema", "", nil)
	_, second := do(t, h, http.MethodGet, "/schema", "", nil)
	assert.EqualValues(t, 1, first["tableCount"])
	assert.EqualValues(t, 5, first["columnCount"])
	assert.Equal(t, first["tableCount"], second["tableCount"])
	assert.Equal(t, first["columnCount"], second["columnCount"])
}

func TestHealthAndMetrics(t *testing.T) {
	h, _ := newTestServer(t, "")

	rec, body := do(t, h, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	mrec := httptest.NewRecorder()
	h.ServeHTTP(mrec, req)
	assert.Equal(t, http.StatusOK, mrec.Code)
	assert.Contains(t, mrec.Body.String(), `askql_http_requests_total{method="GET",route="/healthz",status="200"} 1`)
}

func TestFail(t *testing.T) {
	h := NewHandlers(nil, nil)
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{"input", core.E(core.KindInput, "", errors.New("Question is required")), http.StatusBadRequest, "Question is required"},
		{"classified", core.E(core.KindBackendUnavailable, "schema", errors.New("disk full")), http.StatusOK, "schema: disk full"},
		{"unclassified", errors.New("nil pointer"), http.StatusInternalServerError, "Internal error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.fail(rec, httptest.NewRequest(http.MethodGet, "/x", nil).WithContext(context.Background()), tt.err)
			assert.Equal(t, tt.wantStatus, rec.Code)
			var body errorBody
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantError, body.Error)
		})
	}
}
