// Package testutil provides test utilities for CLI testing.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/leapstack-labs/askql/internal/cli/config"
)

// PeopleCSV is a small dataset shared by CLI tests.
const PeopleCSV = `name,age,city
Ann,30,Oslo
Bob,25,Rome
Cid,41,Lima
`

// SetupWorkspace points the CLI at a fresh embedded store inside a temp
// directory with the primary store disabled and no model configured.
// It returns the directory, which also holds people.csv.
func SetupWorkspace(t *testing.T) string {
	t.Helper()
	config.ResetConfig()
	t.Cleanup(config.ResetConfig)

	dir := t.TempDir()
	t.Chdir(dir)
	for _, key := range []string{"DB_URL", "OPENAI_API_KEY", "ANTHROPIC_API_KEY"} {
		t.Setenv(key, "")
	}
	t.Setenv("ASKQL_PRIMARY__ENABLED", "false")
	t.Setenv("ASKQL_EMBEDDED__PATH", filepath.Join(dir, "askql.db"))
	t.Setenv("ASKQL_LLM__MAX_RETRIES", "0")

	if err := os.WriteFile(filepath.Join(dir, "people.csv"), []byte(PeopleCSV), 0600); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	return dir
}

// StubModel starts an OpenAI-compatible server whose replies come from reply
// and configures the CLI to use it.
func StubModel(t *testing.T, reply func(system, user string) string) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		var system, user string
		for _, m := range req.Messages {
			switch m.Role {
			case "system":
				system = m.Content
			case "user":
				user = m.Content
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-test",
			"object":  "chat.completion",
			"created": 0,
			"model":   "gpt-test",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": reply(system, user)},
			}},
		})
	}))
	t.Cleanup(srv.Close)

	t.Setenv("ASKQL_LLM__API_KEY", "test-key")
	t.Setenv("ASKQL_LLM__BASE_URL", srv.URL)
	t.Setenv("ASKQL_LLM__MODEL", "gpt-test")
}

// AssertContains checks that s contains expected.
func AssertContains(t *testing.T, s, expected string) {
	t.Helper()
	if !strings.Contains(s, expected) {
		t.Errorf("expected output to contain %q, got:\n%s", expected, s)
	}
}

// AssertNotContains checks that s does not contain unexpected.
func AssertNotContains(t *testing.T, s, unexpected string) {
	t.Helper()
	if strings.Contains(s, unexpected) {
		t.Errorf("expected output NOT to contain %q, got:\n%s", unexpected, s)
	}
}
