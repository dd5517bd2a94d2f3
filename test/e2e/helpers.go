//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const adminToken = "e2e-admin-token"

// E2ETestEnv holds all resources needed for E2E tests
type E2ETestEnv struct {
	T          *testing.T
	Ctx        context.Context
	WorkDir    string
	BinaryDir  string
	ModelURL   string
	ServerURL  string
	HTTPClient *http.Client

	model  *httptest.Server
	server *exec.Cmd
}

// SetupE2EEnv builds the binaries and starts a fake model provider. The
// server itself is started by StartServer once artifacts exist.
func SetupE2EEnv(t *testing.T) *E2ETestEnv {
	model := newFakeModel()

	env := &E2ETestEnv{
		T:          t,
		Ctx:        context.Background(),
		WorkDir:    t.TempDir(),
		ModelURL:   model.URL + "/v1",
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		model:      model,
	}
	env.BuildBinaries()
	return env
}

// Cleanup releases all resources
func (e *E2ETestEnv) Cleanup() {
	e.StopServer()
	if e.model != nil {
		e.model.Close()
	}
	if e.BinaryDir != "" {
		os.RemoveAll(e.BinaryDir)
	}
}

// keywordVector embeds text as counts of a few keywords plus a small bias,
// so related texts score high and unrelated ones stay near zero.
func keywordVector(text string) []float32 {
	lower := strings.ToLower(text)
	return []float32{
		float32(strings.Count(lower, "cat")),
		float32(strings.Count(lower, "dog")),
		float32(strings.Count(lower, "star")),
		0.05,
	}
}

// newFakeModel serves the embeddings and chat completions endpoints.
func newFakeModel() *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/embeddings", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Input []string `json:"input"`
			Model string   `json:"model"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		data := make([]map[string]any, len(req.Input))
		for i, text := range req.Input {
			data[i] = map[string]any{"object": "embedding", "embedding": keywordVector(text), "index": i}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"object": "list", "data": data, "model": req.Model})
	})
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		last := req.Messages[len(req.Messages)-1].Content
		answer := "general answer"
		if strings.Contains(last, "Context: ") {
			answer = "grounded answer"
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-e2e",
			"object":  "chat.completion",
			"created": time.Now().Unix(),
			"model":   req.Model,
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]string{"role": "assistant", "content": answer},
				"finish_reason": "stop",
			}},
		})
	})
	return httptest.NewServer(mux)
}

// BuildBinaries builds the groundqa and groundqad binaries
func (e *E2ETestEnv) BuildBinaries() {
	tmpDir, err := os.MkdirTemp("", "groundqa-e2e-*")
	if err != nil {
		e.T.Fatalf("failed to create temp dir: %v", err)
	}
	e.BinaryDir = tmpDir

	for _, name := range []string{"groundqad", "groundqa"} {
		cmd := exec.Command("go", "build", "-o", filepath.Join(tmpDir, name), "./cmd/"+name)
		cmd.Dir = "../.."
		if out, err := cmd.CombinedOutput(); err != nil {
			e.T.Fatalf("failed to build %s: %v\n%s", name, err, out)
		}
	}
}

// Path returns a path inside the work dir.
func (e *E2ETestEnv) Path(parts ...string) string {
	return filepath.Join(append([]string{e.WorkDir}, parts...)...)
}

// WriteFile writes content to a path inside the work dir.
func (e *E2ETestEnv) WriteFile(rel, content string) {
	path := e.Path(rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		e.T.Fatalf("failed to create dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		e.T.Fatalf("failed to write %s: %v", rel, err)
	}
}

func (e *E2ETestEnv) serverEnv() []string {
	return append(os.Environ(),
		"GROUNDQA_OPENAI_API_KEY=e2e",
		"GROUNDQA_EMBEDDING_BASE_URL="+e.ModelURL,
		"GROUNDQA_GENERATION_BASE_URL="+e.ModelURL,
		"GROUNDQA_SENTENCE_SPLITTER=regexp",
		"GROUNDQA_CHUNK_WINDOW=2",
		"GROUNDQA_INDEX_DIR="+e.Path("text_embeddings"),
		"GROUNDQA_AUDIO_TABLE="+e.Path("audio.csv"),
		"GROUNDQA_AUDIO_CHUNK_ROOT="+e.Path("chunks"),
		"GROUNDQA_RELOAD_INTERVAL=0",
		"GROUNDQA_ADMIN_TOKEN="+adminToken,
		"GROUNDQA_S3_ENDPOINT=",
		"GROUNDQA_SENTRY_DSN=",
	)
}

// RunServerCLI runs a groundqad command with the server environment.
func (e *E2ETestEnv) RunServerCLI(args ...string) (string, error) {
	cmd := exec.Command(filepath.Join(e.BinaryDir, "groundqad"), args...)
	cmd.Dir = e.WorkDir
	cmd.Env = e.serverEnv()
	out, err := cmd.CombinedOutput()
	return string(out), err
}

// RunClient runs the groundqa CLI against the running server.
func (e *E2ETestEnv) RunClient(args ...string) (string, error) {
	cmd := exec.Command(filepath.Join(e.BinaryDir, "groundqa"), args...)
	cmd.Dir = e.WorkDir
	cmd.Env = append(os.Environ(),
		"GROUNDQA_API_URL="+e.ServerURL,
		"GROUNDQA_ADMIN_TOKEN=",
		"XDG_CONFIG_HOME="+e.Path(".config"),
		"HOME="+e.WorkDir,
	)
	out, err := cmd.CombinedOutput()
	return string(out), err
}

// StartServer runs groundqad serve on a free port and waits for /health.
func (e *E2ETestEnv) StartServer() {
	port, err := getFreePort()
	if err != nil {
		e.T.Fatalf("failed to get free port: %v", err)
	}

	var logs bytes.Buffer
	cmd := exec.Command(filepath.Join(e.BinaryDir, "groundqad"), "serve", "--port", fmt.Sprint(port))
	cmd.Dir = e.WorkDir
	cmd.Env = e.serverEnv()
	cmd.Stdout = &logs
	cmd.Stderr = &logs
	if err := cmd.Start(); err != nil {
		e.T.Fatalf("failed to start server: %v", err)
	}
	e.server = cmd
	e.ServerURL = fmt.Sprintf("http://127.0.0.1:%d", port)

	if err := e.waitHealthy(15 * time.Second); err != nil {
		e.StopServer()
		e.T.Fatalf("server did not become healthy: %v\n%s", err, logs.String())
	}
}

// StopServer interrupts the server and waits for it to exit.
func (e *E2ETestEnv) StopServer() {
	if e.server == nil || e.server.Process == nil {
		return
	}
	_ = e.server.Process.Signal(os.Interrupt)
	done := make(chan struct{})
	go func() {
		_ = e.server.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		_ = e.server.Process.Kill()
	}
	e.server = nil
}

func (e *E2ETestEnv) waitHealthy(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	var lastErr error
	for time.Now().Before(deadline) {
		resp, err := e.HTTPClient.Get(e.ServerURL + "/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
			lastErr = fmt.Errorf("status %d", resp.StatusCode)
		} else {
			lastErr = err
		}
		time.Sleep(100 * time.Millisecond)
	}
	return lastErr
}

// APIResponse represents a standard API response
type APIResponse struct {
	StatusCode int
	Data       json.RawMessage `json:"data"`
	Error      string          `json:"error,omitempty"`
	Code       string          `json:"code,omitempty"`
}

// Get performs a GET request
func (e *E2ETestEnv) Get(path, authToken string) (*APIResponse, error) {
	return e.doRequest(http.MethodGet, path, nil, authToken)
}

// Post performs a POST request
func (e *E2ETestEnv) Post(path string, body interface{}, authToken string) (*APIResponse, error) {
	return e.doRequest(http.MethodPost, path, body, authToken)
}

// doRequest returns the decoded envelope for any status, so tests can assert
// on error codes.
func (e *E2ETestEnv) doRequest(method, path string, body interface{}, authToken string) (*APIResponse, error) {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal body: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(e.Ctx, method, e.ServerURL+path, reqBody)
	if err != nil {
		return nil, err
	}
	if authToken != "" {
		req.Header.Set("Authorization", "Bearer "+authToken)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	apiResp := &APIResponse{StatusCode: resp.StatusCode}
	if err := json.Unmarshal(respBody, apiResp); err != nil {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
	}
	return apiResp, nil
}

func getFreePort() (int, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}
