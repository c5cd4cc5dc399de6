// Package testutil provides a fake mapping service and in-memory
// collaborators for tests.
package testutil

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

// MockResponse represents a canned HTTP response
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	// Hold, when set, blocks the handler until it is closed.
	Hold chan struct{}
}

// Upload is one execution request received by the mock service.
type Upload struct {
	Path      string
	Field     string
	FileName  string
	Content   []byte
	UserAgent string
}

// MappingService imitates the mapping service: a catalog endpoint and an
// execution endpoint per mapping id.
type MappingService struct {
	*httptest.Server

	mu        sync.Mutex
	responses map[string]MockResponse
	uploads   []Upload
	hits      map[string]int
}

// NewMappingService starts a server answering 404 until responses are added.
func NewMappingService(t *testing.T) *MappingService {
	t.Helper()
	ms := &MappingService{responses: map[string]MockResponse{}, hits: map[string]int{}}
	ms.Server = httptest.NewServer(http.HandlerFunc(ms.handle))
	t.Cleanup(ms.Close)
	return ms
}

func (ms *MappingService) handle(w http.ResponseWriter, r *http.Request) {
	key := r.Method + " " + r.URL.EscapedPath()
	ms.mu.Lock()
	ms.hits[key]++
	resp, ok := ms.responses[key]
	ms.mu.Unlock()

	if r.Method == http.MethodPost {
		up := Upload{Path: r.URL.EscapedPath(), UserAgent: r.UserAgent()}
		if err := r.ParseMultipartForm(32 << 20); err == nil {
			for field, files := range r.MultipartForm.File {
				up.Field = field
				if len(files) > 0 {
					up.FileName = files[0].Filename
					if f, err := files[0].Open(); err == nil {
						up.Content, _ = io.ReadAll(f)
						_ = f.Close()
					}
				}
			}
		}
		ms.mu.Lock()
		ms.uploads = append(ms.uploads, up)
		ms.mu.Unlock()
	}

	if resp.Hold != nil {
		<-resp.Hold
	}
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, _ = fmt.Fprintf(w, "No mock response configured for %s", key)
		return
	}
	for k, v := range resp.Headers {
		w.Header().Set(k, v)
	}
	w.WriteHeader(resp.StatusCode)
	_, _ = io.WriteString(w, resp.Body)
}

// BaseURL returns the server root with a trailing slash.
func (ms *MappingService) BaseURL(t *testing.T) *url.URL {
	t.Helper()
	u, err := url.Parse(ms.URL + "/")
	if err != nil {
		t.Fatalf("parse mock URL: %v", err)
	}
	return u
}

// SetCatalog answers the catalog endpoint with a JSON body.
func (ms *MappingService) SetCatalog(statusCode int, body string) {
	ms.Set(http.MethodGet, "/api/v1/mappingAdministration/", MockResponse{
		StatusCode: statusCode,
		Body:       body,
		Headers:    map[string]string{"Content-Type": "application/json"},
	})
}

// SetExecution answers executions of mappingID.
func (ms *MappingService) SetExecution(mappingID string, resp MockResponse) {
	ms.Set(http.MethodPost, "/api/v1/mappingExecution/"+url.PathEscape(mappingID), resp)
}

// Set registers a response for "METHOD /escaped/path".
func (ms *MappingService) Set(method, path string, resp MockResponse) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.responses[method+" "+path] = resp
}

// Uploads returns the execution requests received so far.
func (ms *MappingService) Uploads() []Upload {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	out := make([]Upload, len(ms.uploads))
	copy(out, ms.uploads)
	return out
}

// Hits counts requests for "METHOD /escaped/path".
func (ms *MappingService) Hits(method, path string) int {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return ms.hits[method+" "+path]
}

// TotalPosts counts all execution requests.
func (ms *MappingService) TotalPosts() int {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	n := 0
	for k, v := range ms.hits {
		if strings.HasPrefix(k, http.MethodPost+" ") {
			n += v
		}
	}
	return n
}

// TempFile creates a temporary file with content
func TempFile(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	return path
}

// Bytes returns n deterministic bytes.
func Bytes(n int) []byte {
	return bytes.Repeat([]byte{'x'}, n)
}
