package knclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/function61/gokit/logex"
	"github.com/function61/knowledgesync/pkg/kntypes"
)

const testToken = "sk-test"

var discardLogl = logex.Levels(logex.Discard)

// in-memory stand-in for the backend's REST API
type fakeBackend struct {
	mu          sync.Mutex
	collections []kntypes.Collection
	files       []kntypes.RemoteFile
	contents    map[string]string // file ID => uploaded content
	requests    []string          // "METHOD path"
	failDelete  map[string]bool
	nextID      int
}

func newFakeBackend(t *testing.T) (*fakeBackend, *Client) {
	t.Helper()

	backend := &fakeBackend{
		contents:   map[string]string{},
		failDelete: map[string]bool{},
	}

	srv := httptest.NewServer(backend.routes())
	t.Cleanup(srv.Close)

	return backend, New(ClientConfig{ServerAddr: srv.URL, AuthToken: testToken}, discardLogl)
}

func (f *fakeBackend) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/auths/", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, map[string]string{"id": "user-1"})
	})

	mux.HandleFunc("GET /api/v1/knowledge/list", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, f.collections)
	})

	mux.HandleFunc("POST /api/v1/knowledge/create", func(w http.ResponseWriter, r *http.Request) {
		req := kntypes.CreateCollectionRequest{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		collection := kntypes.Collection{
			ID:          f.newID("coll"),
			Name:        req.Name,
			Description: req.Description,
			Files:       []kntypes.RemoteFile{},
		}
		f.collections = append(f.collections, collection)

		respondJSON(w, collection)
	})

	mux.HandleFunc("POST /api/v1/files/", func(w http.ResponseWriter, r *http.Request) {
		upload, header, err := r.FormFile("file")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer upload.Close()

		content, err := io.ReadAll(upload)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		file := kntypes.RemoteFile{
			ID:   f.newID("file"),
			Meta: kntypes.FileMeta{Name: header.Filename, Size: int64(len(content))},
		}
		f.files = append(f.files, file)
		f.contents[file.ID] = string(content)

		respondJSON(w, file)
	})

	mux.HandleFunc("POST /api/v1/knowledge/{id}/file/add", func(w http.ResponseWriter, r *http.Request) {
		req := kntypes.AttachFileRequest{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		file := f.fileByID(req.FileID)
		if file == nil {
			http.Error(w, "no such file", http.StatusBadRequest)
			return
		}

		for i := range f.collections {
			if f.collections[i].ID == r.PathValue("id") {
				f.collections[i].Files = append(f.collections[i].Files, *file)
				respondJSON(w, f.collections[i])
				return
			}
		}

		http.NotFound(w, r)
	})

	mux.HandleFunc("GET /api/v1/files/", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, f.files)
	})

	mux.HandleFunc("DELETE /api/v1/files/{id}", func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")

		if f.failDelete[id] {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}

		for i, file := range f.files {
			if file.ID == id {
				f.files = append(f.files[:i], f.files[i+1:]...)
				respondJSON(w, true)
				return
			}
		}

		http.NotFound(w, r)
	})

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		f.requests = append(f.requests, r.Method+" "+r.URL.Path)

		if r.Header.Get("Authorization") != "Bearer "+testToken {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		mux.ServeHTTP(w, r)
	})
}

func (f *fakeBackend) newID(kind string) string {
	f.nextID++
	return fmt.Sprintf("%s-%d", kind, f.nextID)
}

func (f *fakeBackend) fileByID(id string) *kntypes.RemoteFile {
	for i := range f.files {
		if f.files[i].ID == id {
			return &f.files[i]
		}
	}
	return nil
}

func (f *fakeBackend) requestCount(methodAndPathPrefix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	count := 0
	for _, req := range f.requests {
		if len(req) >= len(methodAndPathPrefix) && req[:len(methodAndPathPrefix)] == methodAndPathPrefix {
			count++
		}
	}
	return count
}

func respondJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(data)
}
