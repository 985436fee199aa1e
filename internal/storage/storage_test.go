package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func TestObjectStoreUpload(t *testing.T) {
	var gotPath, gotAuth, gotContentType string
	var gotBody []byte

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	store := NewObjectStore(server.URL, "resumes", "secret", zap.NewNop())
	store.HTTPClient = server.Client()

	url, err := store.Upload(context.Background(), "owner/abc/cv.pdf", []byte("%PDF-1.4"), "application/pdf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotPath != "/storage/v1/object/resumes/owner/abc/cv.pdf" {
		t.Fatalf("unexpected upload path: %s", gotPath)
	}
	if gotAuth != "Bearer secret" {
		t.Fatalf("unexpected authorization header: %s", gotAuth)
	}
	if gotContentType != "application/pdf" {
		t.Fatalf("unexpected content type: %s", gotContentType)
	}
	if string(gotBody) != "%PDF-1.4" {
		t.Fatalf("unexpected body: %q", gotBody)
	}
	if url != server.URL+"/storage/v1/object/public/resumes/owner/abc/cv.pdf" {
		t.Fatalf("unexpected public url: %s", url)
	}
}

func TestObjectStoreUploadBadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bucket not found", http.StatusNotFound)
	}))
	defer server.Close()

	store := NewObjectStore(server.URL, "resumes", "secret", zap.NewNop())
	store.HTTPClient = server.Client()

	if _, err := store.Upload(context.Background(), "p", []byte("x"), "application/pdf"); err == nil {
		t.Fatal("expected error for bad status")
	}
}

func TestObjectPath(t *testing.T) {
	owner := uuid.New()
	path := ObjectPath(owner, "cv.pdf")

	parts := strings.Split(path, "/")
	if len(parts) != 3 {
		t.Fatalf("expected 3 segments, got %d: %s", len(parts), path)
	}
	if parts[0] != owner.String() {
		t.Fatalf("expected owner prefix, got %s", parts[0])
	}
	if _, err := uuid.Parse(parts[1]); err != nil {
		t.Fatalf("expected random uuid segment: %v", err)
	}
	if parts[2] != "cv.pdf" {
		t.Fatalf("expected original filename, got %s", parts[2])
	}

	if other := ObjectPath(owner, "cv.pdf"); other == path {
		t.Fatal("expected unique paths for repeated uploads")
	}
}
