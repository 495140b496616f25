package archive

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/ausocean/hlsorigin/livemodel"
)

func TestS3ArchiverKeyFormat(t *testing.T) {
	a := &S3Archiver{cfg: S3Config{KeyPrefix: "segments/"}}
	got := a.key("reef1", 42)
	want := "segments/reef1/000000000042.ts"
	if got != want {
		t.Errorf("key() = %q, want %q", got, want)
	}
}

// fakeS3 is a minimal in-memory object store that speaks just enough of
// the S3 REST surface (PUT/GET/DELETE on a bucket/key path) for
// S3Archiver's round trip.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newFakeS3() *fakeS3 { return &fakeS3{objects: make(map[string][]byte)} }

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := r.URL.Path
	switch r.Method {
	case http.MethodPut:
		buf := make([]byte, r.ContentLength)
		r.Body.Read(buf)
		f.objects[key] = buf
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		data, ok := f.objects[key]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write(data)
	case http.MethodDelete:
		delete(f.objects, key)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newTestArchiver(t *testing.T, endpoint string) *S3Archiver {
	t.Helper()
	a, err := NewS3Archiver(context.Background(), S3Config{
		Region:          "us-east-1",
		Bucket:          "test-bucket",
		Endpoint:        endpoint,
		AccessKeyID:     "test",
		SecretAccessKey: "test",
	})
	if err != nil {
		t.Fatalf("NewS3Archiver: %v", err)
	}
	return a
}

func TestS3ArchiverArchiveRetrieveDelete(t *testing.T) {
	srv := httptest.NewServer(newFakeS3())
	defer srv.Close()

	a := newTestArchiver(t, srv.URL)
	ctx := context.Background()
	seg := &livemodel.LiveSegment{Index: 7, Data: []byte("mpeg-ts-payload")}

	if err := a.Archive(ctx, "reef1", seg); err != nil {
		t.Fatalf("Archive: %v", err)
	}

	data, err := a.Retrieve(ctx, "reef1", 7)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if string(data) != "mpeg-ts-payload" {
		t.Errorf("Retrieve returned %q, want %q", data, "mpeg-ts-payload")
	}

	if err := a.Delete(ctx, "reef1", 7); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := a.Retrieve(ctx, "reef1", 7); err == nil {
		t.Fatal("expected error retrieving deleted segment")
	}
}
