package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ausocean/utils/logging"
)

func newTestServer() *server {
	log := logging.New(logging.Info, io.Discard, true)
	return &server{manager: NewManager(context.Background(), nil, nil, nil, nil, log), log: log}
}

func TestCreateStreamRejectsMissingName(t *testing.T) {
	srv := newTestServer()
	req := httptest.NewRequest(http.MethodPost, "/streams", bytes.NewBufferString(`{}`))
	w := httptest.NewRecorder()

	srv.createStream(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestCreateStreamRejectsWrongMethod(t *testing.T) {
	srv := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/streams", nil)
	w := httptest.NewRecorder()

	srv.createStream(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want %d", w.Code, http.StatusMethodNotAllowed)
	}
}

func TestCreateStreamThenIngestThenPlaylist(t *testing.T) {
	srv := newTestServer()

	body := createStreamBody{
		Name:           "reef1",
		WindowSize:     3,
		TargetDuration: 6,
		HasVideo:       true,
	}
	buf, _ := json.Marshal(body)
	createReq := httptest.NewRequest(http.MethodPost, "/streams", bytes.NewReader(buf))
	createW := httptest.NewRecorder()
	srv.createStream(createW, createReq)
	if createW.Code != http.StatusCreated {
		t.Fatalf("createStream status = %d, want %d, body=%s", createW.Code, http.StatusCreated, createW.Body.String())
	}

	ingest := ingestBody{
		Video: []sampleBody{
			{DataBase64: base64.StdEncoding.EncodeToString(lengthPrefixedNAL(0x65, 0x01)), PTS: 0, IsSync: true, Duration: 3000},
		},
	}
	ingestBuf, _ := json.Marshal(ingest)
	ingestReq := httptest.NewRequest(http.MethodPost, "/streams/reef1/segments", bytes.NewReader(ingestBuf))
	ingestW := httptest.NewRecorder()
	srv.ingest(ingestW, ingestReq)
	if ingestW.Code != http.StatusNoContent {
		t.Fatalf("ingest status = %d, want %d, body=%s", ingestW.Code, http.StatusNoContent, ingestW.Body.String())
	}

	plReq := httptest.NewRequest(http.MethodGet, "/streams/reef1/playlist.m3u8", nil)
	plW := httptest.NewRecorder()
	srv.playlist(plW, plReq)
	if plW.Code != http.StatusOK {
		t.Fatalf("playlist status = %d, want %d", plW.Code, http.StatusOK)
	}
	if ct := plW.Header().Get("Content-Type"); ct != "application/vnd.apple.mpegurl" {
		t.Errorf("Content-Type = %q", ct)
	}
	if !bytes.Contains(plW.Body.Bytes(), []byte("#EXTM3U")) {
		t.Error("playlist response missing #EXTM3U")
	}
}

func TestIngestUnknownStreamReturnsNotFound(t *testing.T) {
	srv := newTestServer()
	req := httptest.NewRequest(http.MethodPost, "/streams/missing/segments", bytes.NewBufferString(`{}`))
	w := httptest.NewRecorder()

	srv.ingest(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestDvrPlaylistNotConfiguredReturnsNotFound(t *testing.T) {
	srv := newTestServer()
	body := createStreamBody{Name: "reef1", WindowSize: 3, TargetDuration: 6}
	buf, _ := json.Marshal(body)
	createReq := httptest.NewRequest(http.MethodPost, "/streams", bytes.NewReader(buf))
	srv.createStream(httptest.NewRecorder(), createReq)

	req := httptest.NewRequest(http.MethodGet, "/streams/reef1/dvr.m3u8", nil)
	w := httptest.NewRecorder()
	srv.dvrPlaylist(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestHealthz(t *testing.T) {
	srv := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	srv.healthz(w, req)
	if w.Body.String() != "ok\n" {
		t.Errorf("body = %q, want %q", w.Body.String(), "ok\n")
	}
}

func TestStreamNameFromPath(t *testing.T) {
	got := streamNameFromPath("/streams/reef1/segments", "/streams/", "/segments")
	if got != "reef1" {
		t.Errorf("streamNameFromPath = %q, want reef1", got)
	}
}

func lengthPrefixedNAL(bytes ...byte) []byte {
	out := make([]byte, 4, 4+len(bytes))
	n := len(bytes)
	out[0] = byte(n >> 24)
	out[1] = byte(n >> 16)
	out[2] = byte(n >> 8)
	out[3] = byte(n)
	return append(out, bytes...)
}
