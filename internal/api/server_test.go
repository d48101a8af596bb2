package api

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"finknow/internal/answer"
	"finknow/internal/config"
	"finknow/internal/ingest"
	"finknow/internal/providers"
	"finknow/internal/tracker"
	"finknow/internal/vectorstore/memory"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	cfg := config.Config{UploadMaxBytes: 1 << 20, TopK: 5, EmbedDim: 16, ChunkSize: 200, ChunkOverlap: 20}
	log := zap.NewNop()
	store := memory.New()
	tr := tracker.NewMemory()
	mock := providers.NewMockProvider(cfg.EmbedDim)

	ing := ingest.NewService(log, tr, store, mock, ingest.Options{
		ChunkSize:    cfg.ChunkSize,
		ChunkOverlap: cfg.ChunkOverlap,
		EmbedDim:     cfg.EmbedDim,
	})
	ans := answer.NewService(log, store, mock, mock, answer.Options{TopK: cfg.TopK, EmbedDim: cfg.EmbedDim})

	srv := httptest.NewServer(NewServer(cfg, log, ing, ans, store, tr).Routes())
	t.Cleanup(srv.Close)
	return srv
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestUploadRejectsUnsupportedFormat(t *testing.T) {
	srv := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "notes.txt")
	require.NoError(t, err)
	_, err = fw.Write([]byte("plain text, not a pdf"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := http.Post(srv.URL+"/upload", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, "FK-DOC-4000", body.Error.Code)
}

func TestUploadRequiresPost(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/upload")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestAskValidation(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/ask", "application/json", strings.NewReader(`{"question":""}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp2, err := http.Post(srv.URL+"/ask", "application/json", strings.NewReader(`{"question":"q","mode":"hybrid"}`))
	require.NoError(t, err)
	defer resp2.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp2.StatusCode)
}

func TestAskDirectMode(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/ask", "application/json",
		strings.NewReader(`{"question":"tell me about yourself","mode":"direct"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Answer string `json:"answer"`
		Mode   string `json:"mode"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.NotEmpty(t, body.Answer)
	require.Equal(t, "direct", body.Mode)
}

func TestAskRAGModeEmptyStore(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/ask", "application/json",
		strings.NewReader(`{"question":"what was net income?","mode":"rag"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Answer    string `json:"answer"`
		Retrieved []any  `json:"retrieved"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.NotEmpty(t, body.Answer, "empty store must still produce an answer")
	require.Empty(t, body.Retrieved)
}

func TestListDocumentsEmpty(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/documents")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Documents []any `json:"documents"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Empty(t, body.Documents)
}
