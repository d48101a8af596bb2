package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"finknow/internal/answer"
	"finknow/internal/config"
	"finknow/internal/extract"
	"finknow/internal/ingest"
	"finknow/internal/providers"
	"finknow/internal/tracker"
	"finknow/internal/vectorstore"
)

type Server struct {
	cfg     config.Config
	log     *zap.Logger
	ingest  *ingest.Service
	answer  *answer.Service
	store   vectorstore.Store
	tracker tracker.Tracker
}

func NewServer(cfg config.Config, log *zap.Logger, ing *ingest.Service, ans *answer.Service, store vectorstore.Store, tr tracker.Tracker) *Server {
	return &Server{
		cfg:     cfg,
		log:     log,
		ingest:  ing,
		answer:  ans,
		store:   store,
		tracker: tr,
	}
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/upload", s.handleUpload)
	mux.HandleFunc("/ask", s.handleAsk)
	mux.HandleFunc("/documents", s.handleDocuments)
	mux.HandleFunc("/documents/", s.handleDocumentsScoped)
	return withCORS(mux)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	if err := r.ParseMultipartForm(s.cfg.UploadMaxBytes); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("parse multipart: %w", err))
		return
	}

	fh := r.MultipartForm.File["file"]
	if len(fh) == 0 {
		if single, ok := firstSingleFile(r.MultipartForm.File); ok {
			fh = append(fh, single)
		}
	}
	if len(fh) == 0 {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("no file provided"))
		return
	}

	src, err := fh[0].Open()
	if err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("open upload: %w", err))
		return
	}
	defer src.Close()
	data, err := io.ReadAll(io.LimitReader(src, s.cfg.UploadMaxBytes+1))
	if err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("read upload: %w", err))
		return
	}
	if int64(len(data)) > s.cfg.UploadMaxBytes {
		writeErr(w, http.StatusRequestEntityTooLarge, fmt.Errorf("upload exceeds %d bytes", s.cfg.UploadMaxBytes))
		return
	}

	res, err := s.ingest.Ingest(r.Context(), fh[0].Filename, data)
	if err != nil {
		writeErr(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	var req struct {
		Question string `json:"question"`
		Mode     string `json:"mode"`
		TopK     int    `json:"top_k"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
		return
	}
	req.Question = strings.TrimSpace(req.Question)
	if req.Question == "" {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("question is required"))
		return
	}
	mode := answer.Mode(strings.ToLower(strings.TrimSpace(req.Mode)))
	switch mode {
	case "", answer.ModeRAG, answer.ModeDirect:
	default:
		writeErr(w, http.StatusBadRequest, fmt.Errorf("mode must be %q or %q", answer.ModeRAG, answer.ModeDirect))
		return
	}

	ans, err := s.answer.Ask(r.Context(), req.Question, mode, req.TopK)
	if err != nil {
		writeErr(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, ans)
}

func (s *Server) handleDocuments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	docs, err := s.store.ListDocuments(r.Context())
	if err != nil {
		writeErr(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

func (s *Server) handleDocumentsScoped(w http.ResponseWriter, r *http.Request) {
	docID := strings.Trim(strings.TrimPrefix(r.URL.Path, "/documents/"), "/")
	if docID == "" || strings.Contains(docID, "/") {
		writeErr(w, http.StatusNotFound, fmt.Errorf("not found"))
		return
	}
	if r.Method != http.MethodDelete {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	if err := s.store.DeleteDocument(r.Context(), docID); err != nil {
		writeErr(w, statusForError(err), err)
		return
	}
	if err := s.tracker.DeleteByDocID(r.Context(), docID); err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	s.log.Info("document deleted", zap.String("doc_id", docID))
	writeJSON(w, http.StatusOK, map[string]any{"deleted": docID})
}

func firstSingleFile(m map[string][]*multipart.FileHeader) (*multipart.FileHeader, bool) {
	for _, v := range m {
		if len(v) > 0 {
			return v[0], true
		}
	}
	return nil, false
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, extract.ErrUnsupportedFormat):
		return http.StatusBadRequest
	case errors.Is(err, extract.ErrNoExtractableText):
		return http.StatusUnprocessableEntity
	case errors.Is(err, providers.ErrEmbeddingService),
		errors.Is(err, providers.ErrLLMService),
		errors.Is(err, vectorstore.ErrVectorStore):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, err error) {
	apiErr := toAPIError(code, err)
	writeJSON(w, code, map[string]any{
		"error": map[string]any{
			"code":    apiErr.Code,
			"message": apiErr.Message,
		},
	})
}

type apiError struct {
	Code    string
	Message string
}

func toAPIError(status int, err error) apiError {
	switch {
	case errors.Is(err, extract.ErrUnsupportedFormat):
		return apiError{Code: "FK-DOC-4000", Message: "Unsupported document format. Upload a PDF."}
	case errors.Is(err, extract.ErrNoExtractableText):
		return apiError{Code: "FK-DOC-4220", Message: "The document is unreadable or contains no extractable text."}
	case errors.Is(err, providers.ErrEmbeddingService):
		return apiError{Code: "FK-EMB-5020", Message: "The embedding service is unavailable. Retry later."}
	case errors.Is(err, providers.ErrLLMService):
		return apiError{Code: "FK-LLM-5021", Message: "The language model service is unavailable. Retry later."}
	case errors.Is(err, vectorstore.ErrVectorStore):
		return apiError{Code: "FK-VEC-5022", Message: "The vector store is unavailable. Check connectivity and credentials."}
	}

	switch status {
	case http.StatusBadRequest:
		msg := "Invalid request. Check inputs and retry."
		if err != nil {
			msg = err.Error()
		}
		return apiError{Code: "FK-API-4001", Message: msg}
	case http.StatusNotFound:
		return apiError{Code: "FK-API-4004", Message: "Requested resource was not found."}
	case http.StatusMethodNotAllowed:
		return apiError{Code: "FK-API-4005", Message: "This endpoint does not support the requested method."}
	case http.StatusRequestEntityTooLarge:
		return apiError{Code: "FK-API-4013", Message: "Uploaded file is too large."}
	default:
		return apiError{Code: "FK-API-5000", Message: "Internal server error. Please retry or check service logs."}
	}
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
