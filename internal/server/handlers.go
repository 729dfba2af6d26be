package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"docrag/internal/domain"
)

type errorResponse struct {
	Error string `json:"error"`
}

type uploadResponse struct {
	Message string `json:"message"`
	Chunks  int    `json:"chunks"`
}

type queryResponse struct {
	Query         string    `json:"query"`
	MatchedChunks []string  `json:"matched_chunks"`
	Scores        []float64 `json:"scores"`
	Response      string    `json:"response"`
}

type runRequest struct {
	Documents string   `json:"documents"`
	Questions []string `json:"questions"`
}

type runResponse struct {
	Answers []string `json:"answers"`
}

type webhookRequest struct {
	Query string `json:"query"`
}

type webhookResponse struct {
	Status   string `json:"status"`
	Query    string `json:"query"`
	Response string `json:"response"`
}

// errBadRequest marks errors caused by a malformed request.
var errBadRequest = errors.New("bad request")

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "docrag is running"})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		s.writeError(w, r, badRequest("failed to parse form: %v", err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, r, badRequest("missing file field"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.writeError(w, r, badRequest("failed to read upload: %v", err))
		return
	}

	result, err := s.ingest.Ingest(r.Context(), domain.Document{Filename: header.Filename, Content: data}, nil)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, uploadResponse{
		Message: fmt.Sprintf("%s uploaded and indexed", header.Filename),
		Chunks:  result.Chunks,
	})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.FormValue("query"))
	if query == "" {
		s.writeError(w, r, badRequest("query is required"))
		return
	}

	k := s.defaultK
	if raw := r.FormValue("k"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			s.writeError(w, r, badRequest("k must be a positive integer"))
			return
		}
		k = n
	}

	answer, err := s.answer.Answer(r.Context(), query, k)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	scores := make([]float64, len(answer.MatchedChunks))
	for i, c := range answer.MatchedChunks {
		scores[i] = c.Score
	}
	writeJSON(w, http.StatusOK, queryResponse{
		Query:         answer.Query,
		MatchedChunks: domain.Texts(answer.MatchedChunks),
		Scores:        scores,
		Response:      answer.Response,
	})
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, badRequest("invalid json: %v", err))
		return
	}
	if strings.TrimSpace(req.Documents) == "" {
		s.writeError(w, r, badRequest("documents is required"))
		return
	}

	answers, err := s.answer.Run(r.Context(), req.Documents, req.Questions)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, runResponse{Answers: answers})
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	var req webhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, badRequest("invalid json: %v", err))
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		s.writeError(w, r, badRequest("query is required"))
		return
	}

	response, err := s.answer.Prompt(r.Context(), req.Query)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, webhookResponse{
		Status:   "success",
		Query:    req.Query,
		Response: response,
	})
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, errBadRequest) {
		status = http.StatusBadRequest
	}
	s.logger.Error("request failed", "path", r.URL.Path, "status", status, "error", err)
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
