package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/atlaslab/handbook/internal/agent"
)

// Asker answers questions. Satisfied by agent.Executor.
type Asker interface {
	Ask(ctx context.Context, question agent.Question) agent.Answer
}

// askRequest is the POST /api/v1/ask body.
type askRequest struct {
	Question string `json:"question"`
	ThreadID string `json:"thread_id"`
}

// askResponse is the success envelope: the answer text and the category it
// was answered under.
type askResponse struct {
	Answer string `json:"answer"`
	Source string `json:"source"`
}

// maxQuestionBytes bounds the request body; handbook questions are short.
const maxQuestionBytes = 16 << 10

// Ask handles POST /api/v1/ask.
type Ask struct {
	asker  Asker
	logger *slog.Logger
}

// NewAsk creates the ask handler. logger may be nil.
func NewAsk(asker Asker, logger *slog.Logger) *Ask {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ask{asker: asker, logger: logger}
}

// ServeHTTP decodes the request, runs the graph, and writes {answer, source}.
func (h *Ask) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxQuestionBytes)

	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}

	req.Question = strings.TrimSpace(req.Question)
	if req.Question == "" {
		writeError(w, h.logger, http.StatusBadRequest, "bad_request", "question is required")
		return
	}
	if req.ThreadID == "" {
		writeError(w, h.logger, http.StatusBadRequest, "bad_request", "thread_id is required")
		return
	}

	answer := h.asker.Ask(r.Context(), agent.Question{
		Text:     req.Question,
		ThreadID: req.ThreadID,
	})

	writeJSON(w, h.logger, http.StatusOK, askResponse{
		Answer: answer.Text,
		Source: string(answer.Source),
	})
}
