package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/PabloGalante/weekendship/internal/app/conversation"
	"github.com/PabloGalante/weekendship/internal/app/files"
	"github.com/PabloGalante/weekendship/internal/domain"
	"github.com/PabloGalante/weekendship/internal/observability"
)

const (
	maxUploadBytes   = 32 << 20
	maxJSONBodyBytes = 1 << 20
)

type Options struct {
	CORSOrigin   string
	CookieSecure bool
}

type Server struct {
	svc   *conversation.Service
	files *files.Service
}

func NewServer(svc *conversation.Service, fileSvc *files.Service, opts Options) http.Handler {
	s := &Server{svc: svc, files: fileSvc}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(withRequestContext)
	r.Use(middleware.Recoverer)
	r.Use(withCORS(opts.CORSOrigin))
	r.Use(withSession(opts.CookieSecure))
	r.Use(withLogging)

	r.Get("/", s.handleRoot)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Route("/conversations", func(r chi.Router) {
			r.Get("/", s.handleListConversations)
			r.Post("/", s.handleSendMessage)
			r.Delete("/", s.handleClearConversations)
			r.Get("/{id}", s.handleGetConversation)
			r.Patch("/{id}/tasks", s.handleUpdateTask)
		})

		r.Route("/files", func(r chi.Router) {
			r.Post("/upload", s.handleUploadFile)
			r.Get("/{id}", s.handleGetFile)
			r.Delete("/{id}", s.handleDeleteFile)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Not Found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})

	return r
}

// ─────────────────────────────────────────────
// DTOs (request/response)
// ─────────────────────────────────────────────

type sendMessageRequest struct {
	Message string `json:"message"`
	Mode    string `json:"mode"`
}

// updateTaskRequest accepts both snake_case (web client) and camelCase keys.
type updateTaskRequest struct {
	TimeBlockIndex      *int  `json:"time_block_index"`
	TaskIndex           *int  `json:"task_index"`
	TimeBlockIndexCamel *int  `json:"timeBlockIndex"`
	TaskIndexCamel      *int  `json:"taskIndex"`
	Completed           *bool `json:"completed"`
}

type conversationResponse struct {
	ID          string              `json:"id"`
	UserMessage string              `json:"userMessage"`
	BotResponse string              `json:"botResponse"`
	ProjectPlan *domain.ProjectPlan `json:"projectPlan"`
	Timestamp   time.Time           `json:"timestamp"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// ─────────────────────────────────────────────
// Handlers
// ─────────────────────────────────────────────

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, messageResponse{Message: "Weekend Ship API is running"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleListConversations(w http.ResponseWriter, r *http.Request) {
	convs, err := s.svc.ListConversations(r.Context(), sessionFromRequest(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toConversationsResponse(convs))
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var req sendMessageRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	conv, err := s.svc.ProcessMessage(r.Context(), conversation.ProcessMessageInput{
		SessionID: sessionFromRequest(r),
		Text:      req.Message,
		Mode:      domain.ParsePlanMode(req.Mode),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toConversationResponse(conv))
}

func (s *Server) handleGetConversation(w http.ResponseWriter, r *http.Request) {
	id := domain.ConversationID(chi.URLParam(r, "id"))

	conv, err := s.svc.GetConversation(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Conversation not found")
			return
		}
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toConversationResponse(conv))
}

func (s *Server) handleClearConversations(w http.ResponseWriter, r *http.Request) {
	if _, err := s.svc.ClearConversations(r.Context(), sessionFromRequest(r)); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Conversations cleared successfully"})
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	var req updateTaskRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	blockIdx := firstSet(req.TimeBlockIndex, req.TimeBlockIndexCamel)
	taskIdx := firstSet(req.TaskIndex, req.TaskIndexCamel)
	if blockIdx == nil || taskIdx == nil || req.Completed == nil {
		writeError(w, http.StatusBadRequest, "time_block_index, task_index and completed are required")
		return
	}

	err := s.svc.UpdateTaskCompletion(r.Context(), conversation.UpdateTaskInput{
		ConversationID: domain.ConversationID(chi.URLParam(r, "id")),
		SessionID:      sessionFromRequest(r),
		TimeBlockIndex: *blockIdx,
		TaskIndex:      *taskIdx,
		Completed:      *req.Completed,
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Conversation or task not found")
			return
		}
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Task status updated successfully"})
}

func (s *Server) handleUploadFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "multipart field \"file\" is required")
		return
	}
	defer file.Close()

	if header.Filename == "" {
		writeError(w, http.StatusBadRequest, "No filename provided")
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	f, err := s.files.Upload(r.Context(), files.UploadInput{
		Filename:    header.Filename,
		Size:        header.Size,
		ContentType: contentType,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func (s *Server) handleGetFile(w http.ResponseWriter, r *http.Request) {
	f, err := s.files.Get(r.Context(), domain.FileID(chi.URLParam(r, "id")))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "File not found")
			return
		}
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func (s *Server) handleDeleteFile(w http.ResponseWriter, r *http.Request) {
	if err := s.files.Delete(r.Context(), domain.FileID(chi.URLParam(r, "id"))); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "File not found")
			return
		}
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "File deleted successfully"})
}

// ─────────────────────────────────────────────
// Conversation Helpers
// ─────────────────────────────────────────────

func toConversationResponse(c *domain.Conversation) conversationResponse {
	return conversationResponse{
		ID:          string(c.ID),
		UserMessage: c.UserMessage,
		BotResponse: c.BotResponse,
		ProjectPlan: c.ProjectPlan,
		Timestamp:   c.Timestamp,
	}
}

func toConversationsResponse(convs []*domain.Conversation) []conversationResponse {
	out := make([]conversationResponse, 0, len(convs))
	for _, c := range convs {
		out = append(out, toConversationResponse(c))
	}
	return out
}

func firstSet(vals ...*int) *int {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}

// ─────────────────────────────────────────────
// HTTP Helpers
// ─────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

// decodeJSONBody reads at most maxJSONBodyBytes into v and answers the
// request itself when the body is unusable.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)

	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil {
		return true
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return false
	}
	writeError(w, http.StatusBadRequest, "invalid JSON body")
	return false
}

// writeServiceError maps domain errors to status codes; anything else is a 500.
// A request the client abandoned gets no body.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, context.Canceled) && r.Context().Err() != nil:
		observability.LoggerFromContext(r.Context()).Warn("client went away", "error", err)
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		observability.LoggerFromContext(r.Context()).Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
