package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mtlprog/bitacora/internal/domain"
	"github.com/mtlprog/bitacora/internal/handler/dto"
	"github.com/mtlprog/bitacora/internal/metrics"
	"github.com/mtlprog/bitacora/internal/middleware"
	"github.com/mtlprog/bitacora/internal/repository"
	"github.com/mtlprog/bitacora/internal/service"
	"github.com/prometheus/client_golang/prometheus"
)

// maxBodyBytes limits JSON request bodies.
const maxBodyBytes = 1 << 20

// Options configures a Handler.
type Options struct {
	// JWTSecret verifies bearer tokens.
	JWTSecret []byte
	// Metrics records workflow metrics. Optional.
	Metrics *metrics.Metrics
	// Gatherer is served at /metrics when set.
	Gatherer prometheus.Gatherer
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	pool           *pgxpool.Pool
	workflow       *service.WorkflowService
	requests       *service.RequestService
	history        *service.HistoryService
	categories     *service.CategoryService
	comments       *service.CommentService
	attachments    *service.AttachmentService
	stats          *service.StatsService
	authMiddleware *middleware.AuthMiddleware
	gatherer       prometheus.Gatherer
	now            func() time.Time
}

// New creates a new Handler instance with all dependencies.
func New(pool *pgxpool.Pool, opts Options) *Handler {
	// Create repositories
	requestRepo := repository.NewTaskRequestRepository(pool)
	historyRepo := repository.NewHistoryRepository(pool)
	outboxRepo := repository.NewOutboxRepository(pool)
	categoryRepo := repository.NewCategoryRepository(pool)

	// Create services
	history := service.NewHistoryService(historyRepo, requestRepo)

	return &Handler{
		pool:           pool,
		workflow:       service.NewWorkflowService(pool, requestRepo, outboxRepo, history, opts.Metrics),
		requests:       service.NewRequestService(pool, requestRepo, categoryRepo, outboxRepo, history),
		history:        history,
		categories:     service.NewCategoryService(pool, categoryRepo),
		comments:       service.NewCommentService(repository.NewCommentRepository(pool), requestRepo),
		attachments:    service.NewAttachmentService(repository.NewAttachmentRepository(pool), requestRepo),
		stats:          service.NewStatsService(repository.NewStatsRepository(pool)),
		authMiddleware: middleware.NewAuthMiddleware(opts.JWTSecret),
		gatherer:       opts.Gatherer,
		now:            time.Now,
	}
}

// protect wraps fn with authentication and, when roles are given, a role check.
func (h *Handler) protect(fn http.HandlerFunc, roles ...domain.Role) http.Handler {
	var next http.Handler = fn
	if len(roles) > 0 {
		next = middleware.RequireRoles(roles...)(next)
	}
	return h.authMiddleware.Authenticate(next)
}

// RegisterRoutes registers all HTTP routes.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Health check
	mux.HandleFunc("GET /healthz", h.handleHealthz)

	if h.gatherer != nil {
		mux.Handle("GET /metrics", metrics.Handler(h.gatherer))
	}

	const (
		requester = domain.RoleRequester
		assigner  = domain.RoleAssigner
		executor  = domain.RoleExecutor
		admin     = domain.RoleAdmin
	)

	// Task requests
	mux.Handle("POST /api/task-requests", h.protect(h.handleCreateTaskRequest, requester, admin))
	mux.Handle("GET /api/task-requests", h.protect(h.handleListTaskRequests))
	mux.Handle("GET /api/task-requests/stats", h.protect(h.handleGetStats))
	mux.Handle("GET /api/task-requests/{id}", h.protect(h.handleGetTaskRequest))
	mux.Handle("PUT /api/task-requests/{id}", h.protect(h.handleUpdateTaskRequest, requester, admin))
	mux.Handle("DELETE /api/task-requests/{id}", h.protect(h.handleDeleteTaskRequest, admin))
	mux.Handle("GET /api/task-requests/{id}/history", h.protect(h.handleGetHistory))

	// Workflow
	mux.Handle("POST /api/task-requests/{id}/submit", h.protect(h.handleSubmit, requester, admin))
	mux.Handle("POST /api/task-requests/{id}/assign", h.protect(h.handleAssign, assigner, admin))
	mux.Handle("POST /api/task-requests/{id}/assign-executor", h.protect(h.handleAssignExecutor, assigner, admin))
	mux.Handle("POST /api/task-requests/{id}/start", h.protect(h.handleStart, executor, admin))
	mux.Handle("POST /api/task-requests/{id}/complete", h.protect(h.handleComplete, executor, assigner, admin))
	mux.Handle("POST /api/task-requests/{id}/cancel", h.protect(h.handleCancel, requester, admin))
	mux.Handle("POST /api/task-requests/{id}/reject", h.protect(h.handleReject, assigner, admin))

	// Comments
	mux.Handle("GET /api/task-requests/{id}/comments", h.protect(h.handleListComments))
	mux.Handle("POST /api/task-requests/{id}/comments", h.protect(h.handleAddComment))
	mux.Handle("POST /api/task-requests/{id}/comments/{commentId}/read", h.protect(h.handleMarkCommentRead))
	mux.Handle("DELETE /api/task-requests/{id}/comments/{commentId}", h.protect(h.handleDeleteComment))

	// Attachments
	mux.Handle("GET /api/task-requests/{id}/attachments", h.protect(h.handleListAttachments))
	mux.Handle("POST /api/task-requests/{id}/attachments", h.protect(h.handleAddAttachment))
	mux.Handle("DELETE /api/task-requests/{id}/attachments/{attachmentId}", h.protect(h.handleDeleteAttachment))

	// Categories
	mux.Handle("GET /api/task-request-categories", h.protect(h.handleListCategories))
	mux.Handle("GET /api/task-request-categories/default", h.protect(h.handleGetDefaultCategory))
	mux.Handle("GET /api/task-request-categories/{id}", h.protect(h.handleGetCategory))
	mux.Handle("POST /api/task-request-categories", h.protect(h.handleCreateCategory, admin))
	mux.Handle("POST /api/task-request-categories/{id}/default", h.protect(h.handleSetDefaultCategory, admin))
}

// handleHealthz returns 200 OK if the database is reachable.
func (h *Handler) handleHealthz(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.pool.Ping(ctx); err != nil {
		slog.Error("database health check failed", "error", err)
		http.Error(w, "database unavailable", http.StatusServiceUnavailable)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// Ping checks if the database is reachable (used for testing).
func (h *Handler) Ping(ctx context.Context) error {
	return h.pool.Ping(ctx)
}

// respondJSON writes a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// respondError writes a standard error response.
func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, dto.NewErrorResponse(code, message))
}

// respondDomainError maps err to a status and writes it.
func respondDomainError(w http.ResponseWriter, err error) {
	status, code, message := dto.MapDomainError(err)
	respondError(w, status, code, message)
}

// decodeJSON reads the request body into v. When optional is set an empty
// body is accepted. Returns false if an error was already sent to the client.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any, optional bool) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if optional && errors.Is(err, io.EOF) {
			return true
		}
		respondError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return false
	}
	return true
}

// currentUser returns the authenticated user.
// Returns (nil, false) if no user is present (error already sent to client).
func currentUser(w http.ResponseWriter, r *http.Request) (*domain.User, bool) {
	user, err := middleware.GetUserFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return nil, false
	}
	return user, true
}

// extractTaskRequestID extracts and validates the task request ID from the path.
// Returns (id, true) if valid, ("", false) if invalid (error already sent to client).
func extractTaskRequestID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.PathValue("id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "task request id is required")
		return "", false
	}

	if _, err := uuid.Parse(id); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "task request id must be a valid UUID")
		return "", false
	}

	return id, true
}

// extractInt64 parses a numeric path parameter.
func extractInt64(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	n, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || n <= 0 {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", name+" must be a positive integer")
		return 0, false
	}
	return n, true
}

// splitAndTrim splits a string by delimiter and trims whitespace.
func splitAndTrim(s, sep string) []string {
	parts := strings.Split(s, sep)
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
