package handler

import (
	"net/http"

	"github.com/mtlprog/bitacora/internal/handler/dto"
)

// handleListComments lists the comments of a task request.
// @Summary List comments
// @Description Lists comments with the caller's read state and unread count.
// @Tags comments
// @Produce json
// @Param id path string true "Task request ID"
// @Success 200 {object} dto.CommentsListResponse
// @Failure 404 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /task-requests/{id}/comments [get]
func (h *Handler) handleListComments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := extractTaskRequestID(w, r)
	if !ok {
		return
	}

	comments, err := h.comments.List(ctx, id)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	unread, err := h.comments.UnreadCount(ctx, id, user.ID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	resp := dto.CommentsListResponse{
		Comments:    make([]dto.CommentResponse, len(comments)),
		UnreadCount: unread,
	}
	for i, c := range comments {
		resp.Comments[i] = dto.NewCommentResponse(c, user.ID)
	}

	respondJSON(w, http.StatusOK, resp)
}

// handleAddComment posts a comment.
// @Summary Add a comment
// @Tags comments
// @Accept json
// @Produce json
// @Param id path string true "Task request ID"
// @Param request body dto.CreateCommentRequest true "Comment"
// @Success 201 {object} dto.CommentResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 422 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /task-requests/{id}/comments [post]
func (h *Handler) handleAddComment(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := extractTaskRequestID(w, r)
	if !ok {
		return
	}

	var req dto.CreateCommentRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}

	c, err := h.comments.Add(r.Context(), id, user.ID, req.Content)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, dto.NewCommentResponse(c, user.ID))
}

// handleMarkCommentRead marks a comment as read by the caller.
// @Summary Mark a comment as read
// @Tags comments
// @Param id path string true "Task request ID"
// @Param commentId path int true "Comment ID"
// @Success 204
// @Failure 404 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /task-requests/{id}/comments/{commentId}/read [post]
func (h *Handler) handleMarkCommentRead(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := extractTaskRequestID(w, r)
	if !ok {
		return
	}
	commentID, ok := extractInt64(w, r, "commentId")
	if !ok {
		return
	}

	if err := h.comments.MarkAsRead(r.Context(), id, commentID, user.ID); err != nil {
		respondDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleDeleteComment deletes a comment written by the caller.
// @Summary Delete a comment
// @Tags comments
// @Param id path string true "Task request ID"
// @Param commentId path int true "Comment ID"
// @Success 204
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /task-requests/{id}/comments/{commentId} [delete]
func (h *Handler) handleDeleteComment(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := extractTaskRequestID(w, r)
	if !ok {
		return
	}
	commentID, ok := extractInt64(w, r, "commentId")
	if !ok {
		return
	}

	if err := h.comments.Delete(r.Context(), id, commentID, user.ID); err != nil {
		respondDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
