package handler

import (
	"net/http"

	"github.com/mtlprog/bitacora/internal/handler/dto"
)

// handleListCategories lists categories.
// @Summary List categories
// @Tags categories
// @Produce json
// @Param active query bool false "Only active categories"
// @Success 200 {array} dto.CategoryResponse
// @Security BearerAuth
// @Router /task-request-categories [get]
func (h *Handler) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categories.List(r.Context(), r.URL.Query().Get("active") == "true")
	if err != nil {
		respondDomainError(w, err)
		return
	}

	resp := make([]dto.CategoryResponse, len(categories))
	for i, c := range categories {
		resp[i] = dto.NewCategoryResponse(c)
	}

	respondJSON(w, http.StatusOK, resp)
}

// handleGetDefaultCategory returns the default category.
// @Summary Get the default category
// @Tags categories
// @Produce json
// @Success 200 {object} dto.CategoryResponse
// @Failure 409 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /task-request-categories/default [get]
func (h *Handler) handleGetDefaultCategory(w http.ResponseWriter, r *http.Request) {
	c, err := h.categories.GetDefault(r.Context())
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewCategoryResponse(c))
}

// handleGetCategory returns one category.
// @Summary Get a category
// @Tags categories
// @Produce json
// @Param id path int true "Category ID"
// @Success 200 {object} dto.CategoryResponse
// @Failure 404 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /task-request-categories/{id} [get]
func (h *Handler) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := extractInt64(w, r, "id")
	if !ok {
		return
	}

	c, err := h.categories.Get(r.Context(), id)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewCategoryResponse(c))
}

// handleCreateCategory creates a category.
// @Summary Create a category
// @Tags categories
// @Accept json
// @Produce json
// @Param request body dto.CreateCategoryRequest true "Category"
// @Success 201 {object} dto.CategoryResponse
// @Failure 409 {object} dto.ErrorResponse
// @Failure 422 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /task-request-categories [post]
func (h *Handler) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateCategoryRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}

	c, err := h.categories.Create(r.Context(), req.Name, req.Description, req.IsDefault)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, dto.NewCategoryResponse(c))
}

// handleSetDefaultCategory makes a category the default.
// @Summary Set the default category
// @Tags categories
// @Produce json
// @Param id path int true "Category ID"
// @Success 200 {object} dto.CategoryResponse
// @Failure 404 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /task-request-categories/{id}/default [post]
func (h *Handler) handleSetDefaultCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := extractInt64(w, r, "id")
	if !ok {
		return
	}

	c, err := h.categories.SetAsDefault(r.Context(), id)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewCategoryResponse(c))
}
