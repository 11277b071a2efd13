package handler

import (
	"net/http"

	"github.com/mtlprog/bitacora/internal/handler/dto"
)

// handleGetStats returns dashboard statistics.
// @Summary Get statistics
// @Description Counts by status and priority, overdue requests, period activity and executor workload
// @Tags stats
// @Produce json
// @Param period query string false "Period: day, week (default), month, all"
// @Success 200 {object} dto.StatsResponse
// @Failure 422 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /task-requests/stats [get]
func (h *Handler) handleGetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stats.Get(r.Context(), r.URL.Query().Get("period"))
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewStatsResponse(stats))
}
