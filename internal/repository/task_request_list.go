package repository

import (
	"context"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/mtlprog/bitacora/internal/domain"
)

// TaskRequestListFilters holds all supported filters for task request listing.
type TaskRequestListFilters struct {
	Statuses    []string // Optional: filter by status
	Priorities  []string // Optional: filter by priority
	CategoryID  *int64   // Optional: filter by category
	RequesterID *int64   // Optional: filter by requester
	AssignerID  *int64   // Optional: filter by assigner
	ExecutorID  *int64   // Optional: filter by executor
	Overdue     bool     // Optional: only non-terminal requests past their due date
	Sort        []string // Optional: sort fields (with - prefix for DESC)
	Limit       int      // Required: page size
	Offset      int      // Required: page offset
}

const priorityOrder = "CASE priority WHEN 'CRITICAL' THEN 1 WHEN 'HIGH' THEN 2 WHEN 'MEDIUM' THEN 3 WHEN 'LOW' THEN 4 WHEN 'TRIVIAL' THEN 5 END"

// sortableColumns maps accepted sort keys to SQL expressions.
// Keys outside this map are ignored.
var sortableColumns = map[string]string{
	"priority":     priorityOrder,
	"created_at":   "created_at",
	"updated_at":   "updated_at",
	"request_date": "request_date",
	"due_date":     "due_date",
	"status":       "status",
	"title":        "title",
}

func (f TaskRequestListFilters) apply(qb sq.SelectBuilder) sq.SelectBuilder {
	if len(f.Statuses) > 0 {
		qb = qb.Where(sq.Eq{"status": f.Statuses})
	}
	if len(f.Priorities) > 0 {
		qb = qb.Where(sq.Eq{"priority": f.Priorities})
	}
	if f.CategoryID != nil {
		qb = qb.Where(sq.Eq{"category_id": *f.CategoryID})
	}
	if f.RequesterID != nil {
		qb = qb.Where(sq.Eq{"requester_id": *f.RequesterID})
	}
	if f.AssignerID != nil {
		qb = qb.Where(sq.Eq{"assigner_id": *f.AssignerID})
	}
	if f.ExecutorID != nil {
		qb = qb.Where(sq.Eq{"executor_id": *f.ExecutorID})
	}
	if f.Overdue {
		qb = qb.Where("due_date < NOW()").
			Where(sq.NotEq{"status": terminalStatuses()})
	}
	return qb
}

func terminalStatuses() []domain.Status {
	return []domain.Status{domain.StatusCompleted, domain.StatusCancelled, domain.StatusRejected}
}

// orderBy converts sort keys into ORDER BY clauses. Default: priority, then oldest first.
func orderBy(sort []string) []string {
	var clauses []string
	for _, key := range sort {
		dir := "ASC"
		if strings.HasPrefix(key, "-") {
			dir = "DESC"
			key = key[1:]
		}
		if expr, ok := sortableColumns[key]; ok {
			clauses = append(clauses, expr+" "+dir)
		}
	}
	if len(clauses) == 0 {
		clauses = []string{priorityOrder + " ASC", "created_at ASC"}
	}
	return append(clauses, "id ASC")
}

// List retrieves task requests with filters and pagination.
// Returns the page and the total number of matching rows.
func (r *TaskRequestRepository) List(ctx context.Context, filters TaskRequestListFilters) ([]*domain.TaskRequest, int, error) {
	qb := filters.apply(psql.Select(taskRequestColumns...).From("task_requests")).
		OrderBy(orderBy(filters.Sort)...).
		Limit(uint64(filters.Limit)).
		Offset(uint64(filters.Offset))

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build List query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query task requests: %w", err)
	}

	requests, err := scanTaskRequests(rows)
	if err != nil {
		return nil, 0, err
	}

	countQuery, countArgs, err := filters.apply(psql.Select("COUNT(*)").From("task_requests")).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count query: %w", err)
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count task requests: %w", err)
	}

	return requests, total, nil
}
