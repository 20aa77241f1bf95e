package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/ancodefactory/postpilot/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

type HistoryRepository struct {
	pool *pgxpool.Pool
}

func NewHistoryRepository(pool *pgxpool.Pool) *HistoryRepository {
	return &HistoryRepository{pool: pool}
}

// RecentVariantIDs returns the variant IDs used by the most recent `window`
// selections at or before plannedAt, scoped either to the whole template or
// to a single schedule's own history.
func (r *HistoryRepository) RecentVariantIDs(ctx context.Context, templateID, scheduleID string, scope domain.NoRepeatScope, window int, plannedAt time.Time) (map[string]bool, error) {
	var query string
	var args []any

	if scope == domain.ScopeSchedule {
		query = `
			SELECT variant_id FROM variant_selection_history
			WHERE schedule_id = $1 AND planned_at <= $2
			ORDER BY planned_at DESC
			LIMIT $3`
		args = []any{scheduleID, plannedAt, window}
	} else {
		query = `
			SELECT variant_id FROM variant_selection_history
			WHERE template_id = $1 AND planned_at <= $2
			ORDER BY planned_at DESC
			LIMIT $3`
		args = []any{templateID, plannedAt, window}
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("recent variant ids: %w", err)
	}
	defer rows.Close()

	seen := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan variant id: %w", err)
		}
		seen[id] = true
	}
	return seen, rows.Err()
}
