package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pawbridge/pawbridge-api/internal/domain"
)

// ReportsRepository provides persistence helpers for user reports.
type ReportsRepository struct {
	pool *pgxpool.Pool
}

// Create files a report in the pending state.
func (r *ReportsRepository) Create(ctx context.Context, reporterID, reportedID int64, description string) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
        INSERT INTO reports (reporter_id, reported_id, description)
        VALUES ($1,$2,$3)
        RETURNING id
    `, reporterID, reportedID, description).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// ListByReporter returns reports filed by one user.
func (r *ReportsRepository) ListByReporter(ctx context.Context, reporterID int64) ([]domain.ReportDetails, error) {
	return r.list(ctx, `WHERE r.reporter_id = $1`, reporterID)
}

// ListAll returns every report, newest first.
func (r *ReportsRepository) ListAll(ctx context.Context) ([]domain.ReportDetails, error) {
	return r.list(ctx, ``)
}

func (r *ReportsRepository) list(ctx context.Context, where string, args ...interface{}) ([]domain.ReportDetails, error) {
	query := `
        SELECT r.id, r.reporter_id, r.reported_id, r.description, r.filed_at, r.status,
               reporter.username, reported.username
        FROM reports r
        JOIN users reporter ON reporter.id = r.reporter_id
        JOIN users reported ON reported.id = r.reported_id
    ` + where + ` ORDER BY r.filed_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.ReportDetails, 0)
	for rows.Next() {
		var item domain.ReportDetails
		if err := rows.Scan(
			&item.ID,
			&item.ReporterID,
			&item.ReportedID,
			&item.Description,
			&item.FiledAt,
			&item.Status,
			&item.ReporterName,
			&item.ReportedName,
		); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// UpdateStatus moves a report to a new status.
func (r *ReportsRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE reports SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
