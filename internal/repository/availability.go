package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pawbridge/pawbridge-api/internal/domain"
)

// AvailabilityRepository provides persistence helpers for provider
// availability slots.
type AvailabilityRepository struct {
	pool *pgxpool.Pool
}

// AvailabilityCreateParams bundles the fields required to open a slot.
type AvailabilityCreateParams struct {
	ProviderID int64
	Date       time.Time
	StartTime  string
	EndTime    string
}

// AvailabilityFilters narrows the public slot listing.
type AvailabilityFilters struct {
	Date         *time.Time
	ProviderType *string
}

// Create opens a slot for a provider. The slot's provider type is derived
// from the provider's role; non-provider roles are rejected.
func (r *AvailabilityRepository) Create(ctx context.Context, params AvailabilityCreateParams) (int64, error) {
	users := &UsersRepository{pool: r.pool}
	role, err := users.Role(ctx, params.ProviderID)
	if err != nil {
		return 0, err
	}
	if !role.IsProvider() {
		return 0, fmt.Errorf("user %d: %w", params.ProviderID, ErrForbidden)
	}

	var id int64
	err = r.pool.QueryRow(ctx, `
        INSERT INTO availability_slots (provider_id, provider_type, date, start_time, end_time)
        VALUES ($1,$2,$3,$4::time,$5::time)
        RETURNING id
    `, params.ProviderID, role.ProviderType(), params.Date, params.StartTime, params.EndTime).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// List returns slots joined with provider profile fields, optionally
// filtered by date and provider type.
func (r *AvailabilityRepository) List(ctx context.Context, filters AvailabilityFilters) ([]domain.AvailabilityDetails, error) {
	where := make([]string, 0, 2)
	args := make([]interface{}, 0, 2)
	if filters.Date != nil {
		args = append(args, *filters.Date)
		where = append(where, fmt.Sprintf("s.date = $%d", len(args)))
	}
	if filters.ProviderType != nil {
		args = append(args, *filters.ProviderType)
		where = append(where, fmt.Sprintf("s.provider_type = $%d", len(args)))
	}

	query := `
        SELECT s.id, s.provider_id, s.provider_type, s.date, s.start_time::text, s.end_time::text,
               u.full_name, u.phone, u.address, u.average_rating, u.role
        FROM availability_slots s
        JOIN users u ON u.id = s.provider_id
    `
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY s.date, s.start_time"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.AvailabilityDetails, 0)
	for rows.Next() {
		var item domain.AvailabilityDetails
		if err := rows.Scan(
			&item.ID,
			&item.ProviderID,
			&item.ProviderType,
			&item.Date,
			&item.StartTime,
			&item.EndTime,
			&item.ProviderName,
			&item.Phone,
			&item.Address,
			&item.AverageRating,
			&item.Role,
		); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// ListByProvider returns one provider's open slots.
func (r *AvailabilityRepository) ListByProvider(ctx context.Context, providerID int64) ([]domain.AvailabilitySlot, error) {
	rows, err := r.pool.Query(ctx, `
        SELECT id, provider_id, provider_type, date, start_time::text, end_time::text
        FROM availability_slots
        WHERE provider_id = $1
        ORDER BY date, start_time
    `, providerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	slots := make([]domain.AvailabilitySlot, 0)
	for rows.Next() {
		var slot domain.AvailabilitySlot
		if err := rows.Scan(&slot.ID, &slot.ProviderID, &slot.ProviderType, &slot.Date, &slot.StartTime, &slot.EndTime); err != nil {
			return nil, err
		}
		slots = append(slots, slot)
	}
	return slots, rows.Err()
}

// Delete removes one slot.
func (r *AvailabilityRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM availability_slots WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
