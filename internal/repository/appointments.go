package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pawbridge/pawbridge-api/internal/domain"
)

// AppointmentsRepository provides persistence helpers for appointments.
type AppointmentsRepository struct {
	pool *pgxpool.Pool
}

// AppointmentCreateParams bundles the fields required to book an appointment.
type AppointmentCreateParams struct {
	PetID       int64
	ProviderID  int64
	ServiceType string
	Date        time.Time
	StartTime   string
	EndTime     string
}

const appointmentDetailColumns = `
    a.id,
    a.pet_id,
    a.provider_id,
    a.service_type,
    a.date,
    a.start_time::text,
    a.end_time::text,
    a.status,
    pet.name,
    pet.owner_id,
    o.full_name,
    p.full_name
`

const appointmentDetailJoins = `
    FROM appointments a
    JOIN pets pet ON pet.id = a.pet_id
    JOIN users o ON o.id = pet.owner_id
    JOIN users p ON p.id = a.provider_id
`

// Create books an appointment in the pending state.
func (r *AppointmentsRepository) Create(ctx context.Context, params AppointmentCreateParams) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
        INSERT INTO appointments (pet_id, provider_id, service_type, date, start_time, end_time, status)
        VALUES ($1,$2,$3,$4,$5::time,$6::time,'pending')
        RETURNING id
    `, params.PetID, params.ProviderID, params.ServiceType, params.Date, params.StartTime, params.EndTime).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// ListByOwner returns appointments for pets owned by one user.
func (r *AppointmentsRepository) ListByOwner(ctx context.Context, ownerID int64) ([]domain.AppointmentDetails, error) {
	return r.list(ctx, `WHERE pet.owner_id = $1`, ownerID)
}

// ListByProvider returns appointments where one user is the provider.
func (r *AppointmentsRepository) ListByProvider(ctx context.Context, providerID int64) ([]domain.AppointmentDetails, error) {
	return r.list(ctx, `WHERE a.provider_id = $1`, providerID)
}

// ListAll returns every appointment with joined party details.
func (r *AppointmentsRepository) ListAll(ctx context.Context) ([]domain.AppointmentDetails, error) {
	return r.list(ctx, ``)
}

func (r *AppointmentsRepository) list(ctx context.Context, where string, args ...interface{}) ([]domain.AppointmentDetails, error) {
	query := `SELECT ` + appointmentDetailColumns + appointmentDetailJoins + where + ` ORDER BY a.date DESC, a.start_time DESC`
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.AppointmentDetails, 0)
	for rows.Next() {
		var item domain.AppointmentDetails
		if err := rows.Scan(
			&item.ID,
			&item.PetID,
			&item.ProviderID,
			&item.ServiceType,
			&item.Date,
			&item.StartTime,
			&item.EndTime,
			&item.Status,
			&item.PetName,
			&item.OwnerID,
			&item.OwnerName,
			&item.ProviderName,
		); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// UpdateStatus moves an appointment to a new status.
func (r *AppointmentsRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE appointments SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes one appointment.
func (r *AppointmentsRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Parties resolves the two principals of an appointment: the provider and,
// through the pet, the owner.
func (r *AppointmentsRepository) Parties(ctx context.Context, id int64) (providerID, ownerID int64, err error) {
	err = r.pool.QueryRow(ctx, `
        SELECT a.provider_id, pet.owner_id
        FROM appointments a
        JOIN pets pet ON pet.id = a.pet_id
        WHERE a.id = $1
    `, id).Scan(&providerID, &ownerID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return 0, 0, ErrNotFound
		}
		return 0, 0, err
	}
	return providerID, ownerID, nil
}
