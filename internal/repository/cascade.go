package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/pawbridge/pawbridge-api/internal/domain"
	"github.com/pawbridge/pawbridge-api/internal/store"
)

// cascadeStep is one deletion in the user-removal cascade: a table name for
// diagnostics and a statement taking the user id as $1.
type cascadeStep struct {
	table string
	stmt  string
}

// userCascade enumerates everything that must disappear with a user, as one
// auditable list. Order is children before parents so statement-time foreign
// keys are never violated: reviews reference appointments, appointments
// reference pets, everything references users.
var userCascade = []cascadeStep{
	{"reviews", `
        DELETE FROM reviews
        WHERE reviewer_id = $1
           OR appointment_id IN (SELECT id FROM appointments WHERE provider_id = $1)
           OR appointment_id IN (
                SELECT a.id FROM appointments a
                JOIN pets p ON p.id = a.pet_id
                WHERE p.owner_id = $1)`},
	{"messages", `
        DELETE FROM messages
        WHERE sender_id = $1 OR receiver_id = $1`},
	{"appointments", `
        DELETE FROM appointments
        WHERE provider_id = $1
           OR pet_id IN (SELECT id FROM pets WHERE owner_id = $1)`},
	{"availability_slots", `
        DELETE FROM availability_slots
        WHERE provider_id = $1`},
	{"reports", `
        DELETE FROM reports
        WHERE reporter_id = $1 OR reported_id = $1`},
	{"pets", `
        DELETE FROM pets
        WHERE owner_id = $1`},
}

// Delete removes a user and every dependent record as one atomic unit.
//
// The role guard runs inside the same transaction with the user row locked:
// a missing user yields ErrNotFound, an administrator ErrForbidden, and in
// both cases nothing is mutated. Any statement failure rolls the whole
// cascade back, so no other transaction ever observes a partially deleted
// user.
func (r *UsersRepository) Delete(ctx context.Context, userID int64) error {
	return store.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var role domain.Role
		err := tx.QueryRow(ctx, `SELECT role FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&role)
		if err != nil {
			if err == pgx.ErrNoRows {
				return ErrNotFound
			}
			return fmt.Errorf("resolve role for user %d: %w", userID, err)
		}
		if role == domain.RoleAdmin {
			return ErrForbidden
		}

		for _, step := range userCascade {
			if _, err := tx.Exec(ctx, step.stmt, userID); err != nil {
				return fmt.Errorf("cascade delete %s for user %d: %w", step.table, userID, err)
			}
		}

		tag, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, userID)
		if err != nil {
			return fmt.Errorf("delete user %d: %w", userID, err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}
