package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pawbridge/pawbridge-api/internal/domain"
	"github.com/pawbridge/pawbridge-api/internal/store"
)

// ReviewsRepository stores review events and maintains the reviewed user's
// running average rating. Reviews are append-only from this repository's
// point of view; the stored average on the user row is derived state kept
// consistent with the review log incrementally, never recomputed from it.
type ReviewsRepository struct {
	pool *pgxpool.Pool
}

// ReviewCreateParams bundles the fields required to submit a review.
type ReviewCreateParams struct {
	AppointmentID int64
	ReviewerID    int64
	Rating        int
	Comment       string
}

// Create inserts the review and folds its score into the subject's stored
// average. Both statements run in one transaction with the subject row
// locked, so two concurrent submissions for the same subject serialize
// instead of losing an update.
func (r *ReviewsRepository) Create(ctx context.Context, params ReviewCreateParams) (domain.Review, error) {
	var review domain.Review
	err := store.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
            INSERT INTO reviews (appointment_id, reviewer_id, rating, comment)
            VALUES ($1,$2,$3,$4)
            RETURNING id, appointment_id, reviewer_id, rating, comment, created_at
        `, params.AppointmentID, params.ReviewerID, params.Rating, params.Comment)
		if err := row.Scan(&review.ID, &review.AppointmentID, &review.ReviewerID, &review.Rating, &review.Comment, &review.CreatedAt); err != nil {
			if isForeignKeyViolation(err) {
				return ErrNotFound
			}
			return fmt.Errorf("insert review: %w", err)
		}

		return applyNewRating(ctx, tx, params.AppointmentID, params.ReviewerID, params.Rating)
	})
	if err != nil {
		return domain.Review{}, err
	}
	return review, nil
}

// ApplyNewRating folds an already-inserted rating into the subject's stored
// average in its own transaction. Create is the usual entry; this exists for
// callers that persisted the review event separately.
func (r *ReviewsRepository) ApplyNewRating(ctx context.Context, appointmentID, raterID int64, score int) error {
	return store.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return applyNewRating(ctx, tx, appointmentID, raterID, score)
	})
}

// applyNewRating performs the incremental-mean update on tx.
//
// The subject is whichever party of the appointment is not the rater: the
// pet's owner when the rater is the provider, the provider otherwise. The
// review count is computed fresh (every review on an appointment with the
// subject on the provider side or the pet-owner side, including the one just
// inserted) and the prior stored average is treated as the exact mean of
// count-1 events:
//
//	newAverage = (currentAverage*(count-1) + score) / count
//
// A null stored average means this is the subject's first review and the
// average becomes the score itself. Exactly one user row is updated.
//
// The subject lock is FOR NO KEY UPDATE: it serializes concurrent raters of
// the same subject but stays compatible with the FOR KEY SHARE locks the
// review insert's foreign keys take on the reviewer's row, so two users
// reviewing each other cannot deadlock on crossed lock orders.
func applyNewRating(ctx context.Context, tx pgx.Tx, appointmentID, raterID int64, score int) error {
	var (
		subjectID      int64
		currentAverage *float32
	)
	err := tx.QueryRow(ctx, `
        SELECT u.id, u.average_rating
        FROM appointments a
        JOIN pets pet ON pet.id = a.pet_id
        JOIN users u ON u.id = CASE WHEN a.provider_id = $2 THEN pet.owner_id ELSE a.provider_id END
        WHERE a.id = $1
        FOR NO KEY UPDATE OF u
    `, appointmentID, raterID).Scan(&subjectID, &currentAverage)
	if err != nil {
		if err == pgx.ErrNoRows {
			return ErrNotFound
		}
		return fmt.Errorf("resolve review subject: %w", err)
	}

	var reviewCount int64
	err = tx.QueryRow(ctx, `
        SELECT COUNT(*)
        FROM reviews r
        JOIN appointments a ON a.id = r.appointment_id
        WHERE a.provider_id = $1
           OR EXISTS (SELECT 1 FROM pets p WHERE p.owner_id = $1 AND p.id = a.pet_id)
    `, subjectID).Scan(&reviewCount)
	if err != nil {
		return fmt.Errorf("count reviews for user %d: %w", subjectID, err)
	}

	// The just-inserted review is visible to this transaction, so the count
	// can never be zero here unless the log and the stored average have
	// diverged. Refuse to divide by it.
	if reviewCount <= 0 {
		return fmt.Errorf("review count %d for user %d: %w", reviewCount, subjectID, ErrInvariantViolation)
	}

	newAverage := float32(score)
	if currentAverage != nil {
		newAverage = (*currentAverage*float32(reviewCount-1) + float32(score)) / float32(reviewCount)
	}

	tag, err := tx.Exec(ctx, `
        UPDATE users SET average_rating = $2, updated_at = now() WHERE id = $1
    `, subjectID, newAverage)
	if err != nil {
		return fmt.Errorf("persist average for user %d: %w", subjectID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

const reviewDetailColumns = `
    r.id,
    r.appointment_id,
    r.reviewer_id,
    r.rating,
    r.comment,
    r.created_at,
    reviewer.full_name,
    subject.id,
    subject.full_name
`

// AboutUser returns reviews received by one user in either role.
func (r *ReviewsRepository) AboutUser(ctx context.Context, userID int64) ([]domain.ReviewDetails, error) {
	return r.listDetails(ctx, `
        SELECT `+reviewDetailColumns+`
        FROM reviews r
        JOIN appointments a ON a.id = r.appointment_id
        JOIN pets pet ON pet.id = a.pet_id
        JOIN users reviewer ON reviewer.id = r.reviewer_id
        JOIN users subject ON subject.id = $1
        WHERE ((a.provider_id = $1 AND r.reviewer_id = pet.owner_id)
            OR (pet.owner_id = $1 AND r.reviewer_id = a.provider_id))
          AND r.reviewer_id <> $1
        ORDER BY r.created_at DESC
    `, userID)
}

// ByUser returns reviews authored by one user, with the computed subject.
func (r *ReviewsRepository) ByUser(ctx context.Context, reviewerID int64) ([]domain.ReviewDetails, error) {
	return r.listDetails(ctx, `
        SELECT `+reviewDetailColumns+`
        FROM reviews r
        JOIN appointments a ON a.id = r.appointment_id
        JOIN pets pet ON pet.id = a.pet_id
        JOIN users reviewer ON reviewer.id = r.reviewer_id
        JOIN users subject ON subject.id = CASE WHEN a.provider_id = r.reviewer_id THEN pet.owner_id ELSE a.provider_id END
        WHERE r.reviewer_id = $1
        ORDER BY r.created_at DESC
    `, reviewerID)
}

// ForProvider returns reviews on appointments where one user was the provider.
func (r *ReviewsRepository) ForProvider(ctx context.Context, providerID int64) ([]domain.ReviewDetails, error) {
	return r.listDetails(ctx, `
        SELECT `+reviewDetailColumns+`
        FROM reviews r
        JOIN appointments a ON a.id = r.appointment_id
        JOIN users reviewer ON reviewer.id = r.reviewer_id
        JOIN users subject ON subject.id = a.provider_id
        WHERE a.provider_id = $1
        ORDER BY r.created_at DESC
    `, providerID)
}

// ForOwner returns reviews on appointments whose pet one user owns.
func (r *ReviewsRepository) ForOwner(ctx context.Context, ownerID int64) ([]domain.ReviewDetails, error) {
	return r.listDetails(ctx, `
        SELECT `+reviewDetailColumns+`
        FROM reviews r
        JOIN appointments a ON a.id = r.appointment_id
        JOIN pets pet ON pet.id = a.pet_id
        JOIN users reviewer ON reviewer.id = r.reviewer_id
        JOIN users subject ON subject.id = pet.owner_id
        WHERE pet.owner_id = $1
        ORDER BY r.created_at DESC
    `, ownerID)
}

// ListAll returns every review with the computed subject, newest first.
func (r *ReviewsRepository) ListAll(ctx context.Context) ([]domain.ReviewDetails, error) {
	return r.listDetails(ctx, `
        SELECT `+reviewDetailColumns+`
        FROM reviews r
        JOIN appointments a ON a.id = r.appointment_id
        JOIN pets pet ON pet.id = a.pet_id
        JOIN users reviewer ON reviewer.id = r.reviewer_id
        JOIN users subject ON subject.id = CASE WHEN a.provider_id = r.reviewer_id THEN pet.owner_id ELSE a.provider_id END
        ORDER BY r.created_at DESC
    `)
}

func (r *ReviewsRepository) listDetails(ctx context.Context, query string, args ...interface{}) ([]domain.ReviewDetails, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.ReviewDetails, 0)
	for rows.Next() {
		var item domain.ReviewDetails
		if err := rows.Scan(
			&item.ID,
			&item.AppointmentID,
			&item.ReviewerID,
			&item.Rating,
			&item.Comment,
			&item.CreatedAt,
			&item.ReviewerName,
			&item.SubjectID,
			&item.SubjectName,
		); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// ReviewedAppointments returns the ids of appointments one user has already
// reviewed.
func (r *ReviewsRepository) ReviewedAppointments(ctx context.Context, reviewerID int64) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `
        SELECT appointment_id FROM reviews WHERE reviewer_id = $1
    `, reviewerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Delete removes one review. The stored average is deliberately left alone:
// the maintainer is incremental and does not replay the log.
func (r *ReviewsRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
