package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pawbridge/pawbridge-api/internal/store"
)

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("repository: not found")

// ErrForbidden indicates the operation targets a protected user (the
// administrative tier cannot be banned or removed).
var ErrForbidden = errors.New("repository: forbidden")

// ErrConflict indicates a uniqueness constraint was hit (duplicate username).
var ErrConflict = errors.New("repository: conflict")

// ErrInvariantViolation indicates derived state was about to be computed from
// impossible inputs (e.g. a non-positive review count during an average
// update). Surfaced loudly rather than persisting garbage.
var ErrInvariantViolation = errors.New("repository: invariant violation")

// Repository aggregates all domain-specific repositories.
type Repository struct {
	Users        *UsersRepository
	Pets         *PetsRepository
	Appointments *AppointmentsRepository
	Availability *AvailabilityRepository
	Messages     *MessagesRepository
	Reviews      *ReviewsRepository
	Reports      *ReportsRepository
}

// New constructs a Repository backed by the provided store.
func New(st *store.Store) *Repository {
	return NewWithPool(st.Pool())
}

// NewWithPool allows constructing repositories directly from a pgx pool.
func NewWithPool(pool *pgxpool.Pool) *Repository {
	return &Repository{
		Users:        &UsersRepository{pool: pool},
		Pets:         &PetsRepository{pool: pool},
		Appointments: &AppointmentsRepository{pool: pool},
		Availability: &AvailabilityRepository{pool: pool},
		Messages:     &MessagesRepository{pool: pool},
		Reviews:      &ReviewsRepository{pool: pool},
		Reports:      &ReportsRepository{pool: pool},
	}
}
