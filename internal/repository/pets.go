package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pawbridge/pawbridge-api/internal/domain"
)

// PetsRepository provides persistence helpers for pet profiles.
type PetsRepository struct {
	pool *pgxpool.Pool
}

// ListByOwner returns all pets belonging to one owner.
func (r *PetsRepository) ListByOwner(ctx context.Context, ownerID int64) ([]domain.Pet, error) {
	rows, err := r.pool.Query(ctx, `
        SELECT id, owner_id, name, breed, weight, allergies, special_needs
        FROM pets
        WHERE owner_id = $1
        ORDER BY id
    `, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	pets := make([]domain.Pet, 0)
	for rows.Next() {
		var pet domain.Pet
		if err := rows.Scan(&pet.ID, &pet.OwnerID, &pet.Name, &pet.Breed, &pet.Weight, &pet.Allergies, &pet.SpecialNeeds); err != nil {
			return nil, err
		}
		pets = append(pets, pet)
	}
	return pets, rows.Err()
}

// OwnerID resolves the owner of one pet.
func (r *PetsRepository) OwnerID(ctx context.Context, petID int64) (int64, error) {
	var ownerID int64
	err := r.pool.QueryRow(ctx, `SELECT owner_id FROM pets WHERE id = $1`, petID).Scan(&ownerID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return 0, ErrNotFound
		}
		return 0, err
	}
	return ownerID, nil
}
