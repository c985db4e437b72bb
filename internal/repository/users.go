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

// UsersRepository provides persistence helpers for user profiles.
type UsersRepository struct {
	pool *pgxpool.Pool
}

const userColumns = `
    id,
    username,
    full_name,
    email,
    phone,
    address,
    role,
    average_rating,
    created_at,
    updated_at
`

// UserRegisterParams bundles the fields required to register a user. Pets are
// only persisted for owner-role users, in the same transaction as the profile.
type UserRegisterParams struct {
	Username     string
	PasswordHash string
	FullName     string
	Email        string
	Phone        *string
	Address      string
	Role         domain.Role
	Pets         []PetCreateParams
}

// PetCreateParams bundles the fields required to create a pet.
type PetCreateParams struct {
	Name         string
	Breed        string
	Weight       float32
	Allergies    *string
	SpecialNeeds *string
}

// Credentials carries what a login check needs.
type Credentials struct {
	UserID       int64
	Role         domain.Role
	PasswordHash string
}

// Register inserts a new user and, for owners, their pets as one unit.
func (r *UsersRepository) Register(ctx context.Context, params UserRegisterParams) (domain.User, error) {
	var user domain.User
	err := store.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, fmt.Sprintf(`
            INSERT INTO users (username, password_hash, full_name, email, phone, address, role, average_rating)
            VALUES ($1,$2,$3,$4,$5,$6,$7,NULL)
            RETURNING %s
        `, userColumns),
			params.Username, params.PasswordHash, params.FullName, params.Email, params.Phone, params.Address, params.Role)

		var err error
		user, err = scanUser(row)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrConflict
			}
			return err
		}

		if user.Role == domain.RoleOwner {
			for _, pet := range params.Pets {
				if _, err := tx.Exec(ctx, `
                    INSERT INTO pets (owner_id, name, breed, weight, allergies, special_needs)
                    VALUES ($1,$2,$3,$4,$5,$6)
                `, user.ID, pet.Name, pet.Breed, pet.Weight, pet.Allergies, pet.SpecialNeeds); err != nil {
					return fmt.Errorf("insert pet: %w", err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// CredentialsByUsername fetches what a login check needs. The caller verifies
// the hash and the banned state.
func (r *UsersRepository) CredentialsByUsername(ctx context.Context, username string) (Credentials, error) {
	var creds Credentials
	err := r.pool.QueryRow(ctx, `
        SELECT id, role, password_hash FROM users WHERE username = $1
    `, username).Scan(&creds.UserID, &creds.Role, &creds.PasswordHash)
	if err != nil {
		if err == pgx.ErrNoRows {
			return Credentials{}, ErrNotFound
		}
		return Credentials{}, err
	}
	return creds, nil
}

// PasswordHash fetches the stored hash for one user.
func (r *UsersRepository) PasswordHash(ctx context.Context, userID int64) (string, error) {
	var hash string
	err := r.pool.QueryRow(ctx, `SELECT password_hash FROM users WHERE id = $1`, userID).Scan(&hash)
	if err != nil {
		if err == pgx.ErrNoRows {
			return "", ErrNotFound
		}
		return "", err
	}
	return hash, nil
}

// GetByID fetches a user profile by identifier. The password hash is never
// part of the domain entity.
func (r *UsersRepository) GetByID(ctx context.Context, id int64) (domain.User, error) {
	row := r.pool.QueryRow(ctx, fmt.Sprintf(`SELECT %s FROM users WHERE id = $1`, userColumns), id)
	user, err := scanUser(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.User{}, ErrNotFound
		}
		return domain.User{}, err
	}
	return user, nil
}

// Role resolves the role tag for one user.
func (r *UsersRepository) Role(ctx context.Context, id int64) (domain.Role, error) {
	var role domain.Role
	err := r.pool.QueryRow(ctx, `SELECT role FROM users WHERE id = $1`, id).Scan(&role)
	if err != nil {
		if err == pgx.ErrNoRows {
			return 0, ErrNotFound
		}
		return 0, err
	}
	return role, nil
}

// UserUpdateParams bundles the fields a profile update may change. Pets, when
// non-nil and the user is an owner, replace the existing set wholesale.
type UserUpdateParams struct {
	Username     string
	PasswordHash string
	FullName     string
	Email        string
	Phone        *string
	Address      string
	Pets         []PetCreateParams
	ReplacePets  bool
}

// UpdateProfile updates a user row and optionally replaces their pets, all in
// one transaction.
func (r *UsersRepository) UpdateProfile(ctx context.Context, id int64, params UserUpdateParams) error {
	return store.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var taken bool
		err := tx.QueryRow(ctx, `
            SELECT EXISTS (SELECT 1 FROM users WHERE username = $1 AND id <> $2)
        `, params.Username, id).Scan(&taken)
		if err != nil {
			return err
		}
		if taken {
			return ErrConflict
		}

		tag, err := tx.Exec(ctx, `
            UPDATE users
            SET username = $2,
                password_hash = $3,
                full_name = $4,
                email = $5,
                phone = $6,
                address = $7,
                updated_at = now()
            WHERE id = $1
        `, id, params.Username, params.PasswordHash, params.FullName, params.Email, params.Phone, params.Address)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}

		if !params.ReplacePets {
			return nil
		}

		var role domain.Role
		if err := tx.QueryRow(ctx, `SELECT role FROM users WHERE id = $1`, id).Scan(&role); err != nil {
			return err
		}
		if role != domain.RoleOwner {
			return nil
		}

		if _, err := tx.Exec(ctx, `DELETE FROM pets WHERE owner_id = $1`, id); err != nil {
			return err
		}
		for _, pet := range params.Pets {
			if _, err := tx.Exec(ctx, `
                INSERT INTO pets (owner_id, name, breed, weight, allergies, special_needs)
                VALUES ($1,$2,$3,$4,$5,$6)
            `, id, pet.Name, pet.Breed, pet.Weight, pet.Allergies, pet.SpecialNeeds); err != nil {
				return err
			}
		}
		return nil
	})
}

// Ban marks a user as banned. Administrators cannot be banned.
func (r *UsersRepository) Ban(ctx context.Context, id int64) error {
	role, err := r.Role(ctx, id)
	if err != nil {
		return err
	}
	if role == domain.RoleAdmin {
		return ErrForbidden
	}

	tag, err := r.pool.Exec(ctx, `UPDATE users SET role = $2, updated_at = now() WHERE id = $1`, id, domain.RoleBanned)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (domain.User, error) {
	var user domain.User
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.FullName,
		&user.Email,
		&user.Phone,
		&user.Address,
		&user.Role,
		&user.AverageRating,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return domain.User{}, err
	}
	return user, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
