package httpserver

import (
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/pawbridge/pawbridge-api/internal/domain"
	"github.com/pawbridge/pawbridge-api/internal/repository"
)

type petPayload struct {
	Name         string  `json:"name"`
	Breed        string  `json:"breed"`
	Weight       float32 `json:"weight"`
	Allergies    *string `json:"allergies,omitempty"`
	SpecialNeeds *string `json:"specialNeeds,omitempty"`
}

type registerRequest struct {
	Username string       `json:"username"`
	Password string       `json:"password"`
	FullName string       `json:"fullName"`
	Email    string       `json:"email"`
	Phone    *string      `json:"phone"`
	Address  string       `json:"address"`
	Role     int16        `json:"role"`
	Pets     []petPayload `json:"pets,omitempty"`
}

type userResponse struct {
	ID            int64    `json:"id"`
	Username      string   `json:"username"`
	FullName      string   `json:"fullName"`
	Email         string   `json:"email"`
	Phone         *string  `json:"phone,omitempty"`
	Address       string   `json:"address"`
	Role          int16    `json:"role"`
	AverageRating *float32 `json:"averageRating"`
	CreatedAt     string   `json:"createdAt"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	UserID int64 `json:"userId"`
	Role   int16 `json:"role"`
}

type updateProfileRequest struct {
	Username string       `json:"username"`
	Password string       `json:"password"`
	FullName string       `json:"fullName"`
	Email    string       `json:"email"`
	Phone    *string      `json:"phone"`
	Address  string       `json:"address"`
	Pets     []petPayload `json:"pets"`
}

func toUserResponse(user domain.User) userResponse {
	return userResponse{
		ID:            user.ID,
		Username:      user.Username,
		FullName:      user.FullName,
		Email:         user.Email,
		Phone:         user.Phone,
		Address:       user.Address,
		Role:          int16(user.Role),
		AverageRating: user.AverageRating,
		CreatedAt:     user.CreatedAt.Format(time.RFC3339),
	}
}

func toPetParams(pets []petPayload) []repository.PetCreateParams {
	params := make([]repository.PetCreateParams, 0, len(pets))
	for _, pet := range pets {
		params = append(params, repository.PetCreateParams{
			Name:         strings.TrimSpace(pet.Name),
			Breed:        strings.TrimSpace(pet.Breed),
			Weight:       pet.Weight,
			Allergies:    pet.Allergies,
			SpecialNeeds: pet.SpecialNeeds,
		})
	}
	return params
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" || strings.TrimSpace(req.FullName) == "" {
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "username, password and fullName are required")
		return
	}
	role := domain.Role(req.Role)
	if role != domain.RoleOwner && !role.IsProvider() && role != domain.RoleAdmin {
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "role must be owner, walker, groomer, vet or admin")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cfg.BcryptCost)
	if err != nil {
		s.logger.Printf("hash password error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to register user")
		return
	}

	user, err := s.repo.Users.Register(r.Context(), repository.UserRegisterParams{
		Username:     req.Username,
		PasswordHash: string(hash),
		FullName:     strings.TrimSpace(req.FullName),
		Email:        strings.TrimSpace(req.Email),
		Phone:        req.Phone,
		Address:      strings.TrimSpace(req.Address),
		Role:         role,
		Pets:         toPetParams(req.Pets),
	})
	if err != nil {
		s.respondRepoError(w, err, "register user")
		return
	}

	s.respondJSON(w, http.StatusCreated, toUserResponse(user))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}

	creds, err := s.repo.Users.CredentialsByUsername(r.Context(), strings.TrimSpace(req.Username))
	if err == nil {
		err = bcrypt.CompareHashAndPassword([]byte(creds.PasswordHash), []byte(req.Password))
	}
	if err != nil {
		// One answer for a missing user and a wrong password.
		s.respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid username or password")
		return
	}
	if creds.Role == domain.RoleBanned {
		s.respondError(w, http.StatusForbidden, "FORBIDDEN", "Account is banned")
		return
	}

	s.respondJSON(w, http.StatusOK, loginResponse{UserID: creds.UserID, Role: int16(creds.Role)})
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	user, err := s.repo.Users.GetByID(r.Context(), id)
	if err != nil {
		s.respondRepoError(w, err, "get user")
		return
	}
	s.respondJSON(w, http.StatusOK, toUserResponse(user))
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	var req updateProfileRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" {
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "username is required")
		return
	}

	// Only re-hash when the caller supplied a new password.
	var passwordHash string
	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cfg.BcryptCost)
		if err != nil {
			s.logger.Printf("hash password error: %v", err)
			s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update user")
			return
		}
		passwordHash = string(hash)
	} else {
		existing, err := s.repo.Users.PasswordHash(r.Context(), id)
		if err != nil {
			s.respondRepoError(w, err, "fetch password hash")
			return
		}
		passwordHash = existing
	}

	err = s.repo.Users.UpdateProfile(r.Context(), id, repository.UserUpdateParams{
		Username:     req.Username,
		PasswordHash: passwordHash,
		FullName:     strings.TrimSpace(req.FullName),
		Email:        strings.TrimSpace(req.Email),
		Phone:        req.Phone,
		Address:      strings.TrimSpace(req.Address),
		Pets:         toPetParams(req.Pets),
		ReplacePets:  req.Pets != nil,
	})
	if err != nil {
		s.respondRepoError(w, err, "update user")
		return
	}

	user, err := s.repo.Users.GetByID(r.Context(), id)
	if err != nil {
		s.respondRepoError(w, err, "get user")
		return
	}
	s.respondJSON(w, http.StatusOK, toUserResponse(user))
}

// handleDeleteUser removes the account and everything that hangs off it as
// one atomic unit. Administrators cannot be deleted.
func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	if err := s.repo.Users.Delete(r.Context(), id); err != nil {
		s.respondRepoError(w, err, "delete user")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleBanUser(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	if err := s.repo.Users.Ban(r.Context(), id); err != nil {
		s.respondRepoError(w, err, "ban user")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetUserRole(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	role, err := s.repo.Users.Role(r.Context(), id)
	if err != nil {
		s.respondRepoError(w, err, "get user role")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]int16{"role": int16(role)})
}

type petResponse struct {
	ID           int64   `json:"id"`
	OwnerID      int64   `json:"ownerId"`
	Name         string  `json:"name"`
	Breed        string  `json:"breed"`
	Weight       float32 `json:"weight"`
	Allergies    *string `json:"allergies,omitempty"`
	SpecialNeeds *string `json:"specialNeeds,omitempty"`
}

func (s *Server) handleListPets(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	pets, err := s.repo.Pets.ListByOwner(r.Context(), id)
	if err != nil {
		s.respondRepoError(w, err, "list pets")
		return
	}

	items := make([]petResponse, 0, len(pets))
	for _, pet := range pets {
		items = append(items, petResponse{
			ID:           pet.ID,
			OwnerID:      pet.OwnerID,
			Name:         pet.Name,
			Breed:        pet.Breed,
			Weight:       pet.Weight,
			Allergies:    pet.Allergies,
			SpecialNeeds: pet.SpecialNeeds,
		})
	}
	s.respondJSON(w, http.StatusOK, items)
}

func (s *Server) handlePetOwner(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	ownerID, err := s.repo.Pets.OwnerID(r.Context(), id)
	if err != nil {
		s.respondRepoError(w, err, "get pet owner")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]int64{"ownerId": ownerID})
}
