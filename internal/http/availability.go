package httpserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/pawbridge/pawbridge-api/internal/domain"
	"github.com/pawbridge/pawbridge-api/internal/repository"
)

type availabilityCreateRequest struct {
	ProviderID int64  `json:"providerId"`
	Date       string `json:"date"`
	StartTime  string `json:"startTime"`
	EndTime    string `json:"endTime"`
}

type availabilitySlotResponse struct {
	ID           int64  `json:"id"`
	ProviderID   int64  `json:"providerId"`
	ProviderType string `json:"providerType"`
	Date         string `json:"date"`
	StartTime    string `json:"startTime"`
	EndTime      string `json:"endTime"`
}

type availabilityDetailsResponse struct {
	availabilitySlotResponse
	ProviderName  string   `json:"providerName"`
	Phone         *string  `json:"phone,omitempty"`
	Address       string   `json:"address"`
	AverageRating *float32 `json:"averageRating"`
}

func (s *Server) handleCreateAvailability(w http.ResponseWriter, r *http.Request) {
	var req availabilityCreateRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "date must follow YYYY-MM-DD format")
		return
	}
	start, okStart := parseClock(req.StartTime)
	end, okEnd := parseClock(req.EndTime)
	if !okStart || !okEnd {
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "startTime and endTime must follow HH:MM or HH:MM:SS format")
		return
	}
	if end <= start {
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "endTime must be after startTime")
		return
	}

	id, err := s.repo.Availability.Create(r.Context(), repository.AvailabilityCreateParams{
		ProviderID: req.ProviderID,
		Date:       date,
		StartTime:  start,
		EndTime:    end,
	})
	if err != nil {
		s.respondRepoError(w, err, "create availability slot")
		return
	}
	s.respondJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (s *Server) handleListAvailability(w http.ResponseWriter, r *http.Request) {
	var filters repository.AvailabilityFilters

	if val := strings.TrimSpace(r.URL.Query().Get("date")); val != "" {
		date, err := time.Parse("2006-01-02", val)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid date value")
			return
		}
		filters.Date = &date
	}
	if val := strings.TrimSpace(r.URL.Query().Get("providerType")); val != "" {
		filters.ProviderType = &val
	}

	items, err := s.repo.Availability.List(r.Context(), filters)
	if err != nil {
		s.respondRepoError(w, err, "list availability")
		return
	}

	resp := make([]availabilityDetailsResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, availabilityDetailsResponse{
			availabilitySlotResponse: toSlotResponse(item.AvailabilitySlot),
			ProviderName:             item.ProviderName,
			Phone:                    item.Phone,
			Address:                  item.Address,
			AverageRating:            item.AverageRating,
		})
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListProviderAvailability(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	slots, err := s.repo.Availability.ListByProvider(r.Context(), id)
	if err != nil {
		s.respondRepoError(w, err, "list provider availability")
		return
	}

	resp := make([]availabilitySlotResponse, 0, len(slots))
	for _, slot := range slots {
		resp = append(resp, toSlotResponse(slot))
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeleteAvailability(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}
	if err := s.repo.Availability.Delete(r.Context(), id); err != nil {
		s.respondRepoError(w, err, "delete availability slot")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func toSlotResponse(slot domain.AvailabilitySlot) availabilitySlotResponse {
	return availabilitySlotResponse{
		ID:           slot.ID,
		ProviderID:   slot.ProviderID,
		ProviderType: slot.ProviderType,
		Date:         slot.Date.Format("2006-01-02"),
		StartTime:    slot.StartTime,
		EndTime:      slot.EndTime,
	}
}
