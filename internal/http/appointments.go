package httpserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/pawbridge/pawbridge-api/internal/domain"
	"github.com/pawbridge/pawbridge-api/internal/repository"
)

var allowedStatuses = map[string]struct{}{
	"pending":   {},
	"confirmed": {},
	"declined":  {},
	"completed": {},
	"cancelled": {},
}

type appointmentCreateRequest struct {
	PetID       int64  `json:"petId"`
	ProviderID  int64  `json:"providerId"`
	ServiceType string `json:"serviceType"`
	Date        string `json:"date"`
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
}

type appointmentResponse struct {
	ID           int64  `json:"id"`
	PetID        int64  `json:"petId"`
	PetName      string `json:"petName"`
	OwnerID      int64  `json:"ownerId"`
	OwnerName    string `json:"ownerName"`
	ProviderID   int64  `json:"providerId"`
	ProviderName string `json:"providerName"`
	ServiceType  string `json:"serviceType"`
	Date         string `json:"date"`
	StartTime    string `json:"startTime"`
	EndTime      string `json:"endTime"`
	Status       string `json:"status"`
}

type statusUpdateRequest struct {
	Status string `json:"status"`
}

func toAppointmentResponse(a domain.AppointmentDetails) appointmentResponse {
	return appointmentResponse{
		ID:           a.ID,
		PetID:        a.PetID,
		PetName:      a.PetName,
		OwnerID:      a.OwnerID,
		OwnerName:    a.OwnerName,
		ProviderID:   a.ProviderID,
		ProviderName: a.ProviderName,
		ServiceType:  a.ServiceType,
		Date:         a.Date.Format("2006-01-02"),
		StartTime:    a.StartTime,
		EndTime:      a.EndTime,
		Status:       a.Status,
	}
}

func parseClock(value string) (string, bool) {
	for _, layout := range []string{"15:04:05", "15:04"} {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed.Format("15:04:05"), true
		}
	}
	return "", false
}

func (s *Server) handleCreateAppointment(w http.ResponseWriter, r *http.Request) {
	var req appointmentCreateRequest
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
	if req.PetID <= 0 || req.ProviderID <= 0 || strings.TrimSpace(req.ServiceType) == "" {
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "petId, providerId and serviceType are required")
		return
	}

	id, err := s.repo.Appointments.Create(r.Context(), repository.AppointmentCreateParams{
		PetID:       req.PetID,
		ProviderID:  req.ProviderID,
		ServiceType: strings.TrimSpace(req.ServiceType),
		Date:        date,
		StartTime:   start,
		EndTime:     end,
	})
	if err != nil {
		s.respondRepoError(w, err, "create appointment")
		return
	}

	s.respondJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (s *Server) handleListOwnerAppointments(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}
	items, err := s.repo.Appointments.ListByOwner(r.Context(), id)
	if err != nil {
		s.respondRepoError(w, err, "list owner appointments")
		return
	}
	s.respondAppointments(w, items)
}

func (s *Server) handleListProviderAppointments(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}
	items, err := s.repo.Appointments.ListByProvider(r.Context(), id)
	if err != nil {
		s.respondRepoError(w, err, "list provider appointments")
		return
	}
	s.respondAppointments(w, items)
}

func (s *Server) handleListAllAppointments(w http.ResponseWriter, r *http.Request) {
	items, err := s.repo.Appointments.ListAll(r.Context())
	if err != nil {
		s.respondRepoError(w, err, "list appointments")
		return
	}
	s.respondAppointments(w, items)
}

func (s *Server) respondAppointments(w http.ResponseWriter, items []domain.AppointmentDetails) {
	resp := make([]appointmentResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, toAppointmentResponse(item))
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpdateAppointmentStatus(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	var req statusUpdateRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}
	if _, ok := allowedStatuses[req.Status]; !ok {
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "status must be one of pending, confirmed, declined, completed, cancelled")
		return
	}

	if err := s.repo.Appointments.UpdateStatus(r.Context(), id, req.Status); err != nil {
		s.respondRepoError(w, err, "update appointment status")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteAppointment(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}
	if err := s.repo.Appointments.Delete(r.Context(), id); err != nil {
		s.respondRepoError(w, err, "delete appointment")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
