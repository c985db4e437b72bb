package httpserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/pawbridge/pawbridge-api/internal/domain"
)

var allowedReportStatuses = map[string]struct{}{
	"pending":   {},
	"reviewed":  {},
	"dismissed": {},
	"actioned":  {},
}

type reportCreateRequest struct {
	ReporterID  int64  `json:"reporterId"`
	ReportedID  int64  `json:"reportedId"`
	Description string `json:"description"`
}

type reportResponse struct {
	ID           int64  `json:"id"`
	ReporterID   int64  `json:"reporterId"`
	ReporterName string `json:"reporterName"`
	ReportedID   int64  `json:"reportedId"`
	ReportedName string `json:"reportedName"`
	Description  string `json:"description"`
	FiledAt      string `json:"filedAt"`
	Status       string `json:"status"`
}

func (s *Server) handleCreateReport(w http.ResponseWriter, r *http.Request) {
	var req reportCreateRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}
	if req.ReporterID <= 0 || req.ReportedID <= 0 || strings.TrimSpace(req.Description) == "" {
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "reporterId, reportedId and description are required")
		return
	}
	if len(req.Description) > 2000 {
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "description must be at most 2000 characters")
		return
	}
	if req.ReporterID == req.ReportedID {
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "cannot report yourself")
		return
	}

	id, err := s.repo.Reports.Create(r.Context(), req.ReporterID, req.ReportedID, strings.TrimSpace(req.Description))
	if err != nil {
		s.respondRepoError(w, err, "create report")
		return
	}
	s.respondJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (s *Server) handleListReporterReports(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}
	items, err := s.repo.Reports.ListByReporter(r.Context(), id)
	if err != nil {
		s.respondRepoError(w, err, "list reporter reports")
		return
	}
	s.respondReports(w, items)
}

func (s *Server) handleListAllReports(w http.ResponseWriter, r *http.Request) {
	items, err := s.repo.Reports.ListAll(r.Context())
	if err != nil {
		s.respondRepoError(w, err, "list reports")
		return
	}
	s.respondReports(w, items)
}

func (s *Server) handleUpdateReportStatus(w http.ResponseWriter, r *http.Request) {
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
	if _, ok := allowedReportStatuses[req.Status]; !ok {
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "status must be one of pending, reviewed, dismissed, actioned")
		return
	}

	if err := s.repo.Reports.UpdateStatus(r.Context(), id, req.Status); err != nil {
		s.respondRepoError(w, err, "update report status")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) respondReports(w http.ResponseWriter, items []domain.ReportDetails) {
	resp := make([]reportResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, reportResponse{
			ID:           item.ID,
			ReporterID:   item.ReporterID,
			ReporterName: item.ReporterName,
			ReportedID:   item.ReportedID,
			ReportedName: item.ReportedName,
			Description:  item.Description,
			FiledAt:      item.FiledAt.Format(time.RFC3339),
			Status:       item.Status,
		})
	}
	s.respondJSON(w, http.StatusOK, resp)
}
