package httpserver

import (
	"net/http"
	"time"

	"github.com/pawbridge/pawbridge-api/internal/domain"
	"github.com/pawbridge/pawbridge-api/internal/repository"
)

type reviewCreateRequest struct {
	AppointmentID int64  `json:"appointmentId"`
	ReviewerID    int64  `json:"reviewerId"`
	Rating        int    `json:"rating"`
	Comment       string `json:"comment"`
}

type reviewResponse struct {
	ID            int64  `json:"id"`
	AppointmentID int64  `json:"appointmentId"`
	ReviewerID    int64  `json:"reviewerId"`
	Rating        int    `json:"rating"`
	Comment       string `json:"comment"`
	CreatedAt     string `json:"createdAt"`
}

type reviewDetailsResponse struct {
	reviewResponse
	ReviewerName string `json:"reviewerName"`
	SubjectID    int64  `json:"subjectId"`
	SubjectName  string `json:"subjectName"`
}

// handleCreateReview records the review and folds its score into the
// subject's running average in the same transaction.
func (s *Server) handleCreateReview(w http.ResponseWriter, r *http.Request) {
	var req reviewCreateRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}
	if req.Rating < 1 || req.Rating > 5 {
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "rating must be an integer between 1 and 5")
		return
	}
	if req.AppointmentID <= 0 || req.ReviewerID <= 0 {
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "appointmentId and reviewerId are required")
		return
	}

	review, err := s.repo.Reviews.Create(r.Context(), repository.ReviewCreateParams{
		AppointmentID: req.AppointmentID,
		ReviewerID:    req.ReviewerID,
		Rating:        req.Rating,
		Comment:       req.Comment,
	})
	if err != nil {
		s.respondRepoError(w, err, "create review")
		return
	}

	s.respondJSON(w, http.StatusCreated, reviewResponse{
		ID:            review.ID,
		AppointmentID: review.AppointmentID,
		ReviewerID:    review.ReviewerID,
		Rating:        review.Rating,
		Comment:       review.Comment,
		CreatedAt:     review.CreatedAt.Format(time.RFC3339),
	})
}

func (s *Server) handleReviewsAboutUser(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}
	items, err := s.repo.Reviews.AboutUser(r.Context(), id)
	if err != nil {
		s.respondRepoError(w, err, "list reviews about user")
		return
	}
	s.respondReviews(w, items)
}

func (s *Server) handleReviewsByUser(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}
	items, err := s.repo.Reviews.ByUser(r.Context(), id)
	if err != nil {
		s.respondRepoError(w, err, "list reviews by user")
		return
	}
	s.respondReviews(w, items)
}

func (s *Server) handleReviewsForProvider(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}
	items, err := s.repo.Reviews.ForProvider(r.Context(), id)
	if err != nil {
		s.respondRepoError(w, err, "list provider reviews")
		return
	}
	s.respondReviews(w, items)
}

func (s *Server) handleReviewsForOwner(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}
	items, err := s.repo.Reviews.ForOwner(r.Context(), id)
	if err != nil {
		s.respondRepoError(w, err, "list owner reviews")
		return
	}
	s.respondReviews(w, items)
}

func (s *Server) handleListAllReviews(w http.ResponseWriter, r *http.Request) {
	items, err := s.repo.Reviews.ListAll(r.Context())
	if err != nil {
		s.respondRepoError(w, err, "list reviews")
		return
	}
	s.respondReviews(w, items)
}

func (s *Server) handleReviewedAppointments(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}
	ids, err := s.repo.Reviews.ReviewedAppointments(r.Context(), id)
	if err != nil {
		s.respondRepoError(w, err, "list reviewed appointments")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string][]int64{"appointmentIds": ids})
}

func (s *Server) handleDeleteReview(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}
	if err := s.repo.Reviews.Delete(r.Context(), id); err != nil {
		s.respondRepoError(w, err, "delete review")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) respondReviews(w http.ResponseWriter, items []domain.ReviewDetails) {
	resp := make([]reviewDetailsResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, reviewDetailsResponse{
			reviewResponse: reviewResponse{
				ID:            item.ID,
				AppointmentID: item.AppointmentID,
				ReviewerID:    item.ReviewerID,
				Rating:        item.Rating,
				Comment:       item.Comment,
				CreatedAt:     item.CreatedAt.Format(time.RFC3339),
			},
			ReviewerName: item.ReviewerName,
			SubjectID:    item.SubjectID,
			SubjectName:  item.SubjectName,
		})
	}
	s.respondJSON(w, http.StatusOK, resp)
}
