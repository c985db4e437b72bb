package httpserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/pawbridge/pawbridge-api/internal/domain"
)

type messageSendRequest struct {
	SenderID   int64  `json:"senderId"`
	ReceiverID int64  `json:"receiverId"`
	Body       string `json:"body"`
}

type messageResponse struct {
	ID         int64  `json:"id"`
	SenderID   int64  `json:"senderId"`
	ReceiverID int64  `json:"receiverId"`
	Body       string `json:"body"`
	SentAt     string `json:"sentAt"`
	Read       bool   `json:"read"`
}

type conversationResponse struct {
	PartnerID   int64  `json:"partnerId"`
	PartnerName string `json:"partnerName"`
	LastBody    string `json:"lastBody"`
	LastSentAt  string `json:"lastSentAt"`
	UnreadCount int64  `json:"unreadCount"`
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var req messageSendRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}
	if req.SenderID <= 0 || req.ReceiverID <= 0 || strings.TrimSpace(req.Body) == "" {
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "senderId, receiverId and body are required")
		return
	}
	if req.SenderID == req.ReceiverID {
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "cannot message yourself")
		return
	}

	id, err := s.repo.Messages.Send(r.Context(), req.SenderID, req.ReceiverID, req.Body)
	if err != nil {
		s.respondRepoError(w, err, "send message")
		return
	}
	s.respondJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (s *Server) handleListConversations(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	convs, err := s.repo.Messages.Conversations(r.Context(), id)
	if err != nil {
		s.respondRepoError(w, err, "list conversations")
		return
	}

	resp := make([]conversationResponse, 0, len(convs))
	for _, conv := range convs {
		resp = append(resp, conversationResponse{
			PartnerID:   conv.PartnerID,
			PartnerName: conv.PartnerName,
			LastBody:    conv.LastBody,
			LastSentAt:  conv.LastSentAt.Format(time.RFC3339),
			UnreadCount: conv.UnreadCount,
		})
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	userID, err := idParam(r, "id")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}
	otherID, err := idParam(r, "otherId")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	msgs, err := s.repo.Messages.Chat(r.Context(), userID, otherID)
	if err != nil {
		s.respondRepoError(w, err, "fetch chat")
		return
	}
	s.respondMessages(w, msgs)
}

func (s *Server) handleMarkMessageRead(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}
	if err := s.repo.Messages.MarkRead(r.Context(), id); err != nil {
		s.respondRepoError(w, err, "mark message read")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUnreadCount(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}
	count, err := s.repo.Messages.UnreadCount(r.Context(), id)
	if err != nil {
		s.respondRepoError(w, err, "count unread messages")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]int64{"unread": count})
}

func (s *Server) respondMessages(w http.ResponseWriter, msgs []domain.Message) {
	resp := make([]messageResponse, 0, len(msgs))
	for _, msg := range msgs {
		resp = append(resp, messageResponse{
			ID:         msg.ID,
			SenderID:   msg.SenderID,
			ReceiverID: msg.ReceiverID,
			Body:       msg.Body,
			SentAt:     msg.SentAt.Format(time.RFC3339),
			Read:       msg.Read,
		})
	}
	s.respondJSON(w, http.StatusOK, resp)
}
