package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pawbridge/pawbridge-api/internal/domain"
)

// MessagesRepository provides persistence helpers for direct messages.
type MessagesRepository struct {
	pool *pgxpool.Pool
}

// Send stores one message and returns its identifier.
func (r *MessagesRepository) Send(ctx context.Context, senderID, receiverID int64, body string) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
        INSERT INTO messages (sender_id, receiver_id, body)
        VALUES ($1,$2,$3)
        RETURNING id
    `, senderID, receiverID, body).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// Conversations lists the user's chat partners, newest exchange first, with
// the last message and the number of unread messages from each partner.
func (r *MessagesRepository) Conversations(ctx context.Context, userID int64) ([]domain.Conversation, error) {
	rows, err := r.pool.Query(ctx, `
        SELECT DISTINCT ON (partner_id)
               partner_id,
               u.full_name,
               m.body,
               m.sent_at,
               (SELECT COUNT(*) FROM messages um
                WHERE um.sender_id = partner_id AND um.receiver_id = $1 AND NOT um.read) AS unread
        FROM (
            SELECT *,
                   CASE WHEN sender_id = $1 THEN receiver_id ELSE sender_id END AS partner_id
            FROM messages
            WHERE sender_id = $1 OR receiver_id = $1
        ) m
        JOIN users u ON u.id = m.partner_id
        ORDER BY partner_id, m.sent_at DESC
    `, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.Conversation, 0)
	for rows.Next() {
		var conv domain.Conversation
		if err := rows.Scan(&conv.PartnerID, &conv.PartnerName, &conv.LastBody, &conv.LastSentAt, &conv.UnreadCount); err != nil {
			return nil, err
		}
		items = append(items, conv)
	}
	return items, rows.Err()
}

// Chat returns the full exchange between two users, oldest first.
func (r *MessagesRepository) Chat(ctx context.Context, userID, otherID int64) ([]domain.Message, error) {
	rows, err := r.pool.Query(ctx, `
        SELECT id, sender_id, receiver_id, body, sent_at, read
        FROM messages
        WHERE (sender_id = $1 AND receiver_id = $2)
           OR (sender_id = $2 AND receiver_id = $1)
        ORDER BY sent_at
    `, userID, otherID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.Message, 0)
	for rows.Next() {
		var msg domain.Message
		if err := rows.Scan(&msg.ID, &msg.SenderID, &msg.ReceiverID, &msg.Body, &msg.SentAt, &msg.Read); err != nil {
			return nil, err
		}
		items = append(items, msg)
	}
	return items, rows.Err()
}

// MarkRead flags one message as read.
func (r *MessagesRepository) MarkRead(ctx context.Context, messageID int64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE messages SET read = TRUE WHERE id = $1`, messageID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UnreadCount returns how many unread messages are waiting for one user.
func (r *MessagesRepository) UnreadCount(ctx context.Context, userID int64) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `
        SELECT COUNT(*) FROM messages WHERE receiver_id = $1 AND NOT read
    `, userID).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}
