package repository

import (
	"context"

	"trackerbot/internal/database"
	"trackerbot/internal/models"
)

type MessageRepository struct {
	q database.Querier
}

func NewMessageRepository(q database.Querier) *MessageRepository {
	return &MessageRepository{q: q}
}

func (r *MessageRepository) Add(ctx context.Context, reminderID, messageID int) error {
	_, err := r.q.Exec(ctx,
		`INSERT INTO reminder_messages (reminder_id, message_id) VALUES ($1, $2)`,
		reminderID, messageID,
	)
	return err
}

func (r *MessageRepository) ForReminder(ctx context.Context, reminderID int) ([]*models.ReminderMessage, error) {
	rows, err := r.q.Query(ctx,
		`SELECT id, reminder_id, message_id FROM reminder_messages WHERE reminder_id = $1 ORDER BY id ASC`,
		reminderID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*models.ReminderMessage
	for rows.Next() {
		message := &models.ReminderMessage{}
		if err := rows.Scan(&message.ID, &message.ReminderID, &message.MessageID); err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}
	return messages, rows.Err()
}

func (r *MessageRepository) Delete(ctx context.Context, ids []int) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.q.Exec(ctx, `DELETE FROM reminder_messages WHERE id = ANY($1)`, ids)
	return err
}
