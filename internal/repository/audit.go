package repository

import (
	"context"

	"github.com/fixmart/fixmart/internal/models"
	"github.com/jackc/pgx/v5"
)

const (
	insertStatusLogQuery = `
						INSERT INTO order_status_logs (order_id, from_status, to_status, operator_id, operator_role, remark)
						VALUES ($1, $2, $3, $4, $5, $6)
`
	insertNotificationQuery = `
						INSERT INTO notifications (user_id, order_id, title, body)
						VALUES ($1, $2, $3, $4)
`
)

// insertStatusLog appends audit row inside caller's transaction
func insertStatusLog(ctx context.Context, tx pgx.Tx, log models.StatusLog) error {
	_, err := tx.Exec(ctx, insertStatusLogQuery,
		log.OrderID, log.FromStatus, log.ToStatus, log.OperatorID, log.OperatorRole, log.Remark)
	return err
}

// insertNotification records notification inside caller's transaction
func insertNotification(ctx context.Context, tx pgx.Tx, note models.Notification) error {
	_, err := tx.Exec(ctx, insertNotificationQuery,
		note.UserID, note.OrderID, note.Title, note.Body)
	return err
}
