package repository

import (
	"context"
	"errors"

	"github.com/fixmart/fixmart/internal/models"
	"github.com/fixmart/fixmart/internal/repository/postgres"
	"github.com/jackc/pgx/v5"
)

const orderColumns = `id, number, user_id, electrician_id, service_type, title, description, images,
						contact_name, contact_phone, address, latitude, longitude,
						budget_min, budget_max, estimated_amount, quoted_price, final_amount,
						repair_content, repair_images, status, needs_confirmation, has_review,
						cancel_initiated, cancel_initiator, cancel_reason, cancel_initiated_at,
						cancel_confirm_status, cancel_confirmer, cancel_confirmed_at,
						created_at, prepaid_at, accepted_at, confirmed_at, last_modified_at,
						completed_at, paid_at, cancelled_at`

const (
	insertOrderQuery = `
						INSERT INTO orders (number, user_id, service_type, title, description, images,
											contact_name, contact_phone, address, latitude, longitude,
											budget_min, budget_max, estimated_amount, status)
						VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
						RETURNING id, created_at
`
	selectOrderByIDQuery = `
						SELECT ` + orderColumns + ` FROM orders
						WHERE id = $1
`
	selectOrderByIDForUpdateQuery = selectOrderByIDQuery + ` FOR UPDATE`

	selectOpenOrdersQuery = `
						SELECT ` + orderColumns + ` FROM orders
						WHERE status = 'PENDING' AND electrician_id IS NULL
						ORDER BY created_at DESC
`
	selectOrdersByUserIDQuery = `
						SELECT ` + orderColumns + ` FROM orders
						WHERE user_id = $1
						ORDER BY created_at DESC
`
	selectOrdersByElectricianIDQuery = `
						SELECT ` + orderColumns + ` FROM orders
						WHERE electrician_id = $1
						ORDER BY created_at DESC
`
	updateOrderQuery = `
						UPDATE orders
						SET electrician_id = $1, title = $2, description = $3, quoted_price = $4,
							final_amount = $5, repair_content = $6, repair_images = $7, status = $8,
							needs_confirmation = $9, has_review = $10,
							cancel_initiated = $11, cancel_initiator = $12, cancel_reason = $13,
							cancel_initiated_at = $14, cancel_confirm_status = $15, cancel_confirmer = $16,
							cancel_confirmed_at = $17,
							prepaid_at = $18, accepted_at = $19, confirmed_at = $20, last_modified_at = $21,
							completed_at = $22, paid_at = $23, cancelled_at = $24
						WHERE id = $25
`
)

// OrderRepository implements order persistence over postgres
type OrderRepository struct {
	db *postgres.DB
}

// NewOrderRepository creates new OrderRepository instance
func NewOrderRepository(db *postgres.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*models.Order, error) {
	order := models.Order{}
	err := row.Scan(&order.ID, &order.Number, &order.UserID, &order.ElectricianID,
		&order.ServiceType, &order.Title, &order.Description, &order.Images,
		&order.ContactName, &order.ContactPhone, &order.Address, &order.Latitude, &order.Longitude,
		&order.BudgetMin, &order.BudgetMax, &order.EstimatedAmount, &order.QuotedPrice, &order.FinalAmount,
		&order.RepairContent, &order.RepairImages, &order.Status, &order.NeedsConfirmation, &order.HasReview,
		&order.CancelInitiated, &order.CancelInitiator, &order.CancelReason, &order.CancelInitiatedAt,
		&order.CancelConfirmStatus, &order.CancelConfirmer, &order.CancelConfirmedAt,
		&order.CreatedAt, &order.PrepaidAt, &order.AcceptedAt, &order.ConfirmedAt, &order.LastModifiedAt,
		&order.CompletedAt, &order.PaidAt, &order.CancelledAt)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func updateOrder(ctx context.Context, tx pgx.Tx, order *models.Order) error {
	_, err := tx.Exec(ctx, updateOrderQuery,
		order.ElectricianID, order.Title, order.Description, order.QuotedPrice,
		order.FinalAmount, order.RepairContent, order.RepairImages, order.Status,
		order.NeedsConfirmation, order.HasReview,
		order.CancelInitiated, order.CancelInitiator, order.CancelReason,
		order.CancelInitiatedAt, order.CancelConfirmStatus, order.CancelConfirmer,
		order.CancelConfirmedAt,
		order.PrepaidAt, order.AcceptedAt, order.ConfirmedAt, order.LastModifiedAt,
		order.CompletedAt, order.PaidAt, order.CancelledAt,
		order.ID)
	return err
}

// CreateOrder inserts new order together with its initial status log row and
// notification, all in one transaction
func (or *OrderRepository) CreateOrder(ctx context.Context, order *models.Order, change *models.OrderChange) (*models.Order, error) {
	err := or.db.WithTx(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, insertOrderQuery,
			order.Number, order.UserID, order.ServiceType, order.Title, order.Description, order.Images,
			order.ContactName, order.ContactPhone, order.Address, order.Latitude, order.Longitude,
			order.BudgetMin, order.BudgetMax, order.EstimatedAmount, order.Status).
			Scan(&order.ID, &order.CreatedAt)
		if err != nil {
			if errCode := or.db.ErrorCode(err); errCode == pgErrUniqueViolationCode {
				return models.ErrConflictData
			}
			return err
		}

		change.Log.OrderID = order.ID
		if err := insertStatusLog(ctx, tx, change.Log); err != nil {
			return err
		}
		if change.Notification != nil {
			change.Notification.OrderID = order.ID
			if err := insertNotification(ctx, tx, *change.Notification); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return order, nil
}

// GetOrderByID returns order by id
func (or *OrderRepository) GetOrderByID(ctx context.Context, id uint64) (*models.Order, error) {
	order, err := scanOrder(or.db.QueryRow(ctx, selectOrderByIDQuery, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrDataNotFound
		}
		return nil, err
	}

	return order, nil
}

// ListOpenOrders returns pending unclaimed orders
func (or *OrderRepository) ListOpenOrders(ctx context.Context) ([]models.Order, error) {
	return or.listOrders(ctx, selectOpenOrdersQuery)
}

// ListUserOrders returns orders created by user
func (or *OrderRepository) ListUserOrders(ctx context.Context, userID uint64) ([]models.Order, error) {
	return or.listOrders(ctx, selectOrdersByUserIDQuery, userID)
}

// ListElectricianOrders returns orders assigned to electrician
func (or *OrderRepository) ListElectricianOrders(ctx context.Context, electricianID uint64) ([]models.Order, error) {
	return or.listOrders(ctx, selectOrdersByElectricianIDQuery, electricianID)
}

func (or *OrderRepository) listOrders(ctx context.Context, query string, args ...any) ([]models.Order, error) {
	rows, err := or.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := []models.Order{}

	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *order)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return orders, nil
}

// Transition applies single state transition to order. The order row is read
// under FOR UPDATE lock, apply mutates it and describes the audit log row and
// optional notification; row update, log append and notification insert all
// happen in the same transaction. Any error from apply rolls everything back.
func (or *OrderRepository) Transition(ctx context.Context, orderID uint64, apply func(*models.Order) (*models.OrderChange, error)) (*models.Order, error) {
	var order *models.Order

	err := or.db.WithTx(ctx, func(tx pgx.Tx) error {
		o, err := scanOrder(tx.QueryRow(ctx, selectOrderByIDForUpdateQuery, orderID))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return models.ErrDataNotFound
			}
			return err
		}

		change, err := apply(o)
		if err != nil {
			return err
		}

		if err := updateOrder(ctx, tx, o); err != nil {
			return err
		}

		change.Log.OrderID = o.ID
		if err := insertStatusLog(ctx, tx, change.Log); err != nil {
			return err
		}
		if change.Notification != nil {
			change.Notification.OrderID = o.ID
			if err := insertNotification(ctx, tx, *change.Notification); err != nil {
				return err
			}
		}

		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	return order, nil
}
