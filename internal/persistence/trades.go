package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/aristath/aegis/internal/domain"
)

// TradeRepository persists executed orders, grounded on the teacher's
// internal/modules/trading.TradeRepository query shapes adapted to
// decimal-as-text storage and the domain.Order shape.
type TradeRepository struct {
	db *DB
}

// NewTradeRepository builds a TradeRepository over db.
func NewTradeRepository(db *DB) *TradeRepository {
	return &TradeRepository{db: db}
}

// Save inserts or replaces order by ID (Executor re-saves on every
// status transition it observes).
func (r *TradeRepository) Save(ctx context.Context, order domain.Order) error {
	_, err := r.db.conn.ExecContext(ctx, `
		INSERT INTO orders (id, symbol, side, price, quantity, order_type, status, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			price=excluded.price, quantity=excluded.quantity,
			status=excluded.status, timestamp=excluded.timestamp
	`, order.ID, order.Symbol, order.Side.String(), order.Price.String(), order.Quantity.String(),
		order.OrderType.String(), order.Status.String(), order.Timestamp)
	if err != nil {
		return fmt.Errorf("persistence: save order %s: %w", order.ID, err)
	}
	return nil
}

// FindBySymbol returns the most recent orders for symbol, newest first.
func (r *TradeRepository) FindBySymbol(ctx context.Context, symbol string, limit int) ([]domain.Order, error) {
	rows, err := r.db.conn.QueryContext(ctx, `
		SELECT id, symbol, side, price, quantity, order_type, status, timestamp
		FROM orders WHERE symbol = ? ORDER BY timestamp DESC LIMIT ?
	`, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("persistence: find orders by symbol: %w", err)
	}
	defer rows.Close()
	return scanOrders(rows)
}

// GetRange returns every order for symbol between start and end.
func (r *TradeRepository) GetRange(ctx context.Context, symbol string, start, end time.Time) ([]domain.Order, error) {
	rows, err := r.db.conn.QueryContext(ctx, `
		SELECT id, symbol, side, price, quantity, order_type, status, timestamp
		FROM orders WHERE symbol = ? AND timestamp >= ? AND timestamp <= ? ORDER BY timestamp ASC
	`, symbol, start.Unix(), end.Unix())
	if err != nil {
		return nil, fmt.Errorf("persistence: get order range: %w", err)
	}
	defer rows.Close()
	return scanOrders(rows)
}

func scanOrders(rows *sql.Rows) ([]domain.Order, error) {
	var out []domain.Order
	for rows.Next() {
		var o domain.Order
		var side, price, quantity, orderType, status string
		if err := rows.Scan(&o.ID, &o.Symbol, &side, &price, &quantity, &orderType, &status, &o.Timestamp); err != nil {
			return nil, fmt.Errorf("persistence: scan order: %w", err)
		}
		var err error
		if o.Price, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("persistence: parse order price: %w", err)
		}
		if o.Quantity, err = decimal.NewFromString(quantity); err != nil {
			return nil, fmt.Errorf("persistence: parse order quantity: %w", err)
		}
		o.Side = parseSide(side)
		o.OrderType = parseOrderType(orderType)
		o.Status = parseOrderStatus(status)
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("persistence: iterate orders: %w", err)
	}
	return out, nil
}

func parseSide(s string) domain.Side {
	if s == "sell" {
		return domain.Sell
	}
	return domain.Buy
}

func parseOrderType(s string) domain.OrderType {
	if s == "limit" {
		return domain.Limit
	}
	return domain.Market
}

func parseOrderStatus(s string) domain.OrderStatus {
	switch s {
	case "partially_filled":
		return domain.OrderPartiallyFilled
	case "filled":
		return domain.OrderFilled
	case "canceled":
		return domain.OrderCanceled
	case "expired":
		return domain.OrderExpired
	case "rejected":
		return domain.OrderRejected
	default:
		return domain.OrderNew
	}
}
