package sales

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{DB: pool}
}

func (s *Store) ListCustomers(ctx context.Context) ([]Customer, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, name, COALESCE(phone, ''), COALESCE(address, ''),
           rate_per_brick, total_orders, last_order_date, created_at
    FROM customers
    ORDER BY name
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var customers []Customer
	for rows.Next() {
		var c Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Phone, &c.Address, &c.RatePerBrick, &c.TotalOrders, &c.LastOrderDate, &c.CreatedAt); err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

func (s *Store) GetCustomer(ctx context.Context, id string) (Customer, error) {
	var c Customer
	err := s.DB.QueryRow(ctx, `
    SELECT id, name, COALESCE(phone, ''), COALESCE(address, ''),
           rate_per_brick, total_orders, last_order_date, created_at
    FROM customers
    WHERE id = $1
  `, id).Scan(&c.ID, &c.Name, &c.Phone, &c.Address, &c.RatePerBrick, &c.TotalOrders, &c.LastOrderDate, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Customer{}, ErrCustomerNotFound
	}
	if err != nil {
		return Customer{}, err
	}
	return c, nil
}

func (s *Store) CreateCustomer(ctx context.Context, c Customer) (Customer, error) {
	err := s.DB.QueryRow(ctx, `
    INSERT INTO customers (name, phone, address, rate_per_brick)
    VALUES ($1,$2,$3,$4)
    RETURNING id, total_orders, created_at
  `, c.Name, nullIfEmpty(c.Phone), nullIfEmpty(c.Address), c.RatePerBrick).Scan(&c.ID, &c.TotalOrders, &c.CreatedAt)
	if err != nil {
		return Customer{}, err
	}
	return c, nil
}

func (s *Store) UpdateCustomer(ctx context.Context, c Customer) (Customer, error) {
	tag, err := s.DB.Exec(ctx, `
    UPDATE customers
    SET name = $1, phone = $2, address = $3, rate_per_brick = $4
    WHERE id = $5
  `, c.Name, nullIfEmpty(c.Phone), nullIfEmpty(c.Address), c.RatePerBrick, c.ID)
	if err != nil {
		return Customer{}, err
	}
	if tag.RowsAffected() == 0 {
		return Customer{}, ErrCustomerNotFound
	}
	return s.GetCustomer(ctx, c.ID)
}

const orderColumns = `
  id, order_number, customer_id, quantity, rate_per_brick, total_amount,
  vehicle_type, COALESCE(vehicle_number, ''), COALESCE(driver_name, ''),
  own_fleet, COALESCE(driver_worker_id::text, ''), status, order_date,
  delivery_date, COALESCE(notes, ''), created_at
`

func scanOrder(row pgx.Row) (SalesOrder, error) {
	var o SalesOrder
	err := row.Scan(&o.ID, &o.OrderNumber, &o.CustomerID, &o.Quantity, &o.RatePerBrick, &o.TotalAmount,
		&o.VehicleType, &o.VehicleNumber, &o.DriverName, &o.OwnFleet, &o.DriverWorkerID, &o.Status,
		&o.OrderDate, &o.DeliveryDate, &o.Notes, &o.CreatedAt)
	return o, err
}

func (s *Store) ListOrders(ctx context.Context) ([]SalesOrder, error) {
	rows, err := s.DB.Query(ctx, "SELECT "+orderColumns+" FROM sales_orders ORDER BY order_date DESC, created_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []SalesOrder
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (s *Store) GetOrder(ctx context.Context, id string) (SalesOrder, error) {
	o, err := scanOrder(s.DB.QueryRow(ctx, "SELECT "+orderColumns+" FROM sales_orders WHERE id = $1", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return SalesOrder{}, ErrOrderNotFound
	}
	if err != nil {
		return SalesOrder{}, err
	}
	return o, nil
}

// CreateOrder assigns the next order number, stores the order as pending, and
// bumps the customer's order stats, all in one transaction.
func (s *Store) CreateOrder(ctx context.Context, o SalesOrder) (SalesOrder, error) {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return SalesOrder{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var count int
	if err := tx.QueryRow(ctx, "SELECT COUNT(*) FROM sales_orders").Scan(&count); err != nil {
		return SalesOrder{}, err
	}
	o.OrderNumber = fmt.Sprintf("ORD-%03d", count+1)
	o.TotalAmount = o.RatePerBrick.Mul(decimal.NewFromInt(int64(o.Quantity))).Round(2)
	o.Status = StatusPending
	if o.OrderDate.IsZero() {
		o.OrderDate = time.Now()
	}

	err = tx.QueryRow(ctx, `
    INSERT INTO sales_orders (order_number, customer_id, quantity, rate_per_brick, total_amount,
                              vehicle_type, vehicle_number, driver_name, own_fleet, driver_worker_id,
                              status, order_date, notes)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
    RETURNING id, created_at
  `, o.OrderNumber, o.CustomerID, o.Quantity, o.RatePerBrick, o.TotalAmount,
		o.VehicleType, nullIfEmpty(o.VehicleNumber), nullIfEmpty(o.DriverName), o.OwnFleet,
		nullIfEmpty(o.DriverWorkerID), o.Status, o.OrderDate, nullIfEmpty(o.Notes)).Scan(&o.ID, &o.CreatedAt)
	if err != nil {
		return SalesOrder{}, err
	}

	tag, err := tx.Exec(ctx, `
    UPDATE customers
    SET total_orders = total_orders + 1, last_order_date = $1
    WHERE id = $2
  `, o.OrderDate, o.CustomerID)
	if err != nil {
		return SalesOrder{}, err
	}
	if tag.RowsAffected() == 0 {
		return SalesOrder{}, ErrCustomerNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return SalesOrder{}, err
	}
	return o, nil
}

// UpdateOrder edits the mutable order fields. Status, order number, and the
// computed total move only through CreateOrder and TransitionStatus.
func (s *Store) UpdateOrder(ctx context.Context, o SalesOrder) (SalesOrder, error) {
	total := o.RatePerBrick.Mul(decimal.NewFromInt(int64(o.Quantity))).Round(2)
	tag, err := s.DB.Exec(ctx, `
    UPDATE sales_orders
    SET quantity = $1, rate_per_brick = $2, total_amount = $3, vehicle_type = $4,
        vehicle_number = $5, driver_name = $6, own_fleet = $7, driver_worker_id = $8, notes = $9
    WHERE id = $10
  `, o.Quantity, o.RatePerBrick, total, o.VehicleType, nullIfEmpty(o.VehicleNumber),
		nullIfEmpty(o.DriverName), o.OwnFleet, nullIfEmpty(o.DriverWorkerID), nullIfEmpty(o.Notes), o.ID)
	if err != nil {
		return SalesOrder{}, err
	}
	if tag.RowsAffected() == 0 {
		return SalesOrder{}, ErrOrderNotFound
	}
	return s.GetOrder(ctx, o.ID)
}

// TransitionStatus moves an order through its lifecycle. Delivery runs its
// side effects in the same transaction as the status change: the stock
// deduction, the 'sale' movement, and the own-fleet trip happen exactly once
// because the status UPDATE is guarded by the previous status.
func (s *Store) TransitionStatus(ctx context.Context, id, next string) (SalesOrder, error) {
	order, err := s.GetOrder(ctx, id)
	if err != nil {
		return SalesOrder{}, err
	}
	if !CanTransition(order.Status, next) {
		return SalesOrder{}, ErrInvalidTransition
	}

	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return SalesOrder{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var deliveryDate *time.Time
	if next == StatusDelivered {
		now := time.Now()
		deliveryDate = &now
	}
	tag, err := tx.Exec(ctx, `
    UPDATE sales_orders
    SET status = $1, delivery_date = COALESCE($2, delivery_date)
    WHERE id = $3 AND status = $4
  `, next, deliveryDate, id, order.Status)
	if err != nil {
		return SalesOrder{}, err
	}
	if tag.RowsAffected() == 0 {
		// Lost the race: someone else already moved the order.
		return SalesOrder{}, ErrInvalidTransition
	}

	if next == StatusDelivered {
		if err := applyDelivery(ctx, tx, order); err != nil {
			return SalesOrder{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return SalesOrder{}, err
	}
	return s.GetOrder(ctx, id)
}

func applyDelivery(ctx context.Context, tx pgx.Tx, order SalesOrder) error {
	_, err := tx.Exec(ctx, `
    INSERT INTO inventory_movements (type, quantity, reason, reference_id)
    VALUES ('sale', $1, $2, $3)
  `, -order.Quantity, "delivery of "+order.OrderNumber, order.ID)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `
    UPDATE inventory SET current_stock = current_stock - $1, last_updated = now()
  `, order.Quantity); err != nil {
		return err
	}

	if order.OwnFleet && order.DriverWorkerID != "" {
		if _, err := tx.Exec(ctx, `
      INSERT INTO trips (driver_id, trip_date, vehicle_type, amount_per_trip, sales_order_id)
      VALUES ($1, now(), $2, 0, $3)
    `, order.DriverWorkerID, order.VehicleType, order.ID); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) ListTrips(ctx context.Context, driverID string, weekStart, weekEnd *time.Time) ([]Trip, error) {
	query := `
    SELECT t.id, t.driver_id, t.trip_date, t.vehicle_type, t.amount_per_trip,
           COALESCE(t.sales_order_id::text, ''), t.created_at
    FROM trips t
    WHERE 1=1
  `
	args := []any{}
	if driverID != "" {
		args = append(args, driverID)
		query += fmt.Sprintf(" AND t.driver_id = $%d", len(args))
	}
	if weekStart != nil {
		args = append(args, *weekStart)
		query += fmt.Sprintf(" AND t.trip_date >= $%d", len(args))
	}
	if weekEnd != nil {
		args = append(args, *weekEnd)
		query += fmt.Sprintf(" AND t.trip_date <= $%d", len(args))
	}
	query += " ORDER BY t.trip_date DESC"

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trips []Trip
	for rows.Next() {
		var t Trip
		if err := rows.Scan(&t.ID, &t.DriverID, &t.TripDate, &t.VehicleType, &t.AmountPerTrip, &t.SalesOrderID, &t.CreatedAt); err != nil {
			return nil, err
		}
		trips = append(trips, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range trips {
		participants, err := s.listParticipants(ctx, trips[i].ID)
		if err != nil {
			return nil, err
		}
		trips[i].Participants = participants
	}
	return trips, nil
}

func (s *Store) listParticipants(ctx context.Context, tripID string) ([]string, error) {
	rows, err := s.DB.Query(ctx, "SELECT worker_id FROM trip_participants WHERE trip_id = $1", tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var workerIDs []string
	for rows.Next() {
		var workerID string
		if err := rows.Scan(&workerID); err != nil {
			return nil, err
		}
		workerIDs = append(workerIDs, workerID)
	}
	return workerIDs, rows.Err()
}

func (s *Store) CreateTrip(ctx context.Context, t Trip) (Trip, error) {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Trip{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if t.TripDate.IsZero() {
		t.TripDate = time.Now()
	}
	err = tx.QueryRow(ctx, `
    INSERT INTO trips (driver_id, trip_date, vehicle_type, amount_per_trip, sales_order_id)
    VALUES ($1,$2,$3,$4,$5)
    RETURNING id, created_at
  `, t.DriverID, t.TripDate, t.VehicleType, t.AmountPerTrip, nullIfEmpty(t.SalesOrderID)).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return Trip{}, err
	}

	for _, workerID := range t.Participants {
		if _, err := tx.Exec(ctx, "INSERT INTO trip_participants (trip_id, worker_id) VALUES ($1,$2)", t.ID, workerID); err != nil {
			return Trip{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Trip{}, err
	}
	return t, nil
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
