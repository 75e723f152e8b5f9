package inventory

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{DB: pool}
}

func (s *Store) Get(ctx context.Context) (Inventory, error) {
	var inv Inventory
	err := s.DB.QueryRow(ctx, `
    SELECT id, current_stock, khanger_stock, last_updated
    FROM inventory
    ORDER BY id
    LIMIT 1
  `).Scan(&inv.ID, &inv.CurrentStock, &inv.KhangerStock, &inv.LastUpdated)
	if err != nil {
		return Inventory{}, err
	}
	return inv, nil
}

// ApplyMovement appends the movement and applies its signed quantity to the
// stock level in one transaction.
func (s *Store) ApplyMovement(ctx context.Context, m Movement) (Movement, error) {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Movement{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx, `
    INSERT INTO inventory_movements (type, quantity, reason, reference_id)
    VALUES ($1,$2,$3,$4)
    RETURNING id, movement_date
  `, m.Type, m.Quantity, nullIfEmpty(m.Reason), nullIfEmpty(m.ReferenceID)).Scan(&m.ID, &m.MovementDate)
	if err != nil {
		return Movement{}, err
	}

	if _, err := tx.Exec(ctx, `
    UPDATE inventory SET current_stock = current_stock + $1, last_updated = now()
  `, m.Quantity); err != nil {
		return Movement{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Movement{}, err
	}
	return m, nil
}

// SetKhangerStock overwrites the khanger level; it is tracked outside the
// movement ledger since khanger is weighed, not counted.
func (s *Store) SetKhangerStock(ctx context.Context, khangerStock int) (Inventory, error) {
	_, err := s.DB.Exec(ctx, "UPDATE inventory SET khanger_stock = $1, last_updated = now()", khangerStock)
	if err != nil {
		return Inventory{}, err
	}
	return s.Get(ctx)
}

func (s *Store) ListMovements(ctx context.Context, limit, offset int) ([]Movement, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.DB.Query(ctx, `
    SELECT id, type, quantity, COALESCE(reason, ''), COALESCE(reference_id::text, ''), movement_date
    FROM inventory_movements
    ORDER BY movement_date DESC
    LIMIT $1 OFFSET $2
  `, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var movements []Movement
	for rows.Next() {
		var m Movement
		if err := rows.Scan(&m.ID, &m.Type, &m.Quantity, &m.Reason, &m.ReferenceID, &m.MovementDate); err != nil {
			return nil, err
		}
		movements = append(movements, m)
	}
	return movements, rows.Err()
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
