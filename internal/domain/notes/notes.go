package notes

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("note not found")

type Note struct {
	ID        string    `json:"id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{DB: pool}
}

func (s *Store) List(ctx context.Context, limit, offset int) ([]Note, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.DB.Query(ctx, "SELECT id, body, created_at FROM notes ORDER BY created_at DESC LIMIT $1 OFFSET $2", limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []Note
	for rows.Next() {
		var n Note
		if err := rows.Scan(&n.ID, &n.Body, &n.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, n)
	}
	return list, rows.Err()
}

func (s *Store) Create(ctx context.Context, body string) (Note, error) {
	n := Note{Body: body}
	err := s.DB.QueryRow(ctx, "INSERT INTO notes (body) VALUES ($1) RETURNING id, created_at", body).Scan(&n.ID, &n.CreatedAt)
	if err != nil {
		return Note{}, err
	}
	return n, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM notes WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
