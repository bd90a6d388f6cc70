// Package product provides the product catalog: the repository interface and
// its PostgreSQL and gorm implementations, the listing query builder and the
// cached Service on top of them.
package product

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound = errors.New("product not found")
)

// Repository persists products. Soft-deleted products are invisible to every
// read and cannot be updated or deleted again.
type Repository interface {
	Create(ctx context.Context, p *Product) error
	GetByID(ctx context.Context, id string) (*Product, error)
	List(ctx context.Context, q ListQuery) ([]Product, int64, error)
	Update(ctx context.Context, p *Product) error
	SoftDelete(ctx context.Context, id string) (bool, error)
}

//go:embed schema.sql
var schemaSQL string

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

// EnsureSchema creates the products table when it does not exist yet.
func (r *PGRepo) EnsureSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.db.Exec(ctx, schemaSQL)
	return err
}

func (r *PGRepo) Create(ctx context.Context, p *Product) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return r.db.QueryRow(ctx, `
		INSERT INTO products (id, name, description, price, stock, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,NOW(),NOW())
		RETURNING created_at, updated_at
	`, p.ID, p.Name, p.Description, p.Price, p.Stock).Scan(&p.CreatedAt, &p.UpdatedAt)
}

func (r *PGRepo) GetByID(ctx context.Context, id string) (*Product, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var p Product
	err := r.db.QueryRow(ctx, `
		SELECT id, name, description, price::text, stock, created_at, updated_at
		FROM products WHERE id=$1 AND deleted_at IS NULL
	`, id).Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PGRepo) List(ctx context.Context, q ListQuery) ([]Product, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	where, args := pgWhere(q)

	var total int64
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM products WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Query(ctx, pgListSQL(q, where, len(args)), append(args, q.PerPage, q.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

func (r *PGRepo) Update(ctx context.Context, p *Product) error {
	if _, err := uuid.Parse(p.ID); err != nil {
		return ErrNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := r.db.QueryRow(ctx, `
		UPDATE products
		SET name = $2,
		    description = $3,
		    price = $4,
		    stock = $5,
		    updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING created_at, updated_at
	`, p.ID, p.Name, p.Description, p.Price, p.Stock).Scan(&p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (r *PGRepo) SoftDelete(ctx context.Context, id string) (bool, error) {
	if _, err := uuid.Parse(id); err != nil {
		return false, nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cmd, err := r.db.Exec(ctx, `
		UPDATE products SET deleted_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`, id)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

// pgWhere renders the filter part of q with numbered placeholders.
func pgWhere(q ListQuery) (string, []any) {
	clauses := []string{"deleted_at IS NULL"}
	var args []any
	for _, c := range q.Conditions {
		args = append(args, c.Value)
		switch c.Op {
		case OpLike:
			clauses = append(clauses, fmt.Sprintf("CAST(%s AS TEXT) ILIKE $%d", c.Field, len(args)))
		default:
			clauses = append(clauses, fmt.Sprintf("CAST(%s AS TEXT) = $%d", c.Field, len(args)))
		}
	}
	if q.Start != nil {
		args = append(args, *q.Start)
		clauses = append(clauses, fmt.Sprintf("%s >= $%d", q.DateField, len(args)))
	}
	if q.End != nil {
		args = append(args, *q.End)
		clauses = append(clauses, fmt.Sprintf("%s <= $%d", q.DateField, len(args)))
	}
	return strings.Join(clauses, " AND "), args
}

func pgListSQL(q ListQuery, where string, nargs int) string {
	dir := "ASC"
	if q.Desc() {
		dir = "DESC"
	}
	return fmt.Sprintf(`SELECT id, name, description, price::text, stock, created_at, updated_at
		FROM products
		WHERE %s
		ORDER BY %s %s, id ASC
		LIMIT $%d OFFSET $%d`, where, q.OrderField, dir, nargs+1, nargs+2)
}
