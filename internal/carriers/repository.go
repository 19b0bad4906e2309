package carriers

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/linesalex/netinv/internal/platform/httpx"
	"github.com/linesalex/netinv/internal/shared"
)

// Repository defines persistence for carriers.
type Repository interface {
	List(ctx context.Context, filters ListFilters) ([]Carrier, int, error)
	Get(ctx context.Context, id int64) (Carrier, error)
	Create(ctx context.Context, carrier Carrier) (Carrier, error)
	Update(ctx context.Context, id int64, carrier Carrier) (Carrier, error)
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const columns = `id, name, region, contact_name, contact_email, phone, status, created_at, updated_at`

func (r *repository) List(ctx context.Context, filters ListFilters) ([]Carrier, int, error) {
	query := `SELECT ` + columns + ` FROM carriers WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM carriers WHERE 1=1`
	args := []any{}
	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		clause := ` AND (name ILIKE $1 OR region ILIKE $1)`
		query += clause
		countQuery += clause
	}

	var total int
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += ` ORDER BY name`
	if filters.Limit > 0 {
		args = append(args, filters.Limit)
		query += ` LIMIT $` + strconv.Itoa(len(args))
		offset := (filters.Page - 1) * filters.Limit
		if offset < 0 {
			offset = 0
		}
		args = append(args, offset)
		query += ` OFFSET $` + strconv.Itoa(len(args))
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var carriers []Carrier
	for rows.Next() {
		var c Carrier
		if err := rows.Scan(&c.ID, &c.Name, &c.Region, &c.ContactName, &c.ContactEmail, &c.Phone, &c.Status, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, 0, err
		}
		carriers = append(carriers, c)
	}
	return carriers, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Carrier, error) {
	var c Carrier
	err := r.db.QueryRow(ctx, `SELECT `+columns+` FROM carriers WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, &c.Region, &c.ContactName, &c.ContactEmail, &c.Phone, &c.Status, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Carrier{}, shared.ErrNotFound
		}
		return Carrier{}, err
	}
	return c, nil
}

func (r *repository) Create(ctx context.Context, carrier Carrier) (Carrier, error) {
	err := r.db.QueryRow(ctx, `
		INSERT INTO carriers (name, region, contact_name, contact_email, phone, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING id, created_at, updated_at`,
		carrier.Name, carrier.Region, carrier.ContactName, carrier.ContactEmail, carrier.Phone, carrier.Status).
		Scan(&carrier.ID, &carrier.CreatedAt, &carrier.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Carrier{}, httpx.ErrDuplicate
		}
		return Carrier{}, err
	}
	return carrier, nil
}

func (r *repository) Update(ctx context.Context, id int64, carrier Carrier) (Carrier, error) {
	err := r.db.QueryRow(ctx, `
		UPDATE carriers SET name = $2, region = $3, contact_name = $4, contact_email = $5, phone = $6, status = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING `+columns,
		id, carrier.Name, carrier.Region, carrier.ContactName, carrier.ContactEmail, carrier.Phone, carrier.Status).
		Scan(&carrier.ID, &carrier.Name, &carrier.Region, &carrier.ContactName, &carrier.ContactEmail, &carrier.Phone, &carrier.Status, &carrier.CreatedAt, &carrier.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Carrier{}, shared.ErrNotFound
		}
		return Carrier{}, err
	}
	return carrier, nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM carriers WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
