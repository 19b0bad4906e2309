package audit

import (
	"context"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGRepository persists and reads audit entries in PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// Insert appends one entry to the trail.
func (r *PGRepository) Insert(ctx context.Context, entry Entry) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO audit_logs (actor_id, table_name, record_id, action, old_values, new_values, changes_summary, ip_address, user_agent, created_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), $7, $8, $9, $10)`,
		entry.ActorID, entry.TableName, entry.RecordID, entry.Action,
		entry.OldValues, entry.NewValues, entry.Summary,
		entry.IP, entry.UserAgent, entry.CreatedAt,
	)
	return err
}

const entryColumns = `id, actor_id, table_name, record_id, action, COALESCE(old_values, ''), COALESCE(new_values, ''), changes_summary, ip_address, user_agent, created_at`

// ListWindow returns one page of the filtered trail, newest first.
func (r *PGRepository) ListWindow(ctx context.Context, filters TimelineFilters, limit, offset int) ([]Entry, error) {
	query, args := buildFilterQuery(filters)
	args = append(args, limit)
	query += ` LIMIT $` + strconv.Itoa(len(args))
	args = append(args, offset)
	query += ` OFFSET $` + strconv.Itoa(len(args))
	return r.queryEntries(ctx, query, args)
}

// ListAll returns the full filtered trail, newest first.
func (r *PGRepository) ListAll(ctx context.Context, filters TimelineFilters) ([]Entry, error) {
	query, args := buildFilterQuery(filters)
	return r.queryEntries(ctx, query, args)
}

func buildFilterQuery(filters TimelineFilters) (string, []any) {
	query := `SELECT ` + entryColumns + ` FROM audit_logs WHERE 1=1`
	args := []any{}
	if !filters.From.IsZero() {
		args = append(args, filters.From)
		query += ` AND created_at >= $` + strconv.Itoa(len(args))
	}
	if !filters.To.IsZero() {
		args = append(args, filters.To)
		query += ` AND created_at <= $` + strconv.Itoa(len(args))
	}
	if filters.ActorID > 0 {
		args = append(args, filters.ActorID)
		query += ` AND actor_id = $` + strconv.Itoa(len(args))
	}
	if filters.Table != "" {
		args = append(args, filters.Table)
		query += ` AND table_name = $` + strconv.Itoa(len(args))
	}
	if filters.Action != "" {
		args = append(args, filters.Action)
		query += ` AND action = $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY created_at DESC, id DESC`
	return query, args
}

func (r *PGRepository) queryEntries(ctx context.Context, query string, args []any) ([]Entry, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows)
}

func scanEntries(rows pgx.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.ActorID, &e.TableName, &e.RecordID, &e.Action, &e.OldValues, &e.NewValues, &e.Summary, &e.IP, &e.UserAgent, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

var (
	_ Store      = (*PGRepository)(nil)
	_ Repository = (*PGRepository)(nil)
)
