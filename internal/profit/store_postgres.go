package profit

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements Store over PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore constructs a Postgres-backed profit store.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, errors.New("profit: nil pool")
	}
	return &PostgresStore{pool: pool}, nil
}

// whereClause builds the filter predicate shared by the page and count
// queries.
func whereClause(f ListFilters) (string, []any) {
	var conds []string
	var args []any

	if f.Company != "" {
		args = append(args, f.Company)
		conds = append(conds, fmt.Sprintf("company = $%d", len(args)))
	}
	if f.Year != 0 {
		args = append(args, f.Year)
		conds = append(conds, fmt.Sprintf("year = $%d", len(args)))
	}
	if f.Search != "" {
		args = append(args, "%"+strings.ToLower(f.Search)+"%")
		conds = append(conds, fmt.Sprintf("lower(company) LIKE $%d", len(args)))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (s *PostgresStore) List(ctx context.Context, f ListFilters) (Page, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PerPage < 1 {
		f.PerPage = 25
	}

	where, args := whereClause(f)

	var total int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM profits`+where, args...).Scan(&total); err != nil {
		return Page{}, err
	}

	totalPages := (total + f.PerPage - 1) / f.PerPage
	offset := (f.Page - 1) * f.PerPage

	query := `
		SELECT id, company, year, month, profit
		FROM profits` + where + `
		ORDER BY year DESC, month DESC, company ASC
		LIMIT $` + fmt.Sprint(len(args)+1) + ` OFFSET $` + fmt.Sprint(len(args)+2)
	rows, err := s.pool.Query(ctx, query, append(args, f.PerPage, offset)...)
	if err != nil {
		return Page{}, err
	}
	defer rows.Close()

	records := make([]Record, 0, f.PerPage)
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.ID, &r.Company, &r.Year, &r.Month, &r.Profit); err != nil {
			return Page{}, err
		}
		r.MonthName = MonthName(r.Month)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return Page{}, err
	}

	return Page{
		Data:       records,
		Total:      total,
		Page:       f.Page,
		PerPage:    f.PerPage,
		TotalPages: totalPages,
		HasNext:    f.Page < totalPages,
		HasPrev:    f.Page > 1,
	}, nil
}

func (s *PostgresStore) Companies(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT DISTINCT company FROM profits ORDER BY company`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Years(ctx context.Context) ([]int, error) {
	rows, err := s.pool.Query(ctx, `SELECT DISTINCT year FROM profits ORDER BY year DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []int
	for rows.Next() {
		var y int
		if err := rows.Scan(&y); err != nil {
			return nil, err
		}
		out = append(out, y)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.pool.QueryRow(ctx, `
		SELECT count(*),
		       round(coalesce(sum(profit), 0)::numeric, 2),
		       round(coalesce(avg(profit), 0)::numeric, 2),
		       coalesce(min(profit), 0),
		       coalesce(max(profit), 0)
		FROM profits
	`).Scan(&st.TotalRecords, &st.TotalProfit, &st.AverageProfit, &st.MinProfit, &st.MaxProfit)
	return st, err
}
