// Package repository reads pipeline data from PostgreSQL.
package repository

import (
	"context"
	"fmt"

	"pipeline_forecast_backend/internal/forecasting/domain"
	"pipeline_forecast_backend/internal/forecasting/engine"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const opportunityColumns = `id, name, COALESCE(account_id, ''), COALESCE(owner_id, ''), stage,
		amount::text, probability, close_date, created_at, updated_at`

// Repository provides read-only database access for the forecasting engine.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new forecasting repository
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

var _ engine.Reader = (*Repository)(nil)

// ListOpportunities returns the opportunities matching filter, ordered by id.
func (r *Repository) ListOpportunities(ctx context.Context, filter domain.OpportunityFilter) ([]domain.Opportunity, error) {
	query, args := buildOpportunityQuery(filter)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list opportunities: %w", err)
	}
	defer rows.Close()

	items := make([]domain.Opportunity, 0)
	for rows.Next() {
		o, err := scanOpportunity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan opportunity: %w", err)
		}
		items = append(items, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate opportunities: %w", err)
	}

	return items, nil
}

// ListAccounts returns every account.
func (r *Repository) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name FROM accounts ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	items := make([]domain.Account, 0)
	for rows.Next() {
		var a domain.Account
		if err := rows.Scan(&a.ID, &a.Name); err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		items = append(items, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate accounts: %w", err)
	}

	return items, nil
}

// ListUsers returns every user, ordered by name.
func (r *Repository) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, email FROM users ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	items := make([]domain.User, 0)
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		items = append(items, u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}

	return items, nil
}

func scanOpportunity(row pgx.Row) (domain.Opportunity, error) {
	var (
		o           domain.Opportunity
		stage       string
		amount      *string
		probability *int
	)
	if err := row.Scan(
		&o.ID, &o.Name, &o.AccountID, &o.OwnerID, &stage,
		&amount, &probability, &o.CloseDate, &o.CreatedAt, &o.UpdatedAt,
	); err != nil {
		return domain.Opportunity{}, err
	}

	o.Stage = domain.ParseStage(stage)
	if amount != nil {
		o.Amount = *amount
	}
	o.Probability = probability
	return o, nil
}

// buildOpportunityQuery translates a filter into SQL. The engine re-applies
// the filter, so this only needs to narrow the read.
func buildOpportunityQuery(filter domain.OpportunityFilter) (string, []interface{}) {
	baseQuery := `FROM opportunities WHERE 1=1`
	args := []interface{}{}
	argIndex := 1

	stages := make([]string, 0, len(filter.Stages))
	for _, s := range filter.Stages {
		stages = append(stages, string(s))
	}

	addFilter(&baseQuery, &args, &argIndex, len(stages) > 0, " AND stage = ANY($%d)", stages)
	addFilter(&baseQuery, &args, &argIndex, filter.OwnerID != "", " AND owner_id = $%d", filter.OwnerID)
	if r := filter.UpdatedWithin; r != nil {
		addFilter(&baseQuery, &args, &argIndex, !r.Start.IsZero(), " AND updated_at >= $%d", r.Start)
		addFilter(&baseQuery, &args, &argIndex, true, " AND updated_at <= $%d", r.End)
	}
	if r := filter.CloseWithin; r != nil {
		baseQuery += " AND close_date IS NOT NULL"
		addFilter(&baseQuery, &args, &argIndex, !r.Start.IsZero(), " AND close_date >= $%d", r.Start)
		addFilter(&baseQuery, &args, &argIndex, true, " AND close_date <= $%d", r.End)
	}

	return fmt.Sprintf("SELECT %s %s ORDER BY id", opportunityColumns, baseQuery), args
}

func addFilter(baseQuery *string, args *[]interface{}, argIndex *int, apply bool, clause string, value interface{}) {
	if !apply {
		return
	}
	*baseQuery += fmt.Sprintf(clause, *argIndex)
	*args = append(*args, value)
	*argIndex++
}
