package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"propertypilot_backend/internal/catalog"
	"propertypilot_backend/platform/apperr"
)

const projectNotFoundMessage = "project not found"

const projectColumns = `
	id, name, locality, zone, bedrooms, budget_min, budget_max,
	property_type, status, possession_year, possession_quarter,
	amenities, lat, lon`

// Repo implements the catalog store on Postgres.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new catalog repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Store.
var _ Store = (*Repo)(nil)

// Search returns projects matching the query predicate.
func (r *Repo) Search(ctx context.Context, q catalog.Query) ([]catalog.Project, error) {
	whereClauses := []string{"TRUE"}
	args := []interface{}{}
	argIdx := 1

	if len(q.Bedrooms) > 0 {
		whereClauses = append(whereClauses, fmt.Sprintf("bedrooms && $%d", argIdx))
		args = append(args, q.Bedrooms)
		argIdx++
	}

	if q.Locality != "" {
		whereClauses = append(whereClauses,
			fmt.Sprintf("(locality ILIKE $%d OR zone ILIKE $%d)", argIdx, argIdx))
		args = append(args, "%"+q.Locality+"%")
		argIdx++
	}

	if q.BudgetMax != nil {
		// Overlap with the requested ceiling, not full containment.
		whereClauses = append(whereClauses, fmt.Sprintf("budget_min <= $%d", argIdx))
		args = append(args, *q.BudgetMax)
		argIdx++
	}

	if len(q.PropertyTypes) > 0 {
		whereClauses = append(whereClauses, fmt.Sprintf("property_type = ANY($%d)", argIdx))
		args = append(args, q.PropertyTypes)
		argIdx++
	}

	if len(q.PossessionStatuses) > 0 {
		whereClauses = append(whereClauses, fmt.Sprintf("status = ANY($%d)", argIdx))
		args = append(args, q.PossessionStatuses)
		argIdx++
	}

	query := fmt.Sprintf(
		"SELECT %s FROM projects WHERE %s ORDER BY budget_min ASC, name ASC",
		projectColumns, strings.Join(whereClauses, " AND "),
	)
	if q.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, q.Limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search projects: %w", err)
	}
	defer rows.Close()

	var projects []catalog.Project
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, project)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("search projects: %w", err)
	}

	return projects, nil
}

// GetByName returns a project by exact (case-insensitive) name.
func (r *Repo) GetByName(ctx context.Context, name string) (catalog.Project, error) {
	query := fmt.Sprintf("SELECT %s FROM projects WHERE LOWER(name) = LOWER($1)", projectColumns)

	rows, err := r.pool.Query(ctx, query, name)
	if err != nil {
		return catalog.Project{}, fmt.Errorf("get project by name: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return catalog.Project{}, fmt.Errorf("get project by name: %w", err)
		}
		return catalog.Project{}, apperr.NotFound(projectNotFoundMessage)
	}

	project, err := scanProject(rows)
	if err != nil {
		return catalog.Project{}, fmt.Errorf("scan project: %w", err)
	}
	return project, nil
}

// Names returns all project names.
func (r *Repo) Names(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, "SELECT name FROM projects ORDER BY name ASC")
	if err != nil {
		return nil, fmt.Errorf("list project names: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan project name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list project names: %w", err)
	}

	return names, nil
}

func scanProject(rows pgx.Rows) (catalog.Project, error) {
	var p catalog.Project
	err := rows.Scan(
		&p.ID, &p.Name, &p.Locality, &p.Zone, &p.Bedrooms, &p.BudgetMin, &p.BudgetMax,
		&p.PropertyType, &p.Status, &p.PossessionYear, &p.PossessionQuarter,
		&p.Amenities, &p.Lat, &p.Lon,
	)
	if err != nil && errors.Is(err, pgx.ErrNoRows) {
		return catalog.Project{}, apperr.NotFound(projectNotFoundMessage)
	}
	return p, err
}
