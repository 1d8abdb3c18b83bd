package leads

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxPool is the subset of pgxpool.Pool the repository needs. Satisfied by
// pgxmock in tests.
type PgxPool interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresRepository stores leads in the relational database.
type PostgresRepository struct {
	pool PgxPool
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("leads: pgx pool required")
	}
	return &PostgresRepository{pool: pool}
}

// NewPostgresRepositoryWithPool accepts any PgxPool (used by tests).
func NewPostgresRepositoryWithPool(pool PgxPool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Create inserts a new row. Column order matches the downstream export schema.
func (r *PostgresRepository) Create(ctx context.Context, req *CreateLeadRequest) (*Lead, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	id := uuid.New()
	query := `
		INSERT INTO leads (
			id, source, page, persona_tipo, nombre, telefono, email,
			municipio, barrio, m2, habitaciones, estado_vivienda,
			fecha_disponible, presupuesto_renta, canal_preferido,
			franja_horaria, comentarios, utm_source, utm_medium,
			utm_campaign, consent, status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22)
		RETURNING created_at
	`
	var createdAt time.Time
	if err := r.pool.QueryRow(ctx, query,
		id,
		SourceChatbot,
		req.Page,
		req.PersonaTipo,
		req.Nombre,
		req.Telefono,
		req.Email,
		req.Municipio,
		req.Barrio,
		req.M2,
		req.Habitaciones,
		req.EstadoVivienda,
		req.FechaDisponible,
		req.PresupuestoRenta,
		req.CanalPreferido,
		req.FranjaHoraria,
		req.Comentarios,
		req.UTMSource,
		req.UTMMedium,
		req.UTMCampaign,
		req.Consent,
		StatusNew,
	).Scan(&createdAt); err != nil {
		return nil, fmt.Errorf("leads: insert failed: %w", err)
	}

	return leadFromRequest(id.String(), req, createdAt), nil
}

// GetByID fetches a single lead.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Lead, error) {
	query := selectColumns + ` FROM leads WHERE id = $1`
	row := r.pool.QueryRow(ctx, query, id)
	lead, err := scanLead(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLeadNotFound
		}
		return nil, fmt.Errorf("leads: select failed: %w", err)
	}
	return lead, nil
}

// List returns leads newest first, optionally filtered by status.
func (r *PostgresRepository) List(ctx context.Context, filter ListFilter) ([]*Lead, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	query := selectColumns + ` FROM leads`
	args := []any{}
	if filter.Status != "" {
		query += ` WHERE status = $1`
		args = append(args, filter.Status)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, filter.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("leads: list failed: %w", err)
	}
	defer rows.Close()

	var result []*Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("leads: scan failed: %w", err)
		}
		result = append(result, lead)
	}
	return result, rows.Err()
}

const selectColumns = `
	SELECT id, source, page, persona_tipo, nombre, telefono, email,
		municipio, barrio, m2, habitaciones, estado_vivienda,
		fecha_disponible, presupuesto_renta, canal_preferido,
		franja_horaria, comentarios, utm_source, utm_medium,
		utm_campaign, consent, status, created_at`

func scanLead(row pgx.Row) (*Lead, error) {
	var lead Lead
	if err := row.Scan(
		&lead.ID,
		&lead.Source,
		&lead.Page,
		&lead.PersonaTipo,
		&lead.Nombre,
		&lead.Telefono,
		&lead.Email,
		&lead.Municipio,
		&lead.Barrio,
		&lead.M2,
		&lead.Habitaciones,
		&lead.EstadoVivienda,
		&lead.FechaDisponible,
		&lead.PresupuestoRenta,
		&lead.CanalPreferido,
		&lead.FranjaHoraria,
		&lead.Comentarios,
		&lead.UTMSource,
		&lead.UTMMedium,
		&lead.UTMCampaign,
		&lead.Consent,
		&lead.Status,
		&lead.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &lead, nil
}
