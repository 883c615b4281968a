package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/northbridge-systems/commerce-core/internal/domain"
)

type BomRepository struct {
	pool *pgxpool.Pool
}

func NewBomRepository(pool *pgxpool.Pool) *BomRepository {
	return &BomRepository{pool: pool}
}

func (r *BomRepository) CreateHeader(ctx context.Context, h *domain.BomHeader) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO bom_headers (id, item_id, status, tenant_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		h.ID, h.ItemID, h.Status, h.TenantID, h.CreatedAt, h.UpdatedAt)
	return err
}

func (r *BomRepository) GetActiveHeaderForItem(ctx context.Context, itemID uuid.UUID) (*domain.BomHeader, error) {
	h, err := scanBomHeader(r.pool.QueryRow(ctx, bomHeaderSelect+` WHERE item_id = $1 AND status = $2`, itemID, domain.BomActive))
	if errors.Is(err, domain.ErrBomHeaderNotFound) {
		return nil, domain.ErrNoActiveBom
	}
	return h, err
}

func (r *BomRepository) GetHeaderByID(ctx context.Context, id uuid.UUID) (*domain.BomHeader, error) {
	return scanBomHeader(r.pool.QueryRow(ctx, bomHeaderSelect+` WHERE id = $1`, id))
}

const bomHeaderSelect = `SELECT id, item_id, status, tenant_id, created_at, updated_at FROM bom_headers`

func scanBomHeader(row pgx.Row) (*domain.BomHeader, error) {
	var h domain.BomHeader
	if err := row.Scan(&h.ID, &h.ItemID, &h.Status, &h.TenantID, &h.CreatedAt, &h.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBomHeaderNotFound
		}
		return nil, err
	}
	return &h, nil
}

func (r *BomRepository) AddLine(ctx context.Context, l *domain.BomLine) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO bom_lines (id, bom_header_id, component_item_id, quantity_per, uom_code)
		VALUES ($1, $2, $3, $4, $5)`,
		l.ID, l.BomHeaderID, l.ComponentItemID, l.QuantityPer, l.UomCode)
	return err
}

func (r *BomRepository) ListLines(ctx context.Context, headerID uuid.UUID) ([]*domain.BomLine, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, bom_header_id, component_item_id, quantity_per, uom_code
		FROM bom_lines WHERE bom_header_id = $1`, headerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []*domain.BomLine
	for rows.Next() {
		var l domain.BomLine
		if err := rows.Scan(&l.ID, &l.BomHeaderID, &l.ComponentItemID, &l.QuantityPer, &l.UomCode); err != nil {
			return nil, err
		}
		lines = append(lines, &l)
	}
	return lines, rows.Err()
}
