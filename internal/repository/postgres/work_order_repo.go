package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/northbridge-systems/commerce-core/internal/domain"
)

type WorkOrderRepository struct {
	pool *pgxpool.Pool
}

func NewWorkOrderRepository(pool *pgxpool.Pool) *WorkOrderRepository {
	return &WorkOrderRepository{pool: pool}
}

func (r *WorkOrderRepository) WithTx(ctx context.Context, fn func(tx domain.Tx) error) error {
	return withTx(ctx, r.pool, fn)
}

func (r *WorkOrderRepository) Create(ctx context.Context, tx domain.Tx, wo *domain.WorkOrder) error {
	_, err := unwrapTx(tx).Exec(ctx, `
		INSERT INTO work_orders
			(id, wo_number, item_id, bom_header_id, location_id, quantity_planned, quantity_produced,
			 status, held_from, actual_start, tenant_id, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		wo.ID, wo.WoNumber, wo.ItemID, wo.BomHeaderID, wo.LocationID, wo.QuantityPlanned, wo.QuantityProduced,
		wo.Status, wo.HeldFrom, wo.ActualStart, wo.TenantID, wo.Version, wo.CreatedAt, wo.UpdatedAt)
	return err
}

func (r *WorkOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.WorkOrder, error) {
	return scanWorkOrder(r.pool.QueryRow(ctx, woSelect+` WHERE id = $1`, id))
}

func (r *WorkOrderRepository) GetForUpdate(ctx context.Context, tx domain.Tx, id uuid.UUID) (*domain.WorkOrder, error) {
	return scanWorkOrder(unwrapTx(tx).QueryRow(ctx, woSelect+` WHERE id = $1 FOR UPDATE`, id))
}

const woSelect = `
	SELECT id, wo_number, item_id, bom_header_id, location_id, quantity_planned, quantity_produced,
	       status, held_from, actual_start, tenant_id, version, created_at, updated_at
	FROM work_orders`

func scanWorkOrder(row pgx.Row) (*domain.WorkOrder, error) {
	var wo domain.WorkOrder
	if err := row.Scan(&wo.ID, &wo.WoNumber, &wo.ItemID, &wo.BomHeaderID, &wo.LocationID, &wo.QuantityPlanned,
		&wo.QuantityProduced, &wo.Status, &wo.HeldFrom, &wo.ActualStart, &wo.TenantID, &wo.Version, &wo.CreatedAt, &wo.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrWorkOrderNotFound
		}
		return nil, err
	}
	return &wo, nil
}

func (r *WorkOrderRepository) Update(ctx context.Context, tx domain.Tx, wo *domain.WorkOrder, expectedVersion int64) error {
	tag, err := unwrapTx(tx).Exec(ctx, `
		UPDATE work_orders SET status = $1, quantity_produced = $2, held_from = $3, actual_start = $4, version = $5, updated_at = $6
		WHERE id = $7 AND version = $8`,
		wo.Status, wo.QuantityProduced, wo.HeldFrom, wo.ActualStart, wo.Version, wo.UpdatedAt, wo.ID, expectedVersion)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrConcurrentModification
	}
	return nil
}

func (r *WorkOrderRepository) List(ctx context.Context, status *domain.WorkOrderStatus, limit, offset int) ([]*domain.WorkOrder, error) {
	var rows pgx.Rows
	var err error
	if status != nil {
		rows, err = r.pool.Query(ctx, woSelect+` WHERE status = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, *status, limit, offset)
	} else {
		rows, err = r.pool.Query(ctx, woSelect+` ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*domain.WorkOrder
	for rows.Next() {
		wo, err := scanWorkOrder(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, wo)
	}
	return result, rows.Err()
}
