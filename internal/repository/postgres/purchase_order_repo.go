package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/northbridge-systems/commerce-core/internal/domain"
)

type PurchaseOrderRepository struct {
	pool *pgxpool.Pool
}

func NewPurchaseOrderRepository(pool *pgxpool.Pool) *PurchaseOrderRepository {
	return &PurchaseOrderRepository{pool: pool}
}

func (r *PurchaseOrderRepository) WithTx(ctx context.Context, fn func(tx domain.Tx) error) error {
	return withTx(ctx, r.pool, fn)
}

func (r *PurchaseOrderRepository) Create(ctx context.Context, tx domain.Tx, po *domain.PurchaseOrder, lines []*domain.PoLine) error {
	t := unwrapTx(tx)
	_, err := t.Exec(ctx, `
		INSERT INTO purchase_orders (id, po_number, vendor_id, status, currency, location_id, tenant_id, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		po.ID, po.PoNumber, po.VendorID, po.Status, po.Currency, po.LocationID, po.TenantID, po.Version, po.CreatedAt, po.UpdatedAt)
	if err != nil {
		return err
	}
	for _, l := range lines {
		if _, err := t.Exec(ctx, `
			INSERT INTO po_lines (id, purchase_order_id, line_number, item_id, quantity_ordered, quantity_received, quantity_returned, unit_cost)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			l.ID, l.PurchaseOrderID, l.LineNumber, l.ItemID, l.QuantityOrdered, l.QuantityReceived, l.QuantityReturned, l.UnitCost); err != nil {
			return err
		}
	}
	return nil
}

func (r *PurchaseOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.PurchaseOrder, error) {
	return scanPurchaseOrder(r.pool.QueryRow(ctx, poSelect+` WHERE id = $1`, id))
}

func (r *PurchaseOrderRepository) GetForUpdate(ctx context.Context, tx domain.Tx, id uuid.UUID) (*domain.PurchaseOrder, error) {
	return scanPurchaseOrder(unwrapTx(tx).QueryRow(ctx, poSelect+` WHERE id = $1 FOR UPDATE`, id))
}

const poSelect = `
	SELECT id, po_number, vendor_id, status, currency, location_id, tenant_id, version, created_at, updated_at
	FROM purchase_orders`

func scanPurchaseOrder(row pgx.Row) (*domain.PurchaseOrder, error) {
	var po domain.PurchaseOrder
	if err := row.Scan(&po.ID, &po.PoNumber, &po.VendorID, &po.Status, &po.Currency, &po.LocationID,
		&po.TenantID, &po.Version, &po.CreatedAt, &po.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPurchaseOrderNotFound
		}
		return nil, err
	}
	return &po, nil
}

func (r *PurchaseOrderRepository) Update(ctx context.Context, tx domain.Tx, po *domain.PurchaseOrder, expectedVersion int64) error {
	tag, err := unwrapTx(tx).Exec(ctx, `
		UPDATE purchase_orders SET status = $1, version = $2, updated_at = $3 WHERE id = $4 AND version = $5`,
		po.Status, po.Version, po.UpdatedAt, po.ID, expectedVersion)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrConcurrentModification
	}
	return nil
}

func (r *PurchaseOrderRepository) ListLines(ctx context.Context, poID uuid.UUID) ([]*domain.PoLine, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, purchase_order_id, line_number, item_id, quantity_ordered, quantity_received, quantity_returned, unit_cost
		FROM po_lines WHERE purchase_order_id = $1 ORDER BY line_number`, poID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []*domain.PoLine
	for rows.Next() {
		var l domain.PoLine
		if err := rows.Scan(&l.ID, &l.PurchaseOrderID, &l.LineNumber, &l.ItemID, &l.QuantityOrdered,
			&l.QuantityReceived, &l.QuantityReturned, &l.UnitCost); err != nil {
			return nil, err
		}
		lines = append(lines, &l)
	}
	return lines, rows.Err()
}

func (r *PurchaseOrderRepository) GetLineForUpdate(ctx context.Context, tx domain.Tx, lineID uuid.UUID) (*domain.PoLine, error) {
	var l domain.PoLine
	err := unwrapTx(tx).QueryRow(ctx, `
		SELECT id, purchase_order_id, line_number, item_id, quantity_ordered, quantity_received, quantity_returned, unit_cost
		FROM po_lines WHERE id = $1 FOR UPDATE`, lineID).
		Scan(&l.ID, &l.PurchaseOrderID, &l.LineNumber, &l.ItemID, &l.QuantityOrdered, &l.QuantityReceived, &l.QuantityReturned, &l.UnitCost)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPoLineNotFound
		}
		return nil, err
	}
	return &l, nil
}

func (r *PurchaseOrderRepository) UpdateLine(ctx context.Context, tx domain.Tx, l *domain.PoLine) error {
	_, err := unwrapTx(tx).Exec(ctx, `
		UPDATE po_lines SET quantity_received = $1, quantity_returned = $2 WHERE id = $3`,
		l.QuantityReceived, l.QuantityReturned, l.ID)
	return err
}

func (r *PurchaseOrderRepository) CreateReceipt(ctx context.Context, tx domain.Tx, h *domain.PoReceiptHeader, lines []*domain.PoReceiptLine) error {
	t := unwrapTx(tx)
	_, err := t.Exec(ctx, `
		INSERT INTO po_receipt_headers (id, purchase_order_id, received_at, notes) VALUES ($1, $2, $3, $4)`,
		h.ID, h.PurchaseOrderID, h.ReceivedAt, h.Notes)
	if err != nil {
		return err
	}
	for _, l := range lines {
		if _, err := t.Exec(ctx, `
			INSERT INTO po_receipt_lines (id, receipt_header_id, po_line_id, quantity_received, returned)
			VALUES ($1, $2, $3, $4, $5)`,
			l.ID, l.ReceiptHeaderID, l.PoLineID, l.QuantityReceived, l.Returned); err != nil {
			return err
		}
	}
	return nil
}

func (r *PurchaseOrderRepository) ListReceipts(ctx context.Context, poID uuid.UUID) ([]*domain.PoReceiptHeader, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, purchase_order_id, received_at, notes FROM po_receipt_headers
		WHERE purchase_order_id = $1 ORDER BY received_at DESC`, poID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var headers []*domain.PoReceiptHeader
	for rows.Next() {
		var h domain.PoReceiptHeader
		if err := rows.Scan(&h.ID, &h.PurchaseOrderID, &h.ReceivedAt, &h.Notes); err != nil {
			return nil, err
		}
		headers = append(headers, &h)
	}
	return headers, rows.Err()
}
