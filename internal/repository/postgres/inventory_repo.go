package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/northbridge-systems/commerce-core/internal/domain"
)

// InventoryRepository implements domain.InventoryRepository directly
// against PostgreSQL with hand-written SQL, following the teacher's
// pool.Begin/defer-Rollback/Commit transaction shape but without sqlc
// codegen (no generated query package ships with this core).
type InventoryRepository struct {
	pool *pgxpool.Pool
}

func NewInventoryRepository(pool *pgxpool.Pool) *InventoryRepository {
	return &InventoryRepository{pool: pool}
}

func (r *InventoryRepository) WithTx(ctx context.Context, fn func(tx domain.Tx) error) error {
	return withTx(ctx, r.pool, fn)
}

func (r *InventoryRepository) GetBalance(ctx context.Context, itemID uuid.UUID, locationID string) (*domain.InventoryBalance, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, item_id, location_id, on_hand, allocated, version, tenant_id, updated_at
		FROM inventory_balances WHERE item_id = $1 AND location_id = $2`, itemID, locationID)
	return scanBalance(row)
}

func (r *InventoryRepository) GetBalanceForUpdate(ctx context.Context, tx domain.Tx, itemID uuid.UUID, locationID string) (*domain.InventoryBalance, error) {
	row := unwrapTx(tx).QueryRow(ctx, `
		SELECT id, item_id, location_id, on_hand, allocated, version, tenant_id, updated_at
		FROM inventory_balances WHERE item_id = $1 AND location_id = $2 FOR UPDATE`, itemID, locationID)
	return scanBalance(row)
}

func scanBalance(row pgx.Row) (*domain.InventoryBalance, error) {
	var b domain.InventoryBalance
	var tenantID *string
	if err := row.Scan(&b.ID, &b.ItemID, &b.LocationID, &b.OnHand, &b.Allocated, &b.Version, &tenantID, &b.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrInventoryBalanceNotFound
		}
		return nil, err
	}
	b.TenantID = tenantID
	return &b, nil
}

func (r *InventoryRepository) CreateBalance(ctx context.Context, tx domain.Tx, b *domain.InventoryBalance) error {
	_, err := unwrapTx(tx).Exec(ctx, `
		INSERT INTO inventory_balances (id, item_id, location_id, on_hand, allocated, version, tenant_id, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		b.ID, b.ItemID, b.LocationID, b.OnHand, b.Allocated, b.Version, b.TenantID, b.UpdatedAt)
	return err
}

func (r *InventoryRepository) UpdateBalance(ctx context.Context, tx domain.Tx, b *domain.InventoryBalance, expectedVersion int64) error {
	tag, err := unwrapTx(tx).Exec(ctx, `
		UPDATE inventory_balances
		SET on_hand = $1, allocated = $2, version = $3, updated_at = $4
		WHERE id = $5 AND version = $6`,
		b.OnHand, b.Allocated, b.Version, b.UpdatedAt, b.ID, expectedVersion)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrConcurrentModification
	}
	return nil
}

func (r *InventoryRepository) InsertTransaction(ctx context.Context, tx domain.Tx, t *domain.InventoryTransaction) error {
	_, err := unwrapTx(tx).Exec(ctx, `
		INSERT INTO inventory_transactions
			(id, item_id, location_id, transaction_type, delta_on_hand, delta_allocated,
			 reason, reference_type, reference_id, notes, tenant_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		t.ID, t.ItemID, t.LocationID, t.TransactionType, t.DeltaOnHand, t.DeltaAllocated,
		t.Reason, t.ReferenceType, t.ReferenceID, t.Notes, t.TenantID, t.CreatedAt)
	return err
}

func (r *InventoryRepository) ListTransactions(ctx context.Context, itemID uuid.UUID, locationID string, limit, offset int) ([]*domain.InventoryTransaction, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, item_id, location_id, transaction_type, delta_on_hand, delta_allocated,
		       reason, reference_type, reference_id, notes, tenant_id, created_at
		FROM inventory_transactions
		WHERE item_id = $1 AND location_id = $2
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4`, itemID, locationID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*domain.InventoryTransaction
	for rows.Next() {
		var t domain.InventoryTransaction
		if err := rows.Scan(&t.ID, &t.ItemID, &t.LocationID, &t.TransactionType, &t.DeltaOnHand, &t.DeltaAllocated,
			&t.Reason, &t.ReferenceType, &t.ReferenceID, &t.Notes, &t.TenantID, &t.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, &t)
	}
	return result, rows.Err()
}
