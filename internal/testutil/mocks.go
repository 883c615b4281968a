package testutil

import (
	"sync"
	"time"

	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/northbridge-systems/commerce-core/internal/domain"
)

// MockTx is the in-memory domain.Tx handed out by every mock repository's
// WithTx. Mock repository mutations apply immediately and are never rolled
// back, so Commit/Rollback are no-ops.
type MockTx struct{}

func (MockTx) Commit(ctx context.Context) error   { return nil }
func (MockTx) Rollback(ctx context.Context) error { return nil }

// MockProductRepository is an in-memory domain.ProductRepository.
type MockProductRepository struct {
	mu       sync.Mutex
	Products map[uuid.UUID]*domain.Product
}

func NewMockProductRepository() *MockProductRepository {
	return &MockProductRepository{Products: make(map[uuid.UUID]*domain.Product)}
}

func (m *MockProductRepository) Create(ctx context.Context, p *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Products[p.ID] = p
	return nil
}

func (m *MockProductRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.Products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return p, nil
}

func (m *MockProductRepository) GetBySku(ctx context.Context, sku string) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.Products {
		if p.Sku == sku {
			return p, nil
		}
	}
	return nil, domain.ErrProductNotFound
}

func (m *MockProductRepository) Update(ctx context.Context, p *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Products[p.ID]; !ok {
		return domain.ErrProductNotFound
	}
	m.Products[p.ID] = p
	return nil
}

func (m *MockProductRepository) List(ctx context.Context, limit, offset int) ([]*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*domain.Product
	for _, p := range m.Products {
		result = append(result, p)
	}
	return result, nil
}

func (m *MockProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Products, id)
	return nil
}

// MockProductVariantRepository is an in-memory domain.ProductVariantRepository.
type MockProductVariantRepository struct {
	mu       sync.Mutex
	Variants map[uuid.UUID]*domain.ProductVariant
}

func NewMockProductVariantRepository() *MockProductVariantRepository {
	return &MockProductVariantRepository{Variants: make(map[uuid.UUID]*domain.ProductVariant)}
}

func (m *MockProductVariantRepository) Create(ctx context.Context, v *domain.ProductVariant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Variants[v.ID] = v
	return nil
}

func (m *MockProductVariantRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.ProductVariant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.Variants[id]
	if !ok {
		return nil, domain.ErrProductVariantNotFound
	}
	return v, nil
}

func (m *MockProductVariantRepository) GetBySku(ctx context.Context, sku string) (*domain.ProductVariant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.Variants {
		if v.Sku == sku {
			return v, nil
		}
	}
	return nil, domain.ErrProductVariantNotFound
}

func (m *MockProductVariantRepository) ListByProduct(ctx context.Context, productID uuid.UUID) ([]*domain.ProductVariant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*domain.ProductVariant
	for _, v := range m.Variants {
		if v.ProductID == productID {
			result = append(result, v)
		}
	}
	return result, nil
}

func (m *MockProductVariantRepository) Update(ctx context.Context, v *domain.ProductVariant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Variants[v.ID]; !ok {
		return domain.ErrProductVariantNotFound
	}
	m.Variants[v.ID] = v
	return nil
}

func (m *MockProductVariantRepository) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Variants, id)
	return nil
}

// MockInventoryRepository is an in-memory domain.InventoryRepository.
type MockInventoryRepository struct {
	mu           sync.Mutex
	Balances     map[string]*domain.InventoryBalance
	Transactions []*domain.InventoryTransaction
}

func NewMockInventoryRepository() *MockInventoryRepository {
	return &MockInventoryRepository{Balances: make(map[string]*domain.InventoryBalance)}
}

func balanceKey(itemID uuid.UUID, locationID string) string {
	return itemID.String() + "|" + locationID
}

func (m *MockInventoryRepository) GetBalance(ctx context.Context, itemID uuid.UUID, locationID string) (*domain.InventoryBalance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.Balances[balanceKey(itemID, locationID)]
	if !ok {
		return nil, domain.ErrInventoryBalanceNotFound
	}
	cp := *b
	return &cp, nil
}

func (m *MockInventoryRepository) GetBalanceForUpdate(ctx context.Context, tx domain.Tx, itemID uuid.UUID, locationID string) (*domain.InventoryBalance, error) {
	return m.GetBalance(ctx, itemID, locationID)
}

func (m *MockInventoryRepository) CreateBalance(ctx context.Context, tx domain.Tx, b *domain.InventoryBalance) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Balances[balanceKey(b.ItemID, b.LocationID)] = b
	return nil
}

func (m *MockInventoryRepository) UpdateBalance(ctx context.Context, tx domain.Tx, b *domain.InventoryBalance, expectedVersion int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := balanceKey(b.ItemID, b.LocationID)
	existing, ok := m.Balances[key]
	if !ok {
		return domain.ErrInventoryBalanceNotFound
	}
	if existing.Version != expectedVersion {
		return domain.ErrConcurrentModification
	}
	m.Balances[key] = b
	return nil
}

func (m *MockInventoryRepository) InsertTransaction(ctx context.Context, tx domain.Tx, t *domain.InventoryTransaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Transactions = append(m.Transactions, t)
	return nil
}

func (m *MockInventoryRepository) ListTransactions(ctx context.Context, itemID uuid.UUID, locationID string, limit, offset int) ([]*domain.InventoryTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*domain.InventoryTransaction
	for _, t := range m.Transactions {
		if t.ItemID == itemID && t.LocationID == locationID {
			result = append(result, t)
		}
	}
	return result, nil
}

func (m *MockInventoryRepository) WithTx(ctx context.Context, fn func(tx domain.Tx) error) error {
	return fn(MockTx{})
}

// SeedBalance is a test helper establishing a starting balance.
func (m *MockInventoryRepository) SeedBalance(itemID uuid.UUID, locationID string, onHand, allocated decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Balances[balanceKey(itemID, locationID)] = &domain.InventoryBalance{
		ID: uuid.New(), ItemID: itemID, LocationID: locationID,
		OnHand: onHand, Allocated: allocated, Version: 1, UpdatedAt: time.Now(),
	}
}

// MockBomRepository is an in-memory domain.BomRepository.
type MockBomRepository struct {
	mu      sync.Mutex
	Headers map[uuid.UUID]*domain.BomHeader
	ByItem  map[uuid.UUID]*domain.BomHeader
	Lines   map[uuid.UUID][]*domain.BomLine
}

func NewMockBomRepository() *MockBomRepository {
	return &MockBomRepository{
		Headers: make(map[uuid.UUID]*domain.BomHeader),
		ByItem:  make(map[uuid.UUID]*domain.BomHeader),
		Lines:   make(map[uuid.UUID][]*domain.BomLine),
	}
}

func (m *MockBomRepository) CreateHeader(ctx context.Context, h *domain.BomHeader) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Headers[h.ID] = h
	if h.Status == domain.BomActive {
		m.ByItem[h.ItemID] = h
	}
	return nil
}

func (m *MockBomRepository) GetActiveHeaderForItem(ctx context.Context, itemID uuid.UUID) (*domain.BomHeader, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.ByItem[itemID]
	if !ok {
		return nil, domain.ErrNoActiveBom
	}
	return h, nil
}

func (m *MockBomRepository) GetHeaderByID(ctx context.Context, id uuid.UUID) (*domain.BomHeader, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.Headers[id]
	if !ok {
		return nil, domain.ErrBomHeaderNotFound
	}
	return h, nil
}

func (m *MockBomRepository) AddLine(ctx context.Context, l *domain.BomLine) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Lines[l.BomHeaderID] = append(m.Lines[l.BomHeaderID], l)
	return nil
}

func (m *MockBomRepository) ListLines(ctx context.Context, headerID uuid.UUID) ([]*domain.BomLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Lines[headerID], nil
}

// SeedActiveBom is a test helper wiring an item directly to an active BOM
// header and its component lines.
func (m *MockBomRepository) SeedActiveBom(itemID uuid.UUID, lines []*domain.BomLine) *domain.BomHeader {
	h := &domain.BomHeader{ID: uuid.New(), ItemID: itemID, Status: domain.BomActive, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	m.mu.Lock()
	m.Headers[h.ID] = h
	m.ByItem[itemID] = h
	for _, l := range lines {
		l.BomHeaderID = h.ID
	}
	m.Lines[h.ID] = lines
	m.mu.Unlock()
	return h
}

// MockCartRepository is an in-memory domain.CartRepository.
type MockCartRepository struct {
	mu    sync.Mutex
	Carts map[uuid.UUID]*domain.Cart
	Items map[uuid.UUID][]*domain.CartItem
}

func NewMockCartRepository() *MockCartRepository {
	return &MockCartRepository{Carts: make(map[uuid.UUID]*domain.Cart), Items: make(map[uuid.UUID][]*domain.CartItem)}
}

func (m *MockCartRepository) Create(ctx context.Context, c *domain.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Carts[c.ID] = c
	return nil
}

func (m *MockCartRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.Carts[id]
	if !ok {
		return nil, domain.ErrCartNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *MockCartRepository) GetForUpdate(ctx context.Context, tx domain.Tx, id uuid.UUID) (*domain.Cart, error) {
	return m.GetByID(ctx, id)
}

func (m *MockCartRepository) Update(ctx context.Context, tx domain.Tx, c *domain.Cart, expectedVersion int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.Carts[c.ID]
	if !ok {
		return domain.ErrCartNotFound
	}
	if existing.Version != expectedVersion {
		return domain.ErrConcurrentModification
	}
	m.Carts[c.ID] = c
	return nil
}

func (m *MockCartRepository) AddItem(ctx context.Context, item *domain.CartItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Items[item.CartID] = append(m.Items[item.CartID], item)
	return nil
}

func (m *MockCartRepository) UpdateItem(ctx context.Context, item *domain.CartItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.Items[item.CartID] {
		if existing.ID == item.ID {
			*existing = *item
			return nil
		}
	}
	return domain.ErrCartItemNotFound
}

func (m *MockCartRepository) RemoveItem(ctx context.Context, cartID, itemID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := m.Items[cartID]
	for i, item := range items {
		if item.ID == itemID {
			m.Items[cartID] = append(items[:i], items[i+1:]...)
			return nil
		}
	}
	return domain.ErrCartItemNotFound
}

func (m *MockCartRepository) ListItems(ctx context.Context, cartID uuid.UUID) ([]*domain.CartItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Items[cartID], nil
}

func (m *MockCartRepository) WithTx(ctx context.Context, fn func(tx domain.Tx) error) error {
	return fn(MockTx{})
}

// MockCheckoutSessionRepository is an in-memory domain.CheckoutSessionRepository.
type MockCheckoutSessionRepository struct {
	mu       sync.Mutex
	Sessions map[uuid.UUID]*domain.CheckoutSession
}

func NewMockCheckoutSessionRepository() *MockCheckoutSessionRepository {
	return &MockCheckoutSessionRepository{Sessions: make(map[uuid.UUID]*domain.CheckoutSession)}
}

func (m *MockCheckoutSessionRepository) Create(ctx context.Context, s *domain.CheckoutSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sessions[s.ID] = s
	return nil
}

func (m *MockCheckoutSessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.CheckoutSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.Sessions[id]
	if !ok {
		return nil, domain.ErrCheckoutSessionNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *MockCheckoutSessionRepository) GetForUpdate(ctx context.Context, tx domain.Tx, id uuid.UUID) (*domain.CheckoutSession, error) {
	return m.GetByID(ctx, id)
}

func (m *MockCheckoutSessionRepository) Update(ctx context.Context, tx domain.Tx, s *domain.CheckoutSession, expectedVersion int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.Sessions[s.ID]
	if !ok {
		return domain.ErrCheckoutSessionNotFound
	}
	if existing.Version != expectedVersion {
		return domain.ErrConcurrentModification
	}
	m.Sessions[s.ID] = s
	return nil
}

func (m *MockCheckoutSessionRepository) WithTx(ctx context.Context, fn func(tx domain.Tx) error) error {
	return fn(MockTx{})
}

// MockOrderRepository is an in-memory domain.OrderRepository.
type MockOrderRepository struct {
	mu        sync.Mutex
	Orders    map[uuid.UUID]*domain.Order
	Items     map[uuid.UUID][]*domain.OrderItem
	Payments  map[uuid.UUID]*domain.Payment
	Invoices  map[uuid.UUID]*domain.Invoice
	Shipments map[uuid.UUID]*domain.Shipment
}

func NewMockOrderRepository() *MockOrderRepository {
	return &MockOrderRepository{
		Orders: make(map[uuid.UUID]*domain.Order), Items: make(map[uuid.UUID][]*domain.OrderItem),
		Payments: make(map[uuid.UUID]*domain.Payment), Invoices: make(map[uuid.UUID]*domain.Invoice),
		Shipments: make(map[uuid.UUID]*domain.Shipment),
	}
}

func (m *MockOrderRepository) Create(ctx context.Context, tx domain.Tx, o *domain.Order, items []*domain.OrderItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *o
	m.Orders[o.ID] = &cp
	m.Items[o.ID] = items
	return nil
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.Orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *MockOrderRepository) GetForUpdate(ctx context.Context, tx domain.Tx, id uuid.UUID) (*domain.Order, error) {
	return m.GetByID(ctx, id)
}

func (m *MockOrderRepository) Update(ctx context.Context, tx domain.Tx, o *domain.Order, expectedVersion int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.Orders[o.ID]
	if !ok {
		return domain.ErrOrderNotFound
	}
	if existing.Version != expectedVersion {
		return domain.ErrConcurrentModification
	}
	m.Orders[o.ID] = o
	return nil
}

func (m *MockOrderRepository) ListItems(ctx context.Context, orderID uuid.UUID) ([]*domain.OrderItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Items[orderID], nil
}

func (m *MockOrderRepository) List(ctx context.Context, customerID *uuid.UUID, limit, offset int) ([]*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*domain.Order
	for _, o := range m.Orders {
		if customerID == nil || (o.CustomerID != nil && *o.CustomerID == *customerID) {
			result = append(result, o)
		}
	}
	return result, nil
}

func (m *MockOrderRepository) CreatePayment(ctx context.Context, tx domain.Tx, p *domain.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Payments[p.OrderID] = p
	return nil
}

func (m *MockOrderRepository) GetPaymentByOrderID(ctx context.Context, orderID uuid.UUID) (*domain.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.Payments[orderID]
	if !ok {
		return nil, domain.ErrPaymentNotFound
	}
	return p, nil
}

func (m *MockOrderRepository) CreateInvoice(ctx context.Context, tx domain.Tx, inv *domain.Invoice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Invoices[inv.OrderID] = inv
	return nil
}

func (m *MockOrderRepository) GetInvoiceByOrderID(ctx context.Context, orderID uuid.UUID) (*domain.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.Invoices[orderID]
	if !ok {
		return nil, domain.ErrInvoiceNotFound
	}
	return inv, nil
}

func (m *MockOrderRepository) CreateShipment(ctx context.Context, tx domain.Tx, s *domain.Shipment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Shipments[s.OrderID] = s
	return nil
}

func (m *MockOrderRepository) GetShipmentByOrderID(ctx context.Context, orderID uuid.UUID) (*domain.Shipment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.Shipments[orderID]
	if !ok {
		return nil, domain.ErrShipmentNotFound
	}
	return s, nil
}

func (m *MockOrderRepository) UpdateShipment(ctx context.Context, s *domain.Shipment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Shipments[s.OrderID] = s
	return nil
}

func (m *MockOrderRepository) WithTx(ctx context.Context, fn func(tx domain.Tx) error) error {
	return fn(MockTx{})
}

// MockPurchaseOrderRepository is an in-memory domain.PurchaseOrderRepository.
type MockPurchaseOrderRepository struct {
	mu        sync.Mutex
	POs       map[uuid.UUID]*domain.PurchaseOrder
	Lines     map[uuid.UUID][]*domain.PoLine
	LinesByID map[uuid.UUID]*domain.PoLine
	Receipts  map[uuid.UUID][]*domain.PoReceiptHeader
}

func NewMockPurchaseOrderRepository() *MockPurchaseOrderRepository {
	return &MockPurchaseOrderRepository{
		POs: make(map[uuid.UUID]*domain.PurchaseOrder), Lines: make(map[uuid.UUID][]*domain.PoLine),
		LinesByID: make(map[uuid.UUID]*domain.PoLine), Receipts: make(map[uuid.UUID][]*domain.PoReceiptHeader),
	}
}

func (m *MockPurchaseOrderRepository) Create(ctx context.Context, tx domain.Tx, po *domain.PurchaseOrder, lines []*domain.PoLine) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.POs[po.ID] = po
	m.Lines[po.ID] = lines
	for _, l := range lines {
		m.LinesByID[l.ID] = l
	}
	return nil
}

func (m *MockPurchaseOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.PurchaseOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	po, ok := m.POs[id]
	if !ok {
		return nil, domain.ErrPurchaseOrderNotFound
	}
	cp := *po
	return &cp, nil
}

func (m *MockPurchaseOrderRepository) GetForUpdate(ctx context.Context, tx domain.Tx, id uuid.UUID) (*domain.PurchaseOrder, error) {
	return m.GetByID(ctx, id)
}

func (m *MockPurchaseOrderRepository) Update(ctx context.Context, tx domain.Tx, po *domain.PurchaseOrder, expectedVersion int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.POs[po.ID]
	if !ok {
		return domain.ErrPurchaseOrderNotFound
	}
	if existing.Version != expectedVersion {
		return domain.ErrConcurrentModification
	}
	m.POs[po.ID] = po
	return nil
}

func (m *MockPurchaseOrderRepository) ListLines(ctx context.Context, poID uuid.UUID) ([]*domain.PoLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Lines[poID], nil
}

func (m *MockPurchaseOrderRepository) GetLineForUpdate(ctx context.Context, tx domain.Tx, lineID uuid.UUID) (*domain.PoLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.LinesByID[lineID]
	if !ok {
		return nil, domain.ErrPoLineNotFound
	}
	return l, nil
}

func (m *MockPurchaseOrderRepository) UpdateLine(ctx context.Context, tx domain.Tx, l *domain.PoLine) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LinesByID[l.ID] = l
	return nil
}

func (m *MockPurchaseOrderRepository) CreateReceipt(ctx context.Context, tx domain.Tx, h *domain.PoReceiptHeader, lines []*domain.PoReceiptLine) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Receipts[h.PurchaseOrderID] = append(m.Receipts[h.PurchaseOrderID], h)
	return nil
}

func (m *MockPurchaseOrderRepository) ListReceipts(ctx context.Context, poID uuid.UUID) ([]*domain.PoReceiptHeader, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Receipts[poID], nil
}

func (m *MockPurchaseOrderRepository) WithTx(ctx context.Context, fn func(tx domain.Tx) error) error {
	return fn(MockTx{})
}

// MockWorkOrderRepository is an in-memory domain.WorkOrderRepository.
type MockWorkOrderRepository struct {
	mu         sync.Mutex
	WorkOrders map[uuid.UUID]*domain.WorkOrder
}

func NewMockWorkOrderRepository() *MockWorkOrderRepository {
	return &MockWorkOrderRepository{WorkOrders: make(map[uuid.UUID]*domain.WorkOrder)}
}

func (m *MockWorkOrderRepository) Create(ctx context.Context, tx domain.Tx, wo *domain.WorkOrder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.WorkOrders[wo.ID] = wo
	return nil
}

func (m *MockWorkOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.WorkOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	wo, ok := m.WorkOrders[id]
	if !ok {
		return nil, domain.ErrWorkOrderNotFound
	}
	cp := *wo
	return &cp, nil
}

func (m *MockWorkOrderRepository) GetForUpdate(ctx context.Context, tx domain.Tx, id uuid.UUID) (*domain.WorkOrder, error) {
	return m.GetByID(ctx, id)
}

func (m *MockWorkOrderRepository) Update(ctx context.Context, tx domain.Tx, wo *domain.WorkOrder, expectedVersion int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.WorkOrders[wo.ID]
	if !ok {
		return domain.ErrWorkOrderNotFound
	}
	if existing.Version != expectedVersion {
		return domain.ErrConcurrentModification
	}
	m.WorkOrders[wo.ID] = wo
	return nil
}

func (m *MockWorkOrderRepository) List(ctx context.Context, status *domain.WorkOrderStatus, limit, offset int) ([]*domain.WorkOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*domain.WorkOrder
	for _, wo := range m.WorkOrders {
		if status == nil || wo.Status == *status {
			result = append(result, wo)
		}
	}
	return result, nil
}

func (m *MockWorkOrderRepository) WithTx(ctx context.Context, fn func(tx domain.Tx) error) error {
	return fn(MockTx{})
}

// MockPaymentGateway is a deterministic domain.PaymentGateway for tests: it
// approves unless ShouldDecline is set, recording every order ID it was
// called with.
type MockPaymentGateway struct {
	mu            sync.Mutex
	ShouldDecline bool
	FailureReason string
	Calls         []uuid.UUID
}

func (g *MockPaymentGateway) AuthorizeAndCapture(ctx context.Context, orderID uuid.UUID, amount decimal.Decimal, currency string) (domain.PaymentGatewayResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Calls = append(g.Calls, orderID)
	if g.ShouldDecline {
		reason := g.FailureReason
		if reason == "" {
			reason = "card_declined"
		}
		return domain.PaymentGatewayResult{Approved: false, FailureReason: reason}, nil
	}
	return domain.PaymentGatewayResult{Approved: true, GatewayReference: "mock-ref-" + orderID.String()}, nil
}
