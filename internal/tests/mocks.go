package tests

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"spotless/internal/domain"
	"spotless/internal/redis"
	"spotless/internal/repository"
)

// ──────────────────────────────────────────────
// MOCK CART REPOSITORY
// ──────────────────────────────────────────────

// MockCartRepository is a mock implementation of CartRepository.
type MockCartRepository struct {
	mu    sync.RWMutex
	carts map[string]*domain.Cart // keyed by customer ID

	// Counters for verification
	CreateCallCount  int32
	AddItemCallCount int32

	// Error injection
	CreateError  error
	AddItemError error
}

// NewMockCartRepository creates a new mock cart repository.
func NewMockCartRepository() *MockCartRepository {
	return &MockCartRepository{
		carts: make(map[string]*domain.Cart),
	}
}

// AddCart adds a cart to the mock repository.
func (m *MockCartRepository) AddCart(cart *domain.Cart) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.carts[cart.CustomerID] = cart
}

func (m *MockCartRepository) Create(ctx context.Context, cart *domain.Cart) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *cart
	m.carts[cart.CustomerID] = &stored
	return nil
}

func (m *MockCartRepository) GetByCustomerID(ctx context.Context, customerID string) (*domain.Cart, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cart, ok := m.carts[customerID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	// Return a copy to avoid mutation issues.
	copy := *cart
	copy.Items = append([]domain.CartItem(nil), cart.Items...)
	return &copy, nil
}

func (m *MockCartRepository) AddItem(ctx context.Context, item *domain.CartItem) error {
	atomic.AddInt32(&m.AddItemCallCount, 1)
	if m.AddItemError != nil {
		return m.AddItemError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, cart := range m.carts {
		if cart.ID == item.CartID {
			cart.Items = append(cart.Items, *item)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (m *MockCartRepository) UpdateItemQuantity(ctx context.Context, itemID string, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, cart := range m.carts {
		for i := range cart.Items {
			if cart.Items[i].ID == itemID {
				cart.Items[i].Quantity = quantity
				return nil
			}
		}
	}
	return repository.ErrNotFound
}

func (m *MockCartRepository) RemoveItem(ctx context.Context, cartID, serviceID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, cart := range m.carts {
		if cart.ID != cartID {
			continue
		}
		for i := range cart.Items {
			if cart.Items[i].ServiceID == serviceID {
				cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)
				return nil
			}
		}
	}
	return nil
}

func (m *MockCartRepository) ClearItems(ctx context.Context, cartID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, cart := range m.carts {
		if cart.ID == cartID {
			cart.Items = nil
			return nil
		}
	}
	return nil
}

func (m *MockCartRepository) Touch(ctx context.Context, cartID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, cart := range m.carts {
		if cart.ID == cartID {
			cart.LastModifiedAt = time.Now()
			return nil
		}
	}
	return nil
}

// GetCart returns the stored cart for assertions.
func (m *MockCartRepository) GetCart(customerID string) *domain.Cart {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.carts[customerID]
}

// ──────────────────────────────────────────────
// MOCK ORDER REPOSITORY
// ──────────────────────────────────────────────

// MockOrderRepository is a mock implementation of OrderRepository. Status
// mutations are conditional under one mutex, mirroring the single-statement
// guarantees of the real repository.
type MockOrderRepository struct {
	mu     sync.Mutex
	orders map[string]*domain.Order

	// Counters for verification
	CreateCallCount       int32
	TransitionCallCount   int32
	AssignDriverCallCount int32

	// Error injection
	CreateError     error
	TransitionError error
}

// NewMockOrderRepository creates a new mock order repository.
func NewMockOrderRepository() *MockOrderRepository {
	return &MockOrderRepository{
		orders: make(map[string]*domain.Order),
	}
}

// AddOrder adds an order to the mock repository.
func (m *MockOrderRepository) AddOrder(order *domain.Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[order.ID] = order
}

func (m *MockOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if order.IdempotencyKey != "" {
		for _, o := range m.orders {
			if o.IdempotencyKey == order.IdempotencyKey {
				return repository.ErrDuplicate
			}
		}
	}
	stored := *order
	stored.Items = append([]domain.OrderItem(nil), order.Items...)
	m.orders[order.ID] = &stored
	return nil
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *order
	copy.Items = append([]domain.OrderItem(nil), order.Items...)
	return &copy, nil
}

func (m *MockOrderRepository) GetByIdempotencyKey(ctx context.Context, key string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.IdempotencyKey == key {
			copy := *o
			return &copy, nil
		}
	}
	return nil, nil // Not found, but not an error for idempotency check
}

func (m *MockOrderRepository) TransitionStatus(ctx context.Context, id string, from, to domain.OrderStatus, at time.Time) error {
	atomic.AddInt32(&m.TransitionCallCount, 1)
	if m.TransitionError != nil {
		return m.TransitionError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[id]
	if !ok {
		return repository.ErrNotFound
	}
	if order.Status != from {
		return repository.ErrConflict
	}
	order.Status = to
	switch to {
	case domain.OrderStatusDelivered:
		order.DeliveredAt = at
	case domain.OrderStatusCompleted:
		order.CompletedAt = at
	}
	return nil
}

func (m *MockOrderRepository) CancelTransition(ctx context.Context, id string, from domain.OrderStatus, at time.Time, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[id]
	if !ok {
		return repository.ErrNotFound
	}
	if order.Status != from {
		return repository.ErrConflict
	}
	order.Status = domain.OrderStatusCancelled
	order.CancelledAt = at
	order.CancelReason = reason
	return nil
}

func (m *MockOrderRepository) AssignDriver(ctx context.Context, orderID, driverID string) error {
	atomic.AddInt32(&m.AssignDriverCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[orderID]
	if !ok {
		return repository.ErrNotFound
	}
	if order.DriverID != "" || order.Status != domain.OrderStatusConfirmed {
		return repository.ErrConflict
	}
	order.DriverID = driverID
	order.Status = domain.OrderStatusDriverAssigned
	return nil
}

func (m *MockOrderRepository) IncrementDispatchAttempts(ctx context.Context, orderID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[orderID]
	if !ok {
		return 0, repository.ErrNotFound
	}
	order.DispatchAttempts++
	return order.DispatchAttempts, nil
}

func (m *MockOrderRepository) ListUnassignedConfirmed(ctx context.Context, maxAttempts int) ([]*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*domain.Order
	for _, o := range m.orders {
		if o.Status == domain.OrderStatusConfirmed && o.DriverID == "" && o.DispatchAttempts < maxAttempts {
			copy := *o
			result = append(result, &copy)
		}
	}
	return result, nil
}

func (m *MockOrderRepository) ListDeliveredBefore(ctx context.Context, cutoff time.Time) ([]*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*domain.Order
	for _, o := range m.orders {
		if o.Status == domain.OrderStatusDelivered && o.DeliveredAt.Before(cutoff) {
			copy := *o
			result = append(result, &copy)
		}
	}
	return result, nil
}

func (m *MockOrderRepository) ListAwaitingPaymentBefore(ctx context.Context, cutoff time.Time) ([]*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*domain.Order
	for _, o := range m.orders {
		if o.Status == domain.OrderStatusAwaitingPayment && o.CreatedAt.Before(cutoff) {
			copy := *o
			result = append(result, &copy)
		}
	}
	return result, nil
}

// GetOrder returns the stored order for assertions.
func (m *MockOrderRepository) GetOrder(id string) *domain.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.orders[id]
}

// CountOrders returns the number of orders.
func (m *MockOrderRepository) CountOrders() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.orders)
}

// ──────────────────────────────────────────────
// MOCK PAYMENT REPOSITORY
// ──────────────────────────────────────────────

// MockPaymentRepository is a mock implementation of PaymentRepository.
type MockPaymentRepository struct {
	mu       sync.Mutex
	payments map[string]*domain.Payment

	// Counters
	CreateCallCount int32

	// Error injection
	CreateError error
}

// NewMockPaymentRepository creates a new mock payment repository.
func NewMockPaymentRepository() *MockPaymentRepository {
	return &MockPaymentRepository{
		payments: make(map[string]*domain.Payment),
	}
}

// AddPayment adds a payment to the mock repository.
func (m *MockPaymentRepository) AddPayment(payment *domain.Payment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payments[payment.ID] = payment
}

func (m *MockPaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *payment
	m.payments[payment.ID] = &stored
	return nil
}

func (m *MockPaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	payment, ok := m.payments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *payment
	return &copy, nil
}

func (m *MockPaymentRepository) GetByOrderID(ctx context.Context, orderID string) (*domain.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.payments {
		if p.OrderID == orderID {
			copy := *p
			return &copy, nil
		}
	}
	return nil, nil
}

func (m *MockPaymentRepository) GetByTransactionReference(ctx context.Context, ref string) (*domain.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.payments {
		if p.TransactionReference == ref {
			copy := *p
			return &copy, nil
		}
	}
	return nil, nil
}

func (m *MockPaymentRepository) UpdateStatus(ctx context.Context, id string, status domain.PaymentStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	payment, ok := m.payments[id]
	if !ok {
		return repository.ErrNotFound
	}
	payment.Status = status
	return nil
}

func (m *MockPaymentRepository) UpdateStatusIf(ctx context.Context, id string, from, to domain.PaymentStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	payment, ok := m.payments[id]
	if !ok {
		return false, repository.ErrNotFound
	}
	if payment.Status != from {
		return false, nil
	}
	payment.Status = to
	return true, nil
}

// GetPayment returns the stored payment for assertions.
func (m *MockPaymentRepository) GetPayment(id string) *domain.Payment {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.payments[id]
}

// GetPaymentByOrder returns the payment stored for an order.
func (m *MockPaymentRepository) GetPaymentByOrder(orderID string) *domain.Payment {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.payments {
		if p.OrderID == orderID {
			return p
		}
	}
	return nil
}

// CountPayments returns the number of payments.
func (m *MockPaymentRepository) CountPayments() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.payments)
}

// ──────────────────────────────────────────────
// MOCK WALLET REPOSITORY
// ──────────────────────────────────────────────

// MockWalletRepository is a mock implementation of WalletRepository. Debit
// is a conditional mutation under one mutex, like the real single-statement
// update.
type MockWalletRepository struct {
	mu      sync.Mutex
	wallets map[string]*domain.Wallet

	// Counters
	DebitCallCount  int32
	CreditCallCount int32

	// Error injection
	DebitError  error
	CreditError error
}

// NewMockWalletRepository creates a new mock wallet repository.
func NewMockWalletRepository() *MockWalletRepository {
	return &MockWalletRepository{
		wallets: make(map[string]*domain.Wallet),
	}
}

// AddWallet adds a wallet to the mock repository.
func (m *MockWalletRepository) AddWallet(wallet *domain.Wallet) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.wallets[wallet.CustomerID] = wallet
}

func (m *MockWalletRepository) Get(ctx context.Context, customerID string) (*domain.Wallet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	wallet, ok := m.wallets[customerID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *wallet
	return &copy, nil
}

func (m *MockWalletRepository) Create(ctx context.Context, wallet *domain.Wallet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.wallets[wallet.CustomerID]; exists {
		return repository.ErrDuplicate
	}
	stored := *wallet
	m.wallets[wallet.CustomerID] = &stored
	return nil
}

func (m *MockWalletRepository) Debit(ctx context.Context, customerID string, amount decimal.Decimal) (bool, error) {
	atomic.AddInt32(&m.DebitCallCount, 1)
	if m.DebitError != nil {
		return false, m.DebitError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	wallet, ok := m.wallets[customerID]
	if !ok {
		return false, repository.ErrNotFound
	}
	if wallet.Balance.Amount.LessThan(amount) {
		return false, nil
	}
	wallet.Balance.Amount = wallet.Balance.Amount.Sub(amount)
	return true, nil
}

func (m *MockWalletRepository) Credit(ctx context.Context, customerID string, amount decimal.Decimal) error {
	atomic.AddInt32(&m.CreditCallCount, 1)
	if m.CreditError != nil {
		return m.CreditError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	wallet, ok := m.wallets[customerID]
	if !ok {
		return repository.ErrNotFound
	}
	wallet.Balance.Amount = wallet.Balance.Amount.Add(amount)
	return nil
}

// Balance returns the stored balance for assertions.
func (m *MockWalletRepository) Balance(customerID string) decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()
	wallet, ok := m.wallets[customerID]
	if !ok {
		return decimal.Zero
	}
	return wallet.Balance.Amount
}

// ──────────────────────────────────────────────
// MOCK DRIVER REPOSITORY
// ──────────────────────────────────────────────

// MockDriverRepository is a mock implementation of DriverRepository.
type MockDriverRepository struct {
	mu      sync.RWMutex
	drivers map[string]*domain.Driver

	// Counters for verification
	UpdateStatusCallCount int32

	// Error injection
	UpdateStatusError error
}

// NewMockDriverRepository creates a new mock driver repository.
func NewMockDriverRepository() *MockDriverRepository {
	return &MockDriverRepository{
		drivers: make(map[string]*domain.Driver),
	}
}

// AddDriver adds a driver to the mock repository.
func (m *MockDriverRepository) AddDriver(driver *domain.Driver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drivers[driver.ID] = driver
}

func (m *MockDriverRepository) Create(ctx context.Context, driver *domain.Driver) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *driver
	m.drivers[driver.ID] = &stored
	return nil
}

func (m *MockDriverRepository) GetByID(ctx context.Context, id string) (*domain.Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	driver, ok := m.drivers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *driver
	return &copy, nil
}

func (m *MockDriverRepository) GetAll(ctx context.Context) ([]*domain.Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Driver, 0, len(m.drivers))
	for _, d := range m.drivers {
		copy := *d
		result = append(result, &copy)
	}
	return result, nil
}

func (m *MockDriverRepository) UpdateStatus(ctx context.Context, id string, status domain.DriverStatus) error {
	atomic.AddInt32(&m.UpdateStatusCallCount, 1)
	if m.UpdateStatusError != nil {
		return m.UpdateStatusError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	driver, ok := m.drivers[id]
	if !ok {
		return repository.ErrNotFound
	}
	driver.Status = status
	return nil
}

func (m *MockDriverRepository) TouchLastActive(ctx context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	driver, ok := m.drivers[id]
	if !ok {
		return repository.ErrNotFound
	}
	driver.LastActiveAt = at
	return nil
}

// GetDriver returns the stored driver for assertions.
func (m *MockDriverRepository) GetDriver(id string) *domain.Driver {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.drivers[id]
}

// ──────────────────────────────────────────────
// MOCK REVIEW REPOSITORY
// ──────────────────────────────────────────────

// MockReviewRepository is a mock implementation of ReviewRepository.
type MockReviewRepository struct {
	mu      sync.Mutex
	reviews map[string]*domain.Review // keyed by order ID
}

// NewMockReviewRepository creates a new mock review repository.
func NewMockReviewRepository() *MockReviewRepository {
	return &MockReviewRepository{
		reviews: make(map[string]*domain.Review),
	}
}

func (m *MockReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.reviews[review.OrderID]; exists {
		return repository.ErrDuplicate
	}
	stored := *review
	m.reviews[review.OrderID] = &stored
	return nil
}

func (m *MockReviewRepository) GetByOrderID(ctx context.Context, orderID string) (*domain.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	review, ok := m.reviews[orderID]
	if !ok {
		return nil, nil
	}
	copy := *review
	return &copy, nil
}

// ──────────────────────────────────────────────
// MOCK CATALOG REPOSITORY
// ──────────────────────────────────────────────

// MockCatalogRepository is a mock implementation of CatalogRepository.
// Slot reservation is a conditional mutation under one mutex.
type MockCatalogRepository struct {
	mu       sync.Mutex
	services map[string]*domain.Service
	slots    map[string]*domain.TimeSlot

	// Counters
	ReserveCallCount int32
	ReleaseCallCount int32
}

// NewMockCatalogRepository creates a new mock catalog repository.
func NewMockCatalogRepository() *MockCatalogRepository {
	return &MockCatalogRepository{
		services: make(map[string]*domain.Service),
		slots:    make(map[string]*domain.TimeSlot),
	}
}

// AddService adds a catalog service.
func (m *MockCatalogRepository) AddService(svc *domain.Service) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.services[svc.ID] = svc
}

// AddTimeSlot adds a time slot.
func (m *MockCatalogRepository) AddTimeSlot(slot *domain.TimeSlot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slots[slot.ID] = slot
}

func (m *MockCatalogRepository) GetServiceByID(ctx context.Context, id string) (*domain.Service, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	svc, ok := m.services[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *svc
	return &copy, nil
}

func (m *MockCatalogRepository) GetTimeSlot(ctx context.Context, id string) (*domain.TimeSlot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	slot, ok := m.slots[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *slot
	return &copy, nil
}

func (m *MockCatalogRepository) ReserveTimeSlot(ctx context.Context, id string) (bool, error) {
	atomic.AddInt32(&m.ReserveCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	slot, ok := m.slots[id]
	if !ok {
		return false, repository.ErrNotFound
	}
	if slot.BookedCount >= slot.Capacity {
		return false, nil
	}
	slot.BookedCount++
	return true, nil
}

func (m *MockCatalogRepository) ReleaseTimeSlot(ctx context.Context, id string) error {
	atomic.AddInt32(&m.ReleaseCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	slot, ok := m.slots[id]
	if !ok {
		return repository.ErrNotFound
	}
	if slot.BookedCount > 0 {
		slot.BookedCount--
	}
	return nil
}

// BookedCount returns the stored counter for assertions.
func (m *MockCatalogRepository) BookedCount(id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	slot, ok := m.slots[id]
	if !ok {
		return 0
	}
	return slot.BookedCount
}

// ──────────────────────────────────────────────
// MOCK LOCATION STORE
// ──────────────────────────────────────────────

// MockLocationStore is a mock implementation of LocationStoreInterface.
type MockLocationStore struct {
	mu        sync.RWMutex
	locations []redis.DriverLocation

	// Error injection
	FindNearbyDriversError error
}

// NewMockLocationStore creates a new mock location store.
func NewMockLocationStore() *MockLocationStore {
	return &MockLocationStore{
		locations: make([]redis.DriverLocation, 0),
	}
}

// SetLocations sets all locations (for test setup). Order is preserved,
// standing in for the distance-sorted geo query.
func (m *MockLocationStore) SetLocations(locations []redis.DriverLocation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locations = locations
}

func (m *MockLocationStore) UpdateLocation(ctx context.Context, driverID string, lat, lng float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, loc := range m.locations {
		if loc.DriverID == driverID {
			m.locations[i].Lat = lat
			m.locations[i].Lng = lng
			return nil
		}
	}
	m.locations = append(m.locations, redis.DriverLocation{
		DriverID: driverID,
		Lat:      lat,
		Lng:      lng,
	})
	return nil
}

func (m *MockLocationStore) FindNearbyDrivers(ctx context.Context, lat, lng, radiusKm float64) ([]redis.DriverLocation, error) {
	if m.FindNearbyDriversError != nil {
		return nil, m.FindNearbyDriversError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]redis.DriverLocation, len(m.locations))
	copy(result, m.locations)
	return result, nil
}

func (m *MockLocationStore) RemoveLocation(ctx context.Context, driverID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, loc := range m.locations {
		if loc.DriverID == driverID {
			m.locations = append(m.locations[:i], m.locations[i+1:]...)
			return nil
		}
	}
	return nil
}

// HasLocation checks if a driver location exists.
func (m *MockLocationStore) HasLocation(driverID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, loc := range m.locations {
		if loc.DriverID == driverID {
			return true
		}
	}
	return false
}

// ──────────────────────────────────────────────
// MOCK LOCK STORE
// ──────────────────────────────────────────────

// MockLockStore is a mock implementation of LockStoreInterface: cart locks
// and dispatch offers, all compare-and-set under one mutex.
type MockLockStore struct {
	mu     sync.Mutex
	locks  map[string]time.Time
	offers map[string]offerEntry

	// Counters
	AcquireCallCount    int32
	PlaceOfferCallCount int32

	// LastCartLockTTL records the TTL of the most recent acquire.
	LastCartLockTTL time.Duration

	// Force lock failure
	ForceAcquireFailure bool
}

type offerEntry struct {
	driverID string
	expiry   time.Time
}

// NewMockLockStore creates a new mock lock store.
func NewMockLockStore() *MockLockStore {
	return &MockLockStore{
		locks:  make(map[string]time.Time),
		offers: make(map[string]offerEntry),
	}
}

func (m *MockLockStore) AcquireCartLock(ctx context.Context, customerID string, ttl time.Duration) (bool, error) {
	atomic.AddInt32(&m.AcquireCallCount, 1)
	if m.ForceAcquireFailure {
		return false, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastCartLockTTL = ttl
	key := "lock:cart:" + customerID
	if expiry, exists := m.locks[key]; exists && time.Now().Before(expiry) {
		return false, nil // Lock still held.
	}
	m.locks[key] = time.Now().Add(ttl)
	return true, nil
}

func (m *MockLockStore) ReleaseCartLock(ctx context.Context, customerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, "lock:cart:"+customerID)
	return nil
}

func (m *MockLockStore) PlaceOffer(ctx context.Context, orderID, driverID string, ttl time.Duration) (bool, error) {
	atomic.AddInt32(&m.PlaceOfferCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if entry, exists := m.offers[orderID]; exists && time.Now().Before(entry.expiry) {
		return false, nil
	}
	m.offers[orderID] = offerEntry{driverID: driverID, expiry: time.Now().Add(ttl)}
	return true, nil
}

func (m *MockLockStore) GetOffer(ctx context.Context, orderID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, exists := m.offers[orderID]
	if !exists || time.Now().After(entry.expiry) {
		return "", nil
	}
	return entry.driverID, nil
}

func (m *MockLockStore) WithdrawOffer(ctx context.Context, orderID, driverID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, exists := m.offers[orderID]
	if !exists || entry.driverID != driverID {
		return false, nil
	}
	delete(m.offers, orderID)
	return true, nil
}

// SetOffer places an offer directly (for test setup).
func (m *MockLockStore) SetOffer(orderID, driverID string, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.offers[orderID] = offerEntry{driverID: driverID, expiry: time.Now().Add(ttl)}
}

// ──────────────────────────────────────────────
// MOCK PAYMENT GATEWAY
// ──────────────────────────────────────────────

// MockPaymentGateway is a mock payment gateway with failure injection.
type MockPaymentGateway struct {
	mu sync.Mutex

	// Control behavior
	InitiateError error

	// Counters
	InitiateCallCount int32
	VoidCallCount     int32
	RefundCallCount   int32
}

// NewMockPaymentGateway creates a new mock gateway.
func NewMockPaymentGateway() *MockPaymentGateway {
	return &MockPaymentGateway{}
}

func (m *MockPaymentGateway) Initiate(ctx context.Context, payment *domain.Payment) (string, error) {
	atomic.AddInt32(&m.InitiateCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.InitiateError != nil {
		return "", m.InitiateError
	}
	return fmt.Sprintf("https://gateway.test/pay/%s", payment.TransactionReference), nil
}

func (m *MockPaymentGateway) Void(ctx context.Context, transactionRef string) error {
	atomic.AddInt32(&m.VoidCallCount, 1)
	return nil
}

func (m *MockPaymentGateway) Refund(ctx context.Context, transactionRef string, amount domain.Money) error {
	atomic.AddInt32(&m.RefundCallCount, 1)
	return nil
}

// ──────────────────────────────────────────────
// HELPER ERRORS
// ──────────────────────────────────────────────

var (
	ErrMockDBConstraint = errors.New("mock: unique constraint violation")
	ErrMockTimeout      = errors.New("mock: operation timeout")
)
