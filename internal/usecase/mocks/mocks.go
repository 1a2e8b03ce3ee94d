package mocks

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tanbank/tanbank/internal/domain"
	"github.com/tanbank/tanbank/internal/usecase"
)

// MockAccountRepository is a mock implementation of AccountRepository.
type MockAccountRepository struct {
	mu       sync.RWMutex
	accounts map[string]*domain.Account

	CreateFunc             func(ctx context.Context, account *domain.Account) error
	GetByIDFunc            func(ctx context.Context, id string) (*domain.Account, error)
	GetByNumberFunc        func(ctx context.Context, number string) (*domain.Account, error)
	GetCheckingByOwnerFunc func(ctx context.Context, ownerID string) (*domain.Account, error)
	ListByOwnerFunc        func(ctx context.Context, ownerID string) ([]*domain.Account, error)
	GetByIDsForUpdateFunc  func(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Account, error)
	UpdateBalanceFunc      func(ctx context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error
}

func NewMockAccountRepository() *MockAccountRepository {
	return &MockAccountRepository{
		accounts: make(map[string]*domain.Account),
	}
}

// Seed stores an account directly, bypassing any CreateFunc override.
func (m *MockAccountRepository) Seed(accounts ...*domain.Account) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, acc := range accounts {
		m.accounts[acc.ID] = acc
	}
}

func (m *MockAccountRepository) Create(ctx context.Context, account *domain.Account) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, account)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[account.ID] = account
	return nil
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if acc, ok := m.accounts[id]; ok {
		return acc, nil
	}
	return nil, domain.ErrAccountNotFound
}

func (m *MockAccountRepository) GetByNumber(ctx context.Context, number string) (*domain.Account, error) {
	if m.GetByNumberFunc != nil {
		return m.GetByNumberFunc(ctx, number)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, acc := range m.accounts {
		if acc.Number == number {
			return acc, nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

func (m *MockAccountRepository) GetCheckingByOwner(ctx context.Context, ownerID string) (*domain.Account, error) {
	if m.GetCheckingByOwnerFunc != nil {
		return m.GetCheckingByOwnerFunc(ctx, ownerID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, acc := range m.accounts {
		if acc.OwnerID == ownerID && acc.Type == domain.AccountTypeChecking {
			return acc, nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

func (m *MockAccountRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Account, error) {
	if m.ListByOwnerFunc != nil {
		return m.ListByOwnerFunc(ctx, ownerID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var accounts []*domain.Account
	for _, acc := range m.accounts {
		if acc.OwnerID == ownerID {
			accounts = append(accounts, acc)
		}
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].ID < accounts[j].ID })
	return accounts, nil
}

func (m *MockAccountRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Account, error) {
	if m.GetByIDsForUpdateFunc != nil {
		return m.GetByIDsForUpdateFunc(ctx, tx, ids)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var accounts []*domain.Account
	for _, id := range ids {
		if acc, ok := m.accounts[id]; ok {
			accounts = append(accounts, acc)
		}
	}
	return accounts, nil
}

func (m *MockAccountRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error {
	if m.UpdateBalanceFunc != nil {
		return m.UpdateBalanceFunc(ctx, tx, id, balance, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if acc, ok := m.accounts[id]; ok {
		acc.Balance = balance
		acc.Version++
		acc.UpdatedAt = updatedAt
	}
	return nil
}

// MockTransferRepository is a mock implementation of TransferRepository.
type MockTransferRepository struct {
	mu        sync.RWMutex
	transfers map[string]*domain.Transfer

	CreateFunc           func(ctx context.Context, tx usecase.Transaction, transfer *domain.Transfer) error
	GetByIDFunc          func(ctx context.Context, id string) (*domain.Transfer, error)
	GetByIDForUpdateFunc func(ctx context.Context, tx usecase.Transaction, id string) (*domain.Transfer, error)
	UpdateStatusFunc     func(ctx context.Context, tx usecase.Transaction, id string, status domain.TransferStatus, executedAt *time.Time) error
	UpdateChallengeFunc  func(ctx context.Context, tx usecase.Transaction, id, challengeID string) error
	ListBySenderFunc     func(ctx context.Context, senderID string, limit, offset int) ([]*domain.Transfer, error)
}

func NewMockTransferRepository() *MockTransferRepository {
	return &MockTransferRepository{
		transfers: make(map[string]*domain.Transfer),
	}
}

func (m *MockTransferRepository) Seed(transfers ...*domain.Transfer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, tr := range transfers {
		m.transfers[tr.ID] = tr
	}
}

func (m *MockTransferRepository) Create(ctx context.Context, tx usecase.Transaction, transfer *domain.Transfer) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, transfer)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transfers[transfer.ID] = transfer
	return nil
}

func (m *MockTransferRepository) GetByID(ctx context.Context, id string) (*domain.Transfer, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if tr, ok := m.transfers[id]; ok {
		return tr, nil
	}
	return nil, domain.ErrTransferNotFound
}

func (m *MockTransferRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Transfer, error) {
	if m.GetByIDForUpdateFunc != nil {
		return m.GetByIDForUpdateFunc(ctx, tx, id)
	}
	return m.GetByID(ctx, id)
}

func (m *MockTransferRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, id string, status domain.TransferStatus, executedAt *time.Time) error {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, tx, id, status, executedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if tr, ok := m.transfers[id]; ok {
		tr.Status = status
		tr.ExecutedAt = executedAt
		return nil
	}
	return domain.ErrTransferNotFound
}

func (m *MockTransferRepository) UpdateChallenge(ctx context.Context, tx usecase.Transaction, id, challengeID string) error {
	if m.UpdateChallengeFunc != nil {
		return m.UpdateChallengeFunc(ctx, tx, id, challengeID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if tr, ok := m.transfers[id]; ok {
		tr.TANChallengeID = challengeID
		return nil
	}
	return domain.ErrTransferNotFound
}

func (m *MockTransferRepository) ListBySender(ctx context.Context, senderID string, limit, offset int) ([]*domain.Transfer, error) {
	if m.ListBySenderFunc != nil {
		return m.ListBySenderFunc(ctx, senderID, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var transfers []*domain.Transfer
	for _, tr := range m.transfers {
		if tr.SenderID == senderID {
			transfers = append(transfers, tr)
		}
	}
	sort.Slice(transfers, func(i, j int) bool { return transfers[i].ID < transfers[j].ID })
	return transfers, nil
}

// MockTANChallengeRepository is a mock implementation of TANChallengeRepository.
type MockTANChallengeRepository struct {
	mu         sync.RWMutex
	challenges map[string]*domain.TANChallenge

	CreateFunc                func(ctx context.Context, tx usecase.Transaction, challenge *domain.TANChallenge) error
	GetByIDFunc               func(ctx context.Context, id string) (*domain.TANChallenge, error)
	GetByIDForUpdateFunc      func(ctx context.Context, tx usecase.Transaction, id string) (*domain.TANChallenge, error)
	UpdateAttemptsFunc        func(ctx context.Context, tx usecase.Transaction, id string, attemptsRemaining int) error
	MarkConsumedFunc          func(ctx context.Context, tx usecase.Transaction, id string) error
	ListExpiredUnconsumedFunc func(ctx context.Context, now time.Time, limit int) ([]*domain.TANChallenge, error)
}

func NewMockTANChallengeRepository() *MockTANChallengeRepository {
	return &MockTANChallengeRepository{
		challenges: make(map[string]*domain.TANChallenge),
	}
}

func (m *MockTANChallengeRepository) Seed(challenges ...*domain.TANChallenge) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range challenges {
		m.challenges[c.ID] = c
	}
}

func (m *MockTANChallengeRepository) Create(ctx context.Context, tx usecase.Transaction, challenge *domain.TANChallenge) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, challenge)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.challenges[challenge.ID] = challenge
	return nil
}

func (m *MockTANChallengeRepository) GetByID(ctx context.Context, id string) (*domain.TANChallenge, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if c, ok := m.challenges[id]; ok {
		return c, nil
	}
	return nil, domain.ErrChallengeNotFound
}

func (m *MockTANChallengeRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.TANChallenge, error) {
	if m.GetByIDForUpdateFunc != nil {
		return m.GetByIDForUpdateFunc(ctx, tx, id)
	}
	return m.GetByID(ctx, id)
}

func (m *MockTANChallengeRepository) UpdateAttempts(ctx context.Context, tx usecase.Transaction, id string, attemptsRemaining int) error {
	if m.UpdateAttemptsFunc != nil {
		return m.UpdateAttemptsFunc(ctx, tx, id, attemptsRemaining)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.challenges[id]; ok {
		c.AttemptsRemaining = attemptsRemaining
		return nil
	}
	return domain.ErrChallengeNotFound
}

func (m *MockTANChallengeRepository) MarkConsumed(ctx context.Context, tx usecase.Transaction, id string) error {
	if m.MarkConsumedFunc != nil {
		return m.MarkConsumedFunc(ctx, tx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.challenges[id]; ok {
		c.Consumed = true
		return nil
	}
	return domain.ErrChallengeNotFound
}

func (m *MockTANChallengeRepository) ListExpiredUnconsumed(ctx context.Context, now time.Time, limit int) ([]*domain.TANChallenge, error) {
	if m.ListExpiredUnconsumedFunc != nil {
		return m.ListExpiredUnconsumedFunc(ctx, now, limit)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var expired []*domain.TANChallenge
	for _, c := range m.challenges {
		if !c.Consumed && now.After(c.ExpiresAt) {
			expired = append(expired, c)
		}
		if len(expired) == limit {
			break
		}
	}
	return expired, nil
}

// MockEntryRepository is a mock implementation of EntryRepository.
type MockEntryRepository struct {
	mu      sync.RWMutex
	entries []*domain.Entry

	CreateFunc        func(ctx context.Context, tx usecase.Transaction, entry *domain.Entry) error
	GetByTransferFunc func(ctx context.Context, transferID string) ([]*domain.Entry, error)
	ListByAccountFunc func(ctx context.Context, accountID string, limit, offset int) ([]*domain.Entry, error)
}

func NewMockEntryRepository() *MockEntryRepository {
	return &MockEntryRepository{}
}

func (m *MockEntryRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.Entry) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, entry)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return nil
}

func (m *MockEntryRepository) GetByTransfer(ctx context.Context, transferID string) ([]*domain.Entry, error) {
	if m.GetByTransferFunc != nil {
		return m.GetByTransferFunc(ctx, transferID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var entries []*domain.Entry
	for _, e := range m.entries {
		if e.TransferID == transferID {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

func (m *MockEntryRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Entry, error) {
	if m.ListByAccountFunc != nil {
		return m.ListByAccountFunc(ctx, accountID, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var entries []*domain.Entry
	for _, e := range m.entries {
		if e.AccountID == accountID {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

// All returns every recorded entry.
func (m *MockEntryRepository) All() []*domain.Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*domain.Entry(nil), m.entries...)
}

// MockStandingOrderRepository is a mock implementation of StandingOrderRepository.
type MockStandingOrderRepository struct {
	mu     sync.RWMutex
	orders map[string]*domain.StandingOrder

	CreateFunc           func(ctx context.Context, order *domain.StandingOrder) error
	GetByIDFunc          func(ctx context.Context, id string) (*domain.StandingOrder, error)
	GetByIDForUpdateFunc func(ctx context.Context, tx usecase.Transaction, id string) (*domain.StandingOrder, error)
	ListByOwnerFunc      func(ctx context.Context, ownerID string) ([]*domain.StandingOrder, error)
	ListDueFunc          func(ctx context.Context, now time.Time, limit int) ([]*domain.StandingOrder, error)
	UpdateFunc           func(ctx context.Context, tx usecase.Transaction, order *domain.StandingOrder) error
}

func NewMockStandingOrderRepository() *MockStandingOrderRepository {
	return &MockStandingOrderRepository{
		orders: make(map[string]*domain.StandingOrder),
	}
}

func (m *MockStandingOrderRepository) Seed(orders ...*domain.StandingOrder) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range orders {
		m.orders[o.ID] = o
	}
}

func (m *MockStandingOrderRepository) Create(ctx context.Context, order *domain.StandingOrder) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, order)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[order.ID] = order
	return nil
}

func (m *MockStandingOrderRepository) GetByID(ctx context.Context, id string) (*domain.StandingOrder, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if o, ok := m.orders[id]; ok {
		return o, nil
	}
	return nil, domain.ErrOrderNotFound
}

func (m *MockStandingOrderRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.StandingOrder, error) {
	if m.GetByIDForUpdateFunc != nil {
		return m.GetByIDForUpdateFunc(ctx, tx, id)
	}
	return m.GetByID(ctx, id)
}

func (m *MockStandingOrderRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domain.StandingOrder, error) {
	if m.ListByOwnerFunc != nil {
		return m.ListByOwnerFunc(ctx, ownerID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var orders []*domain.StandingOrder
	for _, o := range m.orders {
		if o.OwnerID == ownerID {
			orders = append(orders, o)
		}
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].ID < orders[j].ID })
	return orders, nil
}

func (m *MockStandingOrderRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]*domain.StandingOrder, error) {
	if m.ListDueFunc != nil {
		return m.ListDueFunc(ctx, now, limit)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var due []*domain.StandingOrder
	for _, o := range m.orders {
		if o.Due(now) {
			due = append(due, o)
		}
		if len(due) == limit {
			break
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].ID < due[j].ID })
	return due, nil
}

func (m *MockStandingOrderRepository) Update(ctx context.Context, tx usecase.Transaction, order *domain.StandingOrder) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, tx, order)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[order.ID]; !ok {
		return domain.ErrOrderNotFound
	}
	m.orders[order.ID] = order
	return nil
}

// MockLedgerRepository is a mock implementation of LedgerRepository.
type MockLedgerRepository struct {
	CheckConsistencyFunc func(ctx context.Context) (decimal.Decimal, error)
}

func (m *MockLedgerRepository) CheckConsistency(ctx context.Context) (decimal.Decimal, error) {
	if m.CheckConsistencyFunc != nil {
		return m.CheckConsistencyFunc(ctx)
	}
	return decimal.Zero, nil
}

// MockTransaction is a mock implementation of Transaction.
type MockTransaction struct {
	CommitFunc   func(ctx context.Context) error
	RollbackFunc func(ctx context.Context) error

	Committed  bool
	RolledBack bool
}

func (m *MockTransaction) Commit(ctx context.Context) error {
	if m.CommitFunc != nil {
		return m.CommitFunc(ctx)
	}
	m.Committed = true
	return nil
}

func (m *MockTransaction) Rollback(ctx context.Context) error {
	if m.RollbackFunc != nil {
		return m.RollbackFunc(ctx)
	}
	if !m.Committed {
		m.RolledBack = true
	}
	return nil
}

// MockTransactionManager is a mock implementation of TransactionManager.
type MockTransactionManager struct {
	BeginFunc func(ctx context.Context) (usecase.Transaction, error)
}

func (m *MockTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	return &MockTransaction{}, nil
}

// MockRetrier runs the operation once without retrying.
type MockRetrier struct{}

func (m *MockRetrier) Retry(ctx context.Context, operation func() error) error {
	return operation()
}

// MockIDGenerator generates sequential IDs.
type MockIDGenerator struct {
	mu      sync.Mutex
	counter int
}

func (m *MockIDGenerator) Generate() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	return fmt.Sprintf("id-%d", m.counter)
}
