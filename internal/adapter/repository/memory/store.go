// Package memory provides an in-memory implementation of the persistence
// interfaces with real transaction semantics: staged writes become visible
// only on commit, and a rollback discards them completely. Transactions are
// serialized on one mutex, which is stricter than the database but never
// admits behavior the database would forbid.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tanbank/tanbank/internal/domain"
	"github.com/tanbank/tanbank/internal/usecase"
)

type state struct {
	accounts   map[string]*domain.Account
	transfers  map[string]*domain.Transfer
	challenges map[string]*domain.TANChallenge
	orders     map[string]*domain.StandingOrder
	entries    []*domain.Entry
}

func newState() *state {
	return &state{
		accounts:   make(map[string]*domain.Account),
		transfers:  make(map[string]*domain.Transfer),
		challenges: make(map[string]*domain.TANChallenge),
		orders:     make(map[string]*domain.StandingOrder),
	}
}

func (s *state) clone() *state {
	c := newState()
	for id, a := range s.accounts {
		cp := *a
		c.accounts[id] = &cp
	}
	for id, t := range s.transfers {
		cp := *t
		if t.ExecutedAt != nil {
			at := *t.ExecutedAt
			cp.ExecutedAt = &at
		}
		c.transfers[id] = &cp
	}
	for id, ch := range s.challenges {
		cp := *ch
		c.challenges[id] = &cp
	}
	for id, o := range s.orders {
		cp := *o
		if o.EndAt != nil {
			at := *o.EndAt
			cp.EndAt = &at
		}
		if o.LastExecutedTransferID != nil {
			tid := *o.LastExecutedTransferID
			cp.LastExecutedTransferID = &tid
		}
		c.orders[id] = &cp
	}
	c.entries = append(c.entries, s.entries...)
	return c
}

// Store holds the canonical state and hands out repositories bound to it.
type Store struct {
	mu    sync.Mutex
	state *state
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{state: newState()}
}

// Begin starts a transaction. The store's mutex is held until the
// transaction commits or rolls back.
func (s *Store) Begin(ctx context.Context) (usecase.Transaction, error) {
	s.mu.Lock()
	return &memTx{store: s, staged: s.state.clone()}, nil
}

type memTx struct {
	store  *Store
	staged *state
	done   bool
}

func (t *memTx) Commit(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	t.store.state = t.staged
	t.store.mu.Unlock()
	return nil
}

func (t *memTx) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	t.store.mu.Unlock()
	return nil
}

// view returns the state a repository call should see: the transaction's
// staged copy inside a transaction, the committed state otherwise.
func (s *Store) view(tx usecase.Transaction) *state {
	if mt, ok := tx.(*memTx); ok && !mt.done {
		return mt.staged
	}
	return s.state
}

// read runs fn against the committed state under the store mutex.
func (s *Store) read(fn func(*state)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.state)
}

// write runs fn against the committed state under the store mutex.
func (s *Store) write(fn func(*state)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.state)
}

// Retrier is a passthrough: serialized in-memory transactions never
// conflict.
type Retrier struct{}

func (Retrier) Retry(ctx context.Context, operation func() error) error {
	return operation()
}

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	store *Store
}

func NewAccountRepository(store *Store) *AccountRepository {
	return &AccountRepository{store: store}
}

func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) error {
	r.store.write(func(s *state) {
		cp := *account
		s.accounts[account.ID] = &cp
	})
	return nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	var account *domain.Account
	r.store.read(func(s *state) {
		if a, ok := s.accounts[id]; ok {
			cp := *a
			account = &cp
		}
	})
	if account == nil {
		return nil, domain.ErrAccountNotFound
	}
	return account, nil
}

func (r *AccountRepository) GetByNumber(ctx context.Context, number string) (*domain.Account, error) {
	var account *domain.Account
	r.store.read(func(s *state) {
		for _, a := range s.accounts {
			if a.Number == number {
				cp := *a
				account = &cp
				return
			}
		}
	})
	if account == nil {
		return nil, domain.ErrAccountNotFound
	}
	return account, nil
}

func (r *AccountRepository) GetCheckingByOwner(ctx context.Context, ownerID string) (*domain.Account, error) {
	var account *domain.Account
	r.store.read(func(s *state) {
		for _, a := range s.accounts {
			if a.OwnerID == ownerID && a.Type == domain.AccountTypeChecking {
				cp := *a
				account = &cp
				return
			}
		}
	})
	if account == nil {
		return nil, domain.ErrAccountNotFound
	}
	return account, nil
}

func (r *AccountRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Account, error) {
	var accounts []*domain.Account
	r.store.read(func(s *state) {
		for _, a := range s.accounts {
			if a.OwnerID == ownerID {
				cp := *a
				accounts = append(accounts, &cp)
			}
		}
	})
	return accounts, nil
}

func (r *AccountRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Account, error) {
	s := r.store.view(tx)
	var accounts []*domain.Account
	for _, id := range ids {
		// Copies, like rows scanned from a locked SELECT; writes only
		// reach the staged state through UpdateBalance.
		if a, ok := s.accounts[id]; ok {
			cp := *a
			accounts = append(accounts, &cp)
		}
	}
	return accounts, nil
}

func (r *AccountRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error {
	s := r.store.view(tx)
	a, ok := s.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	a.Balance = balance
	a.Version++
	a.UpdatedAt = updatedAt
	return nil
}
