package memory

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tanbank/tanbank/internal/domain"
	"github.com/tanbank/tanbank/internal/usecase"
)

// TransferRepository implements usecase.TransferRepository.
type TransferRepository struct {
	store *Store
}

func NewTransferRepository(store *Store) *TransferRepository {
	return &TransferRepository{store: store}
}

func (r *TransferRepository) Create(ctx context.Context, tx usecase.Transaction, transfer *domain.Transfer) error {
	s := r.store.view(tx)
	cp := *transfer
	s.transfers[transfer.ID] = &cp
	return nil
}

func (r *TransferRepository) GetByID(ctx context.Context, id string) (*domain.Transfer, error) {
	var transfer *domain.Transfer
	r.store.read(func(s *state) {
		if t, ok := s.transfers[id]; ok {
			cp := *t
			transfer = &cp
		}
	})
	if transfer == nil {
		return nil, domain.ErrTransferNotFound
	}
	return transfer, nil
}

func (r *TransferRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Transfer, error) {
	s := r.store.view(tx)
	t, ok := s.transfers[id]
	if !ok {
		return nil, domain.ErrTransferNotFound
	}
	return t, nil
}

func (r *TransferRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, id string, status domain.TransferStatus, executedAt *time.Time) error {
	s := r.store.view(tx)
	t, ok := s.transfers[id]
	if !ok {
		return domain.ErrTransferNotFound
	}
	t.Status = status
	t.ExecutedAt = executedAt
	return nil
}

func (r *TransferRepository) UpdateChallenge(ctx context.Context, tx usecase.Transaction, id, challengeID string) error {
	s := r.store.view(tx)
	t, ok := s.transfers[id]
	if !ok {
		return domain.ErrTransferNotFound
	}
	t.TANChallengeID = challengeID
	return nil
}

func (r *TransferRepository) ListBySender(ctx context.Context, senderID string, limit, offset int) ([]*domain.Transfer, error) {
	var transfers []*domain.Transfer
	r.store.read(func(s *state) {
		for _, t := range s.transfers {
			if t.SenderID == senderID {
				cp := *t
				transfers = append(transfers, &cp)
			}
		}
	})
	sort.Slice(transfers, func(i, j int) bool {
		return transfers[i].CreatedAt.After(transfers[j].CreatedAt)
	})
	if offset >= len(transfers) {
		return nil, nil
	}
	transfers = transfers[offset:]
	if limit < len(transfers) {
		transfers = transfers[:limit]
	}
	return transfers, nil
}

// TANChallengeRepository implements usecase.TANChallengeRepository.
type TANChallengeRepository struct {
	store *Store
}

func NewTANChallengeRepository(store *Store) *TANChallengeRepository {
	return &TANChallengeRepository{store: store}
}

func (r *TANChallengeRepository) Create(ctx context.Context, tx usecase.Transaction, challenge *domain.TANChallenge) error {
	s := r.store.view(tx)
	cp := *challenge
	s.challenges[challenge.ID] = &cp
	return nil
}

func (r *TANChallengeRepository) GetByID(ctx context.Context, id string) (*domain.TANChallenge, error) {
	var challenge *domain.TANChallenge
	r.store.read(func(s *state) {
		if c, ok := s.challenges[id]; ok {
			cp := *c
			challenge = &cp
		}
	})
	if challenge == nil {
		return nil, domain.ErrChallengeNotFound
	}
	return challenge, nil
}

func (r *TANChallengeRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.TANChallenge, error) {
	s := r.store.view(tx)
	c, ok := s.challenges[id]
	if !ok {
		return nil, domain.ErrChallengeNotFound
	}
	return c, nil
}

func (r *TANChallengeRepository) UpdateAttempts(ctx context.Context, tx usecase.Transaction, id string, attemptsRemaining int) error {
	s := r.store.view(tx)
	c, ok := s.challenges[id]
	if !ok {
		return domain.ErrChallengeNotFound
	}
	c.AttemptsRemaining = attemptsRemaining
	return nil
}

func (r *TANChallengeRepository) MarkConsumed(ctx context.Context, tx usecase.Transaction, id string) error {
	s := r.store.view(tx)
	c, ok := s.challenges[id]
	if !ok {
		return domain.ErrChallengeNotFound
	}
	c.Consumed = true
	return nil
}

func (r *TANChallengeRepository) ListExpiredUnconsumed(ctx context.Context, now time.Time, limit int) ([]*domain.TANChallenge, error) {
	var challenges []*domain.TANChallenge
	r.store.read(func(s *state) {
		for _, c := range s.challenges {
			if !c.Consumed && now.After(c.ExpiresAt) {
				cp := *c
				challenges = append(challenges, &cp)
			}
			if len(challenges) == limit {
				return
			}
		}
	})
	return challenges, nil
}

// EntryRepository implements usecase.EntryRepository.
type EntryRepository struct {
	store *Store
}

func NewEntryRepository(store *Store) *EntryRepository {
	return &EntryRepository{store: store}
}

func (r *EntryRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.Entry) error {
	s := r.store.view(tx)
	cp := *entry
	s.entries = append(s.entries, &cp)
	return nil
}

func (r *EntryRepository) GetByTransfer(ctx context.Context, transferID string) ([]*domain.Entry, error) {
	var entries []*domain.Entry
	r.store.read(func(s *state) {
		for _, e := range s.entries {
			if e.TransferID == transferID {
				cp := *e
				entries = append(entries, &cp)
			}
		}
	})
	return entries, nil
}

func (r *EntryRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Entry, error) {
	var entries []*domain.Entry
	r.store.read(func(s *state) {
		for _, e := range s.entries {
			if e.AccountID == accountID {
				cp := *e
				entries = append(entries, &cp)
			}
		}
	})
	if offset >= len(entries) {
		return nil, nil
	}
	entries = entries[offset:]
	if limit < len(entries) {
		entries = entries[:limit]
	}
	return entries, nil
}

// StandingOrderRepository implements usecase.StandingOrderRepository.
type StandingOrderRepository struct {
	store *Store
}

func NewStandingOrderRepository(store *Store) *StandingOrderRepository {
	return &StandingOrderRepository{store: store}
}

func (r *StandingOrderRepository) Create(ctx context.Context, order *domain.StandingOrder) error {
	r.store.write(func(s *state) {
		cp := *order
		s.orders[order.ID] = &cp
	})
	return nil
}

func (r *StandingOrderRepository) GetByID(ctx context.Context, id string) (*domain.StandingOrder, error) {
	var order *domain.StandingOrder
	r.store.read(func(s *state) {
		if o, ok := s.orders[id]; ok {
			cp := *o
			order = &cp
		}
	})
	if order == nil {
		return nil, domain.ErrOrderNotFound
	}
	return order, nil
}

func (r *StandingOrderRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.StandingOrder, error) {
	s := r.store.view(tx)
	o, ok := s.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return o, nil
}

func (r *StandingOrderRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domain.StandingOrder, error) {
	var orders []*domain.StandingOrder
	r.store.read(func(s *state) {
		for _, o := range s.orders {
			if o.OwnerID == ownerID {
				cp := *o
				orders = append(orders, &cp)
			}
		}
	})
	sort.Slice(orders, func(i, j int) bool { return orders[i].ID < orders[j].ID })
	return orders, nil
}

func (r *StandingOrderRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]*domain.StandingOrder, error) {
	var due []*domain.StandingOrder
	r.store.read(func(s *state) {
		for _, o := range s.orders {
			if o.Due(now) {
				cp := *o
				due = append(due, &cp)
			}
			if len(due) == limit {
				return
			}
		}
	})
	sort.Slice(due, func(i, j int) bool { return due[i].ID < due[j].ID })
	return due, nil
}

func (r *StandingOrderRepository) Update(ctx context.Context, tx usecase.Transaction, order *domain.StandingOrder) error {
	s := r.store.view(tx)
	if _, ok := s.orders[order.ID]; !ok {
		return domain.ErrOrderNotFound
	}
	cp := *order
	s.orders[order.ID] = &cp
	return nil
}

// LedgerRepository implements usecase.LedgerRepository.
type LedgerRepository struct {
	store *Store
}

func NewLedgerRepository(store *Store) *LedgerRepository {
	return &LedgerRepository{store: store}
}

func (r *LedgerRepository) CheckConsistency(ctx context.Context) (decimal.Decimal, error) {
	sum := decimal.Zero
	r.store.read(func(s *state) {
		for _, e := range s.entries {
			sum = sum.Add(e.Amount)
		}
	})
	return sum, nil
}
