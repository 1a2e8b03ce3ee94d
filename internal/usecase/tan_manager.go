package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/tanbank/tanbank/internal/domain"
)

// TANConfig holds challenge issuance parameters.
type TANConfig struct {
	CodeLength  int
	TTL         time.Duration
	MaxAttempts int
}

// TANManager issues and verifies TAN challenges. Create and Verify run
// inside a caller-owned transaction so that challenge state and the ledger
// mutation it authorizes commit or roll back together.
type TANManager struct {
	txManager    TransactionManager
	tanRepo      TANChallengeRepository
	transferRepo TransferRepository
	idGen        IDGenerator
	cfg          TANConfig
	logger       zerolog.Logger
}

// NewTANManager creates a new TANManager.
func NewTANManager(
	txManager TransactionManager,
	tanRepo TANChallengeRepository,
	transferRepo TransferRepository,
	idGen IDGenerator,
	cfg TANConfig,
	logger zerolog.Logger,
) *TANManager {
	return &TANManager{
		txManager:    txManager,
		tanRepo:      tanRepo,
		transferRepo: transferRepo,
		idGen:        idGen,
		cfg:          cfg,
		logger:       logger,
	}
}

// Create issues a challenge for the given transfer inside the caller's
// transaction. It returns the stored challenge and the raw code, which is
// never persisted.
func (m *TANManager) Create(ctx context.Context, tx Transaction, transfer *domain.Transfer, now time.Time) (*domain.TANChallenge, string, error) {
	code, err := domain.GenerateTANCode(m.cfg.CodeLength)
	if err != nil {
		return nil, "", err
	}

	challenge := &domain.TANChallenge{
		ID:                m.idGen.Generate(),
		TransferID:        transfer.ID,
		UserID:            transfer.SenderID,
		CodeHash:          domain.HashTANCode(code),
		DynamicLink:       domain.TANDynamicLink(transfer.ID, transfer.Amount, transfer.RecipientRef),
		ExpiresAt:         now.Add(m.cfg.TTL),
		AttemptsRemaining: m.cfg.MaxAttempts,
		CreatedAt:         now,
	}

	err = m.tanRepo.Create(ctx, tx, challenge)
	if err != nil {
		return nil, "", err
	}

	return challenge, code, nil
}

// Verify checks a submitted code against the challenge, locked inside the
// caller's transaction. A correct code consumes the challenge. A wrong code
// decrements the attempt budget, and the attempt that exhausts it also
// consumes the challenge; the caller must commit the transaction for that
// bookkeeping to stick even though an error is returned.
func (m *TANManager) Verify(ctx context.Context, tx Transaction, challengeID, userID, code string, transfer *domain.Transfer, now time.Time) (*domain.TANChallenge, error) {
	challenge, err := m.tanRepo.GetByIDForUpdate(ctx, tx, challengeID)
	if err != nil {
		return nil, err
	}

	if challenge.TransferID != transfer.ID {
		return nil, domain.ErrChallengeNotFound
	}

	link := domain.TANDynamicLink(transfer.ID, transfer.Amount, transfer.RecipientRef)

	err = challenge.Check(now, userID, code, link)
	if err == nil {
		err = m.tanRepo.MarkConsumed(ctx, tx, challenge.ID)
		if err != nil {
			return nil, err
		}

		challenge.Consumed = true

		return challenge, nil
	}

	if err == domain.ErrTANWrongCode {
		challenge.AttemptsRemaining--

		updateErr := m.tanRepo.UpdateAttempts(ctx, tx, challenge.ID, challenge.AttemptsRemaining)
		if updateErr != nil {
			return nil, updateErr
		}

		if challenge.AttemptsRemaining <= 0 {
			updateErr = m.tanRepo.MarkConsumed(ctx, tx, challenge.ID)
			if updateErr != nil {
				return nil, updateErr
			}

			challenge.Consumed = true
		}
	}

	return challenge, err
}

// SweepExpired moves transfers whose challenge expired unverified to the
// expired status. The challenge itself stays unconsumed; expiry alone makes
// it unusable.
func (m *TANManager) SweepExpired(ctx context.Context, now time.Time) (int, error) {
	challenges, err := m.tanRepo.ListExpiredUnconsumed(ctx, now, SweepBatchSize)
	if err != nil {
		return 0, err
	}

	var swept int
	for _, challenge := range challenges {
		err := m.sweepOne(ctx, challenge.TransferID, now)
		if err != nil {
			m.logger.Error().Err(err).
				Str("transfer_id", challenge.TransferID).
				Msg("failed to expire transfer with lapsed tan challenge")
			continue
		}

		swept++
	}

	return swept, nil
}

func (m *TANManager) sweepOne(ctx context.Context, transferID string, now time.Time) error {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := m.txManager.Begin(txCtx)
	if err != nil {
		return err
	}
	defer tx.Rollback(txCtx)

	transfer, err := m.transferRepo.GetByIDForUpdate(txCtx, tx, transferID)
	if err != nil {
		return err
	}

	// A concurrent execute may have already settled this transfer.
	if transfer.Status != domain.TransferStatusTANPending {
		return nil
	}

	err = transfer.TransitionTo(domain.TransferStatusExpired)
	if err != nil {
		return err
	}

	err = m.transferRepo.UpdateStatus(txCtx, tx, transfer.ID, transfer.Status, nil)
	if err != nil {
		return err
	}

	return tx.Commit(txCtx)
}
