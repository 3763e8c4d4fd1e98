// Package deposit implements the top-up workflow: users submit admin-attested
// deposit requests, admins approve (crediting the balance exactly once) or
// reject them.
package deposit

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/m3rciful/storebot/internal/domain"
	"github.com/m3rciful/storebot/internal/errs"
	"github.com/m3rciful/storebot/internal/events"
	"github.com/m3rciful/storebot/internal/ledger"
	"github.com/m3rciful/storebot/internal/logger"
	"github.com/m3rciful/storebot/internal/metrics"
	"github.com/m3rciful/storebot/internal/notify"
)

// Service drives the deposit workflow.
type Service struct {
	store     ledger.Store
	publisher *events.Publisher
	notifier  notify.Notifier
}

// New wires the deposit workflow. publisher may be nil; notifier must not be.
func New(store ledger.Store, publisher *events.Publisher, notifier notify.Notifier) *Service {
	return &Service{store: store, publisher: publisher, notifier: notifier}
}

// Submit records a pending deposit. No balance effect happens until approval.
func (s *Service) Submit(ctx context.Context, userID, amount int64, method, proof string) (domain.Deposit, error) {
	if amount <= 0 {
		return domain.Deposit{}, errs.ErrInvalidInput
	}

	var d domain.Deposit
	err := ledger.WithFreshID(ledger.DepositIDPrefix, func(id string) error {
		d = domain.Deposit{
			ID:     id,
			UserID: userID,
			Amount: amount,
			Method: method,
			Proof:  proof,
			Status: domain.DepositPending,
		}
		return s.store.RecordDeposit(ctx, d)
	})
	if err != nil {
		metrics.LedgerFailures.WithLabelValues("deposit_submit").Inc()
		logger.SVCDeposits.Warn("deposit submit failed",
			slog.String("event", "deposits.submit"),
			slog.String("rid", logger.RIDFrom(ctx)),
			slog.Int64("user_id", userID),
			slog.String("err", err.Error()),
		)
		return domain.Deposit{}, err
	}

	metrics.DepositsTotal.WithLabelValues(string(domain.DepositPending)).Inc()
	s.publisher.DepositSubmitted(ctx, d)
	s.notifier.NotifyAdmins(fmt.Sprintf(
		"💰 New deposit %s\nUser: %d\nAmount: %d\nMethod: %s\nProof: %s",
		d.ID, userID, amount, method, proof,
	))
	return d, nil
}

// Approve flips the deposit pending -> approved and credits the amount in the
// same ledger boundary. Under a double review exactly one admin wins; the
// loser gets errs.ErrStaleTransition and must not retry with force.
func (s *Service) Approve(ctx context.Context, depositID string, adminID int64) (domain.Deposit, error) {
	d, balance, err := s.store.ApproveDeposit(ctx, depositID, adminID)
	if err != nil {
		return domain.Deposit{}, err
	}

	metrics.DepositsTotal.WithLabelValues(string(domain.DepositApproved)).Inc()
	s.publisher.DepositReviewed(ctx, d)
	s.notifier.NotifyUser(d.UserID, fmt.Sprintf(
		"✅ Deposit %s approved. %d credited; your balance is now %d.", d.ID, d.Amount, balance,
	))

	logger.SVCDeposits.Info("deposit approved",
		slog.String("event", "deposits.approve"),
		slog.String("rid", logger.RIDFrom(ctx)),
		slog.String("deposit_id", d.ID),
		slog.Int64("admin_id", adminID),
		slog.Int64("amount", d.Amount),
	)
	return d, nil
}

// Reject flips the deposit pending -> rejected with no balance effect.
func (s *Service) Reject(ctx context.Context, depositID string, adminID int64) (domain.Deposit, error) {
	d, err := s.store.RejectDeposit(ctx, depositID, adminID)
	if err != nil {
		return domain.Deposit{}, err
	}

	metrics.DepositsTotal.WithLabelValues(string(domain.DepositRejected)).Inc()
	s.publisher.DepositReviewed(ctx, d)
	s.notifier.NotifyUser(d.UserID, fmt.Sprintf(
		"❌ Deposit %s was rejected. Contact support if you believe this is a mistake.", d.ID,
	))

	logger.SVCDeposits.Info("deposit rejected",
		slog.String("event", "deposits.reject"),
		slog.String("rid", logger.RIDFrom(ctx)),
		slog.String("deposit_id", d.ID),
		slog.Int64("admin_id", adminID),
	)
	return d, nil
}

// Get returns a single deposit.
func (s *Service) Get(ctx context.Context, depositID string) (domain.Deposit, error) {
	return s.store.GetDeposit(ctx, depositID)
}

// Pending lists deposits awaiting review, oldest first.
func (s *Service) Pending(ctx context.Context, limit int) ([]domain.Deposit, error) {
	return s.store.ListDepositsByStatus(ctx, domain.DepositPending, limit)
}
