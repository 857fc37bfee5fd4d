package services

import (
	"context"
	"fmt"
	"time"

	"github.com/Shockvaluemedia/directfanz-project-sub008/internal/core/domain"
	"github.com/Shockvaluemedia/directfanz-project-sub008/internal/core/ports"
	"github.com/Shockvaluemedia/directfanz-project-sub008/pkg/circuitbreaker"
	"github.com/Shockvaluemedia/directfanz-project-sub008/pkg/utils"

	"go.uber.org/zap"
)

// DonationConfig bounds accepted donation amounts.
type DonationConfig struct {
	MinAmount float64
	MaxAmount float64
}

type donationService struct {
	table    *SessionTable
	repo     ports.DonationRepository
	payments ports.PaymentProcessor
	breaker  *circuitbreaker.CircuitBreaker
	chat     ports.ChatService
	notifier ports.Notifier
	cfg      DonationConfig
	logger   *zap.SugaredLogger
}

// NewDonationService builds the donation workflow. The payment processor is
// called behind a circuit breaker; an open circuit surfaces as PaymentFailed
// without a charge.
func NewDonationService(
	table *SessionTable,
	repo ports.DonationRepository,
	payments ports.PaymentProcessor,
	chat ports.ChatService,
	notifier ports.Notifier,
	cfg DonationConfig,
	logger *zap.SugaredLogger,
) ports.DonationService {
	if cfg.MinAmount <= 0 {
		cfg.MinAmount = 1.0
	}
	if cfg.MaxAmount <= 0 {
		cfg.MaxAmount = 10000.0
	}
	return &donationService{
		table:    table,
		repo:     repo,
		payments: payments,
		breaker:  circuitbreaker.New(circuitbreaker.DefaultConfig()),
		chat:     chat,
		notifier: notifier,
		cfg:      cfg,
		logger:   logger,
	}
}

func (s *donationService) Donate(ctx context.Context, sessionID domain.SessionID, donor domain.UserID, amount float64, message string) (*domain.Donation, error) {
	if amount < s.cfg.MinAmount || amount > s.cfg.MaxAmount {
		return nil, fmt.Errorf("%w: amount %.2f outside [%.2f, %.2f]", domain.ErrInvalidInput, amount, s.cfg.MinAmount, s.cfg.MaxAmount)
	}

	h, ok := s.table.get(sessionID)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	snap := h.snapshot()
	if snap.Status != domain.StatusLive {
		return nil, fmt.Errorf("%w: session is %s", domain.ErrStreamNotLive, snap.Status)
	}
	if !snap.Settings.DonationsEnabled {
		return nil, fmt.Errorf("%w: donations are disabled for this session", domain.ErrInvalidInput)
	}

	donation := &domain.Donation{
		ID:        domain.DonationID(utils.GenerateDonationID()),
		SessionID: sessionID,
		Donor:     donor,
		Amount:    amount,
		Message:   message,
		Status:    domain.DonationPending,
		CreatedAt: time.Now(),
	}
	if err := s.repo.Save(ctx, donation); err != nil {
		s.logger.Warnw("donation persistence failed", "donation_id", donation.ID, "error", err)
	}

	// Payment capture happens outside any session lock.
	err := s.breaker.Execute(ctx, func(ctx context.Context) error {
		return s.payments.ProcessDonationPayment(ctx, donation)
	})
	if err != nil {
		donation.Status = domain.DonationFailed
		if saveErr := s.repo.Save(ctx, donation); saveErr != nil {
			s.logger.Warnw("donation persistence failed", "donation_id", donation.ID, "error", saveErr)
		}
		s.logger.Infow("donation payment failed",
			"donation_id", donation.ID,
			"session_id", sessionID,
			"donor", donor,
			"error", err,
		)
		return donation, fmt.Errorf("%w: %v", domain.ErrPaymentFailed, err)
	}

	donation.Status = domain.DonationCompleted
	if err := s.repo.Save(ctx, donation); err != nil {
		s.logger.Warnw("donation persistence failed", "donation_id", donation.ID, "error", err)
	}

	if _, err := s.chat.PostDonationMessage(ctx, sessionID, donation); err != nil {
		// The charge succeeded; the announcement failing must not fail the
		// donation. The amount is simply not reflected in the live total.
		s.logger.Warnw("donation announcement failed", "donation_id", donation.ID, "error", err)
	}
	if s.notifier != nil {
		s.notifier.Notify(ctx, snap.Broadcaster, "donation_received", donation)
	}
	s.logger.Infow("donation completed",
		"donation_id", donation.ID,
		"session_id", sessionID,
		"donor", donor,
		"amount", amount,
	)
	return donation, nil
}
