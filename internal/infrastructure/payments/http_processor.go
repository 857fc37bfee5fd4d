package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/Shockvaluemedia/directfanz-project-sub008/internal/core/domain"

	"go.uber.org/zap"
)

// HTTPProcessor charges donations through the payment collaborator's HTTP
// API. It implements ports.PaymentProcessor.
type HTTPProcessor struct {
	baseURL string
	client  *http.Client
	logger  *zap.SugaredLogger
}

func NewHTTPProcessor(baseURL string, logger *zap.SugaredLogger) *HTTPProcessor {
	return &HTTPProcessor{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
		logger:  logger,
	}
}

type chargeRequest struct {
	DonationID domain.DonationID `json:"donation_id"`
	SessionID  domain.SessionID  `json:"session_id"`
	Donor      domain.UserID     `json:"donor"`
	Amount     float64           `json:"amount"`
	Currency   string            `json:"currency"`
}

func (p *HTTPProcessor) ProcessDonationPayment(ctx context.Context, donation *domain.Donation) error {
	body, err := json.Marshal(chargeRequest{
		DonationID: donation.ID,
		SessionID:  donation.SessionID,
		Donor:      donation.Donor,
		Amount:     donation.Amount,
		Currency:   "USD",
	})
	if err != nil {
		return fmt.Errorf("marshal charge request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/charges", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build charge request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("charge request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		p.logger.Warnw("payment declined",
			"donation_id", donation.ID, "status", resp.StatusCode)
		return fmt.Errorf("payment processor returned status %d", resp.StatusCode)
	}

	return nil
}
