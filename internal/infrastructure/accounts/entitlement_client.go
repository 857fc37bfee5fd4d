package accounts

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/Shockvaluemedia/directfanz-project-sub008/internal/core/domain"
	"github.com/Shockvaluemedia/directfanz-project-sub008/pkg/cache"

	"go.uber.org/zap"
)

// entitlementTTL bounds how stale a cached entitlement may be. Tier changes
// take effect on the next join after expiry, not mid-session.
const entitlementTTL = 30 * time.Second

// EntitlementClient asks the account collaborator about broadcast capability
// and subscription tiers. It implements ports.EntitlementChecker. Responses
// are cached per user so join storms do not hammer the account service.
type EntitlementClient struct {
	baseURL string
	client  *http.Client
	cache   *cache.TTLCache
	logger  *zap.SugaredLogger
}

func NewEntitlementClient(baseURL string, logger *zap.SugaredLogger) *EntitlementClient {
	return &EntitlementClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		cache:   cache.NewTTLCache(entitlementTTL),
		logger:  logger,
	}
}

type entitlementResponse struct {
	CanStream bool   `json:"can_stream"`
	Tier      string `json:"tier"`
}

func (c *EntitlementClient) fetch(ctx context.Context, userID domain.UserID) (*entitlementResponse, error) {
	value, err := c.cache.GetOrFetch(ctx, string(userID), func(ctx context.Context) (interface{}, error) {
		return c.fetchRemote(ctx, userID)
	})
	if err != nil {
		return nil, err
	}
	return value.(*entitlementResponse), nil
}

func (c *EntitlementClient) fetchRemote(ctx context.Context, userID domain.UserID) (*entitlementResponse, error) {
	url := fmt.Sprintf("%s/users/%s/entitlements", c.baseURL, userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build entitlement request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("entitlement request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return &entitlementResponse{}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("account service returned status %d", resp.StatusCode)
	}

	var out entitlementResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode entitlement response: %w", err)
	}
	return &out, nil
}

func (c *EntitlementClient) CanStream(ctx context.Context, userID domain.UserID) (bool, error) {
	ent, err := c.fetch(ctx, userID)
	if err != nil {
		return false, err
	}
	return ent.CanStream, nil
}

func (c *EntitlementClient) CheckEntitlement(ctx context.Context, userID domain.UserID, tiers []string) (bool, error) {
	ent, err := c.fetch(ctx, userID)
	if err != nil {
		return false, err
	}
	if ent.Tier == "" {
		return false, nil
	}
	if len(tiers) == 0 {
		// Any active subscription satisfies a subscriber-only session with
		// no tier restriction.
		return true, nil
	}
	for _, tier := range tiers {
		if tier == ent.Tier {
			return true, nil
		}
	}
	return false, nil
}

func (c *EntitlementClient) TierFor(ctx context.Context, userID domain.UserID) (string, error) {
	ent, err := c.fetch(ctx, userID)
	if err != nil {
		return "", err
	}
	return ent.Tier, nil
}
