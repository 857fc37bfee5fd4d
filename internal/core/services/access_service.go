package services

import (
	"context"
	"fmt"

	"github.com/Shockvaluemedia/directfanz-project-sub008/internal/core/domain"
	"github.com/Shockvaluemedia/directfanz-project-sub008/internal/core/ports"

	"go.uber.org/zap"
)

type accessService struct {
	entitlements ports.EntitlementChecker
	logger       *zap.SugaredLogger
}

// NewAccessService builds the gate that decides streaming and join rights,
// delegating entitlement lookups to the persistence collaborator.
func NewAccessService(entitlements ports.EntitlementChecker, logger *zap.SugaredLogger) ports.AccessService {
	return &accessService{entitlements: entitlements, logger: logger}
}

func (s *accessService) CanStream(ctx context.Context, userID domain.UserID) (bool, error) {
	allowed, err := s.entitlements.CanStream(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("entitlement lookup: %w", err)
	}
	if !allowed {
		s.logger.Infow("stream permission denied", "user_id", userID)
	}
	return allowed, nil
}

func (s *accessService) CanJoin(ctx context.Context, userID domain.UserID, session *domain.StreamSession) (bool, error) {
	if userID == session.Broadcaster {
		return true, nil
	}
	if session.Visibility == domain.VisibilityPublic && !session.Settings.SubscriberOnly {
		return true, nil
	}
	entitled, err := s.entitlements.CheckEntitlement(ctx, userID, session.Settings.AllowedTiers)
	if err != nil {
		return false, fmt.Errorf("entitlement lookup: %w", err)
	}
	if !entitled {
		s.logger.Infow("join denied",
			"user_id", userID,
			"session_id", session.ID,
			"visibility", session.Visibility,
			"subscriber_only", session.Settings.SubscriberOnly,
		)
	}
	return entitled, nil
}
