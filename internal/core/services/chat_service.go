package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Shockvaluemedia/directfanz-project-sub008/internal/core/domain"
	"github.com/Shockvaluemedia/directfanz-project-sub008/internal/core/ports"
	"github.com/Shockvaluemedia/directfanz-project-sub008/pkg/utils"
	"github.com/Shockvaluemedia/directfanz-project-sub008/pkg/validation"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ChatConfig carries the chat tunables from configuration.
type ChatConfig struct {
	MaxMessageLength   int
	MessagesPerMinute  int
	HistorySize        int
	ModerationKeywords []string
}

type chatService struct {
	table    *SessionTable
	repo     ports.ChatRepository
	metrics  *MetricsService
	cfg      ChatConfig
	keywords []string
	logger   *zap.SugaredLogger
}

// NewChatService builds the broadcaster that validates, moderates and fans
// out chat traffic in per-session acceptance order.
func NewChatService(
	table *SessionTable,
	repo ports.ChatRepository,
	metrics *MetricsService,
	cfg ChatConfig,
	logger *zap.SugaredLogger,
) ports.ChatService {
	if cfg.MaxMessageLength <= 0 {
		cfg.MaxMessageLength = 500
	}
	if cfg.MessagesPerMinute <= 0 {
		cfg.MessagesPerMinute = 20
	}
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = 100
	}
	keywords := make([]string, 0, len(cfg.ModerationKeywords))
	for _, kw := range cfg.ModerationKeywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			keywords = append(keywords, kw)
		}
	}
	return &chatService{
		table:    table,
		repo:     repo,
		metrics:  metrics,
		cfg:      cfg,
		keywords: keywords,
		logger:   logger,
	}
}

func (s *chatService) PostMessage(ctx context.Context, sessionID domain.SessionID, author domain.UserID, content string) (*domain.ChatMessage, error) {
	if err := validation.ValidateChatContent(content, s.cfg.MaxMessageLength); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	h, ok := s.table.get(sessionID)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}

	h.mu.Lock()
	if !h.session.Settings.ChatEnabled {
		h.mu.Unlock()
		return nil, domain.ErrChatDisabled
	}
	broadcaster := h.session.Broadcaster
	if author != broadcaster {
		if _, joined := h.viewers[author]; !joined {
			h.mu.Unlock()
			return nil, domain.ErrNotParticipant
		}
	}
	if !s.authorLimiter(h, author).Allow() {
		h.mu.Unlock()
		return nil, domain.ErrRateLimited
	}

	flagged := h.session.Settings.Moderation == domain.ModerationKeyword && s.flagged(content)
	msg := &domain.ChatMessage{
		ID:          domain.MessageID(utils.GenerateMessageID()),
		SessionID:   sessionID,
		Author:      author,
		Content:     content,
		Type:        domain.MessageTypeChat,
		IsModerated: flagged,
		CreatedAt:   time.Now(),
	}
	h.session.Metadata.ChatMessages++
	s.appendHistory(h, msg)
	if flagged {
		// Flagged messages reach only the author and the broadcaster, never
		// the general viewer fan-out.
		h.enqueue(delivery{target: author, event: "stream_chat_message", payload: msg})
		if broadcaster != author {
			h.enqueue(delivery{target: broadcaster, event: "stream_chat_message", payload: msg})
		}
	} else {
		h.enqueue(delivery{event: "stream_chat_message", payload: msg})
	}
	h.mu.Unlock()

	s.metrics.ChatMessageAccepted(sessionID, flagged)
	s.persist(ctx, msg)
	return msg, nil
}

func (s *chatService) PostSystemMessage(ctx context.Context, sessionID domain.SessionID, content string) (*domain.ChatMessage, error) {
	h, ok := s.table.get(sessionID)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}

	msg := &domain.ChatMessage{
		ID:        domain.MessageID(utils.GenerateMessageID()),
		SessionID: sessionID,
		Content:   content,
		Type:      domain.MessageTypeSystem,
		CreatedAt: time.Now(),
	}

	h.mu.Lock()
	s.appendHistory(h, msg)
	h.enqueue(delivery{event: "stream_chat_message", payload: msg})
	h.mu.Unlock()

	s.persist(ctx, msg)
	return msg, nil
}

// PostDonationMessage announces a completed donation. It is the single place
// where a donation's amount reaches the session total, so a donation counts
// exactly once.
func (s *chatService) PostDonationMessage(ctx context.Context, sessionID domain.SessionID, donation *domain.Donation) (*domain.ChatMessage, error) {
	if donation.Status != domain.DonationCompleted {
		return nil, fmt.Errorf("%w: donation %s is %s", domain.ErrInvalidInput, donation.ID, donation.Status)
	}
	h, ok := s.table.get(sessionID)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}

	msg := &domain.ChatMessage{
		ID:        domain.MessageID(utils.GenerateMessageID()),
		SessionID: sessionID,
		Author:    donation.Donor,
		Content:   donation.Message,
		Type:      domain.MessageTypeDonation,
		Amount:    donation.Amount,
		CreatedAt: time.Now(),
	}

	h.mu.Lock()
	h.session.Metadata.TotalDonations += donation.Amount
	h.session.Metadata.ChatMessages++
	total := h.session.Metadata.TotalDonations
	s.appendHistory(h, msg)
	h.enqueue(delivery{event: "stream_donation", payload: map[string]any{
		"message":         msg,
		"total_donations": total,
	}})
	h.mu.Unlock()

	s.metrics.DonationCompleted(sessionID, donation.Amount)
	s.persist(ctx, msg)
	return msg, nil
}

func (s *chatService) History(ctx context.Context, sessionID domain.SessionID) ([]*domain.ChatMessage, error) {
	if h, ok := s.table.get(sessionID); ok {
		h.mu.Lock()
		out := make([]*domain.ChatMessage, len(h.history))
		copy(out, h.history)
		h.mu.Unlock()
		return out, nil
	}
	return s.repo.Recent(ctx, sessionID, s.cfg.HistorySize)
}

// authorLimiter returns the per-author token bucket, creating it on first
// use. Callers hold the handle lock.
func (s *chatService) authorLimiter(h *sessionHandle, author domain.UserID) *rate.Limiter {
	limiter, ok := h.limiters[author]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(s.cfg.MessagesPerMinute)), s.cfg.MessagesPerMinute)
		h.limiters[author] = limiter
	}
	return limiter
}

func (s *chatService) flagged(content string) bool {
	lowered := strings.ToLower(content)
	for _, kw := range s.keywords {
		if strings.Contains(lowered, kw) {
			return true
		}
	}
	return false
}

// appendHistory keeps the most recent messages. Callers hold the handle lock.
func (s *chatService) appendHistory(h *sessionHandle, msg *domain.ChatMessage) {
	h.history = append(h.history, msg)
	if len(h.history) > s.cfg.HistorySize {
		h.history = h.history[len(h.history)-s.cfg.HistorySize:]
	}
}

func (s *chatService) persist(ctx context.Context, msg *domain.ChatMessage) {
	if s.repo == nil {
		return
	}
	if err := s.repo.Append(ctx, msg); err != nil {
		s.logger.Debugw("chat persistence failed", "session_id", msg.SessionID, "message_id", msg.ID, "error", err)
	}
}
