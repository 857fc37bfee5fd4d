package services

import (
	"context"

	"github.com/Shockvaluemedia/directfanz-project-sub008/internal/core/domain"
	"github.com/Shockvaluemedia/directfanz-project-sub008/internal/core/ports"

	"github.com/pion/webrtc/v3"
	"go.uber.org/zap"
)

type relayService struct {
	table  *SessionTable
	sink   ports.EventSink
	logger *zap.SugaredLogger
}

// NewRelayService builds the signaling pass-through. It checks only that the
// sender is a current participant and routes payloads to the opposite party;
// SDP and ICE contents are never interpreted or stored.
func NewRelayService(table *SessionTable, sink ports.EventSink, logger *zap.SugaredLogger) ports.RelayService {
	return &relayService{table: table, sink: sink, logger: logger}
}

// participants returns the broadcaster and current viewer identities of a
// session, without holding the handle lock during delivery.
func (s *relayService) participants(sessionID domain.SessionID) (broadcaster domain.UserID, viewers []domain.UserID, err error) {
	h, ok := s.table.get(sessionID)
	if !ok {
		return "", nil, domain.ErrSessionNotFound
	}
	h.mu.Lock()
	broadcaster = h.session.Broadcaster
	viewers = make([]domain.UserID, 0, len(h.viewers))
	for userID := range h.viewers {
		viewers = append(viewers, userID)
	}
	h.mu.Unlock()
	return broadcaster, viewers, nil
}

func (s *relayService) RelayOffer(ctx context.Context, sessionID domain.SessionID, sender domain.UserID, offer webrtc.SessionDescription, target domain.UserID) error {
	broadcaster, viewers, err := s.participants(sessionID)
	if err != nil {
		return err
	}
	if sender != broadcaster {
		return domain.ErrNotParticipant
	}

	payload := signalPayload(sessionID, sender, map[string]any{"sdp": offer})
	if target != "" {
		if !contains(viewers, target) {
			return domain.ErrNotParticipant
		}
		s.sink.SendToUser(sessionID, target, "offer", payload)
		return nil
	}
	for _, viewer := range viewers {
		s.sink.SendToUser(sessionID, viewer, "offer", payload)
	}
	s.logger.Debugw("offer relayed", "session_id", sessionID, "viewers", len(viewers))
	return nil
}

func (s *relayService) RelayAnswer(ctx context.Context, sessionID domain.SessionID, sender domain.UserID, answer webrtc.SessionDescription) error {
	broadcaster, viewers, err := s.participants(sessionID)
	if err != nil {
		return err
	}
	if !contains(viewers, sender) {
		return domain.ErrNotParticipant
	}
	s.sink.SendToUser(sessionID, broadcaster, "answer", signalPayload(sessionID, sender, map[string]any{"sdp": answer}))
	return nil
}

func (s *relayService) RelayICECandidate(ctx context.Context, sessionID domain.SessionID, sender domain.UserID, candidate webrtc.ICECandidateInit) error {
	broadcaster, viewers, err := s.participants(sessionID)
	if err != nil {
		return err
	}
	payload := signalPayload(sessionID, sender, map[string]any{"candidate": candidate})
	switch {
	case sender == broadcaster:
		for _, viewer := range viewers {
			s.sink.SendToUser(sessionID, viewer, "ice_candidate", payload)
		}
	case contains(viewers, sender):
		s.sink.SendToUser(sessionID, broadcaster, "ice_candidate", payload)
	default:
		return domain.ErrNotParticipant
	}
	return nil
}

func signalPayload(sessionID domain.SessionID, from domain.UserID, body map[string]any) map[string]any {
	payload := map[string]any{
		"session_id": sessionID,
		"from":       from,
	}
	for k, v := range body {
		payload[k] = v
	}
	return payload
}

func contains(users []domain.UserID, user domain.UserID) bool {
	for _, u := range users {
		if u == user {
			return true
		}
	}
	return false
}
