package signal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/Shockvaluemedia/directfanz-project-sub008/internal/core/domain"
	"github.com/Shockvaluemedia/directfanz-project-sub008/internal/core/ports"

	"github.com/gorilla/websocket"
	"github.com/pion/webrtc/v3"
	"go.uber.org/zap"
)

// Config holds connection-level tunables for the gateway.
type Config struct {
	PingInterval     time.Duration
	PongTimeout      time.Duration
	WriteTimeout     time.Duration
	BroadcasterGrace time.Duration
	MaxMessageSize   int64
	SendBufferSize   int
	AllowedOrigins   []string
}

// ClientMessage is the inbound command envelope.
type ClientMessage struct {
	Type      string           `json:"type"`
	SessionID domain.SessionID `json:"session_id,omitempty"`
	Payload   json.RawMessage  `json:"payload,omitempty"`
}

// ServerMessage is the outbound event envelope.
type ServerMessage struct {
	Type      string           `json:"type"`
	SessionID domain.SessionID `json:"session_id,omitempty"`
	Payload   any              `json:"payload,omitempty"`
}

type client struct {
	identity ports.Identity
	conn     *websocket.Conn
	send     chan ServerMessage
	closed   chan struct{}

	// joined and owned are touched only under the server mutex.
	joined map[domain.SessionID]struct{}
	owned  map[domain.SessionID]struct{}

	closeOnce sync.Once
}

func (c *client) close() {
	c.closeOnce.Do(func() { close(c.closed) })
}

// WebSocketServer is the connection gateway. One authenticated connection per
// user; it translates inbound commands into service calls and implements the
// EventSink and Notifier delivery paths for outbound events.
type WebSocketServer struct {
	sessions     ports.SessionService
	viewers      ports.ViewerService
	chat         ports.ChatService
	donations    ports.DonationService
	relay        ports.RelayService
	verifier     ports.IdentityVerifier
	entitlements ports.EntitlementChecker

	clients     map[domain.UserID]*client
	subscribers map[domain.SessionID]map[domain.UserID]*client
	graceTimers map[domain.UserID]map[domain.SessionID]*time.Timer
	mu          sync.RWMutex

	cfg      Config
	upgrader websocket.Upgrader
	logger   *zap.SugaredLogger
}

func NewWebSocketServer(
	sessions ports.SessionService,
	viewers ports.ViewerService,
	chat ports.ChatService,
	donations ports.DonationService,
	relay ports.RelayService,
	verifier ports.IdentityVerifier,
	entitlements ports.EntitlementChecker,
	cfg Config,
	logger *zap.SugaredLogger,
) *WebSocketServer {
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 30 * time.Second
	}
	if cfg.PongTimeout <= 0 {
		cfg.PongTimeout = 60 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = 64 * 1024
	}
	if cfg.SendBufferSize <= 0 {
		cfg.SendBufferSize = 256
	}

	s := &WebSocketServer{
		sessions:     sessions,
		viewers:      viewers,
		chat:         chat,
		donations:    donations,
		relay:        relay,
		verifier:     verifier,
		entitlements: entitlements,
		clients:      make(map[domain.UserID]*client),
		subscribers:  make(map[domain.SessionID]map[domain.UserID]*client),
		graceTimers:  make(map[domain.UserID]map[domain.SessionID]*time.Timer),
		cfg:          cfg,
		logger:       logger,
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

func (s *WebSocketServer) checkOrigin(r *http.Request) bool {
	if len(s.cfg.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	for _, allowed := range s.cfg.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// HandleWebSocket authenticates, upgrades and serves one connection.
func (s *WebSocketServer) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		if auth := r.Header.Get("Authorization"); len(auth) > 7 && auth[:7] == "Bearer " {
			token = auth[7:]
		}
	}

	identity, err := s.verifier.VerifyIdentity(r.Context(), token)
	if err != nil {
		s.logger.Warnw("websocket authentication failed", "error", err)
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Errorw("websocket upgrade failed", "error", err)
		return
	}

	c := &client{
		identity: *identity,
		conn:     conn,
		send:     make(chan ServerMessage, s.cfg.SendBufferSize),
		closed:   make(chan struct{}),
		joined:   make(map[domain.SessionID]struct{}),
		owned:    make(map[domain.SessionID]struct{}),
	}

	s.register(c)
	s.logger.Infow("client connected", "user_id", identity.UserID, "username", identity.Username)

	go s.writePump(c)
	s.readPump(r.Context(), c)

	s.unregister(c)
	s.logger.Infow("client disconnected", "user_id", identity.UserID)
}

func (s *WebSocketServer) register(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, exists := s.clients[c.identity.UserID]; exists {
		// Reconnect replaces the previous connection and inherits its
		// session memberships.
		old.close()
		for sid := range old.joined {
			c.joined[sid] = struct{}{}
			if subs, ok := s.subscribers[sid]; ok {
				subs[c.identity.UserID] = c
			}
		}
		for sid := range old.owned {
			c.owned[sid] = struct{}{}
			if subs, ok := s.subscribers[sid]; ok {
				subs[c.identity.UserID] = c
			}
		}
	}
	s.clients[c.identity.UserID] = c

	// A returning broadcaster cancels any pending auto-end.
	if timers, ok := s.graceTimers[c.identity.UserID]; ok {
		for sid, timer := range timers {
			timer.Stop()
			c.owned[sid] = struct{}{}
			s.subscribe(sid, c)
		}
		delete(s.graceTimers, c.identity.UserID)
	}
}

func (s *WebSocketServer) unregister(c *client) {
	c.close()

	s.mu.Lock()
	// A newer connection for the same user may already be registered.
	if current, ok := s.clients[c.identity.UserID]; ok && current == c {
		delete(s.clients, c.identity.UserID)
	} else {
		s.mu.Unlock()
		return
	}

	joined := make([]domain.SessionID, 0, len(c.joined))
	for sid := range c.joined {
		joined = append(joined, sid)
		if subs, ok := s.subscribers[sid]; ok {
			delete(subs, c.identity.UserID)
		}
	}
	owned := make([]domain.SessionID, 0, len(c.owned))
	for sid := range c.owned {
		owned = append(owned, sid)
		if subs, ok := s.subscribers[sid]; ok {
			delete(subs, c.identity.UserID)
		}
	}
	s.mu.Unlock()

	ctx := context.Background()
	for _, sid := range joined {
		err := s.viewers.Leave(ctx, sid, c.identity.UserID)
		if err != nil {
			if !errors.Is(err, domain.ErrSessionNotFound) && !errors.Is(err, domain.ErrViewerNotFound) {
				s.logger.Warnw("viewer cleanup on disconnect failed",
					"session_id", sid, "user_id", c.identity.UserID, "error", err)
			}
			continue
		}
		s.announce(ctx, sid, fmt.Sprintf("%s left the stream", c.identity.UserID))
	}

	// The broadcaster gets a grace window to reconnect before the stream
	// is ended on their behalf.
	for _, sid := range owned {
		s.armBroadcasterGrace(sid, c.identity.UserID)
	}
}

func (s *WebSocketServer) armBroadcasterGrace(sessionID domain.SessionID, broadcaster domain.UserID) {
	session, err := s.sessions.Get(context.Background(), sessionID)
	if err != nil || session.Status.Terminal() || session.Status == domain.StatusError {
		return
	}
	if s.cfg.BroadcasterGrace <= 0 {
		s.endAfterGrace(sessionID, broadcaster)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	timers, ok := s.graceTimers[broadcaster]
	if !ok {
		timers = make(map[domain.SessionID]*time.Timer)
		s.graceTimers[broadcaster] = timers
	}
	if _, exists := timers[sessionID]; exists {
		return
	}

	s.logger.Infow("broadcaster disconnected, grace period armed",
		"session_id", sessionID, "broadcaster", broadcaster, "grace", s.cfg.BroadcasterGrace)

	timers[sessionID] = time.AfterFunc(s.cfg.BroadcasterGrace, func() {
		s.mu.Lock()
		if timers, ok := s.graceTimers[broadcaster]; ok {
			delete(timers, sessionID)
			if len(timers) == 0 {
				delete(s.graceTimers, broadcaster)
			}
		}
		s.mu.Unlock()
		s.endAfterGrace(sessionID, broadcaster)
	})
}

func (s *WebSocketServer) endAfterGrace(sessionID domain.SessionID, broadcaster domain.UserID) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s.logger.Infow("grace period expired, ending session",
		"session_id", sessionID, "broadcaster", broadcaster)
	if err := s.sessions.EndSession(ctx, sessionID, broadcaster); err != nil &&
		!errors.Is(err, domain.ErrSessionNotFound) {
		s.logger.Errorw("auto-end after broadcaster disconnect failed",
			"session_id", sessionID, "error", err)
	}
}

func (s *WebSocketServer) readPump(ctx context.Context, c *client) {
	c.conn.SetReadLimit(s.cfg.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(s.cfg.PongTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(s.cfg.PongTimeout))
		return nil
	})

	for {
		select {
		case <-c.closed:
			return
		default:
		}

		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Infow("read error", "user_id", c.identity.UserID, "error", err)
			}
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(s.cfg.PongTimeout))

		if err := s.handleMessage(ctx, c, msg); err != nil {
			s.sendError(c, msg, err)
		}
	}
}

func (s *WebSocketServer) writePump(c *client) {
	pingTicker := time.NewTicker(s.cfg.PingInterval)
	defer pingTicker.Stop()
	defer c.conn.Close()

	for {
		select {
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
			if err := c.conn.WriteJSON(msg); err != nil {
				s.logger.Debugw("write error", "user_id", c.identity.UserID, "error", err)
				c.close()
				return
			}

		case <-pingTicker.C:
			c.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}

		case <-c.closed:
			return
		}
	}
}

func (s *WebSocketServer) handleMessage(ctx context.Context, c *client, msg ClientMessage) error {
	if msg.Type == "" {
		return fmt.Errorf("%w: message type is required", domain.ErrInvalidInput)
	}

	switch msg.Type {
	case "create_stream":
		return s.handleCreateStream(ctx, c, msg)
	case "start_stream":
		return s.handleStartStream(ctx, c, msg)
	case "end_stream":
		return s.handleEndStream(ctx, c, msg)
	case "join_stream":
		return s.handleJoinStream(ctx, c, msg)
	case "leave_stream":
		return s.handleLeaveStream(ctx, c, msg)
	case "offer":
		return s.handleOffer(ctx, c, msg)
	case "answer":
		return s.handleAnswer(ctx, c, msg)
	case "ice_candidate":
		return s.handleICECandidate(ctx, c, msg)
	case "stream_chat":
		return s.handleChat(ctx, c, msg)
	case "stream_donation":
		return s.handleDonation(ctx, c, msg)
	case "stream_like":
		_, err := s.sessions.IncrementLikes(ctx, msg.SessionID)
		return err
	case "stream_share":
		_, err := s.sessions.IncrementShares(ctx, msg.SessionID)
		return err
	case "change_quality":
		return s.handleChangeQuality(ctx, c, msg)
	default:
		return fmt.Errorf("%w: unknown message type %q", domain.ErrInvalidInput, msg.Type)
	}
}

type createStreamPayload struct {
	Title            string     `json:"title"`
	Category         string     `json:"category"`
	Visibility       string     `json:"visibility"`
	ChatEnabled      bool       `json:"chat_enabled"`
	DonationsEnabled bool       `json:"donations_enabled"`
	RecordingEnabled bool       `json:"recording_enabled"`
	SubscriberOnly   bool       `json:"subscriber_only"`
	Moderation       string     `json:"moderation"`
	AllowedTiers     []string   `json:"allowed_tiers"`
	ScheduledAt      *time.Time `json:"scheduled_at"`
}

func (s *WebSocketServer) handleCreateStream(ctx context.Context, c *client, msg ClientMessage) error {
	var payload createStreamPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return fmt.Errorf("%w: invalid create_stream payload", domain.ErrInvalidInput)
	}

	visibility := domain.VisibilityPublic
	if payload.Visibility == string(domain.VisibilityPrivate) {
		visibility = domain.VisibilityPrivate
	}
	moderation := domain.ModerationOff
	if payload.Moderation == string(domain.ModerationKeyword) {
		moderation = domain.ModerationKeyword
	}

	spec := domain.SessionSpec{
		Title:            payload.Title,
		Category:         payload.Category,
		Visibility:       visibility,
		ChatEnabled:      payload.ChatEnabled,
		DonationsEnabled: payload.DonationsEnabled,
		RecordingEnabled: payload.RecordingEnabled,
		SubscriberOnly:   payload.SubscriberOnly,
		Moderation:       moderation,
		AllowedTiers:     payload.AllowedTiers,
		ScheduledAt:      payload.ScheduledAt,
	}

	session, err := s.sessions.CreateSession(ctx, c.identity.UserID, spec)
	if err != nil {
		return err
	}

	s.mu.Lock()
	c.owned[session.ID] = struct{}{}
	s.subscribe(session.ID, c)
	s.mu.Unlock()

	s.deliver(c, ServerMessage{
		Type:      "stream_created",
		SessionID: session.ID,
		Payload: map[string]any{
			"session":    session,
			"ingest_url": s.sessions.IngestURL(session),
		},
	})
	return nil
}

func (s *WebSocketServer) handleStartStream(ctx context.Context, c *client, msg ClientMessage) error {
	if err := s.sessions.StartSession(ctx, msg.SessionID, c.identity.UserID); err != nil {
		return err
	}

	s.mu.Lock()
	c.owned[msg.SessionID] = struct{}{}
	s.subscribe(msg.SessionID, c)
	s.mu.Unlock()

	s.deliver(c, ServerMessage{Type: "stream_start_success", SessionID: msg.SessionID})
	return nil
}

func (s *WebSocketServer) handleEndStream(ctx context.Context, c *client, msg ClientMessage) error {
	if err := s.sessions.EndSession(ctx, msg.SessionID, c.identity.UserID); err != nil {
		return err
	}
	s.deliver(c, ServerMessage{Type: "stream_end_success", SessionID: msg.SessionID})
	return nil
}

type joinStreamPayload struct {
	Quality string `json:"quality"`
}

func (s *WebSocketServer) handleJoinStream(ctx context.Context, c *client, msg ClientMessage) error {
	var payload joinStreamPayload
	if len(msg.Payload) > 0 {
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return fmt.Errorf("%w: invalid join_stream payload", domain.ErrInvalidInput)
		}
	}

	quality := domain.StreamQuality(payload.Quality)
	if payload.Quality == "" {
		quality = domain.QualityAuto
	}

	tier, err := s.entitlements.TierFor(ctx, c.identity.UserID)
	if err != nil {
		s.logger.Debugw("tier lookup failed", "user_id", c.identity.UserID, "error", err)
	}

	if _, err := s.viewers.Join(ctx, msg.SessionID, c.identity.UserID, domain.ViewerInfo{
		Tier:    tier,
		Quality: quality,
	}); err != nil {
		return err
	}

	s.mu.Lock()
	c.joined[msg.SessionID] = struct{}{}
	s.subscribe(msg.SessionID, c)
	s.mu.Unlock()

	s.announce(ctx, msg.SessionID, fmt.Sprintf("%s joined the stream", c.identity.UserID))

	session, err := s.sessions.Get(ctx, msg.SessionID)
	if err != nil {
		return err
	}
	history, err := s.chat.History(ctx, msg.SessionID)
	if err != nil {
		s.logger.Warnw("chat history fetch failed", "session_id", msg.SessionID, "error", err)
		history = nil
	}

	s.deliver(c, ServerMessage{
		Type:      "stream_joined",
		SessionID: msg.SessionID,
		Payload: map[string]any{
			"session":      session,
			"chat_history": history,
		},
	})
	return nil
}

func (s *WebSocketServer) handleLeaveStream(ctx context.Context, c *client, msg ClientMessage) error {
	s.mu.Lock()
	delete(c.joined, msg.SessionID)
	if subs, ok := s.subscribers[msg.SessionID]; ok {
		delete(subs, c.identity.UserID)
	}
	s.mu.Unlock()

	err := s.viewers.Leave(ctx, msg.SessionID, c.identity.UserID)
	if errors.Is(err, domain.ErrViewerNotFound) || errors.Is(err, domain.ErrSessionNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	s.announce(ctx, msg.SessionID, fmt.Sprintf("%s left the stream", c.identity.UserID))
	return nil
}

// announce posts a system chat message. Announcement failures never fail the
// operation that triggered them.
func (s *WebSocketServer) announce(ctx context.Context, sessionID domain.SessionID, text string) {
	if _, err := s.chat.PostSystemMessage(ctx, sessionID, text); err != nil {
		s.logger.Debugw("system announcement failed",
			"session_id", sessionID, "error", err)
	}
}

type sdpPayload struct {
	SDP    webrtc.SessionDescription `json:"sdp"`
	Target domain.UserID             `json:"target,omitempty"`
}

func (s *WebSocketServer) handleOffer(ctx context.Context, c *client, msg ClientMessage) error {
	var payload sdpPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return fmt.Errorf("%w: invalid offer payload", domain.ErrInvalidInput)
	}
	return s.relay.RelayOffer(ctx, msg.SessionID, c.identity.UserID, payload.SDP, payload.Target)
}

func (s *WebSocketServer) handleAnswer(ctx context.Context, c *client, msg ClientMessage) error {
	var payload sdpPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return fmt.Errorf("%w: invalid answer payload", domain.ErrInvalidInput)
	}
	return s.relay.RelayAnswer(ctx, msg.SessionID, c.identity.UserID, payload.SDP)
}

func (s *WebSocketServer) handleICECandidate(ctx context.Context, c *client, msg ClientMessage) error {
	var payload struct {
		Candidate webrtc.ICECandidateInit `json:"candidate"`
	}
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return fmt.Errorf("%w: invalid ice_candidate payload", domain.ErrInvalidInput)
	}
	return s.relay.RelayICECandidate(ctx, msg.SessionID, c.identity.UserID, payload.Candidate)
}

func (s *WebSocketServer) handleChat(ctx context.Context, c *client, msg ClientMessage) error {
	var payload struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return fmt.Errorf("%w: invalid stream_chat payload", domain.ErrInvalidInput)
	}
	_, err := s.chat.PostMessage(ctx, msg.SessionID, c.identity.UserID, payload.Text)
	return err
}

func (s *WebSocketServer) handleDonation(ctx context.Context, c *client, msg ClientMessage) error {
	var payload struct {
		Amount  float64 `json:"amount"`
		Message string  `json:"message"`
	}
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return fmt.Errorf("%w: invalid stream_donation payload", domain.ErrInvalidInput)
	}

	donation, err := s.donations.Donate(ctx, msg.SessionID, c.identity.UserID, payload.Amount, payload.Message)
	if err != nil {
		return err
	}

	s.deliver(c, ServerMessage{
		Type:      "donation_success",
		SessionID: msg.SessionID,
		Payload:   map[string]any{"donation": donation},
	})
	return nil
}

func (s *WebSocketServer) handleChangeQuality(ctx context.Context, c *client, msg ClientMessage) error {
	var payload struct {
		Quality string `json:"quality"`
	}
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return fmt.Errorf("%w: invalid change_quality payload", domain.ErrInvalidInput)
	}
	return s.viewers.ChangeQuality(ctx, msg.SessionID, c.identity.UserID, domain.StreamQuality(payload.Quality))
}

// subscribe must be called with the server mutex held.
func (s *WebSocketServer) subscribe(sessionID domain.SessionID, c *client) {
	subs, ok := s.subscribers[sessionID]
	if !ok {
		subs = make(map[domain.UserID]*client)
		s.subscribers[sessionID] = subs
	}
	subs[c.identity.UserID] = c
}

// SendToUser implements ports.EventSink.
func (s *WebSocketServer) SendToUser(sessionID domain.SessionID, userID domain.UserID, event string, payload any) {
	s.mu.RLock()
	c, ok := s.clients[userID]
	s.mu.RUnlock()
	if !ok {
		return
	}
	s.deliver(c, ServerMessage{Type: event, SessionID: sessionID, Payload: payload})
}

// BroadcastToSession implements ports.EventSink.
func (s *WebSocketServer) BroadcastToSession(sessionID domain.SessionID, event string, payload any) {
	s.mu.RLock()
	subs := s.subscribers[sessionID]
	targets := make([]*client, 0, len(subs))
	for _, c := range subs {
		targets = append(targets, c)
	}
	s.mu.RUnlock()

	msg := ServerMessage{Type: event, SessionID: sessionID, Payload: payload}
	for _, c := range targets {
		s.deliver(c, msg)
	}

	if event == "stream_ended" || event == "stream_error" {
		s.dropSession(sessionID)
	}
}

// Notify implements ports.Notifier: best-effort delivery to a connected user.
func (s *WebSocketServer) Notify(ctx context.Context, userID domain.UserID, event string, payload any) {
	s.SendToUser("", userID, event, payload)
}

func (s *WebSocketServer) dropSession(sessionID domain.SessionID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.subscribers[sessionID] {
		delete(c.joined, sessionID)
		delete(c.owned, sessionID)
	}
	delete(s.subscribers, sessionID)
}

func (s *WebSocketServer) deliver(c *client, msg ServerMessage) {
	select {
	case c.send <- msg:
	case <-c.closed:
	default:
		// Slow consumer: drop rather than block the sender.
		s.logger.Debugw("send buffer full, dropping event",
			"user_id", c.identity.UserID, "event", msg.Type)
	}
}

func (s *WebSocketServer) sendError(c *client, msg ClientMessage, err error) {
	s.logger.Infow("command rejected",
		"user_id", c.identity.UserID, "type", msg.Type, "session_id", msg.SessionID, "error", err)
	s.deliver(c, ServerMessage{
		Type:      "error",
		SessionID: msg.SessionID,
		Payload: map[string]any{
			"command": msg.Type,
			"code":    errorCode(err),
			"message": err.Error(),
		},
	})
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		return "UNAUTHENTICATED"
	case errors.Is(err, domain.ErrNotOwner):
		return "NOT_OWNER"
	case errors.Is(err, domain.ErrPermissionDenied):
		return "PERMISSION_DENIED"
	case errors.Is(err, domain.ErrAccessDenied), errors.Is(err, domain.ErrNotParticipant):
		return "ACCESS_DENIED"
	case errors.Is(err, domain.ErrChatDisabled):
		return "PERMISSION_DENIED"
	case errors.Is(err, domain.ErrSessionNotFound), errors.Is(err, domain.ErrViewerNotFound), errors.Is(err, domain.ErrDonationNotFound):
		return "NOT_FOUND"
	case errors.Is(err, domain.ErrInvalidState), errors.Is(err, domain.ErrStreamNotLive):
		return "INVALID_STATE"
	case errors.Is(err, domain.ErrRateLimited):
		return "RATE_LIMITED"
	case errors.Is(err, domain.ErrPaymentFailed):
		return "PAYMENT_FAILED"
	case errors.Is(err, domain.ErrInvalidInput):
		return "INVALID_INPUT"
	default:
		return "INTERNAL_ERROR"
	}
}

// ConnectedUsers returns the number of live connections.
func (s *WebSocketServer) ConnectedUsers() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}
