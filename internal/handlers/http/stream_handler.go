package http

import (
	stderrors "errors"
	"net/http"
	"time"

	"github.com/Shockvaluemedia/directfanz-project-sub008/internal/core/domain"
	"github.com/Shockvaluemedia/directfanz-project-sub008/internal/core/ports"
	apperrors "github.com/Shockvaluemedia/directfanz-project-sub008/pkg/errors"

	"github.com/gin-gonic/gin"
)

type StreamHandler struct {
	sessions ports.SessionService
	viewers  ports.ViewerService
}

func NewStreamHandler(sessions ports.SessionService, viewers ports.ViewerService) *StreamHandler {
	return &StreamHandler{
		sessions: sessions,
		viewers:  viewers,
	}
}

func (h *StreamHandler) SetupRoutes(api *gin.RouterGroup) {
	api.POST("/streams", h.CreateStream)
	api.GET("/streams", h.ListStreams)
	api.GET("/streams/:id", h.GetStream)
	api.POST("/streams/:id/start", h.StartStream)
	api.POST("/streams/:id/end", h.EndStream)
}

func callerID(c *gin.Context) (domain.UserID, bool) {
	val, exists := c.Get("user_id")
	if !exists {
		return "", false
	}
	userID, ok := val.(domain.UserID)
	return userID, ok
}

func (h *StreamHandler) CreateStream(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	var req struct {
		Title            string     `json:"title" binding:"required,min=1,max=140"`
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
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	visibility := domain.VisibilityPublic
	if req.Visibility == string(domain.VisibilityPrivate) {
		visibility = domain.VisibilityPrivate
	}
	moderation := domain.ModerationOff
	if req.Moderation == string(domain.ModerationKeyword) {
		moderation = domain.ModerationKeyword
	}

	session, err := h.sessions.CreateSession(c.Request.Context(), userID, domain.SessionSpec{
		Title:            req.Title,
		Category:         req.Category,
		Visibility:       visibility,
		ChatEnabled:      req.ChatEnabled,
		DonationsEnabled: req.DonationsEnabled,
		RecordingEnabled: req.RecordingEnabled,
		SubscriberOnly:   req.SubscriberOnly,
		Moderation:       moderation,
		AllowedTiers:     req.AllowedTiers,
		ScheduledAt:      req.ScheduledAt,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"session":    session,
		"ingest_url": h.sessions.IngestURL(session),
	})
}

func (h *StreamHandler) ListStreams(c *gin.Context) {
	sessions, err := h.sessions.ListActive(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sessions": sessions,
	})
}

func (h *StreamHandler) GetStream(c *gin.Context) {
	sessionID := domain.SessionID(c.Param("id"))

	session, err := h.sessions.Get(c.Request.Context(), sessionID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session": session,
	})
}

func (h *StreamHandler) StartStream(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	sessionID := domain.SessionID(c.Param("id"))
	if err := h.sessions.StartSession(c.Request.Context(), sessionID, userID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "started"})
}

func (h *StreamHandler) EndStream(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	sessionID := domain.SessionID(c.Param("id"))
	if err := h.sessions.EndSession(c.Request.Context(), sessionID, userID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ended"})
}

// respondError maps domain sentinels to the transport error taxonomy.
func respondError(c *gin.Context, err error) {
	appErr := toAppError(err)
	c.JSON(appErr.HTTPStatus, gin.H{
		"error":   string(appErr.Code),
		"message": appErr.Message,
	})
}

func toAppError(err error) *apperrors.AppError {
	if appErr := apperrors.GetAppError(err); appErr != nil {
		return appErr
	}

	switch {
	case stderrors.Is(err, domain.ErrUnauthenticated):
		return apperrors.NewUnauthenticated(err.Error())
	case stderrors.Is(err, domain.ErrNotOwner):
		return apperrors.New(apperrors.ErrCodeNotOwner, err.Error(), http.StatusForbidden)
	case stderrors.Is(err, domain.ErrPermissionDenied):
		return apperrors.NewPermissionDenied(err.Error())
	case stderrors.Is(err, domain.ErrAccessDenied), stderrors.Is(err, domain.ErrNotParticipant):
		return apperrors.New(apperrors.ErrCodeAccessDenied, err.Error(), http.StatusForbidden)
	case stderrors.Is(err, domain.ErrSessionNotFound):
		return apperrors.NewNotFound("session")
	case stderrors.Is(err, domain.ErrViewerNotFound):
		return apperrors.NewNotFound("viewer")
	case stderrors.Is(err, domain.ErrDonationNotFound):
		return apperrors.NewNotFound("donation")
	case stderrors.Is(err, domain.ErrInvalidState), stderrors.Is(err, domain.ErrStreamNotLive):
		return apperrors.NewInvalidState(err.Error())
	case stderrors.Is(err, domain.ErrInvalidInput), stderrors.Is(err, domain.ErrChatDisabled):
		return apperrors.NewInvalidInput(err.Error())
	case stderrors.Is(err, domain.ErrRateLimited):
		return apperrors.NewRateLimited()
	case stderrors.Is(err, domain.ErrPaymentFailed):
		return apperrors.NewPaymentFailed(err.Error())
	default:
		return apperrors.NewInternal("internal server error")
	}
}
