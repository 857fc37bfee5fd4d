package services

import (
	"sync"

	"github.com/Shockvaluemedia/directfanz-project-sub008/internal/core/domain"
)

// Collector receives metric observations, typically backed by Prometheus.
type Collector interface {
	SetActiveSessions(count int)
	SetSessionViewers(sessionID domain.SessionID, count int)
	RemoveSessionViewers(sessionID domain.SessionID)
	IncChatMessages(moderated bool)
	ObserveDonation(amount float64)
	IncRecordingFailures()
}

// MetricsService tracks per-session aggregates and forwards observations to
// an optional collector.
type MetricsService struct {
	mu sync.Mutex

	activeSessions map[domain.SessionID]struct{}
	viewerCounts   map[domain.SessionID]int

	collector Collector
}

func NewMetricsService(collector Collector) *MetricsService {
	return &MetricsService{
		activeSessions: make(map[domain.SessionID]struct{}),
		viewerCounts:   make(map[domain.SessionID]int),
		collector:      collector,
	}
}

func (m *MetricsService) SessionCreated(sessionID domain.SessionID) {
	m.mu.Lock()
	m.activeSessions[sessionID] = struct{}{}
	active := len(m.activeSessions)
	m.mu.Unlock()
	if m.collector != nil {
		m.collector.SetActiveSessions(active)
	}
}

func (m *MetricsService) SessionLive(sessionID domain.SessionID) {
	m.mu.Lock()
	m.activeSessions[sessionID] = struct{}{}
	active := len(m.activeSessions)
	m.mu.Unlock()
	if m.collector != nil {
		m.collector.SetActiveSessions(active)
	}
}

func (m *MetricsService) SessionEnded(sessionID domain.SessionID) {
	m.mu.Lock()
	delete(m.activeSessions, sessionID)
	delete(m.viewerCounts, sessionID)
	active := len(m.activeSessions)
	m.mu.Unlock()
	if m.collector != nil {
		m.collector.SetActiveSessions(active)
		m.collector.RemoveSessionViewers(sessionID)
	}
}

func (m *MetricsService) SessionErrored(sessionID domain.SessionID) {
	// Errored sessions proceed to ended; counts settle in SessionEnded.
}

func (m *MetricsService) ViewerJoined(sessionID domain.SessionID, count int) {
	m.setViewers(sessionID, count)
}

func (m *MetricsService) ViewerLeft(sessionID domain.SessionID, count int) {
	m.setViewers(sessionID, count)
}

func (m *MetricsService) setViewers(sessionID domain.SessionID, count int) {
	m.mu.Lock()
	m.viewerCounts[sessionID] = count
	m.mu.Unlock()
	if m.collector != nil {
		m.collector.SetSessionViewers(sessionID, count)
	}
}

func (m *MetricsService) ChatMessageAccepted(sessionID domain.SessionID, moderated bool) {
	if m.collector != nil {
		m.collector.IncChatMessages(moderated)
	}
}

func (m *MetricsService) DonationCompleted(sessionID domain.SessionID, amount float64) {
	if m.collector != nil {
		m.collector.ObserveDonation(amount)
	}
}

func (m *MetricsService) RecordingFailed(sessionID domain.SessionID) {
	if m.collector != nil {
		m.collector.IncRecordingFailures()
	}
}

// Viewers returns the last observed viewer count for a session.
func (m *MetricsService) Viewers(sessionID domain.SessionID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.viewerCounts[sessionID]
}

// ActiveSessions returns the number of non-terminal sessions observed.
func (m *MetricsService) ActiveSessions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.activeSessions)
}
