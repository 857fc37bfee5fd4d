package monitoring

import (
	"github.com/Shockvaluemedia/directfanz-project-sub008/internal/core/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusCollector implements services.Collector.
type PrometheusCollector struct {
	sessionsActive prometheus.Gauge
	sessionViewers *prometheus.GaugeVec

	chatMessagesTotal *prometheus.CounterVec
	donationsTotal    prometheus.Counter
	donationAmount    prometheus.Histogram

	recordingFailuresTotal prometheus.Counter
}

func NewPrometheusCollector() *PrometheusCollector {
	return &PrometheusCollector{
		sessionsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "coordinator_sessions_active",
			Help: "Number of non-terminal broadcast sessions",
		}),

		sessionViewers: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "coordinator_session_viewers",
			Help: "Current viewer count per session",
		}, []string{"session_id"}),

		chatMessagesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "coordinator_chat_messages_total",
			Help: "Accepted chat messages",
		}, []string{"moderated"}),

		donationsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "coordinator_donations_total",
			Help: "Completed donations",
		}),

		donationAmount: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "coordinator_donation_amount",
			Help:    "Completed donation amounts",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 500, 1000, 5000, 10000},
		}),

		recordingFailuresTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "coordinator_recording_failures_total",
			Help: "Recording processes that failed or died",
		}),
	}
}

func (p *PrometheusCollector) SetActiveSessions(count int) {
	p.sessionsActive.Set(float64(count))
}

func (p *PrometheusCollector) SetSessionViewers(sessionID domain.SessionID, count int) {
	p.sessionViewers.WithLabelValues(string(sessionID)).Set(float64(count))
}

func (p *PrometheusCollector) RemoveSessionViewers(sessionID domain.SessionID) {
	p.sessionViewers.DeleteLabelValues(string(sessionID))
}

func (p *PrometheusCollector) IncChatMessages(moderated bool) {
	label := "false"
	if moderated {
		label = "true"
	}
	p.chatMessagesTotal.WithLabelValues(label).Inc()
}

func (p *PrometheusCollector) ObserveDonation(amount float64) {
	p.donationsTotal.Inc()
	p.donationAmount.Observe(amount)
}

func (p *PrometheusCollector) IncRecordingFailures() {
	p.recordingFailuresTotal.Inc()
}
