package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	alertRaised = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "esc",
			Subsystem: "alert",
			Name:      "raised_total",
			Help:      "Accepted alert raises by severity.",
		},
		[]string{"severity"},
	)
	alertSuppressed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "esc",
			Subsystem: "alert",
			Name:      "suppressed_total",
			Help:      "Raises rejected for being below the current severity.",
		},
	)
	alertCleared = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "esc",
			Subsystem: "alert",
			Name:      "cleared_total",
			Help:      "Alert clear operations.",
		},
	)
	radioTxFrames = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "esc",
			Subsystem: "radio",
			Name:      "tx_frames_total",
			Help:      "Radio transmit attempts that reached hardware.",
		},
		[]string{"success"},
	)
	radioTxRejected = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "esc",
			Subsystem: "radio",
			Name:      "tx_rejected_total",
			Help:      "Transmits rejected by the guard before hardware.",
		},
	)
	radioRxFrames = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "esc",
			Subsystem: "radio",
			Name:      "rx_frames_total",
			Help:      "Radio receive attempts.",
		},
		[]string{"success"},
	)
	radioLinkUp = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "esc",
			Subsystem: "radio",
			Name:      "link_up",
			Help:      "Most recently polled link status (1 = up).",
		},
	)
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "esc",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "esc",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

// RegisterMetrics registers all container metrics with the default
// registry. Safe to call more than once.
func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			alertRaised, alertSuppressed, alertCleared,
			radioTxFrames, radioTxRejected, radioRxFrames, radioLinkUp,
			httpRequests, httpDuration,
		)
	})
}

// RecordAlertRaised counts an accepted raise at the given severity.
func RecordAlertRaised(severity string) {
	alertRaised.WithLabelValues(severity).Inc()
}

// RecordAlertSuppressed counts a rejected below-severity raise.
func RecordAlertSuppressed() {
	alertSuppressed.Inc()
}

// RecordAlertCleared counts a clear operation.
func RecordAlertCleared() {
	alertCleared.Inc()
}

// RecordRadioTx counts a transmit that reached the hardware hook.
func RecordRadioTx(ok bool) {
	radioTxFrames.WithLabelValues(strconv.FormatBool(ok)).Inc()
}

// RecordRadioTxRejected counts a transmit the guard rejected.
func RecordRadioTxRejected() {
	radioTxRejected.Inc()
}

// RecordRadioRx counts a receive attempt.
func RecordRadioRx(ok bool) {
	radioRxFrames.WithLabelValues(strconv.FormatBool(ok)).Inc()
}

// SetLinkUp records the most recent link poll result.
func SetLinkUp(up bool) {
	if up {
		radioLinkUp.Set(1)
	} else {
		radioLinkUp.Set(0)
	}
}

// RecordHTTPRequest records one served request.
func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	s := strconv.Itoa(status)
	httpRequests.WithLabelValues(method, path, s).Inc()
	httpDuration.WithLabelValues(method, path, s).Observe(duration.Seconds())
}
