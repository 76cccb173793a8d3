package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	QRScans = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "menuqr_qr_scans_total",
		Help: "Public QR redirects that hit a known slug",
	})
	QRRegenerations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "menuqr_qr_regenerations_total",
		Help: "QR artifacts rendered again from their record",
	}, []string{"reason"})
	Verifications = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "menuqr_verifications_total",
		Help: "Profile verification confirmations by channel and outcome",
	}, []string{"type", "outcome"})
	PasswordResets = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "menuqr_password_reset_steps_total",
		Help: "Password reset steps by outcome",
	}, []string{"step", "outcome"})
	Notifications = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "menuqr_notifications_total",
		Help: "Outbound email/SMS sends",
	}, []string{"channel", "outcome"})
)

func init() {
	prometheus.MustRegister(QRScans, QRRegenerations, Verifications, PasswordResets, Notifications)
}

// Outcome collapses an error into a low-cardinality label.
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// Handler returns an http.Handler for Prometheus scraping
func Handler() http.Handler {
	return promhttp.Handler()
}
