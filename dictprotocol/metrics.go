package dictprotocol

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus metrics for DICT sessions.
type Metrics struct {
	Commands *prometheus.CounterVec
	Replies  *prometheus.CounterVec
	Errors   *prometheus.CounterVec
	Duration *prometheus.HistogramVec
}

// NewMetrics creates and registers all metrics with the provided registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	commands := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dict_client_commands_total",
		Help: "Total commands sent to the DICT server",
	}, []string{"command"})

	replies := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dict_client_replies_total",
		Help: "Total status replies received, by code",
	}, []string{"code"})

	errs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dict_client_errors_total",
		Help: "Total failed operations, by error kind",
	}, []string{"kind"})

	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dict_client_command_duration_seconds",
		Help:    "Time from sending a command to the end of its reply",
		Buckets: prometheus.DefBuckets,
	}, []string{"command"})

	reg.MustRegister(commands, replies, errs, duration)

	return &Metrics{
		Commands: commands,
		Replies:  replies,
		Errors:   errs,
		Duration: duration,
	}
}

func (m *Metrics) observeCommand(name string) {
	if m == nil {
		return
	}
	m.Commands.WithLabelValues(name).Inc()
}

func (m *Metrics) observeReply(code int) {
	if m == nil {
		return
	}
	m.Replies.WithLabelValues(strconv.Itoa(code)).Inc()
}

func (m *Metrics) observeDone(name string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.Duration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	if err == nil {
		return
	}
	kind := "transport"
	if k, ok := KindOf(err); ok {
		kind = k.String()
	}
	m.Errors.WithLabelValues(kind).Inc()
}
