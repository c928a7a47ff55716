package dictprotocol

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMetricsRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	require.NotNil(t, m)

	// Vec families only appear once a label set has been used.
	m.observeCommand("DEFINE")
	m.observeReply(150)
	m.observeDone("DEFINE", time.Now(), newEOFError(nil))

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	require.True(t, names["dict_client_commands_total"])
	require.True(t, names["dict_client_replies_total"])
	require.True(t, names["dict_client_errors_total"])
	require.True(t, names["dict_client_command_duration_seconds"])
}

func TestMetricsErrorKinds(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.observeDone("MATCH", time.Now(), newStatusError(KindInvalidStrategy, Status{Code: 551}))
	m.observeDone("MATCH", time.Now(), errors.New("boom"))
	m.observeDone("MATCH", time.Now(), nil)

	require.Equal(t, float64(1), testutil.ToFloat64(m.Errors.WithLabelValues("invalid strategy")))
	require.Equal(t, float64(1), testutil.ToFloat64(m.Errors.WithLabelValues("transport")))
	require.Equal(t, 1, testutil.CollectAndCount(m.Duration))
}

func TestNilMetricsAreNoop(t *testing.T) {
	var m *Metrics
	m.observeCommand("QUIT")
	m.observeReply(221)
	m.observeDone("QUIT", time.Now(), nil)
}
