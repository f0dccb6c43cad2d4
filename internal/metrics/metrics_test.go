package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuth_Observe(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewAuth(reg)
	require.NoError(t, err)

	m.Observe("login", OutcomeSuccess)
	m.Observe("login", OutcomeSuccess)
	m.Observe("login", OutcomeFailure)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ops.WithLabelValues("login", OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ops.WithLabelValues("login", OutcomeFailure)))

	_, err = NewAuth(reg)
	assert.Error(t, err, "double registration must fail")
}

func TestAuth_NilIsNoop(t *testing.T) {
	var m *Auth
	assert.NotPanics(t, func() { m.Observe("login", OutcomeSuccess) })
}
