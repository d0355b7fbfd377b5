package infra_test

import (
	"errors"
	"testing"
	"time"

	"cuentacorriente/internal/infra"

	"github.com/stretchr/testify/assert"
)

var errSMTP = errors.New("dial tcp: connection refused")

func TestCircuitBreaker_AbreTrasFallosConsecutivos(t *testing.T) {
	cb := infra.NewCircuitBreaker(infra.CircuitBreakerConfig{
		Name: "test", FailureThreshold: 2, SuccessThreshold: 1, OpenTimeout: time.Hour,
	})

	assert.ErrorIs(t, cb.Execute(func() error { return errSMTP }), errSMTP)
	assert.Equal(t, infra.CBClosed, cb.State())
	assert.ErrorIs(t, cb.Execute(func() error { return errSMTP }), errSMTP)
	assert.Equal(t, infra.CBOpen, cb.State())

	called := false
	err := cb.Execute(func() error { called = true; return nil })
	assert.ErrorIs(t, err, infra.ErrCircuitOpen)
	assert.False(t, called, "open breaker must not call fn")
}

func TestCircuitBreaker_HalfOpenCierraConExito(t *testing.T) {
	cb := infra.NewCircuitBreaker(infra.CircuitBreakerConfig{
		FailureThreshold: 1, SuccessThreshold: 1, OpenTimeout: 10 * time.Millisecond,
	})
	_ = cb.Execute(func() error { return errSMTP })
	assert.Equal(t, infra.CBOpen, cb.State())

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, infra.CBHalfOpen, cb.State())

	assert.NoError(t, cb.Execute(func() error { return nil }))
	assert.Equal(t, infra.CBClosed, cb.State())
	assert.Equal(t, "closed", cb.State().String())
}
