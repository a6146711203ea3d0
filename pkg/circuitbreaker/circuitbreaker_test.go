package circuitbreaker

import (
	"errors"
	"testing"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/require"
)

func TestCircuitBreakerTrips(t *testing.T) {
	cb := NewCircuitBreaker("test")
	failure := errors.New("boom")

	for i := 0; i <= MaxNumOfFailingRequests; i++ {
		_, err := cb.Execute(func() (interface{}, error) {
			return nil, failure
		})
		require.ErrorIs(t, err, failure)
	}
	require.Equal(t, gobreaker.StateOpen, cb.State())

	_, err := cb.Execute(func() (interface{}, error) {
		return "unreachable", nil
	})
	require.ErrorIs(t, err, gobreaker.ErrOpenState)
}

func TestCircuitBreakerToleratesSparseFailures(t *testing.T) {
	cb := NewCircuitBreaker("test")

	for i := 0; i < 3*MaxNumOfFailingRequests; i++ {
		_, _ = cb.Execute(func() (interface{}, error) {
			if i%3 == 0 {
				return nil, errors.New("boom")
			}
			return nil, nil
		})
	}
	require.Equal(t, gobreaker.StateClosed, cb.State())
}
