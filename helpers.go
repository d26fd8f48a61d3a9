package evote

import (
	"sync/atomic"

	"github.com/rs/zerolog"
)

// The purpose of this helper is to make sure
// we don't have any race conditions when
// multiple goroutines are used by following
// https://go.dev/ref/mem method
// espacially https://pkg.go.dev/sync/atomic package

// getState permits to retrieve auth state
func (a *AuthController) getState() AuthState {
	addr := (*uint32)(&a.state)
	return AuthState(atomic.LoadUint32(addr))
}

// setState permits to set auth state and its gauge
func (a *AuthController) setState(state AuthState) {
	addr := (*uint32)(&a.state)
	atomic.StoreUint32(addr, uint32(state))
	a.metrics.setAuthStateGauge(state)
}

// getState permits to retrieve vote state
func (v *VoteController) getState() VoteState {
	addr := (*uint32)(&v.state)
	return VoteState(atomic.LoadUint32(addr))
}

// setState permits to set vote state and its gauge.
// Caller must hold v.mu
func (v *VoteController) setState(state VoteState) {
	addr := (*uint32)(&v.state)
	atomic.StoreUint32(addr, uint32(state))
	v.metrics.setVoteStateGauge(state)
}

// nopLoggerIfNil returns a disabled logger when none is provided
func nopLoggerIfNil(logger *zerolog.Logger) *zerolog.Logger {
	if logger != nil {
		return logger
	}
	nop := zerolog.Nop()
	return &nop
}
