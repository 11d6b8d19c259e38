package app

import (
	"context"
	"os"
	"os/signal"
	"time"
)

// SignalHandler allows injectable signal handling for testing
type SignalHandler interface {
	Notify(c chan<- os.Signal, sig ...os.Signal)
	Stop(c chan<- os.Signal)
}

// TimeoutProvider allows injectable timeout creation for testing
type TimeoutProvider interface {
	WithTimeout(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc)
}

// ServerRunner abstracts the HTTP server so tests can replace it
type ServerRunner interface {
	Start() error
	Shutdown(ctx context.Context) error
}

type osSignalHandler struct{}

func (osSignalHandler) Notify(c chan<- os.Signal, sig ...os.Signal) { signal.Notify(c, sig...) }

func (osSignalHandler) Stop(c chan<- os.Signal) { signal.Stop(c) }

type standardTimeoutProvider struct{}

func (standardTimeoutProvider) WithTimeout(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, timeout)
}
