package health

import (
	"sync/atomic"

	"github.com/pkg/errors"
)

// Checker reports whether one component of the service is able to serve.
type Checker interface {
	Check() error
}

// StartupCompleteChecker fails until the service finishes its startup
// sequence, so load balancers hold traffic during cache hydration. Health
// probes may race MarkComplete, so the flag is atomic.
type StartupCompleteChecker struct {
	complete atomic.Bool
}

func NewStartupCompleteChecker() *StartupCompleteChecker {
	return &StartupCompleteChecker{}
}

func (c *StartupCompleteChecker) Check() error {
	if !c.complete.Load() {
		return errors.New("startup not complete")
	}
	return nil
}

func (c *StartupCompleteChecker) MarkComplete() {
	c.complete.Store(true)
}
