package computer

import "github.com/entrhq/pilot/pkg/logging"

// bestEffort runs fn and logs a failure instead of returning it. It is the only
// place in the package where driver errors are dropped.
func bestEffort(log *logging.Logger, what string, fn func() error) {
	if err := fn(); err != nil {
		log.Warnf("%s failed (ignored): %v", what, err)
		bestEffortFailures.WithLabelValues(what).Inc()
	}
}
