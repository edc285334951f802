package graceful

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
)

func MakeSigintChan() chan os.Signal {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	return sigCh
}

// OnShutdown blocks until SIGINT/SIGTERM, runs the cleanup funcs in order,
// then calls cancel. Cleanup funcs must not block indefinitely.
func OnShutdown(cancel func(), logger *logrus.Logger, cleanup ...func()) {
	sig := <-MakeSigintChan()
	logger.Infof("received exit signal: %v", sig)
	for _, fn := range cleanup {
		fn()
	}
	cancel()
}
