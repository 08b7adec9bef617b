//go:build unix

package cli

import (
	"os"
	"os/signal"
	"syscall"

	"epubgrep/internal/scan"
)

// notifyStatus installs the SIGQUIT handler that dumps a progress snapshot
// while a scan is running. The dump is a read-only, out-of-band request: it
// never cancels or delays in-flight work. The returned stop function removes
// the handler.
func notifyStatus(state *scan.State, dump func(scan.Snapshot)) (stop func()) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGQUIT)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-ch:
				dump(state.Snapshot())
			case <-done:
				return
			}
		}
	}()

	return func() {
		signal.Stop(ch)
		close(done)
	}
}
