//go:build windows

package cli

import "epubgrep/internal/scan"

// notifyStatus is a no-op on Windows, which has no SIGQUIT.
func notifyStatus(state *scan.State, dump func(scan.Snapshot)) (stop func()) {
	return func() {}
}
