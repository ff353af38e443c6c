//go:build !linux

package reactor

import "errors"

// newPoller reports an error on non-Linux platforms: the edge-triggered
// epoll readiness facility this reactor is built around has no portable
// equivalent here.
func newPoller() (poller, error) {
	return nil, errors.New("reactor: epoll readiness facility requires linux")
}
