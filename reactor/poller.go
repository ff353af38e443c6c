package reactor

// event is one readiness notification: fd became readable, or was
// closed/errored by the peer.
type event struct {
	fd       int
	readable bool
	hangup   bool
}

// poller is the readiness-notification facility the reactor drives its
// accept/read loop with. The only implementation shipped is epoll on
// Linux; other platforms get a stub that errors at construction time,
// matching the teacher's own practice of gating unix-only code by build
// tag rather than emulating it elsewhere.
type poller interface {
	// add registers fd for edge-triggered readable notifications.
	add(fd int) error
	// remove unregisters fd; safe to call on an fd already removed.
	remove(fd int)
	// wait blocks up to timeoutMS milliseconds and returns ready events.
	wait(timeoutMS int) ([]event, error)
	close() error
}
