//go:build linux

package reactor

import "golang.org/x/sys/unix"

// epollPoller implements poller on top of golang.org/x/sys/unix's epoll
// bindings, edge-triggered (EPOLLET) per spec.
type epollPoller struct {
	fd int
}

func newPoller() (poller, error) {
	fd, err := unix.EpollCreate1(0)
	if err != nil {
		return nil, err
	}
	return &epollPoller{fd: fd}, nil
}

func (p *epollPoller) add(fd int) error {
	ev := unix.EpollEvent{
		Events: unix.EPOLLIN | unix.EPOLLET,
		Fd:     int32(fd),
	}
	return unix.EpollCtl(p.fd, unix.EPOLL_CTL_ADD, fd, &ev)
}

func (p *epollPoller) remove(fd int) {
	// EPOLL_CTL_DEL with a nil event is accepted by modern kernels; any
	// error here just means the fd was already gone from the set.
	_ = unix.EpollCtl(p.fd, unix.EPOLL_CTL_DEL, fd, nil)
}

func (p *epollPoller) wait(timeoutMS int) ([]event, error) {
	raw := make([]unix.EpollEvent, 64)
	n, err := unix.EpollWait(p.fd, raw, timeoutMS)
	if err != nil {
		if err == unix.EINTR {
			return nil, nil
		}
		return nil, err
	}

	events := make([]event, 0, n)
	for i := 0; i < n; i++ {
		e := raw[i]
		events = append(events, event{
			fd:       int(e.Fd),
			readable: e.Events&unix.EPOLLIN != 0,
			hangup:   e.Events&(unix.EPOLLHUP|unix.EPOLLERR) != 0,
		})
	}
	return events, nil
}

func (p *epollPoller) close() error {
	return unix.Close(p.fd)
}
