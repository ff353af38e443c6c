//go:build !windows

package reactor

import (
	"fmt"
	"net"

	"golang.org/x/sys/unix"
)

// listenSocket creates a non-blocking listening socket bound to host:port with
// SO_REUSEADDR set and a backlog of 128, mirroring the original server's
// socket setup.
func listenSocket(host string, port int) (int, error) {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM, 0)
	if err != nil {
		return -1, fmt.Errorf("reactor: socket: %w", err)
	}

	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("reactor: setsockopt: %w", err)
	}

	addr, err := resolveIPv4(host)
	if err != nil {
		unix.Close(fd)
		return -1, err
	}

	sa := &unix.SockaddrInet4{Port: port, Addr: addr}
	if err := unix.Bind(fd, sa); err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("reactor: bind: %w", err)
	}

	if err := unix.Listen(fd, 128); err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("reactor: listen: %w", err)
	}

	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("reactor: set non-blocking: %w", err)
	}

	return fd, nil
}

func resolveIPv4(host string) ([4]byte, error) {
	var out [4]byte
	if host == "" || host == "0.0.0.0" {
		return out, nil
	}
	ip := net.ParseIP(host).To4()
	if ip == nil {
		return out, fmt.Errorf("reactor: invalid host address %q", host)
	}
	copy(out[:], ip)
	return out, nil
}

// acceptConn accepts one pending connection off listenFd, sets it
// non-blocking, and returns its fd and peer address string.
func acceptConn(listenFd int) (int, string, error) {
	connFd, sa, err := unix.Accept(listenFd)
	if err != nil {
		return -1, "", err
	}
	if err := unix.SetNonblock(connFd, true); err != nil {
		unix.Close(connFd)
		return -1, "", err
	}
	return connFd, peerAddr(sa), nil
}

func peerAddr(sa unix.Sockaddr) string {
	if v4, ok := sa.(*unix.SockaddrInet4); ok {
		ip := net.IP(v4.Addr[:])
		return fmt.Sprintf("%s:%d", ip.String(), v4.Port)
	}
	return ""
}

// readFD reads available bytes off fd into buf. wouldBlock is true when
// the non-blocking read found nothing ready yet (EAGAIN/EWOULDBLOCK); any
// other error, or n==0 with no error, means the peer closed.
func readFD(fd int, buf []byte) (n int, wouldBlock bool, err error) {
	n, err = unix.Read(fd, buf)
	if err != nil {
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			return 0, true, nil
		}
		return 0, false, err
	}
	return n, false, nil
}

// writeFD writes the entirety of buf to fd, blocking across repeated
// EAGAIN since responses are short and this is the demonstrator's final
// write before close.
func writeFD(fd int, buf []byte) error {
	for len(buf) > 0 {
		n, err := unix.Write(fd, buf)
		if err != nil {
			if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
				continue
			}
			return err
		}
		buf = buf[n:]
	}
	return nil
}

func closeFD(fd int) {
	unix.Close(fd)
}
