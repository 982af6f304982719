//go:build unix

package artnet

import (
	"errors"
	"net"
	"syscall"

	"golang.org/x/net/ipv4"
	"golang.org/x/sys/unix"
)

//controlSocket allows several Art-Net programs on one host to share the port and allows
//sending to broadcast addresses
func controlSocket(network, address string, c syscall.RawConn) error {
	var sockErr error
	err := c.Control(func(fd uintptr) {
		if sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); sockErr != nil {
			return
		}
		sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_BROADCAST, 1)
	})
	if err != nil {
		return err
	}
	return sockErr
}

//drainSocket reads and discards everything that is queued on the socket without blocking.
//It returns the number of discarded datagrams.
func drainSocket(conn *net.UDPConn, _ *ipv4.PacketConn, buf []byte) (int, error) {
	raw, err := conn.SyscallConn()
	if err != nil {
		return 0, err
	}
	dropped := 0
	var readErr error
	err = raw.Read(func(fd uintptr) bool {
		for {
			_, _, rerr := unix.Recvfrom(int(fd), buf, unix.MSG_DONTWAIT)
			switch {
			case rerr == nil:
				dropped++
			case errors.Is(rerr, unix.EINTR):
			case errors.Is(rerr, unix.EAGAIN), errors.Is(rerr, unix.EWOULDBLOCK):
				return true
			default:
				readErr = rerr
				return true
			}
		}
	})
	if err != nil {
		return dropped, err
	}
	return dropped, readErr
}
