//go:build !unix

package artnet

import (
	"net"
	"syscall"
	"time"

	"golang.org/x/net/ipv4"
)

const drainBatch = 8

func controlSocket(network, address string, c syscall.RawConn) error {
	return nil
}

//drainSocket reads and discards everything that is queued on the socket. Without
//non-blocking reads a short deadline is used instead.
func drainSocket(_ *net.UDPConn, p *ipv4.PacketConn, buf []byte) (int, error) {
	if err := p.SetReadDeadline(time.Now().Add(time.Millisecond)); err != nil {
		return 0, err
	}
	defer p.SetReadDeadline(time.Time{})

	msgs := make([]ipv4.Message, drainBatch)
	for i := range msgs {
		msgs[i].Buffers = [][]byte{buf}
	}
	dropped := 0
	for {
		n, err := p.ReadBatch(msgs, 0)
		if err != nil {
			if isTimeout(err) {
				return dropped, nil
			}
			return dropped, err
		}
		if n == 0 {
			return dropped, nil
		}
		dropped += n
	}
}
