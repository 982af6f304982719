package artnet

import (
	"context"
	"fmt"
	"net"

	"golang.org/x/net/ipv4"
)

//listenSocket opens the UDP socket with address reuse and broadcast enabled
func listenSocket(addr *net.UDPAddr) (*net.UDPConn, *ipv4.PacketConn, error) {
	lc := net.ListenConfig{Control: controlSocket}
	pc, err := lc.ListenPacket(context.Background(), "udp4", addr.String())
	if err != nil {
		return nil, nil, fmt.Errorf("could not listen on %v: %w", addr, err)
	}
	conn := pc.(*net.UDPConn)
	socket := ipv4.NewPacketConn(conn)
	//the control message is only informative, not every platform supports it
	socket.SetControlMessage(ipv4.FlagDst|ipv4.FlagInterface, true)
	return conn, socket, nil
}

//open creates the socket and swaps it in, unless the receiver was closed in the meantime
func (r *ReceiverSocket) open() error {
	conn, socket, err := listenSocket(r.addr)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped() {
		conn.Close()
		return fmt.Errorf("receiver is closed")
	}
	r.conn, r.socket = conn, socket
	return nil
}
