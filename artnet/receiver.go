package artnet

import (
	"net"
	"sync"
	"sync/atomic"

	log "github.com/sirupsen/logrus"
	"golang.org/x/net/ipv4"
)

var logger = log.WithField("component", "artnet")

//ConfigHandler gets the bytes after the opcode of a settings packet. The returned status is
//only logged; everything but 0 counts as failure.
type ConfigHandler func(payload []byte) int

//Stats counts what the receiver did with the datagrams it got
type Stats struct {
	//Received datagrams that were processed
	Received uint64
	//Dropped datagrams that queued up while a datagram was processed and were discarded
	Dropped uint64
	//Malformed datagrams that were no valid Art-Net
	Malformed uint64
	//Restarts of the socket after receive errors
	Restarts uint64
}

//ReceiverSocket listens for Art-Net packets on one UDP socket. After a packet was handled,
//everything that arrived in the meantime is discarded, so only the latest state is rendered
//if the node can not keep up.
type ReceiverSocket struct {
	addr         *net.UDPAddr
	mu           sync.Mutex //guards conn and socket, they are swapped on restarts
	conn         *net.UDPConn
	socket       *ipv4.PacketConn
	stopListener chan struct{}
	done         chan struct{}
	started      atomic.Bool
	//onDmxCallback gets called for every valid DMX packet, in the listener goroutine
	onDmxCallback  func(p DataPacket)
	configHandlers map[OpCode]ConfigHandler
	//drain discards the queued datagrams after each packet
	drain func(conn *net.UDPConn, socket *ipv4.PacketConn, buf []byte) (int, error)

	received  atomic.Uint64
	dropped   atomic.Uint64
	malformed atomic.Uint64
	restarts  atomic.Uint64
}

//NewReceiverSocket opens the UDP socket. bind is an address like "192.168.1.5:6454"; the
//port defaults to 6454 and an empty string listens on all interfaces.
//Set the callbacks and call Start afterwards.
func NewReceiverSocket(bind string) (*ReceiverSocket, error) {
	addr, err := net.ResolveUDPAddr("udp4", withDefaultPort(bind))
	if err != nil {
		return nil, err
	}
	r := &ReceiverSocket{
		addr:           addr,
		stopListener:   make(chan struct{}),
		done:           make(chan struct{}),
		configHandlers: make(map[OpCode]ConfigHandler),
		drain:          drainSocket,
	}
	if err := r.open(); err != nil {
		return nil, err
	}
	//on restarts the same port has to be used again, even if port 0 was requested
	r.addr = r.conn.LocalAddr().(*net.UDPAddr)
	return r, nil
}

//SetOnDmxCallback sets the function that gets every valid DMX packet. The packet is only
//valid during the call.
func (r *ReceiverSocket) SetOnDmxCallback(callback func(p DataPacket)) {
	r.onDmxCallback = callback
}

//SetConfigHandler registers the handler for one of the settings opcodes
func (r *ReceiverSocket) SetConfigHandler(op OpCode, handler ConfigHandler) {
	r.configHandlers[op] = handler
}

//LocalAddr returns the address the socket is bound to
func (r *ReceiverSocket) LocalAddr() *net.UDPAddr {
	return r.addr
}

//Start starts the listener goroutine. Calling Start again has no effect.
func (r *ReceiverSocket) Start() {
	if !r.started.CompareAndSwap(false, true) {
		return
	}
	logger.WithField("address", r.addr).Info("listening for Art-Net")
	r.startListener()
}

//Close stops the listener, closes the socket and waits until the listener has finished.
//Do not call Close twice!
func (r *ReceiverSocket) Close() {
	close(r.stopListener)
	r.mu.Lock()
	if r.conn != nil {
		r.conn.Close()
	}
	r.mu.Unlock()
	if r.started.Load() {
		<-r.done
	}
}

//Stats returns the current counters
func (r *ReceiverSocket) Stats() Stats {
	return Stats{
		Received:  r.received.Load(),
		Dropped:   r.dropped.Load(),
		Malformed: r.malformed.Load(),
		Restarts:  r.restarts.Load(),
	}
}
