package artnet

import (
	"bytes"
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/net/ipv4"
)

func newLoopbackReceiver(t *testing.T) (*ReceiverSocket, *net.UDPConn) {
	t.Helper()
	r, err := NewReceiverSocket("127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	conn, err := net.DialUDP("udp4", nil, r.LocalAddr())
	if err != nil {
		r.Close()
		t.Fatal(err)
	}
	t.Cleanup(func() {
		conn.Close()
		r.Close()
	})
	return r, conn
}

func send(t *testing.T, conn *net.UDPConn, b []byte) {
	t.Helper()
	if _, err := conn.Write(b); err != nil {
		t.Fatal(err)
	}
}

func TestReceiverDmx(t *testing.T) {
	r, conn := newLoopbackReceiver(t)
	type got struct {
		sequ     byte
		universe uint16
		data     []byte
	}
	ch := make(chan got, 1)
	r.SetOnDmxCallback(func(p DataPacket) {
		ch <- got{p.Sequence(), p.Universe(), append([]byte(nil), p.Data()...)}
	})
	r.Start()

	send(t, conn, rawDmx(7, 0, 0x0102, []byte{0, 255, 0, 0}))
	select {
	case g := <-ch:
		if g.sequ != 7 || g.universe != 0x0102 || !bytes.Equal(g.data, []byte{0, 255, 0, 0}) {
			t.Errorf("Wrong output! Was: %v; Should've been: %v", g, got{7, 0x0102, []byte{0, 255, 0, 0}})
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no packet received")
	}
}

func TestReceiverIgnoresGarbage(t *testing.T) {
	r, conn := newLoopbackReceiver(t)
	ch := make(chan DataPacket, 1)
	r.SetOnDmxCallback(func(p DataPacket) { ch <- p.copy() })
	r.Start()

	bad := rawDmx(1, 0, 0, []byte{1, 2})
	bad[11] = 0x0d
	for _, b := range [][]byte{[]byte("hello"), bad, rawDmx(1, 0, 0, nil)[:15]} {
		send(t, conn, b)
		time.Sleep(20 * time.Millisecond)
	}
	send(t, conn, rawDmx(2, 0, 0, []byte{3, 4}))
	select {
	case p := <-ch:
		if p.Sequence() != 2 {
			t.Errorf("Wrong output! Was: %v; Should've been: %v", p.Sequence(), 2)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no packet received")
	}
	if s := r.Stats(); s.Malformed != 3 {
		t.Errorf("Wrong output! Was: %v; Should've been: %v", s.Malformed, 3)
	}
}

func TestReceiverConfigForwarding(t *testing.T) {
	r, conn := newLoopbackReceiver(t)
	ch := make(chan []byte, 1)
	r.SetConfigHandler(OpDmxSettings, func(payload []byte) int {
		ch <- append([]byte(nil), payload...)
		return -2
	})
	var called atomic.Bool
	r.SetConfigHandler(OpWifiAPSettings, func(payload []byte) int {
		called.Store(true)
		return 0
	})
	r.Start()

	//without payload the handler is not called
	send(t, conn, NewConfigPacket(OpWifiAPSettings, nil))
	time.Sleep(20 * time.Millisecond)
	send(t, conn, NewConfigPacket(OpDmxSettings, []byte{5, 0, 2, 0}))
	select {
	case payload := <-ch:
		if !bytes.Equal(payload, []byte{5, 0, 2, 0}) {
			t.Errorf("Wrong output! Was: %v; Should've been: %v", payload, []byte{5, 0, 2, 0})
		}
	case <-time.After(2 * time.Second):
		t.Fatal("handler was not called")
	}
	if called.Load() {
		t.Error("handler was called for an empty payload")
	}
}

func TestReceiverDropsQueuedPackets(t *testing.T) {
	r, conn := newLoopbackReceiver(t)
	release := make(chan struct{})
	seen := make(chan byte, 10)
	r.SetOnDmxCallback(func(p DataPacket) {
		seen <- p.Sequence()
		if p.Sequence() == 1 {
			<-release
		}
	})
	r.Start()

	send(t, conn, rawDmx(1, 0, 0, nil))
	select {
	case <-seen:
	case <-time.After(2 * time.Second):
		t.Fatal("no packet received")
	}
	for i := byte(2); i <= 6; i++ {
		send(t, conn, rawDmx(i, 0, 0, nil))
	}
	time.Sleep(50 * time.Millisecond)
	close(release)

	deadline := time.Now().Add(2 * time.Second)
	for r.Stats().Dropped < 5 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if s := r.Stats(); s.Dropped != 5 || s.Received != 1 {
		t.Errorf("Wrong output! Was: %+v; Should've been: 5 dropped, 1 received", s)
	}
	select {
	case sequ := <-seen:
		t.Errorf("queued packet %v was handled", sequ)
	default:
	}
}

func TestReceiverClose(t *testing.T) {
	r, err := NewReceiverSocket("127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	r.Start()
	done := make(chan struct{})
	go func() {
		r.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not return")
	}
}

func TestReceiverRebuildsSocketAfterDrainError(t *testing.T) {
	r, conn := newLoopbackReceiver(t)
	var failed atomic.Bool
	r.drain = func(c *net.UDPConn, p *ipv4.PacketConn, buf []byte) (int, error) {
		if failed.CompareAndSwap(false, true) {
			return 0, errors.New("recvfrom failed")
		}
		return drainSocket(c, p, buf)
	}
	ch := make(chan byte, 10)
	r.SetOnDmxCallback(func(p DataPacket) {
		ch <- p.Sequence()
	})
	r.Start()

	send(t, conn, rawDmx(1, 0, 0, []byte{0, 1, 2, 3}))
	deadline := time.Now().Add(3 * time.Second)
	for r.Stats().Restarts == 0 {
		if time.Now().After(deadline) {
			t.Fatal("socket was not rebuilt")
		}
		time.Sleep(10 * time.Millisecond)
	}
	if sequ := <-ch; sequ != 1 {
		t.Errorf("Wrong output! Was: %v; Should've been: %v", sequ, 1)
	}

	send(t, conn, rawDmx(2, 0, 0, []byte{0, 1, 2, 3}))
	select {
	case sequ := <-ch:
		if sequ != 2 {
			t.Errorf("Wrong output! Was: %v; Should've been: %v", sequ, 2)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no packet received on the rebuilt socket")
	}
	if n := r.Stats().Restarts; n != 1 {
		t.Errorf("Wrong number of restarts! Was: %v; Should've been: %v", n, 1)
	}
}
