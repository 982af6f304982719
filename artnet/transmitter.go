package artnet

import (
	"fmt"
	"net"
	"sync"
	"time"
)

//keepAlive is the interval in which the last DMX data is repeated
const keepAlive = time.Second

//Transmitter : This struct is for managing the transmitting of Art-Net data.
//It handles all channels and overwatches what universes are already used.
type Transmitter struct {
	mu        sync.Mutex
	universes map[uint16]chan []byte
	//master stores the master DataPacket for all universes. Its the last send out packet
	master       map[uint16]*DataPacket
	destinations map[uint16][]net.UDPAddr //holds the unicast or broadcast destinations
	bind         string                   //stores the string with the binding information
	conn         *net.UDPConn             //shared socket for settings packets
}

//NewTransmitter creates a new Transmitter object and returns it. bind is a string like
//"192.168.2.34:0" or "". It is used for binding the udp connections.
//The caller is responsible for closing!
func NewTransmitter(bind string) (*Transmitter, error) {
	tx := &Transmitter{
		universes:    make(map[uint16]chan []byte),
		master:       make(map[uint16]*DataPacket),
		destinations: make(map[uint16][]net.UDPAddr),
	}
	conn, err := tx.listen(bind)
	if err != nil {
		return nil, err
	}
	tx.bind = bind
	tx.conn = conn
	return tx, nil
}

func (t *Transmitter) listen(bind string) (*net.UDPConn, error) {
	addr, err := net.ResolveUDPAddr("udp4", bind)
	if err != nil {
		return nil, err
	}
	conn, err := net.ListenUDP("udp4", addr)
	if err != nil {
		return nil, err
	}
	raw, err := conn.SyscallConn()
	if err == nil {
		err = controlSocket("udp4", addr.String(), raw)
	}
	if err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

//Activate starts sending out DMX data on the given universe. It returns a channel that accepts
//byte slices and transmits them to the destinations. The last data is repeated every second.
//If you want to deactivate the universe, simply close the channel.
func (t *Transmitter) Activate(universe uint16) (chan<- []byte, error) {
	//check if the universe is already activated
	if t.IsActivated(universe) {
		return nil, fmt.Errorf("the given universe %v is already activated", universe)
	}
	serv, err := t.listen(t.bind)
	if err != nil {
		return nil, err
	}

	ch := make(chan []byte)
	stop := make(chan struct{})
	masterPacket := NewDataPacket()
	masterPacket.SetUniverse(universe)
	masterPacket.SetData(make([]byte, MaxDataLength))

	t.mu.Lock()
	t.universes[universe] = ch
	t.master[universe] = &masterPacket
	t.mu.Unlock()

	//make goroutine that sends out every second a "keep alive" packet
	go func() {
		ticker := time.NewTicker(keepAlive)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				t.sendOut(serv, universe)
			}
		}
	}()

	go func() {
		for data := range ch {
			t.mu.Lock()
			t.master[universe].SetData(data)
			t.mu.Unlock()
			t.sendOut(serv, universe)
		}
		//if the channel was closed, we deactivate the universe
		close(stop)
		t.mu.Lock()
		delete(t.master, universe)
		delete(t.universes, universe)
		t.mu.Unlock()
		serv.Close()
	}()

	return ch, nil
}

//IsActivated checks if the given universe was activated and returns true if this is the case
func (t *Transmitter) IsActivated(universe uint16) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.universes[universe]
	return ok
}

//GetActivated returns a slice with all activated universes
func (t *Transmitter) GetActivated() (list []uint16) {
	t.mu.Lock()
	defer t.mu.Unlock()
	list = make([]uint16, 0, len(t.universes))
	for univ := range t.universes {
		list = append(list, univ)
	}
	return
}

//SetDestinations sets a slice of destinations for the universe that is used for sending out.
//So multiple destinations are supported, broadcast addresses included. Note: the existing slice
//will be overwritten! A destination without port gets 6454. If there is a string that could not
//be converted to an address, this one is left out and an error slice will be returned.
func (t *Transmitter) SetDestinations(universe uint16, destinations []string) []error {
	newDest, errs := resolveDestinations(destinations)
	t.mu.Lock()
	t.destinations[universe] = newDest
	t.mu.Unlock()
	if len(errs) == 0 {
		return nil
	}
	return errs
}

//Destinations returns all destinations that have been set via SetDestinations. Note: the returned
//slice contains deep copys and no change will affect the internal slice.
func (t *Transmitter) Destinations(universe uint16) []net.UDPAddr {
	t.mu.Lock()
	defer t.mu.Unlock()
	new := make([]net.UDPAddr, len(t.destinations[universe]))
	copy(new, t.destinations[universe])
	return new
}

//SendConfig sends a settings packet once to every given destination
func (t *Transmitter) SendConfig(op OpCode, payload []byte, destinations []string) error {
	dests, errs := resolveDestinations(destinations)
	if len(errs) > 0 {
		return errs[0]
	}
	packet := NewConfigPacket(op, payload)
	for i := range dests {
		if _, err := t.conn.WriteToUDP(packet, &dests[i]); err != nil {
			return err
		}
	}
	return nil
}

//Close closes the socket for settings packets. Universes stay active until their channel is
//closed.
func (t *Transmitter) Close() error {
	return t.conn.Close()
}

//handles sending and sequence numbering
func (t *Transmitter) sendOut(server *net.UDPConn, universe uint16) {
	t.mu.Lock()
	//only send if the universe was activated
	packet, ok := t.master[universe]
	if !ok {
		t.mu.Unlock()
		return
	}
	packet.SequenceIncr()
	out := packet.copy()
	dests := t.destinations[universe]
	t.mu.Unlock()

	for i := range dests {
		if _, err := server.WriteToUDP(out.Bytes(), &dests[i]); err != nil {
			logger.WithError(err).WithField("destination", dests[i].String()).Debug("sending DMX failed")
		}
	}
}

func resolveDestinations(destinations []string) ([]net.UDPAddr, []error) {
	newDest := make([]net.UDPAddr, 0, len(destinations))
	errs := make([]error, 0)
	for _, dest := range destinations {
		if dest == "" {
			continue // continue if the string is empty
		}
		addr, err := net.ResolveUDPAddr("udp4", withDefaultPort(dest))
		if err != nil {
			errs = append(errs, err)
			continue
		}
		newDest = append(newDest, *addr)
	}
	return newDest, errs
}
