package artnet

import (
	"errors"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	//the read deadline, so the listener notices a stop signal without traffic
	pollInterval = 500 * time.Millisecond
	//waiting time between two attempts to rebuild the socket
	restartDelay = time.Second
)

//the listener is responsible for listening on the UDP socket and parsing the incoming data.
//It dispatches the received packets to the corresponding handlers.
func (r *ReceiverSocket) startListener() {
	go func() {
		defer close(r.done)
		buf := make([]byte, MaxPacketLength)
		drainBuf := make([]byte, MaxPacketLength)
	Loop:
		for {
			select {
			case <-r.stopListener:
				break Loop //break if we had a stop signal from the stopChannel
			default:
			}

			r.mu.Lock()
			conn, socket := r.conn, r.socket
			r.mu.Unlock()

			socket.SetReadDeadline(time.Now().Add(pollInterval))
			n, _, _, err := socket.ReadFrom(buf) //n, ControlMessage, addr, err
			if err != nil {
				if isTimeout(err) {
					continue
				}
				if r.stopped() {
					break Loop
				}
				logger.WithError(err).Error("receiving from socket failed, rebuilding it")
				if !r.restart() {
					break Loop
				}
				continue
			}
			socket.SetReadDeadline(time.Time{})

			r.received.Add(1)
			r.handle(buf[:n])

			//everything that queued up while handling is outdated now
			dropped, err := r.drain(conn, socket, drainBuf)
			if dropped > 0 {
				r.dropped.Add(uint64(dropped))
				logger.WithField("count", dropped).Trace("discarded queued datagrams")
			}
			if err != nil {
				if r.stopped() {
					break Loop
				}
				logger.WithError(err).Error("draining socket failed, rebuilding it")
				if !r.restart() {
					break Loop
				}
			}
		}
		r.mu.Lock()
		r.conn.Close()
		r.mu.Unlock()
	}()
}

func (r *ReceiverSocket) stopped() bool {
	select {
	case <-r.stopListener:
		return true
	default:
		return false
	}
}

//restart closes the socket and opens a new one on the same address. It retries until it
//succeeds or the receiver is closed. Returns false if the receiver was closed.
func (r *ReceiverSocket) restart() bool {
	r.mu.Lock()
	r.conn.Close()
	r.mu.Unlock()
	for {
		select {
		case <-r.stopListener:
			return false
		case <-time.After(restartDelay):
		}
		if err := r.open(); err != nil {
			logger.WithError(err).Warn("rebuilding socket failed, retrying")
			continue
		}
		r.restarts.Add(1)
		logger.WithField("address", r.addr).Info("socket rebuilt")
		return true
	}
}

//handle decodes one datagram and passes it to the DMX callback or the settings handlers
func (r *ReceiverSocket) handle(raw []byte) {
	op, err := ParseOpCode(raw)
	if err != nil {
		r.malformed.Add(1)
		logger.WithField("length", len(raw)).Trace("ignoring non Art-Net datagram")
		return
	}
	switch op {
	case OpDmx:
		p, err := NewDataPacketRaw(raw)
		if err != nil {
			r.malformed.Add(1)
			level := log.WarnLevel
			if errors.Is(err, ErrTooShort) {
				level = log.DebugLevel
			}
			logger.WithError(err).Log(level, "dropping DMX packet")
			return
		}
		if r.onDmxCallback != nil {
			r.onDmxCallback(p)
		}
	case OpWifiStationSettings, OpWifiAPSettings, OpDmxSettings:
		payload := raw[opCodeEnd:]
		if len(payload) == 0 {
			logger.WithField("opcode", op).Debug("settings packet without payload")
			return
		}
		handler, ok := r.configHandlers[op]
		if !ok {
			logger.WithField("opcode", op).Debug("no handler for settings packet")
			return
		}
		if status := handler(payload); status != 0 {
			logger.Warnf("Art-Net %v execution failure (%d)", op, status)
		}
	default:
		logger.WithField("opcode", op).Debug("ignoring unsupported opcode")
	}
}
