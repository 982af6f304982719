package settings

import (
	"bytes"
	"encoding/binary"

	"github.com/Hundemeier/go-artnet-led/artnet"
	"github.com/Hundemeier/go-artnet-led/engine"
	log "github.com/sirupsen/logrus"
)

//Status codes returned by the settings handlers. 0 is success.
const (
	StatusOK = 0
	//StatusRejected is returned for a too short DMX settings payload or if the engine was busy
	StatusRejected = -1
	//StatusInvalid is returned for WiFi payloads that can not be parsed and if DMX settings
	//could not be saved
	StatusInvalid = -2
	//StatusPersistFailed is returned if WiFi settings could not be saved
	StatusPersistFailed = -3
)

//UniverseSetter applies a new universe config. *engine.Engine implements it.
type UniverseSetter interface {
	SetUniverseConfig(cfg engine.UniverseConfig) error
}

//Handlers parse the settings packets, persist them and apply what can be applied at runtime
type Handlers struct {
	store    *Store
	universe UniverseSetter
}

//NewHandlers creates the handlers for the settings opcodes
func NewHandlers(store *Store, universe UniverseSetter) *Handlers {
	return &Handlers{store: store, universe: universe}
}

//Register sets the handlers on the receiver
func (h *Handlers) Register(r *artnet.ReceiverSocket) {
	r.SetConfigHandler(artnet.OpDmxSettings, h.DmxSettings)
	r.SetConfigHandler(artnet.OpWifiStationSettings, h.StationSettings)
	r.SetConfigHandler(artnet.OpWifiAPSettings, h.APSettings)
}

//DmxSettings reads the universe and the shift, both little endian
func (h *Handlers) DmxSettings(payload []byte) int {
	if len(payload) < 4 {
		logger.WithField("length", len(payload)).Error("DMX settings payload is too small")
		return StatusRejected
	}
	cfg := engine.UniverseConfig{
		Universe: binary.LittleEndian.Uint16(payload[0:2]),
		Shift:    binary.LittleEndian.Uint16(payload[2:4]),
	}
	err := h.store.Update(func(st *State) error {
		st.DmxSet, st.DmxUniverse, st.DmxShift = true, cfg.Universe, cfg.Shift
		return nil
	})
	if err != nil {
		logger.Error("could not save DMX settings: ", err)
		return StatusInvalid
	}
	if err := h.universe.SetUniverseConfig(cfg); err != nil {
		return StatusRejected
	}
	logger.WithFields(log.Fields{"universe": cfg.Universe, "shift": cfg.Shift}).Info("new DMX settings")
	return StatusOK
}

//StationSettings replaces the list of WiFi stations. The payload holds NUL terminated
//ssid/password pairs and ends with an empty ssid or the end of the payload.
func (h *Handlers) StationSettings(payload []byte) int {
	stations := parseStations(payload)
	if len(stations) == 0 {
		logger.Error("WiFi station payload holds no complete station")
		return StatusInvalid
	}
	err := h.store.Update(func(st *State) error {
		st.WifiStations = stations
		return nil
	})
	if err != nil {
		logger.Error("could not save WiFi stations: ", err)
		return StatusPersistFailed
	}
	for i, s := range stations {
		logger.WithField("index", i).Infof("new WiFi station %q", s.SSID)
	}
	return StatusOK
}

//parseStations returns the complete pairs. A pair whose password is not terminated is
//dropped.
func parseStations(payload []byte) []Station {
	var stations []Station
	for len(payload) > 0 && payload[0] != 0 {
		ssid, rest, ok := cutString(payload)
		if !ok {
			break
		}
		pass, rest, ok := cutString(rest)
		if !ok {
			break
		}
		stations = append(stations, Station{SSID: ssid, Password: pass})
		payload = rest
	}
	return stations
}

//cutString splits at the first NUL. ok is false if there is none.
func cutString(b []byte) (s string, rest []byte, ok bool) {
	i := bytes.IndexByte(b, 0)
	if i < 0 {
		return "", nil, false
	}
	return string(b[:i]), b[i+1:], true
}

//APSettings sets the access point: always(1) ssid template(NUL terminated) password(NUL
//terminated). Every '#' in the template is replaced by a digit of the chip id.
func (h *Handlers) APSettings(payload []byte) int {
	if len(payload) < 3 {
		logger.Error("WiFi AP payload is too small")
		return StatusInvalid
	}
	always := payload[0] != 0
	template, rest, ok := cutString(payload[1:])
	if !ok {
		logger.Error("WiFi AP payload has no end of string")
		return StatusInvalid
	}
	if template == "" {
		logger.Error("WiFi AP ssid is too small")
		return StatusInvalid
	}
	pass, _, ok := cutString(rest)
	if !ok {
		logger.Error("WiFi AP payload has no end of string")
		return StatusInvalid
	}

	var ssid string
	err := h.store.Update(func(st *State) error {
		ssid = fillSSID(template, chipID(st.NodeID))
		st.WifiAPSSID, st.WifiAPPass, st.WifiAPAlways = ssid, pass, always
		return nil
	})
	if err != nil {
		logger.Error("could not save WiFi AP settings: ", err)
		return StatusPersistFailed
	}
	logger.WithField("always", always).Infof("new WiFi AP %q", ssid)
	return StatusOK
}

//fillSSID replaces the '#' in template from right to left with the digits of id, starting
//with its last digit. When id runs out, '0' is used.
func fillSSID(template, id string) string {
	b := []byte(template)
	next := len(id) - 1
	for i := len(b) - 1; i >= 0; i-- {
		if b[i] != '#' {
			continue
		}
		if next < 0 {
			b[i] = '0'
		} else {
			b[i] = id[next]
			next--
		}
	}
	return string(b)
}
