//Package settings persists the node settings that can be changed over the network and
//implements the handlers for the settings opcodes.
package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Hundemeier/go-artnet-led/engine"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
)

var logger = log.WithField("component", "settings")

//Station is one WiFi network the node may connect to
type Station struct {
	SSID     string `yaml:"ssid"`
	Password string `yaml:"password"`
}

//State is everything that is stored. The zero value means factory settings.
type State struct {
	NodeID string `yaml:"node_id"`
	//DmxSet is true once universe and shift were received over the network. Until then the
	//values of the configuration file apply.
	DmxSet       bool                  `yaml:"dmx_set"`
	DmxUniverse  uint16                `yaml:"dmx_universe"`
	DmxShift     uint16                `yaml:"dmx_shift"`
	WifiStations []Station             `yaml:"wifi_sta,omitempty"`
	WifiAPSSID   string                `yaml:"wifi_ap_ssid,omitempty"`
	WifiAPPass   string                `yaml:"wifi_ap_pass,omitempty"`
	WifiAPAlways bool                  `yaml:"wifi_ap_always"`
	Rainbow      *engine.RainbowParams `yaml:"rainbow,omitempty"`
}

//UniverseConfig returns the stored universe and shift
func (s State) UniverseConfig() engine.UniverseConfig {
	return engine.UniverseConfig{Universe: s.DmxUniverse, Shift: s.DmxShift}
}

func (s State) clone() State {
	s.WifiStations = append([]Station(nil), s.WifiStations...)
	if s.Rainbow != nil {
		r := *s.Rainbow
		s.Rainbow = &r
	}
	return s
}

//Store keeps the settings in a YAML file. Every update is written to a temporary file first
//and renamed, so a crash never leaves a half written file behind.
type Store struct {
	path  string
	mu    sync.Mutex
	state State
}

//Open loads the settings from path. A missing file starts with factory settings and a new
//node id. An empty path keeps the settings in memory only.
func Open(path string) (*Store, error) {
	s := &Store{path: path}
	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			logger.WithField("path", path).Info("no settings file, using factory settings")
		case err != nil:
			return nil, err
		default:
			if err := yaml.UnmarshalStrict(raw, &s.state); err != nil {
				return nil, fmt.Errorf("could not parse settings file %s: %w", path, err)
			}
		}
	}
	if s.state.NodeID == "" {
		err := s.Update(func(st *State) error {
			st.NodeID = uuid.NewString()
			return nil
		})
		if err != nil {
			return nil, err
		}
		logger.WithField("node_id", s.state.NodeID).Info("generated node id")
	}
	return s, nil
}

//State returns a copy of the current settings
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

//Update changes the settings with fn and persists them. If fn or persisting fails, nothing
//changes.
func (s *Store) Update(fn func(st *State) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.state.clone()
	if err := fn(&next); err != nil {
		return err
	}
	if err := s.write(next); err != nil {
		return err
	}
	s.state = next
	return nil
}

func (s *Store) write(st State) error {
	if s.path == "" {
		return nil
	}
	raw, err := yaml.Marshal(st)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

//SaveRainbow stores the parameters of the last started rainbow
func (s *Store) SaveRainbow(p engine.RainbowParams) error {
	return s.Update(func(st *State) error {
		st.Rainbow = &p
		return nil
	})
}

//ChipID is the short hex id of the node, derived from the node id
func (s *Store) ChipID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return chipID(s.state.NodeID)
}

//chipID returns the first 8 hex digits of the node id
func chipID(nodeID string) string {
	if id, err := uuid.Parse(nodeID); err == nil {
		return fmt.Sprintf("%02x%02x%02x%02x", id[0], id[1], id[2], id[3])
	}
	hex := strings.ReplaceAll(nodeID, "-", "")
	if len(hex) > 8 {
		hex = hex[:8]
	}
	return hex
}
