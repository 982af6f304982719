package settings

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/Hundemeier/go-artnet-led/colorconv"
	"github.com/Hundemeier/go-artnet-led/engine"
)

type fakeUniverse struct {
	cfg engine.UniverseConfig
	err error
}

func (f *fakeUniverse) SetUniverseConfig(cfg engine.UniverseConfig) error {
	if f.err != nil {
		return f.err
	}
	f.cfg = cfg
	return nil
}

func openTemp(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.yaml")
	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	return s, path
}

func TestOpenGeneratesNodeID(t *testing.T) {
	s, path := openTemp(t)
	id := s.State().NodeID
	if id == "" {
		t.Fatal("no node id generated")
	}
	if len(s.ChipID()) != 8 {
		t.Errorf("Wrong output! Was: %v; Should've been 8 hex digits", s.ChipID())
	}
	reopened, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if reopened.State().NodeID != id {
		t.Errorf("Wrong output! Was: %v; Should've been: %v", reopened.State().NodeID, id)
	}
}

func TestOpenInMemory(t *testing.T) {
	s, err := Open("")
	if err != nil {
		t.Fatal(err)
	}
	if s.State().NodeID == "" {
		t.Error("no node id generated")
	}
}

func TestOpenRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	if err := os.WriteFile(path, []byte("node_id: abc\nbogus: 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(path); err == nil {
		t.Error("Err was nil! Should have been an error!")
	}
}

func TestUpdateRollsBack(t *testing.T) {
	s, _ := openTemp(t)
	err := s.Update(func(st *State) error {
		st.DmxUniverse = 9
		return errors.New("nope")
	})
	if err == nil {
		t.Fatal("Err was nil! Should have been an error!")
	}
	if s.State().DmxUniverse != 0 {
		t.Errorf("Wrong output! Was: %v; Should've been: %v", s.State().DmxUniverse, 0)
	}
}

func TestStateIsCopy(t *testing.T) {
	s, _ := openTemp(t)
	s.Update(func(st *State) error {
		st.WifiStations = []Station{{"a", "b"}}
		return nil
	})
	st := s.State()
	st.WifiStations[0].SSID = "changed"
	if s.State().WifiStations[0].SSID != "a" {
		t.Error("State did not return a copy")
	}
}

func TestSaveRainbowRoundTrip(t *testing.T) {
	s, path := openTemp(t)
	p := engine.RainbowParams{
		ChangeID:  4,
		Delay:     50 * time.Millisecond,
		TickStep:  3,
		PixelStep: 12,
		Start:     colorconv.RGB{R: 10, G: 20, B: 30},
		Tint:      colorconv.RGB{B: 255},
		TintLevel: 100,
		Mode:      colorconv.BlendHSV,
	}
	if err := s.SaveRainbow(p); err != nil {
		t.Fatal(err)
	}
	reopened, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	got := reopened.State().Rainbow
	if got == nil || *got != p {
		t.Errorf("Wrong output! Was: %v; Should've been: %v", got, p)
	}
}

func TestDmxSettings(t *testing.T) {
	s, path := openTemp(t)
	u := &fakeUniverse{}
	h := NewHandlers(s, u)

	if status := h.DmxSettings([]byte{0x05, 0x01, 0x10, 0x00}); status != StatusOK {
		t.Fatalf("Wrong output! Was: %v; Should've been: %v", status, StatusOK)
	}
	shouldBe := engine.UniverseConfig{Universe: 0x0105, Shift: 0x10}
	if u.cfg != shouldBe {
		t.Errorf("Wrong output! Was: %v; Should've been: %v", u.cfg, shouldBe)
	}
	reopened, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if !reopened.State().DmxSet || reopened.State().UniverseConfig() != shouldBe {
		t.Errorf("Wrong output! Was: %v; Should've been: %v", reopened.State().UniverseConfig(), shouldBe)
	}
}

func TestDmxSettingsErrors(t *testing.T) {
	s, _ := openTemp(t)
	h := NewHandlers(s, &fakeUniverse{})
	if status := h.DmxSettings([]byte{1, 2, 3}); status != StatusRejected {
		t.Errorf("Wrong output! Was: %v; Should've been: %v", status, StatusRejected)
	}

	h = NewHandlers(s, &fakeUniverse{err: engine.ErrLockTimeout})
	if status := h.DmxSettings([]byte{1, 0, 0, 0}); status != StatusRejected {
		t.Errorf("Wrong output! Was: %v; Should've been: %v", status, StatusRejected)
	}

	broken := &Store{path: filepath.Join(t.TempDir(), "missing", "settings.yaml")}
	h = NewHandlers(broken, &fakeUniverse{})
	if status := h.DmxSettings([]byte{1, 0, 0, 0}); status != StatusInvalid {
		t.Errorf("Wrong output! Was: %v; Should've been: %v", status, StatusInvalid)
	}
}

func TestParseStations(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		out     []Station
	}{
		{"one", "home\x00secret\x00", []Station{{"home", "secret"}}},
		{"two with end", "a\x001\x00b\x002\x00\x00garbage", []Station{{"a", "1"}, {"b", "2"}}},
		{"empty password", "open\x00\x00", []Station{{"open", ""}}},
		{"unterminated password", "a\x001\x00b\x002", []Station{{"a", "1"}}},
		{"no password", "a\x00", nil},
		{"empty", "", nil},
		{"empty ssid", "\x00a\x00b\x00", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := parseStations([]byte(tt.payload))
			if !reflect.DeepEqual(out, tt.out) {
				t.Errorf("Wrong output! Was: %v; Should've been: %v", out, tt.out)
			}
		})
	}
}

func TestStationSettings(t *testing.T) {
	s, _ := openTemp(t)
	h := NewHandlers(s, &fakeUniverse{})
	if status := h.StationSettings([]byte("x\x00")); status != StatusInvalid {
		t.Errorf("Wrong output! Was: %v; Should've been: %v", status, StatusInvalid)
	}
	if status := h.StationSettings([]byte("home\x00secret\x00")); status != StatusOK {
		t.Errorf("Wrong output! Was: %v; Should've been: %v", status, StatusOK)
	}
	shouldBe := []Station{{"home", "secret"}}
	if !reflect.DeepEqual(s.State().WifiStations, shouldBe) {
		t.Errorf("Wrong output! Was: %v; Should've been: %v", s.State().WifiStations, shouldBe)
	}

	broken := &Store{path: filepath.Join(t.TempDir(), "missing", "settings.yaml")}
	h = NewHandlers(broken, &fakeUniverse{})
	if status := h.StationSettings([]byte("home\x00secret\x00")); status != StatusPersistFailed {
		t.Errorf("Wrong output! Was: %v; Should've been: %v", status, StatusPersistFailed)
	}
}

func TestFillSSID(t *testing.T) {
	tests := []struct {
		template, id, out string
	}{
		{"LED-####", "0a1b2c3d", "LED-2c3d"},
		{"##########", "0a1b2c3d", "000a1b2c3d"},
		{"#a#", "12", "1a2"},
		{"plain", "12", "plain"},
	}
	for _, tt := range tests {
		if out := fillSSID(tt.template, tt.id); out != tt.out {
			t.Errorf("Wrong output! Was: %v; Should've been: %v", out, tt.out)
		}
	}
}

func TestAPSettings(t *testing.T) {
	s := &Store{state: State{NodeID: "0a1b2c3d-0000-4000-8000-000000000000"}}
	h := NewHandlers(s, &fakeUniverse{})
	if status := h.APSettings([]byte("\x01LED-####\x00pass\x00")); status != StatusOK {
		t.Fatalf("Wrong output! Was: %v; Should've been: %v", status, StatusOK)
	}
	st := s.State()
	if st.WifiAPSSID != "LED-2c3d" || st.WifiAPPass != "pass" || !st.WifiAPAlways {
		t.Errorf("Wrong output! Was: %v %v %v; Should've been: LED-2c3d pass true", st.WifiAPSSID, st.WifiAPPass, st.WifiAPAlways)
	}
}

func TestAPSettingsErrors(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"too small", "\x01a"},
		{"empty ssid", "\x01\x00pass\x00"},
		{"ssid not terminated", "\x01abc"},
		{"password missing", "\x01abc\x00"},
		{"password not terminated", "\x01abc\x00pass"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Store{state: State{NodeID: "x"}}
			h := NewHandlers(s, &fakeUniverse{})
			if status := h.APSettings([]byte(tt.payload)); status != StatusInvalid {
				t.Errorf("Wrong output! Was: %v; Should've been: %v", status, StatusInvalid)
			}
			if s.State().WifiAPSSID != "" {
				t.Error("invalid settings were stored")
			}
		})
	}
}

func TestChipID(t *testing.T) {
	if out := chipID("0a1b2c3d-0000-4000-8000-000000000000"); out != "0a1b2c3d" {
		t.Errorf("Wrong output! Was: %v; Should've been: %v", out, "0a1b2c3d")
	}
	if out := chipID("abc"); out != "abc" {
		t.Errorf("Wrong output! Was: %v; Should've been: %v", out, "abc")
	}
}
