package main

import (
	"bytes"
	"testing"

	"github.com/Hundemeier/go-artnet-led/artnet"
	"github.com/Hundemeier/go-artnet-led/colorconv"
	"github.com/Hundemeier/go-artnet-led/engine"
)

func TestParseColor(t *testing.T) {
	c, err := parseColor("#ff8001")
	if err != nil || c != (colorconv.RGB{R: 255, G: 128, B: 1}) {
		t.Errorf("Wrong output! Was: %v (%v); Should've been: %v", c, err, "#ff8001")
	}
	for _, bad := range []string{"", "ff80", "gg0000", "ff000000"} {
		if _, err := parseColor(bad); err == nil {
			t.Errorf("%q: Err was nil! Should have been an error!", bad)
		}
	}
}

func TestProgramData(t *testing.T) {
	out, err := programData("straight", []string{"010203", "040506"})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out, []byte{0, 1, 2, 3, 4, 5, 6}) {
		t.Errorf("Wrong output! Was: %v; Should've been: %v", out, []byte{0, 1, 2, 3, 4, 5, 6})
	}
	out, err = programData("chain-reversed", []string{"0000ff"})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out, []byte{2, 0, 0, 255}) {
		t.Errorf("Wrong output! Was: %v; Should've been: %v", out, []byte{2, 0, 0, 255})
	}
	if _, err := programData("chain", nil); err == nil {
		t.Error("Err was nil! Should have been an error!")
	}
}

func TestRainbowDataIsUnderstood(t *testing.T) {
	out, err := programData("rainbow", nil)
	if err != nil {
		t.Fatal(err)
	}
	if out[0] != byte(engine.ProgramRainbow) {
		t.Fatalf("Wrong output! Was: %v; Should've been: %v", out[0], engine.ProgramRainbow)
	}
	p, err := engine.ParseRainbowParams(out[1:])
	if err != nil {
		t.Fatal(err)
	}
	if p.Start != (colorconv.RGB{R: 255}) || p.PixelStep != 10 || p.Mode != colorconv.BlendRGB {
		t.Errorf("Wrong output! Was: %v", p)
	}
}

func TestSettingsPayload(t *testing.T) {
	tests := []struct {
		command string
		args    []string
		op      artnet.OpCode
		payload []byte
	}{
		{"dmx-settings", []string{"258", "3"}, artnet.OpDmxSettings, []byte{2, 1, 3, 0}},
		{"sta", []string{"home", "pw"}, artnet.OpWifiStationSettings, []byte("home\x00pw\x00\x00")},
		{"ap", []string{"1", "LED-##", "pw"}, artnet.OpWifiAPSettings, []byte("\x01LED-##\x00pw\x00")},
	}
	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			op, payload, err := settingsPayload(tt.command, tt.args)
			if err != nil {
				t.Fatal(err)
			}
			if op != tt.op || !bytes.Equal(payload, tt.payload) {
				t.Errorf("Wrong output! Was: %v %v; Should've been: %v %v", op, payload, tt.op, tt.payload)
			}
		})
	}
	if _, _, err := settingsPayload("sta", []string{"odd"}); err == nil {
		t.Error("Err was nil! Should have been an error!")
	}
}
