package colorconv

import "testing"

func TestBlendRGBLinear(t *testing.T) {
	red := RGB{255, 0, 0}
	blue := RGB{0, 0, 255}
	tests := []struct {
		level uint8
		want  RGB
	}{
		{0, red},
		{255, blue},
		{128, RGB{127, 0, 128}},
	}
	for _, tt := range tests {
		if out := BlendRGBLinear(red, blue, tt.level); out != tt.want {
			t.Errorf("Level %v: Was: %v; Should've been: %v", tt.level, out, tt.want)
		}
	}
}

func TestBlendHSVLinear(t *testing.T) {
	c := HSV{H: 0, S: 1, V: 1}
	tint := HSV{H: 240, S: 0.5, V: 0.5}
	if out := BlendHSVLinear(c, tint, 0); out != c {
		t.Errorf("Level 0 must not change the color, was %v", out)
	}
	out := BlendHSVLinear(c, tint, 255)
	if out != tint {
		t.Errorf("Wrong output! Was: %v; Should've been: %v", out, tint)
	}
	//an achromatic tint only moves saturation and value
	grey := RGBToHSV(RGB{0, 0, 0})
	out = BlendHSVLinear(HSV{H: 90, S: 1, V: 1}, grey, 255)
	if out.H != 90 || out.S != 0 || out.V != 0 {
		t.Errorf("Wrong output for grey tint: %v", out)
	}
}

func TestTint(t *testing.T) {
	c := HSV{H: 120, S: 1, V: 1}
	white := RGB{255, 255, 255}
	if out := Tint(c, white, RGBToHSV(white), 0, BlendRGB); out != (RGB{0, 255, 0}) {
		t.Errorf("Wrong output! Was: %v; Should've been: %v", out, RGB{0, 255, 0})
	}
	if out := Tint(c, white, RGBToHSV(white), 255, BlendRGB); out != white {
		t.Errorf("Wrong output! Was: %v; Should've been: %v", out, white)
	}
	if out := Tint(c, white, RGBToHSV(white), 255, BlendHSV); out != white {
		t.Errorf("Wrong output! Was: %v; Should've been: %v", out, white)
	}
}

func TestBlendModeFromByte(t *testing.T) {
	if BlendModeFromByte(127) != BlendRGB || BlendModeFromByte(128) != BlendHSV || BlendModeFromByte(255) != BlendHSV {
		t.Error("mode byte 128 and above should select hsv blending")
	}
}
