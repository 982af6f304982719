package colorconv

import (
	"fmt"
	"math"
)

//HueUndefined is the hue of an achromatic color (max == min). It is slightly negative, so
//HSVToRGB wraps it to almost 360 if it is ever used with a non-zero saturation.
const HueUndefined = -0.000001

//RGB is one pixel as it is sent to the strip
type RGB struct {
	R, G, B uint8
}

//HSV is a color in the hue/saturation/value model. H is in degrees [0;360[ (or HueUndefined),
//S and V are in [0;1]
type HSV struct {
	H, S, V float64
}

func (c RGB) String() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

//RGBFromBytes reads a color from the first three bytes of b. b must be at least 3 long.
func RGBFromBytes(b []byte) RGB {
	return RGB{R: b[0], G: b[1], B: b[2]}
}

//HueDefined returns false for achromatic colors
func (c HSV) HueDefined() bool {
	return c.H >= 0
}

//RGBToHSV converts an 8bit color into hsv. For grey colors the hue is HueUndefined and the
//saturation is 0, so the round trip of these colors loses the hue information.
func RGBToHSV(in RGB) HSV {
	maxC := max3(in.R, in.G, in.B)
	minC := min3(in.R, in.G, in.B)

	out := HSV{V: float64(maxC) / 255}
	delta := float64(maxC) - float64(minC)
	if delta == 0 {
		out.H = HueUndefined
		return out
	}
	//maxC can not be 0 here, because delta is not 0
	out.S = delta / float64(maxC)

	r, g, b := float64(in.R), float64(in.G), float64(in.B)
	switch maxC {
	case in.R:
		out.H = (g - b) / delta //between yellow and magenta
	case in.G:
		out.H = 2 + (b-r)/delta //between cyan and yellow
	default:
		out.H = 4 + (r-g)/delta //between magenta and cyan
	}
	out.H *= 60
	if out.H < 0 {
		out.H += 360
	}
	return out
}

//HSVToRGB converts a hsv color back to 8bit. The hue is wrapped into [0;360[ first,
//all channels are truncated.
func HSVToRGB(in HSV) RGB {
	if in.S <= 0 {
		grey := to8(in.V)
		return RGB{grey, grey, grey}
	}

	h := WrapHue(in.H)
	hh := h / 60 //sector 0 to 5
	sector := int(hh)
	ff := hh - float64(sector)
	p := in.V * (1 - in.S)
	q := in.V * (1 - in.S*ff)
	t := in.V * (1 - in.S*(1-ff))

	switch sector {
	case 0:
		return RGB{to8(in.V), to8(t), to8(p)}
	case 1:
		return RGB{to8(q), to8(in.V), to8(p)}
	case 2:
		return RGB{to8(p), to8(in.V), to8(t)}
	case 3:
		return RGB{to8(p), to8(q), to8(in.V)}
	case 4:
		return RGB{to8(t), to8(p), to8(in.V)}
	default:
		return RGB{to8(in.V), to8(p), to8(q)}
	}
}

//WrapHue brings any angle into [0;360[
func WrapHue(h float64) float64 {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	//-tiny + 360 rounds to 360 in float
	if h >= 360 {
		h = 0
	}
	return h
}

func to8(f float64) uint8 {
	v := f * 255
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v)
}

func max3(a, b, c uint8) uint8 {
	return max(a, max(b, c))
}

func min3(a, b, c uint8) uint8 {
	return min(a, min(b, c))
}
