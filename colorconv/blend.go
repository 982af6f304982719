package colorconv

//BlendMode selects how a tint is mixed into an animated color
type BlendMode uint8

const (
	//BlendRGB mixes every channel linearly: out = raw*(255-level)/255 + tint*level/255
	BlendRGB BlendMode = iota
	//BlendHSV interpolates hue, saturation and value separately and converts once
	BlendHSV
)

func (m BlendMode) String() string {
	if m == BlendHSV {
		return "hsv"
	}
	return "rgb"
}

//BlendModeFromByte maps the optional mode byte of a rainbow frame. Values of 128 and above
//select BlendHSV.
func BlendModeFromByte(b byte) BlendMode {
	if b >= 128 {
		return BlendHSV
	}
	return BlendRGB
}

//BlendRGBLinear mixes tint into raw by level/255 with integer arithmetic
func BlendRGBLinear(raw, tint RGB, level uint8) RGB {
	if level == 0 {
		return raw
	}
	return RGB{
		R: mixChannel(raw.R, tint.R, level),
		G: mixChannel(raw.G, tint.G, level),
		B: mixChannel(raw.B, tint.B, level),
	}
}

func mixChannel(raw, tint, level uint8) uint8 {
	l := uint32(level)
	return uint8(uint32(raw)*(255-l)/255 + uint32(tint)*l/255)
}

//BlendHSVLinear moves every hsv component of c towards tint by level/255. If the tint is
//achromatic its hue is ignored and only saturation and value move.
func BlendHSVLinear(c, tint HSV, level uint8) HSV {
	if level == 0 {
		return c
	}
	f := float64(level) / 255
	out := HSV{
		H: c.H,
		S: c.S + (tint.S-c.S)*f,
		V: c.V + (tint.V-c.V)*f,
	}
	if tint.HueDefined() && c.HueDefined() {
		out.H = c.H + (tint.H-c.H)*f
	}
	return out
}

//Tint applies the tint with the given mode to an animated hsv color and returns the final pixel
func Tint(c HSV, tint RGB, tintHSV HSV, level uint8, mode BlendMode) RGB {
	if mode == BlendHSV {
		return HSVToRGB(BlendHSVLinear(c, tintHSV, level))
	}
	return BlendRGBLinear(HSVToRGB(c), tint, level)
}
