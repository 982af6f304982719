package engine

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/Hundemeier/go-artnet-led/colorconv"
)

const (
	//rainbowBodyLength is the minimal length of a rainbow frame without the program byte
	rainbowBodyLength = 14

	//MinRainbowDelay is the shortest delay between two rainbow steps
	MinRainbowDelay = 10 * time.Millisecond
)

//RainbowParams is everything a controller sends to start or retune a rainbow
type RainbowParams struct {
	//ChangeID identifies one rainbow. Sending the same non zero id again only updates timing
	//and tint and keeps the running animation.
	ChangeID uint8 `yaml:"change_id"`
	//Delay between two animation steps
	Delay time.Duration `yaml:"delay"`
	//TickStep is added to the base hue every step, in degrees
	TickStep uint16 `yaml:"tick_step"`
	//PixelStep is the hue difference between two neighbouring pixels, in degrees
	PixelStep uint16 `yaml:"pixel_step"`
	//Start is the color of the first pixel at the first step
	Start     colorconv.RGB       `yaml:"start"`
	Tint      colorconv.RGB       `yaml:"tint"`
	TintLevel uint8               `yaml:"tint_level"`
	Mode      colorconv.BlendMode `yaml:"mode"`
}

func (p RainbowParams) String() string {
	return fmt.Sprintf("id %d, delay %v, step %d/%d, start %v, tint %v@%d (%v)",
		p.ChangeID, p.Delay, p.TickStep, p.PixelStep, p.Start, p.Tint, p.TintLevel, p.Mode)
}

//ParseRainbowParams reads the rainbow body that follows the program byte:
//
//	id(1) delay ms(2 BE) tick step(2 BE) pixel step(2 BE) start rgb(3) tint rgb(3) level(1) [mode(1)]
func ParseRainbowParams(body []byte) (RainbowParams, error) {
	if len(body) < rainbowBodyLength {
		return RainbowParams{}, fmt.Errorf("%w: rainbow needs %d bytes, got %d",
			ErrShortPayload, rainbowBodyLength, len(body))
	}
	p := RainbowParams{
		ChangeID:  body[0],
		Delay:     time.Duration(binary.BigEndian.Uint16(body[1:3])) * time.Millisecond,
		TickStep:  binary.BigEndian.Uint16(body[3:5]),
		PixelStep: binary.BigEndian.Uint16(body[5:7]),
		Start:     colorconv.RGBFromBytes(body[7:10]),
		Tint:      colorconv.RGBFromBytes(body[10:13]),
		TintLevel: body[13],
		Mode:      colorconv.BlendRGB,
	}
	if len(body) > rainbowBodyLength {
		p.Mode = colorconv.BlendModeFromByte(body[rainbowBodyLength])
	}
	return p, nil
}

//Bytes encodes the params like ParseRainbowParams expects them, without the program byte
func (p RainbowParams) Bytes() []byte {
	b := make([]byte, rainbowBodyLength+1)
	b[0] = p.ChangeID
	binary.BigEndian.PutUint16(b[1:3], uint16(p.Delay/time.Millisecond))
	binary.BigEndian.PutUint16(b[3:5], p.TickStep)
	binary.BigEndian.PutUint16(b[5:7], p.PixelStep)
	b[7], b[8], b[9] = p.Start.R, p.Start.G, p.Start.B
	b[10], b[11], b[12] = p.Tint.R, p.Tint.G, p.Tint.B
	b[13] = p.TintLevel
	if p.Mode == colorconv.BlendHSV {
		b[14] = 0xff
	}
	return b
}

//Rainbow is the program with id 3. The start color is converted once into the anchor; its
//saturation and value are used for every pixel while the hue moves.
type Rainbow struct {
	RainbowParams
	anchor  colorconv.HSV
	tintHSV colorconv.HSV
	hue     float64
}

func (*Rainbow) ID() ProgramID { return ProgramRainbow }
func (*Rainbow) isProgram()    {}

func newRainbow(p RainbowParams) *Rainbow {
	r := &Rainbow{RainbowParams: p, anchor: colorconv.RGBToHSV(p.Start)}
	if r.anchor.HueDefined() {
		r.hue = r.anchor.H
	}
	r.tintHSV = colorconv.RGBToHSV(p.Tint)
	return r
}

//retune takes over timing and tint from p and keeps the start color and the phase
func (r *Rainbow) retune(p RainbowParams) {
	p.Start = r.Start
	r.RainbowParams = p
	r.tintHSV = colorconv.RGBToHSV(p.Tint)
}

//Hue is the current base hue (the hue of pixel 0 without tint) in degrees
func (r *Rainbow) Hue() float64 {
	return r.hue
}

//PixelHue is the hue of pixel i at the current step
func (r *Rainbow) PixelHue(i int) float64 {
	return colorconv.WrapHue(r.hue + float64(i)*float64(r.PixelStep))
}

func (r *Rainbow) step() {
	r.hue = colorconv.WrapHue(r.hue + float64(r.TickStep))
}

func (r *Rainbow) render(pixels []colorconv.RGB) {
	for i := range pixels {
		c := colorconv.HSV{H: r.PixelHue(i), S: r.anchor.S, V: r.anchor.V}
		pixels[i] = colorconv.Tint(c, r.Tint, r.tintHSV, r.TintLevel, r.Mode)
	}
}

//delay returns the step delay clamped to MinRainbowDelay
func (r *Rainbow) delay() time.Duration {
	return max(r.Delay, MinRainbowDelay)
}
