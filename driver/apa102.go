package driver

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

//MaxBrightness is the highest value of the 5 bit global brightness of an APA102
const MaxBrightness = 31

//line is one requested GPIO output
type line interface {
	SetValue(value int) error
	Close() error
}

//APA102Config selects the GPIO lines the strip is connected to
type APA102Config struct {
	Chip       string `yaml:"chip"`
	DataPin    int    `yaml:"data_pin"`
	ClockPin   int    `yaml:"clock_pin"`
	Brightness uint8  `yaml:"brightness"`
}

//APA102 bit-bangs the frames over two GPIO lines. It is slow, but needs no SPI device.
type APA102 struct {
	data, clock line
	brightness  uint8
	buf         []byte
}

//OpenAPA102 requests the data and clock lines as outputs
func OpenAPA102(cfg APA102Config) (*APA102, error) {
	if cfg.Chip == "" {
		cfg.Chip = "gpiochip0"
	}
	data, err := gpiocdev.RequestLine(cfg.Chip, cfg.DataPin, gpiocdev.AsOutput(0))
	if err != nil {
		return nil, fmt.Errorf("could not request data line %d: %w", cfg.DataPin, err)
	}
	clock, err := gpiocdev.RequestLine(cfg.Chip, cfg.ClockPin, gpiocdev.AsOutput(0))
	if err != nil {
		data.Close()
		return nil, fmt.Errorf("could not request clock line %d: %w", cfg.ClockPin, err)
	}
	logger.WithField("chip", cfg.Chip).Infof("APA102 on data line %d, clock line %d", cfg.DataPin, cfg.ClockPin)
	return newAPA102(data, clock, cfg.Brightness), nil
}

func newAPA102(data, clock line, brightness uint8) *APA102 {
	if brightness == 0 || brightness > MaxBrightness {
		brightness = MaxBrightness
	}
	return &APA102{data: data, clock: clock, brightness: brightness}
}

func (a *APA102) Write(rgb []byte) error {
	a.buf = apa102Frame(a.buf[:0], rgb, a.brightness)
	for _, b := range a.buf {
		for bit := 7; bit >= 0; bit-- {
			if err := a.data.SetValue(int(b>>bit) & 1); err != nil {
				return err
			}
			if err := a.clock.SetValue(1); err != nil {
				return err
			}
			if err := a.clock.SetValue(0); err != nil {
				return err
			}
		}
	}
	return nil
}

func (a *APA102) Close() error {
	errData := a.data.Close()
	errClock := a.clock.Close()
	if errData != nil {
		return errData
	}
	return errClock
}

//apa102Frame builds the start frame, one BGR word per LED and enough end bits to clock the
//data through the whole strip
func apa102Frame(dst, rgb []byte, brightness uint8) []byte {
	leds := len(rgb) / 3
	dst = append(dst, 0, 0, 0, 0)
	for i := 0; i < leds; i++ {
		r, g, b := rgb[i*3], rgb[i*3+1], rgb[i*3+2]
		dst = append(dst, 0xe0|brightness&MaxBrightness, b, g, r)
	}
	for i := 0; i < (leds+15)/16; i++ {
		dst = append(dst, 0xff)
	}
	return dst
}
