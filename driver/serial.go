package driver

import (
	"fmt"
	"io"

	"github.com/tarm/serial"
)

//DefaultBaud is the baud rate of most Adalight firmwares
const DefaultBaud = 115200

//Serial sends the frames with the Adalight protocol to a microcontroller, which drives the
//strip. Each frame starts with "Ada", the LED count minus one (big endian) and a checksum.
type Serial struct {
	port io.WriteCloser
	buf  []byte
}

//OpenSerial opens the serial device, e.g. /dev/ttyUSB0
func OpenSerial(name string, baud int) (*Serial, error) {
	if baud <= 0 {
		baud = DefaultBaud
	}
	logger.WithField("port", name).Infof("opening serial port with %d baud", baud)
	port, err := serial.OpenPort(&serial.Config{Name: name, Baud: baud})
	if err != nil {
		return nil, fmt.Errorf("could not open serial port %s: %w", name, err)
	}
	return newSerial(port), nil
}

func newSerial(port io.WriteCloser) *Serial {
	return &Serial{port: port}
}

func (s *Serial) Write(rgb []byte) error {
	s.buf = adalightFrame(s.buf[:0], rgb)
	_, err := s.port.Write(s.buf)
	return err
}

func (s *Serial) Close() error {
	return s.port.Close()
}

//adalightFrame appends the header and the pixels to dst
func adalightFrame(dst, rgb []byte) []byte {
	leds := len(rgb) / 3
	if leds == 0 {
		return dst
	}
	hi, lo := byte((leds-1)>>8), byte(leds-1)
	dst = append(dst, 'A', 'd', 'a', hi, lo, hi^lo^0x55)
	return append(dst, rgb[:leds*3]...)
}
