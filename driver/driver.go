//Package driver contains the LED outputs a node can render to. Every driver takes frames of
//RGB byte triples, one triple per LED.
package driver

import (
	"fmt"
	"strings"

	"github.com/Hundemeier/go-artnet-led/render"
	log "github.com/sirupsen/logrus"
)

var logger = log.WithField("component", "driver")

//Log only logs the frames. It is used when no hardware is attached.
type Log struct {
	frames uint64
}

//NewLog creates a driver that logs every frame at trace level
func NewLog() *Log {
	return &Log{}
}

func (l *Log) Write(rgb []byte) error {
	l.frames++
	if logger.Logger.IsLevelEnabled(log.TraceLevel) {
		logger.WithField("frame", l.frames).Trace(formatFrame(rgb))
	}
	return nil
}

func (l *Log) Close() error {
	logger.WithField("frames", l.frames).Debug("log driver closed")
	return nil
}

//formatFrame prints the frame as list of #rrggbb colors
func formatFrame(rgb []byte) string {
	var sb strings.Builder
	for i := 0; i+2 < len(rgb); i += 3 {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "#%02x%02x%02x", rgb[i], rgb[i+1], rgb[i+2])
	}
	return sb.String()
}

//Multi writes every frame to all of its drivers. Write stops at the first error.
type Multi []render.Driver

func (m Multi) Write(rgb []byte) error {
	for _, d := range m {
		if err := d.Write(rgb); err != nil {
			return err
		}
	}
	return nil
}

//Close closes all drivers and returns the first error
func (m Multi) Close() error {
	var first error
	for _, d := range m {
		if err := d.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
