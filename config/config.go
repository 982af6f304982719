//Package config reads the configuration file of the node daemon
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/Hundemeier/go-artnet-led/driver"
	"github.com/Hundemeier/go-artnet-led/engine"
	"github.com/Hundemeier/go-artnet-led/render"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
)

//Driver types
const (
	DriverLog     = "log"
	DriverSerial  = "serial"
	DriverAPA102  = "apa102"
	DriverPreview = "preview"
)

//Config is the content of the configuration file
type Config struct {
	//Listen is the address of the Art-Net socket, the port defaults to 6454
	Listen string `yaml:"listen"`
	LEDs   int    `yaml:"leds"`
	//Universe and Shift are used until they are changed over the network
	Universe          uint16        `yaml:"universe"`
	Shift             uint16        `yaml:"shift"`
	SequenceTolerance uint8         `yaml:"sequence_tolerance"`
	Throttle          time.Duration `yaml:"throttle"`
	WriteTimeout      time.Duration `yaml:"write_timeout"`
	RenderTimeout     time.Duration `yaml:"render_timeout"`
	//Settings is the file the network settings are stored in. Empty keeps them in memory.
	Settings      string        `yaml:"settings"`
	StatsInterval time.Duration `yaml:"stats_interval"`
	Log           Log           `yaml:"log"`
	Driver        Driver        `yaml:"driver"`
}

//Log configures logrus
type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

//Driver selects the LED output
type Driver struct {
	Type   string              `yaml:"type"`
	Serial Serial              `yaml:"serial"`
	APA102 driver.APA102Config `yaml:"apa102"`
	//Preview is the http address of the websocket preview. It is served in addition to the
	//hardware driver if set, or alone if the type is "preview".
	Preview string `yaml:"preview"`
}

//Serial configures the Adalight driver
type Serial struct {
	Port string `yaml:"port"`
	Baud int    `yaml:"baud"`
}

//Default returns the configuration that is used for everything the file does not set
func Default() Config {
	return Config{
		LEDs:              60,
		SequenceTolerance: engine.DefaultSequenceTolerance,
		Throttle:          render.DefaultThrottle,
		WriteTimeout:      engine.DefaultWriteTimeout,
		RenderTimeout:     engine.DefaultRenderTimeout,
		Settings:          "settings.yaml",
		StatsInterval:     time.Minute,
		Log:               Log{Level: "info", Format: "text"},
		Driver: Driver{
			Type:   DriverLog,
			Serial: Serial{Baud: driver.DefaultBaud},
			APA102: driver.APA102Config{Chip: "gpiochip0", DataPin: 10, ClockPin: 11, Brightness: driver.MaxBrightness},
		},
	}
}

//Load reads the file at path over the defaults. Unknown keys are an error.
func Load(path string) (Config, error) {
	c := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("could not open config file: %w", err)
	}
	if err := yaml.UnmarshalStrict(raw, &c); err != nil {
		return c, fmt.Errorf("could not parse config file: %w", err)
	}
	return c, c.Validate()
}

//Validate checks the values that would make the daemon misbehave
func (c Config) Validate() error {
	if c.LEDs <= 0 {
		return fmt.Errorf("leds must be positive, is %d", c.LEDs)
	}
	if c.LEDs*3 > 0xffff {
		return fmt.Errorf("too many leds: %d", c.LEDs)
	}
	if c.WriteTimeout <= 0 || c.RenderTimeout <= 0 {
		return fmt.Errorf("lock timeouts must be positive")
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	switch c.Driver.Type {
	case DriverLog, DriverAPA102:
	case DriverSerial:
		if c.Driver.Serial.Port == "" {
			return fmt.Errorf("serial driver needs a port")
		}
	case DriverPreview:
		if c.Driver.Preview == "" {
			return fmt.Errorf("preview driver needs an address")
		}
	default:
		return fmt.Errorf("unknown driver %q", c.Driver.Type)
	}
	return nil
}

//SetupLogging configures the standard logrus logger
func (c Config) SetupLogging() error {
	level, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		return err
	}
	log.SetLevel(level)
	if c.Log.Format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	return nil
}
