//Command artnet-send sends programs and settings to Art-Net LED nodes.
//
//	artnet-send [flags] straight ff0000 00ff00 ...
//	artnet-send [flags] chain 0000ff
//	artnet-send [flags] chain-reversed 0000ff
//	artnet-send [flags] -delay 30ms -tick 2 -pixel 10 -start ff0000 rainbow
//	artnet-send [flags] dmx-settings <universe> <shift>
//	artnet-send [flags] sta <ssid> <password> [<ssid> <password> ...]
//	artnet-send [flags] ap <always 0|1> <ssid template> <password>
package main

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/Hundemeier/go-artnet-led/artnet"
	"github.com/Hundemeier/go-artnet-led/colorconv"
	"github.com/Hundemeier/go-artnet-led/engine"
	log "github.com/sirupsen/logrus"
)

var (
	to       = flag.String("to", "255.255.255.255", "destination address of the node, broadcast by default")
	bind     = flag.String("bind", "", "local address to send from")
	universe = flag.Uint("universe", 0, "DMX universe")
	shift    = flag.Uint("shift", 0, "number of zero channels before the program byte")
	hold     = flag.Duration("hold", 0, "keep repeating the DMX data every second for this long")

	rainbowID    = flag.Uint("id", 1, "rainbow change id, 0 restarts the rainbow every time")
	rainbowDelay = flag.Duration("delay", 50*time.Millisecond, "rainbow step delay")
	rainbowTick  = flag.Uint("tick", 1, "rainbow hue step per tick in degrees")
	rainbowPixel = flag.Uint("pixel", 10, "rainbow hue step per pixel in degrees")
	rainbowStart = flag.String("start", "ff0000", "rainbow start color")
	rainbowTint  = flag.String("tint", "000000", "rainbow tint color")
	rainbowLevel = flag.Uint("level", 0, "rainbow tint level 0-255")
	rainbowHSV   = flag.Bool("hsv", false, "blend the tint in HSV instead of RGB")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), "usage: artnet-send [flags] straight|chain|chain-reversed|rainbow|dmx-settings|sta|ap [args]")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}
	if err := run(flag.Arg(0), flag.Args()[1:]); err != nil {
		log.Fatal(err)
	}
}

func run(command string, args []string) error {
	trans, err := artnet.NewTransmitter(*bind)
	if err != nil {
		return err
	}
	defer trans.Close()

	switch command {
	case "straight", "chain", "chain-reversed", "rainbow":
		data, err := programData(command, args)
		if err != nil {
			return err
		}
		return sendDMX(trans, data)
	case "dmx-settings", "sta", "ap":
		op, payload, err := settingsPayload(command, args)
		if err != nil {
			return err
		}
		log.WithField("opcode", op).Infof("sending %d bytes to %s", len(payload), *to)
		return trans.SendConfig(op, payload, []string{*to})
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

//programData builds the DMX data for one of the programs, including the shift
func programData(command string, args []string) ([]byte, error) {
	data := make([]byte, *shift)
	switch command {
	case "straight":
		data = append(data, byte(engine.ProgramStraight))
		for _, a := range args {
			c, err := parseColor(a)
			if err != nil {
				return nil, err
			}
			data = append(data, c.R, c.G, c.B)
		}
	case "chain", "chain-reversed":
		if len(args) != 1 {
			return nil, errors.New("chain needs exactly one color")
		}
		c, err := parseColor(args[0])
		if err != nil {
			return nil, err
		}
		id := engine.ProgramChain
		if command == "chain-reversed" {
			id = engine.ProgramChainReversed
		}
		data = append(data, byte(id), c.R, c.G, c.B)
	case "rainbow":
		p, err := rainbowParams()
		if err != nil {
			return nil, err
		}
		log.WithField("rainbow", p).Info("sending rainbow")
		data = append(data, byte(engine.ProgramRainbow))
		data = append(data, p.Bytes()...)
	}
	return data, nil
}

func rainbowParams() (engine.RainbowParams, error) {
	start, err := parseColor(*rainbowStart)
	if err != nil {
		return engine.RainbowParams{}, err
	}
	tint, err := parseColor(*rainbowTint)
	if err != nil {
		return engine.RainbowParams{}, err
	}
	mode := colorconv.BlendRGB
	if *rainbowHSV {
		mode = colorconv.BlendHSV
	}
	return engine.RainbowParams{
		ChangeID:  uint8(*rainbowID),
		Delay:     *rainbowDelay,
		TickStep:  uint16(*rainbowTick),
		PixelStep: uint16(*rainbowPixel),
		Start:     start,
		Tint:      tint,
		TintLevel: uint8(*rainbowLevel),
		Mode:      mode,
	}, nil
}

//settingsPayload builds the payload of one of the settings packets
func settingsPayload(command string, args []string) (artnet.OpCode, []byte, error) {
	switch command {
	case "dmx-settings":
		if len(args) != 2 {
			return 0, nil, errors.New("dmx-settings needs universe and shift")
		}
		u, err := strconv.ParseUint(args[0], 10, 16)
		if err != nil {
			return 0, nil, err
		}
		s, err := strconv.ParseUint(args[1], 10, 16)
		if err != nil {
			return 0, nil, err
		}
		payload := binary.LittleEndian.AppendUint16(nil, uint16(u))
		return artnet.OpDmxSettings, binary.LittleEndian.AppendUint16(payload, uint16(s)), nil
	case "sta":
		if len(args) == 0 || len(args)%2 != 0 {
			return 0, nil, errors.New("sta needs ssid/password pairs")
		}
		var payload []byte
		for _, a := range args {
			payload = append(append(payload, a...), 0)
		}
		return artnet.OpWifiStationSettings, append(payload, 0), nil
	case "ap":
		if len(args) != 3 {
			return 0, nil, errors.New("ap needs always, ssid template and password")
		}
		always, err := strconv.ParseBool(args[0])
		if err != nil {
			return 0, nil, err
		}
		payload := []byte{0}
		if always {
			payload[0] = 1
		}
		payload = append(append(payload, args[1]...), 0)
		payload = append(append(payload, args[2]...), 0)
		return artnet.OpWifiAPSettings, payload, nil
	}
	return 0, nil, fmt.Errorf("unknown command %q", command)
}

func sendDMX(trans *artnet.Transmitter, data []byte) error {
	ch, err := trans.Activate(uint16(*universe))
	if err != nil {
		return err
	}
	if errs := trans.SetDestinations(uint16(*universe), []string{*to}); errs != nil {
		close(ch)
		return errs[0]
	}
	log.WithFields(log.Fields{"universe": *universe, "length": len(data)}).Infof("sending DMX to %s", *to)
	ch <- data
	time.Sleep(*hold + 50*time.Millisecond)
	close(ch)
	return nil
}

//parseColor reads a color like "ff8000" or "#ff8000"
func parseColor(s string) (colorconv.RGB, error) {
	if len(s) > 0 && s[0] == '#' {
		s = s[1:]
	}
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != 3 {
		return colorconv.RGB{}, fmt.Errorf("invalid color %q", s)
	}
	return colorconv.RGBFromBytes(b), nil
}
