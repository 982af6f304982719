//Command artnet-led receives Art-Net on one universe and drives an LED strip
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Hundemeier/go-artnet-led/artnet"
	"github.com/Hundemeier/go-artnet-led/config"
	"github.com/Hundemeier/go-artnet-led/driver"
	"github.com/Hundemeier/go-artnet-led/engine"
	"github.com/Hundemeier/go-artnet-led/render"
	"github.com/Hundemeier/go-artnet-led/settings"
	log "github.com/sirupsen/logrus"
)

func main() {
	configPath := flag.String("config", "", "path of the YAML configuration file")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			log.Fatal(err)
		}
	}
	if err := cfg.SetupLogging(); err != nil {
		log.Fatal(err)
	}

	store, err := settings.Open(cfg.Settings)
	if err != nil {
		log.Fatal(err)
	}
	state := store.State()
	universe := engine.UniverseConfig{Universe: cfg.Universe, Shift: cfg.Shift}
	if state.DmxSet {
		universe = state.UniverseConfig()
	}

	eng := engine.New(cfg.LEDs,
		engine.WithUniverseConfig(universe),
		engine.WithSequenceTolerance(cfg.SequenceTolerance),
		engine.WithLockTimeouts(cfg.WriteTimeout, cfg.RenderTimeout),
		engine.WithRainbowStore(store),
	)
	if state.Rainbow != nil {
		if err := eng.RestoreRainbow(*state.Rainbow); err != nil {
			log.Warn("could not restore rainbow: ", err)
		}
	}

	out, err := openDriver(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer out.Close()

	recv, err := artnet.NewReceiverSocket(cfg.Listen)
	if err != nil {
		log.Fatal(err)
	}
	recv.SetOnDmxCallback(func(p artnet.DataPacket) {
		eng.HandleDMX(p.Sequence(), p.Universe(), p.Data())
	})
	settings.NewHandlers(store, eng).Register(recv)

	log.WithFields(log.Fields{
		"leds":     cfg.LEDs,
		"universe": universe.Universe,
		"shift":    universe.Shift,
		"node_id":  state.NodeID,
		"chip_id":  store.ChipID(),
	}).Info("starting Art-Net LED node")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	recv.Start()
	defer recv.Close()
	go logStats(ctx, recv, cfg.StatsInterval)

	task := render.NewTask(eng, out, cfg.Throttle)
	if err := task.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error(err)
	}
	log.Info("shutting down")
}

//openDriver opens the configured hardware driver and adds the websocket preview if an address
//is configured
func openDriver(cfg config.Config) (render.Driver, error) {
	var drivers driver.Multi
	switch cfg.Driver.Type {
	case config.DriverSerial:
		s, err := driver.OpenSerial(cfg.Driver.Serial.Port, cfg.Driver.Serial.Baud)
		if err != nil {
			return nil, err
		}
		drivers = append(drivers, s)
	case config.DriverAPA102:
		a, err := driver.OpenAPA102(cfg.Driver.APA102)
		if err != nil {
			return nil, err
		}
		drivers = append(drivers, a)
	case config.DriverLog:
		drivers = append(drivers, driver.NewLog())
	}
	if cfg.Driver.Preview != "" {
		preview := driver.NewPreview()
		mux := http.NewServeMux()
		mux.Handle("/ws", preview)
		go func() {
			log.WithField("address", cfg.Driver.Preview).Info("serving preview")
			if err := http.ListenAndServe(cfg.Driver.Preview, mux); err != nil {
				log.Error("preview server exited: ", err)
			}
		}()
		drivers = append(drivers, preview)
	}
	if len(drivers) == 1 {
		return drivers[0], nil
	}
	return drivers, nil
}

func logStats(ctx context.Context, recv *artnet.ReceiverSocket, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s := recv.Stats()
			log.WithFields(log.Fields{
				"received":  s.Received,
				"dropped":   s.Dropped,
				"malformed": s.Malformed,
				"restarts":  s.Restarts,
			}).Info("receiver stats")
		}
	}
}
