//Package render moves the pixels of the engine to the LED hardware
package render

import (
	"context"
	"errors"
	"time"

	"github.com/Hundemeier/go-artnet-led/engine"
	log "github.com/sirupsen/logrus"
)

//DefaultThrottle is the minimum time between two pushes to the hardware
const DefaultThrottle = 40 * time.Millisecond

var logger = log.WithField("component", "render")

//Driver writes one frame of RGB byte triples to the LEDs. Write is never called concurrently.
type Driver interface {
	Write(rgb []byte) error
	Close() error
}

//Source is what the task renders from. *engine.Engine implements it.
type Source interface {
	LEDCount() int
	Refresh() <-chan struct{}
	Animation() (time.Duration, bool)
	Tick() error
	Frame(dst []byte) error
}

var _ Source = (*engine.Engine)(nil)

//Task pushes the pixels to the driver whenever they changed and steps animations
type Task struct {
	source   Source
	driver   Driver
	throttle time.Duration
	frame    []byte
	//lastStep is the time of the last animation step, zero if no animation is running
	lastStep time.Time
}

//NewTask creates a render task. A throttle of 0 uses DefaultThrottle.
func NewTask(source Source, driver Driver, throttle time.Duration) *Task {
	if throttle <= 0 {
		throttle = DefaultThrottle
	}
	return &Task{
		source:   source,
		driver:   driver,
		throttle: throttle,
		frame:    make([]byte, 3*source.LEDCount()),
	}
}

//Run renders until ctx is cancelled. It returns the error of the context.
func (t *Task) Run(ctx context.Context) error {
	logger.WithField("throttle", t.throttle).Info("render task started")
	defer logger.Info("render task stopped")
	for {
		var err error
		if delay, animated := t.source.Animation(); animated {
			err = t.animate(ctx, delay)
		} else {
			t.lastStep = time.Time{}
			err = t.idle(ctx)
		}
		if err != nil {
			return err
		}
	}
}

//idle waits for a change, pushes it and lets further changes coalesce for the throttle time
func (t *Task) idle(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.source.Refresh():
	}
	t.push()
	return sleep(ctx, t.throttle)
}

//animate either steps the animation if its delay has passed or waits for the next step, a
//change or the throttle time, whatever comes first
func (t *Task) animate(ctx context.Context, delay time.Duration) error {
	now := time.Now()
	if t.lastStep.IsZero() {
		t.lastStep = now
	}
	remaining := delay - now.Sub(t.lastStep)
	if remaining <= 0 {
		t.lastStep = now
		//a failed step is skipped, the next one is due after delay
		if err := t.source.Tick(); err != nil {
			logger.Warn("skipping animation step: ", err)
			return nil
		}
		t.push()
		return nil
	}

	timer := time.NewTimer(min(remaining, t.throttle))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.source.Refresh():
		t.push()
	case <-timer.C:
	}
	return nil
}

//push copies the frame under the lock and writes it outside of it
func (t *Task) push() {
	if err := t.source.Frame(t.frame); err != nil {
		if errors.Is(err, engine.ErrLockTimeout) {
			logger.Warn("skipping frame: ", err)
		} else {
			logger.Error("could not read frame: ", err)
		}
		return
	}
	if err := t.driver.Write(t.frame); err != nil {
		logger.Error("driver write failed: ", err)
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
