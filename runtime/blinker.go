package runtime

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/open-rack-vent/orvcli/hardware"
	"github.com/open-rack-vent/orvcli/util"
)

// Blinker toggles the run indicator on a fixed interval as a liveness
// heartbeat. Failures to drive the LED are logged and the loop keeps going.
type Blinker struct {
	hw       hardware.Interface
	interval time.Duration
	stop     *StopSignal
	wg       sync.WaitGroup
	started  util.AtomicBool
	log      *logrus.Entry
}

func NewBlinker(hw hardware.Interface, interval time.Duration, stop *StopSignal) *Blinker {
	return &Blinker{
		hw:       hw,
		interval: interval,
		stop:     stop,
		log:      util.Logger.WithField("module", "blinker"),
	}
}

// Start launches the blink loop.
func (b *Blinker) Start() {
	if !b.started.StoreIf(false, true) {
		return
	}
	b.wg.Add(1)
	go b.run()
}

// Join blocks until the blink loop has exited and the LED is off.
func (b *Blinker) Join() {
	b.wg.Wait()
}

func (b *Blinker) run() {
	defer b.wg.Done()
	on := false
	for {
		select {
		case <-b.stop.Done():
			if _, err := b.hw.SetIndicator(hardware.IndicatorRun, false); err != nil {
				b.log.WithError(err).Warn("could not clear run indicator")
			}
			return
		case <-time.After(b.interval):
			on = !on
			if _, err := b.hw.SetIndicator(hardware.IndicatorRun, on); err != nil {
				b.log.WithError(err).Warn("could not toggle run indicator")
			}
		}
	}
}
