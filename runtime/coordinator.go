package runtime

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/open-rack-vent/orvcli/hardware"
	"github.com/open-rack-vent/orvcli/util"
)

// Coordinator owns the control surfaces and the indicator blink task. It
// starts everything, then blocks on the stop signal and drives one
// cooperative shutdown. After Run returns no background goroutine still
// references the hardware resource.
type Coordinator struct {
	hw       hardware.Interface
	surfaces []ControlSurface
	blinker  *Blinker
	stop     *StopSignal
	log      *logrus.Entry
}

func NewCoordinator(hw hardware.Interface, surfaces []ControlSurface, blinkInterval time.Duration, stop *StopSignal) *Coordinator {
	return &Coordinator{
		hw:       hw,
		surfaces: surfaces,
		blinker:  NewBlinker(hw, blinkInterval, stop),
		stop:     stop,
		log:      util.Logger.WithField("module", "coordinator"),
	}
}

// Run starts every surface and blocks until the stop signal fires, then
// stops the surfaces in reverse start order. A surface that fails to start
// is fatal: the fault indicator is raised best-effort, already-started
// surfaces are shut down, and the error is returned.
func (c *Coordinator) Run() error {
	started := make([]ControlSurface, 0, len(c.surfaces))
	for _, surface := range c.surfaces {
		c.log.WithField("surface", surface.Name()).Info("starting control surface")
		if err := surface.Start(); err != nil {
			c.log.WithError(err).WithField("surface", surface.Name()).
				Error("control surface failed to start")
			c.fault()
			c.stop.Trigger()
			stopAll(started)
			return err
		}
		started = append(started, surface)
	}

	c.blinker.Start()
	c.log.WithField("surfaces", len(started)).Info("all control surfaces started")

	c.stop.Wait()

	c.log.Info("shutting down")
	c.blinker.Join()
	stopAll(started)
	c.log.Info("shutdown complete")
	return nil
}

// Trigger requests a cooperative shutdown.
func (c *Coordinator) Trigger() {
	c.stop.Trigger()
}

func (c *Coordinator) fault() {
	if _, err := c.hw.SetIndicator(hardware.IndicatorFault, true); err != nil {
		c.log.WithError(err).Warn("could not raise fault indicator")
	}
}

func stopAll(surfaces []ControlSurface) {
	for i := len(surfaces) - 1; i >= 0; i-- {
		surfaces[i].Stop()
	}
}
