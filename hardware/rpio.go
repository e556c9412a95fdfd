package hardware

import (
	"fmt"
	"math"
	"sort"

	"github.com/sirupsen/logrus"
	"github.com/stianeikeland/go-rpio/v4"

	"github.com/open-rack-vent/orvcli/util"
)

// Raspberry Pi carrier pin assignment (BCM numbering). The Pi only exposes
// four hardware PWM pins, so PN4 and PN5 have no home on this platform, and
// there is no onboard ADC: wire maps that reference probes are rejected.
var rpioFanPins = map[Marking]rpio.Pin{
	MarkingOnboard: rpio.Pin(18),
	MarkingPN1:     rpio.Pin(12),
	MarkingPN2:     rpio.Pin(13),
	MarkingPN3:     rpio.Pin(19),
}

var rpioIndicatorPins = map[Indicator]rpio.Pin{
	IndicatorRun:   rpio.Pin(5),
	IndicatorWeb:   rpio.Pin(6),
	IndicatorFault: rpio.Pin(16),
}

const (
	// PWM clock and cycle length: 1 MHz clock over 100 steps gives a
	// 10 kHz output with 1% duty resolution.
	rpioPWMClockHz = 1_000_000
	rpioCycleLen   = 100
)

// RpioResource drives fans and indicators through the Raspberry Pi's
// memory-mapped GPIO. Callers that tear the process down should Close it to
// unmap the GPIO range.
type RpioResource struct {
	fans       map[RackLocation][]rpioFanChannel
	probes     map[RackLocation]struct{}
	indicators map[Indicator]rpio.Pin
	log        *logrus.Entry
}

type rpioFanChannel struct {
	marking Marking
	pin     rpio.Pin
}

var _ Interface = (*RpioResource)(nil)

// NewRpioResource resolves the wire map against the Pi carrier pin
// assignment and opens the GPIO memory range.
func NewRpioResource(wm *WireMap) (*RpioResource, error) {
	if wm.Version != WireMapVersion1 {
		return nil, util.NewError(util.EC_InvalidWireMap,
			fmt.Sprintf("unsupported wire map version: %q", wm.Version))
	}

	r := &RpioResource{
		fans:       make(map[RackLocation][]rpioFanChannel),
		probes:     make(map[RackLocation]struct{}),
		indicators: rpioIndicatorPins,
		log:        util.Logger.WithField("module", "hardware-rpio"),
	}

	for location, markings := range wm.Fans {
		channels := make([]rpioFanChannel, 0, len(markings))
		for _, marking := range markings {
			pin, ok := rpioFanPins[marking]
			if !ok {
				return nil, invalidWireMap(location, marking,
					fmt.Errorf("no pwm pin on the raspberry pi carrier"))
			}
			channels = append(channels, rpioFanChannel{marking, pin})
		}
		r.fans[location] = channels
	}
	for location, markings := range wm.Sensors {
		if len(markings) > 0 {
			return nil, invalidWireMap(location, markings[0],
				fmt.Errorf("the raspberry pi carrier has no adc"))
		}
		r.probes[location] = struct{}{}
	}

	r.log.Info("opening rpio")
	if err := rpio.Open(); err != nil {
		return nil, util.NewTransportError("error opening rpio", err)
	}
	return r, nil
}

// Close unmaps the GPIO memory range.
func (r *RpioResource) Close() error {
	return rpio.Close()
}

func (r *RpioResource) SetFanPower(location RackLocation, power float64) (cmds []string, err error) {
	if err = util.CheckUnitRange(power, "power"); err != nil {
		return
	}
	channels, ok := r.fans[location]
	if !ok {
		err = util.NewUnknownLocationError(string(location))
		return
	}
	duty := uint32(math.Round(power * rpioCycleLen))
	for _, ch := range channels {
		ch.pin.Pwm()
		ch.pin.Freq(rpioPWMClockHz)
		ch.pin.DutyCycle(duty, rpioCycleLen)
		cmds = append(cmds, fmt.Sprintf("rpio pwm pin=%d duty=%d/%d", ch.pin, duty, rpioCycleLen))
	}
	r.log.WithFields(logrus.Fields{"location": location, "power": power}).
		Debug("set fan power")
	return
}

func (r *RpioResource) ReadTemperatures(location RackLocation) ([]Reading, error) {
	if _, ok := r.probes[location]; !ok {
		return nil, util.NewUnknownLocationError(string(location))
	}
	// No ADC on this platform; only empty sensor groups validate.
	return []Reading{}, nil
}

func (r *RpioResource) SetIndicator(name Indicator, on bool) ([]string, error) {
	pin, ok := r.indicators[name]
	if !ok {
		return nil, util.NewUnknownIndicatorError(string(name))
	}
	pin.Output()
	value := 0
	if on {
		pin.High()
		value = 1
	} else {
		pin.Low()
	}
	return []string{fmt.Sprintf("rpio gpio pin=%d value=%d", pin, value)}, nil
}

func (r *RpioResource) FanLocations() []RackLocation {
	locations := make([]RackLocation, 0, len(r.fans))
	for location := range r.fans {
		locations = append(locations, location)
	}
	sort.Slice(locations, func(i, j int) bool { return locations[i] < locations[j] })
	return locations
}

func (r *RpioResource) SensorLocations() []RackLocation {
	locations := make([]RackLocation, 0, len(r.probes))
	for location := range r.probes {
		locations = append(locations, location)
	}
	sort.Slice(locations, func(i, j int) bool { return locations[i] < locations[j] })
	return locations
}
