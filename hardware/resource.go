package hardware

import (
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/open-rack-vent/orvcli/util"
)

// fanPeriodNs is the PWM period driven on every fan output (1 MHz).
const fanPeriodNs = 1000

// Reading is the outcome of reading one temperature probe. A failed probe
// is data, not a call failure: Err is set and Celsius is meaningless.
type Reading struct {
	Probe   Marking
	Celsius float64
	Err     error
}

// Interface is the capability set every control surface operates on. It is
// built exactly once at process start and is immutable afterwards; every
// operation is a self-contained device I/O sequence with no shared mutable
// state, so concurrent calls from independent surfaces need no locking.
// Two callers racing to set the same fan channel are last-writer-wins: fan
// commands are idempotent and monotonically superseding, so the race is
// accepted rather than locked away.
type Interface interface {
	// SetFanPower drives every PWM channel wired to the location at the
	// given power fraction and returns the consolidated operation log.
	SetFanPower(location RackLocation, power float64) ([]string, error)

	// ReadTemperatures reads every probe wired to the location. A location
	// with no probes yields an empty, non-error result. Callers decide how
	// to aggregate.
	ReadTemperatures(location RackLocation) ([]Reading, error)

	// SetIndicator switches an onboard status LED.
	SetIndicator(name Indicator, on bool) ([]string, error)

	FanLocations() []RackLocation
	SensorLocations() []RackLocation
}

// Build constructs the hardware resource for the configured platform.
func Build(platform Platform, rev PCBRevision, wm *WireMap) (Interface, error) {
	switch platform {
	case PlatformBeagleBoneBlack:
		return NewBoneResource(rev, wm, NewHostSequencer(), CountsToCelsius)
	case PlatformRaspberryPi:
		return NewRpioResource(wm)
	default:
		return nil, util.NewError(util.EC_InvalidWireMap,
			fmt.Sprintf("unsupported platform: %q", platform))
	}
}

// BoneResource drives the PCB from a BeagleBone Black through the device
// filesystem sequencer.
type BoneResource struct {
	seq        *Sequencer
	convert    TemperatureConverter
	fans       map[RackLocation][]PinDescriptor
	probes     map[RackLocation][]probeChannel
	indicators map[Indicator]PinDescriptor
	log        *logrus.Entry
}

type probeChannel struct {
	marking Marking
	pin     PinDescriptor
}

var _ Interface = (*BoneResource)(nil)

// NewBoneResource validates the wire map against the pin table for the PCB
// revision and resolves every referenced channel. A validation failure is
// fatal: no resource is returned and no surface may start.
func NewBoneResource(rev PCBRevision, wm *WireMap, seq *Sequencer, convert TemperatureConverter) (*BoneResource, error) {
	if err := wm.Validate(rev); err != nil {
		return nil, err
	}

	r := &BoneResource{
		seq:        seq,
		convert:    convert,
		fans:       make(map[RackLocation][]PinDescriptor),
		probes:     make(map[RackLocation][]probeChannel),
		indicators: make(map[Indicator]PinDescriptor),
		log:        util.Logger.WithField("module", "hardware"),
	}

	for location, markings := range wm.Fans {
		pins := make([]PinDescriptor, 0, len(markings))
		for _, marking := range markings {
			pin, err := Resolve(rev, marking)
			if err != nil {
				return nil, err
			}
			pins = append(pins, pin)
		}
		r.fans[location] = pins
	}
	for location, markings := range wm.Sensors {
		channels := make([]probeChannel, 0, len(markings))
		for _, marking := range markings {
			pin, err := Resolve(rev, marking)
			if err != nil {
				return nil, err
			}
			channels = append(channels, probeChannel{marking, pin})
		}
		r.probes[location] = channels
	}
	for name, marking := range indicatorMarkings {
		pin, err := Resolve(rev, marking)
		if err != nil {
			return nil, err
		}
		r.indicators[name] = pin
	}

	r.log.WithFields(logrus.Fields{
		"revision": rev, "fanLocations": len(r.fans), "sensorLocations": len(r.probes),
	}).Info("hardware resource built")
	return r, nil
}

// SetFanPower configures every PWM channel wired to the location. The power
// fraction is range-checked before any device write.
func (r *BoneResource) SetFanPower(location RackLocation, power float64) (cmds []string, err error) {
	if err = util.CheckUnitRange(power, "power"); err != nil {
		return
	}
	pins, ok := r.fans[location]
	if !ok {
		err = util.NewUnknownLocationError(string(location))
		return
	}
	for _, pin := range pins {
		var pinCmds []string
		pinCmds, err = r.seq.ConfigurePWM(pin, fanPeriodNs, power)
		cmds = append(cmds, pinCmds...)
		if err != nil {
			return
		}
	}
	r.log.WithFields(logrus.Fields{"location": location, "power": power}).
		Debug("set fan power")
	return
}

// ReadTemperatures reads every probe wired to the location, converting
// counts through the calibration function. Per-probe failures are reported
// in the Reading, the call itself only fails for an unknown location.
func (r *BoneResource) ReadTemperatures(location RackLocation) ([]Reading, error) {
	channels, ok := r.probes[location]
	if !ok {
		return nil, util.NewUnknownLocationError(string(location))
	}
	readings := make([]Reading, 0, len(channels))
	for _, ch := range channels {
		counts, err := r.seq.ReadADC(ch.pin.ADCChannel)
		if err != nil {
			readings = append(readings, Reading{Probe: ch.marking, Err: err})
			continue
		}
		readings = append(readings, Reading{Probe: ch.marking, Celsius: r.convert(counts)})
	}
	return readings, nil
}

// SetIndicator switches one of the onboard status LEDs.
func (r *BoneResource) SetIndicator(name Indicator, on bool) ([]string, error) {
	pin, ok := r.indicators[name]
	if !ok {
		return nil, util.NewUnknownIndicatorError(string(name))
	}
	return r.seq.ConfigureGPIO(pin, on)
}

func (r *BoneResource) FanLocations() []RackLocation {
	return sortedLocations(r.fans)
}

func (r *BoneResource) SensorLocations() []RackLocation {
	locations := make([]RackLocation, 0, len(r.probes))
	for location := range r.probes {
		locations = append(locations, location)
	}
	sortLocations(locations)
	return locations
}

func sortedLocations(m map[RackLocation][]PinDescriptor) []RackLocation {
	locations := make([]RackLocation, 0, len(m))
	for location := range m {
		locations = append(locations, location)
	}
	sortLocations(locations)
	return locations
}

func sortLocations(locations []RackLocation) {
	sort.Slice(locations, func(i, j int) bool { return locations[i] < locations[j] })
}

// MeanTemperature aggregates the successful readings of a location pass.
// ok is false when zero probes produced a value.
func MeanTemperature(readings []Reading) (mean float64, ok bool) {
	var sum float64
	var n int
	for _, r := range readings {
		if r.Err != nil {
			continue
		}
		sum += r.Celsius
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}
