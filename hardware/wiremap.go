package hardware

import (
	"fmt"

	"github.com/open-rack-vent/orvcli/util"
)

// WireMapVersion versions the user-supplied wire map document, since it
// lives outside the code (config file) and must stay compatible with it.
type WireMapVersion string

const WireMapVersion1 WireMapVersion = "1"

// WireMap describes how the rack is wired to the PCB: which fan outputs and
// which thermistor inputs serve each rack location. It is immutable once
// validated.
type WireMap struct {
	Version WireMapVersion             `yaml:"version" json:"version"`
	Fans    map[RackLocation][]Marking `yaml:"fans" json:"fans"`
	Sensors map[RackLocation][]Marking `yaml:"sensors" json:"sensors"`
}

// DefaultWireMap is the wiring of the reference rack build.
func DefaultWireMap() *WireMap {
	return &WireMap{
		Version: WireMapVersion1,
		Fans: map[RackLocation][]Marking{
			"upper-intake":  {MarkingOnboard, MarkingPN3},
			"lower-intake":  {MarkingPN2, MarkingPN5},
			"upper-exhaust": {},
		},
		Sensors: map[RackLocation][]Marking{
			"intake":  {MarkingTMP0, MarkingTMP1},
			"exhaust": {MarkingTMP4, MarkingTMP5},
		},
	}
}

// Validate checks that the wire map only references markings that exist for
// the given PCB revision and that fan markings are PWM outputs and sensor
// markings are ADC inputs. A wire map that fails validation must never be
// used to build a hardware resource.
func (m *WireMap) Validate(rev PCBRevision) error {
	if m.Version != WireMapVersion1 {
		return util.NewError(util.EC_InvalidWireMap,
			fmt.Sprintf("unsupported wire map version: %q", m.Version))
	}
	for location, markings := range m.Fans {
		for _, marking := range markings {
			pin, err := Resolve(rev, marking)
			if err != nil {
				return invalidWireMap(location, marking, err)
			}
			if pin.Kind != PinPWM {
				return invalidWireMap(location, marking,
					fmt.Errorf("not a pwm output"))
			}
		}
	}
	for location, markings := range m.Sensors {
		for _, marking := range markings {
			pin, err := Resolve(rev, marking)
			if err != nil {
				return invalidWireMap(location, marking, err)
			}
			if pin.Kind != PinADC {
				return invalidWireMap(location, marking,
					fmt.Errorf("not an adc input"))
			}
		}
	}
	return nil
}

func invalidWireMap(location RackLocation, marking Marking, cause error) error {
	return &util.Error{
		Code:    util.EC_InvalidWireMap,
		Message: fmt.Sprintf("invalid wire map: %s at %s", marking, location),
		Name:    string(marking),
		Cause:   cause,
	}
}
