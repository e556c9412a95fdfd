// Package hardware binds logical rack locations to the physical fan, probe
// and indicator channels of an Open Rack Vent PCB and executes the low-level
// device operations that drive them.
package hardware

// RackLocation identifies a position or zone in the equipment rack that one
// or more physical channels serve (e.g. "upper-intake"). It is the shared
// vocabulary between every control surface and the hardware layer.
type RackLocation string

// Marking is a human-readable label printed next to a connector on the PCB.
type Marking string

// Active-low PWM fan outputs.
const (
	MarkingOnboard Marking = "ONBOARD"
	MarkingPN1     Marking = "PN1"
	MarkingPN2     Marking = "PN2"
	MarkingPN3     Marking = "PN3"
	MarkingPN4     Marking = "PN4"
	MarkingPN5     Marking = "PN5"
)

// Thermistor probe inputs, designed for 3950K 10k ohm NTC probes.
const (
	MarkingTMP0 Marking = "TMP0"
	MarkingTMP1 Marking = "TMP1"
	MarkingTMP2 Marking = "TMP2"
	MarkingTMP3 Marking = "TMP3"
	MarkingTMP4 Marking = "TMP4"
	MarkingTMP5 Marking = "TMP5"
	MarkingTMP6 Marking = "TMP6"
)

// Active-low GPIO outputs. Only suitable for on/off control.
const (
	MarkingGN0 Marking = "GN0"
	MarkingGN1 Marking = "GN1"
	MarkingGN2 Marking = "GN2"
	MarkingGN3 Marking = "GN3"
)

// Onboard status LED markings.
const (
	MarkingRun   Marking = "RUN"
	MarkingWeb   Marking = "WEB"
	MarkingFault Marking = "FAULT"
)

// Indicator names an onboard status LED.
type Indicator string

const (
	IndicatorRun   Indicator = "run"
	IndicatorWeb   Indicator = "web"
	IndicatorFault Indicator = "fault"
)

// indicatorMarkings maps each indicator to its LED marking. The set of
// indicators is fixed per board, not user-wired.
var indicatorMarkings = map[Indicator]Marking{
	IndicatorRun:   MarkingRun,
	IndicatorWeb:   MarkingWeb,
	IndicatorFault: MarkingFault,
}

// PCBRevision is a hardware revision of the Open Rack Vent PCB.
type PCBRevision string

const RevisionV100 PCBRevision = "v1.0.0"

// Platform is the host board driving the PCB.
type Platform string

const (
	PlatformBeagleBoneBlack Platform = "beaglebone-black"
	PlatformRaspberryPi     Platform = "raspberry-pi"
)
