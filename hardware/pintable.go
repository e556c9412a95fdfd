package hardware

import (
	"github.com/open-rack-vent/orvcli/util"
)

// PinKind discriminates the variants of PinDescriptor.
type PinKind int

const (
	PinPWM PinKind = iota
	PinGPIO
	PinADC
)

// PinDescriptor describes the physical signal behind a board marking.
// Header is the host header pin name (e.g. "P9_14") handed to the pin-mode
// configuration utility before first use.
type PinDescriptor struct {
	Kind   PinKind
	Header string

	// PWM fields: controller id and channel letter under the PWM device tree.
	Controller int
	Channel    string

	// GPIO fields: controller bank and index within that bank.
	Bank  int
	Index int

	// ADC field: analog input channel index.
	ADCChannel int
}

// FlatGPIONumber is the number used with the GPIO export control file.
func (p PinDescriptor) FlatGPIONumber() int {
	return p.Bank*32 + p.Index
}

func pwmPin(header string, controller int, channel string) PinDescriptor {
	return PinDescriptor{Kind: PinPWM, Header: header, Controller: controller, Channel: channel}
}

func gpioPin(header string, bank, index int) PinDescriptor {
	return PinDescriptor{Kind: PinGPIO, Header: header, Bank: bank, Index: index}
}

func adcPin(header string, channel int) PinDescriptor {
	return PinDescriptor{Kind: PinADC, Header: header, ADCChannel: channel}
}

// pinTables maps each PCB revision to its marking assignments on the
// BeagleBone Black headers. Channel and bank numbers are from the
// beagleboard documentation.
var pinTables = map[PCBRevision]map[Marking]PinDescriptor{
	RevisionV100: {
		MarkingOnboard: pwmPin("P8_13", 2, "b"),
		MarkingPN1:     pwmPin("P9_14", 1, "a"),
		MarkingPN2:     pwmPin("P9_16", 1, "b"),
		MarkingPN3:     pwmPin("P9_22", 0, "a"),
		MarkingPN4:     pwmPin("P9_29", 0, "b"),
		MarkingPN5:     pwmPin("P8_19", 2, "a"),

		MarkingTMP0: adcPin("P9_35", 6),
		MarkingTMP1: adcPin("P9_36", 5),
		MarkingTMP2: adcPin("P9_33", 4),
		MarkingTMP3: adcPin("P9_37", 2),
		MarkingTMP4: adcPin("P9_39", 0),
		MarkingTMP5: adcPin("P9_38", 3),
		MarkingTMP6: adcPin("P9_40", 1),

		MarkingGN0: gpioPin("P9_41", 0, 20),
		MarkingGN1: gpioPin("P9_42", 0, 7),
		MarkingGN2: gpioPin("P8_17", 0, 27),
		MarkingGN3: gpioPin("P8_18", 2, 1),

		MarkingRun:   gpioPin("P9_13", 0, 31),
		MarkingWeb:   gpioPin("P9_12", 1, 28),
		MarkingFault: gpioPin("P9_11", 0, 30),
	},
}

// Resolve looks up the physical signal for a board marking on a PCB
// revision. It is pure: no I/O, no side effects.
func Resolve(rev PCBRevision, marking Marking) (PinDescriptor, error) {
	table, ok := pinTables[rev]
	if !ok {
		return PinDescriptor{}, util.NewError(util.EC_UnknownMarking,
			"unknown pcb revision: "+string(rev))
	}
	pin, ok := table[marking]
	if !ok {
		return PinDescriptor{}, util.NewUnknownMarkingError(string(marking))
	}
	return pin, nil
}
