package hardware

import (
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/open-rack-vent/orvcli/util"
)

// Default device filesystem roots on a BeagleBone Black.
const (
	defaultPWMRoot  = "/dev/bone/pwm"
	defaultGPIORoot = "/sys/class/gpio"
	defaultADCRoot  = "/sys/bus/iio/devices/iio:device0"
)

// Sequencer turns one hardware command (set PWM duty, set GPIO level, read
// ADC counts) into the minimal ordered sequence of device filesystem
// operations and executes them. Every operation is synchronous and
// unbatched; transient failures propagate to the caller, no retries.
type Sequencer struct {
	fs       DeviceFS
	pinMode  PinModeSetter
	pwmRoot  string
	gpioRoot string
	adcRoot  string
	log      *logrus.Entry
}

// NewSequencer creates a Sequencer with the default device roots.
func NewSequencer(fs DeviceFS, pinMode PinModeSetter) *Sequencer {
	return &Sequencer{
		fs, pinMode,
		defaultPWMRoot, defaultGPIORoot, defaultADCRoot,
		util.Logger.WithField("module", "sequencer"),
	}
}

// NewHostSequencer creates a Sequencer operating on the real host.
func NewHostSequencer() *Sequencer {
	return NewSequencer(HostFS{}, ExecPinMode{})
}

// WithRoots overrides the device filesystem roots.
func (s *Sequencer) WithRoots(pwmRoot, gpioRoot, adcRoot string) *Sequencer {
	s.pwmRoot, s.gpioRoot, s.adcRoot = pwmRoot, gpioRoot, adcRoot
	return s
}

func (s *Sequencer) echoValue(p string, value string) (string, error) {
	if err := s.fs.WriteValue(p, value); err != nil {
		return "", util.NewTransportError(fmt.Sprintf("could not write %s", p), err)
	}
	return fmt.Sprintf("echo %s > %s", p, value), nil
}

// ConfigurePWM programs a PWM output channel: pin mode, then period, then
// duty cycle, then enable. Period is always written before duty so the duty
// value can never exceed the current period.
func (s *Sequencer) ConfigurePWM(pin PinDescriptor, periodNs int64, duty float64) (cmds []string, err error) {
	if err = s.pinMode.SetPinMode(pin.Header, "pwm"); err != nil {
		return
	}

	base := path.Join(s.pwmRoot, strconv.Itoa(pin.Controller), pin.Channel)
	dutyNs := int64(float64(periodNs) * duty)

	writes := [][2]string{
		{path.Join(base, "period"), strconv.FormatInt(periodNs, 10)},
		{path.Join(base, "duty_cycle"), strconv.FormatInt(dutyNs, 10)},
		{path.Join(base, "enable"), "1"},
	}
	for _, w := range writes {
		var cmd string
		cmd, err = s.echoValue(w[0], w[1])
		if err != nil {
			return
		}
		cmds = append(cmds, cmd)
	}
	s.log.WithFields(logrus.Fields{
		"pin": pin.Header, "period_ns": periodNs, "duty_ns": dutyNs,
	}).Debug("configured pwm channel")
	return
}

// ConfigureGPIO drives a GPIO pin as an output at the given level. The pin
// is exported first if its device node does not exist yet; exporting an
// already-exported pin is skipped, never an error.
func (s *Sequencer) ConfigureGPIO(pin PinDescriptor, level bool) (cmds []string, err error) {
	if err = s.pinMode.SetPinMode(pin.Header, "gpio"); err != nil {
		return
	}

	num := pin.FlatGPIONumber()
	nodePath := path.Join(s.gpioRoot, fmt.Sprintf("gpio%d", num))

	if !s.fs.Exists(nodePath) {
		var cmd string
		cmd, err = s.echoValue(path.Join(s.gpioRoot, "export"), strconv.Itoa(num))
		if err != nil {
			return
		}
		cmds = append(cmds, cmd)
	}

	value := "0"
	if level {
		value = "1"
	}
	writes := [][2]string{
		{path.Join(nodePath, "direction"), "out"},
		{path.Join(nodePath, "value"), value},
	}
	for _, w := range writes {
		var cmd string
		cmd, err = s.echoValue(w[0], w[1])
		if err != nil {
			return
		}
		cmds = append(cmds, cmd)
	}
	s.log.WithFields(logrus.Fields{"pin": pin.Header, "gpio": num, "level": level}).
		Debug("configured gpio pin")
	return
}

// ReadADC reads the raw counts of an analog input channel. Every call
// re-reads the device file; nothing is cached.
func (s *Sequencer) ReadADC(channel int) (counts int, err error) {
	p := path.Join(s.adcRoot, fmt.Sprintf("in_voltage%d_raw", channel))
	raw, err := s.fs.ReadValue(p)
	if err != nil {
		err = util.NewTransportError(fmt.Sprintf("could not read %s", p), err)
		return
	}
	counts, err = strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		err = util.NewParseError("adc counts", err)
	}
	return
}
