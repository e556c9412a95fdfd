// Package mqtt is the message-broker control surface. It models the device
// in Home Assistant's discovery conventions, accepts fan commands, and
// publishes retained state and telemetry.
package mqtt

import (
	"encoding/json"
	"strconv"
	"strings"
	"sync"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"

	"github.com/open-rack-vent/orvcli/hardware"
	"github.com/open-rack-vent/orvcli/runtime"
	"github.com/open-rack-vent/orvcli/util"
)

// publisher is the outbound slice of the paho client; tests substitute a
// recorder.
type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) pahomqtt.Token
}

// Config carries the broker session parameters.
type Config struct {
	BrokerURL       string
	DeviceID        string
	Username        string
	Password        string
	PublishInterval time.Duration
	Revision        hardware.PCBRevision
}

// Surface is the broker-facing control surface. The paho client runs its
// own network loop; the telemetry loop is the surface's own goroutine and
// observes the process stop signal at every sleep boundary.
type Surface struct {
	cfg     Config
	hw      hardware.Interface
	stop    *runtime.StopSignal
	client  pahomqtt.Client
	quit    chan struct{}
	wg      sync.WaitGroup
	stopped util.AtomicBool
	log     *logrus.Entry
}

var _ runtime.ControlSurface = (*Surface)(nil)

func NewSurface(cfg Config, hw hardware.Interface, stop *runtime.StopSignal) *Surface {
	return &Surface{
		cfg:  cfg,
		hw:   hw,
		stop: stop,
		quit: make(chan struct{}),
		log:  util.Logger.WithField("module", "mqtt"),
	}
}

func (s *Surface) Name() string {
	return "mqtt"
}

// Start connects to the broker, registers the offline last-will, publishes
// availability and discovery, subscribes to the fan command topics and
// launches the telemetry loop.
func (s *Surface) Start() error {
	opts := pahomqtt.NewClientOptions()
	opts.AddBroker(s.cfg.BrokerURL)
	opts.SetClientID(s.cfg.DeviceID + "_controller")
	if s.cfg.Username != "" {
		opts.SetUsername(s.cfg.Username)
		opts.SetPassword(s.cfg.Password)
	}
	opts.SetWill(statusTopic(s.cfg.DeviceID), "offline", 1, true)
	opts.SetOnConnectHandler(func(client pahomqtt.Client) {
		s.log.Info("connected to mqtt broker")
		s.onConnect(client)
	})
	opts.SetConnectionLostHandler(func(client pahomqtt.Client, err error) {
		s.log.WithError(err).Warn("lost connection to mqtt broker")
	})
	s.client = pahomqtt.NewClient(opts)

	if token := s.client.Connect(); token.Wait() && token.Error() != nil {
		return util.NewTransportError("error connecting to mqtt broker", token.Error())
	}

	s.wg.Add(1)
	go s.telemetryLoop()
	return nil
}

// Stop publishes "offline", stops the telemetry loop and disconnects, in
// that order, best-effort. A second call only joins.
func (s *Surface) Stop() {
	if s.client == nil {
		return
	}
	if !s.stopped.StoreIf(false, true) {
		s.wg.Wait()
		return
	}
	if s.client.IsConnected() {
		if token := s.client.Publish(statusTopic(s.cfg.DeviceID), 1, true, "offline"); token.Wait() && token.Error() != nil {
			s.log.WithError(token.Error()).Warn("could not publish offline status")
		}
	}
	close(s.quit)
	s.wg.Wait()
	if s.client.IsConnected() {
		s.log.Info("disconnecting from mqtt broker")
		s.client.Disconnect(250)
	}
}

func (s *Surface) onConnect(client pahomqtt.Client) {
	if token := client.Publish(statusTopic(s.cfg.DeviceID), 1, true, "online"); token.Wait() && token.Error() != nil {
		s.log.WithError(token.Error()).Error("could not publish online status")
	}
	if err := s.publishDiscovery(client); err != nil {
		s.log.WithError(err).Error("could not publish discovery documents")
	}
	token := client.Subscribe(commandFilter(s.cfg.DeviceID), 1, func(client pahomqtt.Client, msg pahomqtt.Message) {
		s.handleCommand(client, msg)
	})
	if token.Wait() && token.Error() != nil {
		s.log.WithError(token.Error()).Error("could not subscribe to fan commands")
	}
}

// fanState is the retained state document published after a successful set.
type fanState struct {
	Power float64 `json:"power"`
}

// handleCommand processes one inbound fan command. Topics not matching the
// command shape are silently ignored; bad payloads, unknown locations and
// hardware failures are logged and dropped so one bad message never
// interrupts the session.
func (s *Surface) handleCommand(pub publisher, msg pahomqtt.Message) {
	location, ok := parseCommandTopic(s.cfg.DeviceID, msg.Topic())
	if !ok {
		return
	}
	log := s.log.WithFields(logrus.Fields{"topic": msg.Topic(), "location": location})

	power, err := strconv.ParseFloat(strings.TrimSpace(string(msg.Payload())), 64)
	if err != nil {
		log.WithError(err).Warn("dropping fan command with unparsable payload")
		return
	}
	if err := util.CheckUnitRange(power, "power"); err != nil {
		log.WithError(err).Warn("dropping out-of-range fan command")
		return
	}
	if _, err := s.hw.SetFanPower(location, power); err != nil {
		log.WithError(err).Warn("fan command failed, state topic left untouched")
		return
	}

	payload, _ := json.Marshal(fanState{Power: power})
	if token := pub.Publish(stateTopic(s.cfg.DeviceID, string(location)), 1, true, payload); token.Wait() && token.Error() != nil {
		log.WithError(token.Error()).Warn("could not publish fan state")
		return
	}
	log.WithField("power", power).Debug("fan command applied")
}

// parseCommandTopic extracts the rack location from {id}/fan/{location}/set.
// ok is false for any topic not of that exact shape; not all broker traffic
// is addressed to this client.
func parseCommandTopic(deviceID, topic string) (hardware.RackLocation, bool) {
	parts := strings.Split(topic, "/")
	if len(parts) != 4 || parts[0] != deviceID || parts[1] != "fan" || parts[3] != "set" {
		return "", false
	}
	return hardware.RackLocation(parts[2]), true
}

func (s *Surface) telemetryLoop() {
	defer s.wg.Done()
	for {
		select {
		case <-s.stop.Done():
			return
		case <-s.quit:
			return
		case <-time.After(s.cfg.PublishInterval):
			s.publishTelemetry(s.client)
		}
	}
}

// publishTelemetry performs one pass over every sensor location. Each
// location is handled independently so a failing read never affects the
// others in the same pass.
func (s *Surface) publishTelemetry(pub publisher) {
	for _, location := range s.hw.SensorLocations() {
		s.publishLocationTemperature(pub, location)
	}
}

func (s *Surface) publishLocationTemperature(pub publisher, location hardware.RackLocation) {
	log := s.log.WithField("location", location)

	readings, err := s.hw.ReadTemperatures(location)
	if err != nil {
		log.WithError(err).Error("could not read temperatures")
		return
	}

	payload := "unavailable"
	if mean, ok := hardware.MeanTemperature(readings); ok {
		payload = strconv.FormatFloat(mean, 'f', -1, 64)
	}

	topic := temperatureTopic(s.cfg.DeviceID, string(location))
	if token := pub.Publish(topic, 1, true, payload); token.Wait() && token.Error() != nil {
		log.WithError(token.Error()).Error("could not publish temperature")
		return
	}
	log.WithFields(logrus.Fields{"topic": topic, "payload": payload}).Debug("published temperature")
}
