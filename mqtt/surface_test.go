package mqtt

import (
	"encoding/json"
	"testing"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-rack-vent/orvcli/hardware"
	"github.com/open-rack-vent/orvcli/runtime"
	"github.com/open-rack-vent/orvcli/util"
)

type fakeToken struct {
	err error
}

func (t *fakeToken) Wait() bool                     { return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Error() error                   { return t.err }
func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

type publishRecord struct {
	topic    string
	qos      byte
	retained bool
	payload  string
}

type fakePublisher struct {
	published []publishRecord
}

func (p *fakePublisher) Publish(topic string, qos byte, retained bool, payload interface{}) pahomqtt.Token {
	var body string
	switch v := payload.(type) {
	case string:
		body = v
	case []byte:
		body = string(v)
	}
	p.published = append(p.published, publishRecord{topic, qos, retained, body})
	return &fakeToken{}
}

type fakeMessage struct {
	topic   string
	payload string
}

func (m *fakeMessage) Duplicate() bool   { return false }
func (m *fakeMessage) Qos() byte         { return 1 }
func (m *fakeMessage) Retained() bool    { return false }
func (m *fakeMessage) Topic() string     { return m.topic }
func (m *fakeMessage) MessageID() uint16 { return 0 }
func (m *fakeMessage) Payload() []byte   { return []byte(m.payload) }
func (m *fakeMessage) Ack()              {}

type fanCall struct {
	location hardware.RackLocation
	power    float64
}

type fakeHardware struct {
	fanCalls []fanCall
	fanErr   error
	temps    map[hardware.RackLocation][]hardware.Reading
}

func (f *fakeHardware) SetFanPower(location hardware.RackLocation, power float64) ([]string, error) {
	if f.fanErr != nil {
		return nil, f.fanErr
	}
	f.fanCalls = append(f.fanCalls, fanCall{location, power})
	return []string{"echo /dev/bone/pwm/1/a/duty_cycle > 500"}, nil
}

func (f *fakeHardware) ReadTemperatures(location hardware.RackLocation) ([]hardware.Reading, error) {
	readings, ok := f.temps[location]
	if !ok {
		return nil, util.NewUnknownLocationError(string(location))
	}
	return readings, nil
}

func (f *fakeHardware) SetIndicator(hardware.Indicator, bool) ([]string, error) {
	return nil, nil
}

func (f *fakeHardware) FanLocations() []hardware.RackLocation {
	return []hardware.RackLocation{"rack-a"}
}

func (f *fakeHardware) SensorLocations() []hardware.RackLocation {
	locations := make([]hardware.RackLocation, 0, len(f.temps))
	for location := range f.temps {
		locations = append(locations, location)
	}
	return locations
}

var _ hardware.Interface = (*fakeHardware)(nil)

func newTestSurface(hw hardware.Interface) *Surface {
	return NewSurface(Config{
		BrokerURL:       "tcp://localhost:1883",
		DeviceID:        "orv0",
		PublishInterval: time.Second,
		Revision:        hardware.RevisionV100,
	}, hw, runtime.NewStopSignal())
}

func TestParseCommandTopic(t *testing.T) {
	ass := assert.New(t)

	location, ok := parseCommandTopic("orv0", "orv0/fan/rack-a/set")
	ass.True(ok)
	ass.Equal(hardware.RackLocation("rack-a"), location)

	for _, topic := range []string{
		"orv0/fan/rack-a/set/extra",
		"orv0/fan/set",
		"orv0/program/rack-a/set",
		"orv0/fan/rack-a/get",
		"other/fan/rack-a/set",
	} {
		_, ok := parseCommandTopic("orv0", topic)
		ass.False(ok, "topic %q must be ignored", topic)
	}
}

func TestHandleCommand(t *testing.T) {
	ass := assert.New(t)
	hw := &fakeHardware{}
	s := newTestSurface(hw)
	pub := &fakePublisher{}

	s.handleCommand(pub, &fakeMessage{topic: "orv0/fan/rack-a/set", payload: "0.5"})

	require.Len(t, hw.fanCalls, 1)
	ass.Equal(fanCall{"rack-a", 0.5}, hw.fanCalls[0])

	require.Len(t, pub.published, 1)
	rec := pub.published[0]
	ass.Equal("orv0/fan/rack-a/state", rec.topic)
	ass.True(rec.retained)

	var state struct {
		Power float64 `json:"power"`
	}
	require.NoError(t, json.Unmarshal([]byte(rec.payload), &state))
	ass.Equal(0.5, state.Power)
}

func TestHandleCommand_ForeignTopicsIgnored(t *testing.T) {
	ass := assert.New(t)
	hw := &fakeHardware{}
	s := newTestSurface(hw)
	pub := &fakePublisher{}

	s.handleCommand(pub, &fakeMessage{topic: "orv0/program/rack-a/set", payload: "0.5"})
	s.handleCommand(pub, &fakeMessage{topic: "orv0/fan/rack-a/set/extra", payload: "0.5"})

	ass.Empty(hw.fanCalls, "foreign topics must cause zero hardware calls")
	ass.Empty(pub.published, "foreign topics must cause zero publishes")
}

func TestHandleCommand_BadPayloadDropped(t *testing.T) {
	ass := assert.New(t)
	hw := &fakeHardware{}
	s := newTestSurface(hw)
	pub := &fakePublisher{}

	s.handleCommand(pub, &fakeMessage{topic: "orv0/fan/rack-a/set", payload: "half"})
	s.handleCommand(pub, &fakeMessage{topic: "orv0/fan/rack-a/set", payload: "1.5"})

	ass.Empty(hw.fanCalls)
	ass.Empty(pub.published, "state topic must stay untouched on a dropped command")
}

func TestHandleCommand_HardwareFailureDropped(t *testing.T) {
	ass := assert.New(t)
	hw := &fakeHardware{fanErr: util.NewUnknownLocationError("rack-z")}
	s := newTestSurface(hw)
	pub := &fakePublisher{}

	s.handleCommand(pub, &fakeMessage{topic: "orv0/fan/rack-z/set", payload: "0.5"})

	ass.Empty(pub.published, "no state publish after a failed set")
}

func TestPublishTelemetry(t *testing.T) {
	ass := assert.New(t)
	hw := &fakeHardware{temps: map[hardware.RackLocation][]hardware.Reading{
		"intake": {
			{Probe: hardware.MarkingTMP0, Celsius: 20.0},
			{Probe: hardware.MarkingTMP1, Celsius: 22.0},
			{Probe: hardware.MarkingTMP2, Err: assert.AnError},
		},
	}}
	s := newTestSurface(hw)
	pub := &fakePublisher{}

	s.publishTelemetry(pub)

	require.Len(t, pub.published, 1)
	rec := pub.published[0]
	ass.Equal("orv0/temperature/intake", rec.topic)
	ass.True(rec.retained)
	ass.Equal("21", rec.payload)
}

func TestPublishTelemetry_AllProbesFailed(t *testing.T) {
	ass := assert.New(t)
	hw := &fakeHardware{temps: map[hardware.RackLocation][]hardware.Reading{
		"exhaust": {
			{Probe: hardware.MarkingTMP4, Err: assert.AnError},
			{Probe: hardware.MarkingTMP5, Err: assert.AnError},
		},
	}}
	s := newTestSurface(hw)
	pub := &fakePublisher{}

	s.publishTelemetry(pub)

	require.Len(t, pub.published, 1)
	ass.Equal("unavailable", pub.published[0].payload)
}

func TestPublishDiscovery(t *testing.T) {
	ass := assert.New(t)
	hw := &fakeHardware{temps: map[hardware.RackLocation][]hardware.Reading{
		"intake": {},
	}}
	s := newTestSurface(hw)
	pub := &fakePublisher{}

	require.NoError(t, s.publishDiscovery(pub))
	require.Len(t, pub.published, 2)

	sensor := pub.published[0]
	ass.Equal("homeassistant/sensor/intake_temperature/config", sensor.topic)
	ass.True(sensor.retained)

	var sensorDoc map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(sensor.payload), &sensorDoc))
	ass.Equal("orv0/temperature/intake", sensorDoc["state_topic"])
	ass.Equal("intake_temperature", sensorDoc["unique_id"])
	ass.Equal("orv0/status/online", sensorDoc["availability_topic"])
	ass.Equal("temperature", sensorDoc["device_class"])

	number := pub.published[1]
	ass.Equal("homeassistant/number/rack-a_fan/config", number.topic)
	ass.True(number.retained)

	var numberDoc map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(number.payload), &numberDoc))
	ass.Equal("orv0/fan/rack-a/set", numberDoc["command_topic"])
	ass.Equal("orv0/fan/rack-a/state", numberDoc["state_topic"])
	ass.Equal(0.0, numberDoc["min"])
	ass.Equal(1.0, numberDoc["max"])
	ass.Equal("{{ value_json.power }}", numberDoc["value_template"])

	device := numberDoc["device"].(map[string]interface{})
	ass.Equal("ORV: v1.0.0", device["model"])
}
