package mqtt

import (
	"encoding/json"
	"fmt"
)

// Home Assistant discovery documents, published retained once per control
// point so an external automation system can auto-register everything
// without manual configuration.

type deviceInfo struct {
	Identifiers  []string `json:"identifiers"`
	Manufacturer string   `json:"manufacturer"`
	Model        string   `json:"model"`
	Name         string   `json:"name"`
}

type sensorDiscovery struct {
	Name              string     `json:"name"`
	StateTopic        string     `json:"state_topic"`
	UniqueID          string     `json:"unique_id"`
	DeviceClass       string     `json:"device_class"`
	UnitOfMeasurement string     `json:"unit_of_measurement"`
	Device            deviceInfo `json:"device"`
	AvailabilityTopic string     `json:"availability_topic"`
	ForceUpdate       bool       `json:"force_update"`
}

type numberDiscovery struct {
	Name              string     `json:"name"`
	StateTopic        string     `json:"state_topic"`
	CommandTopic      string     `json:"command_topic"`
	UniqueID          string     `json:"unique_id"`
	Min               float64    `json:"min"`
	Max               float64    `json:"max"`
	Step              float64    `json:"step"`
	Device            deviceInfo `json:"device"`
	AvailabilityTopic string     `json:"availability_topic"`
	ValueTemplate     string     `json:"value_template"`
}

func (s *Surface) deviceInfo() deviceInfo {
	return deviceInfo{
		Identifiers:  []string{"open_rack_vent_" + s.cfg.DeviceID},
		Manufacturer: "OpenRackVent",
		Model:        fmt.Sprintf("ORV: %s", s.cfg.Revision),
		Name:         "Open Rack Vent",
	}
}

// publishDiscovery publishes one retained configuration document per sensor
// location and per fan location.
func (s *Surface) publishDiscovery(pub publisher) error {
	device := s.deviceInfo()
	availability := statusTopic(s.cfg.DeviceID)

	for _, location := range s.hw.SensorLocations() {
		doc := sensorDiscovery{
			Name:              fmt.Sprintf("ORV Temperature %s", location),
			StateTopic:        temperatureTopic(s.cfg.DeviceID, string(location)),
			UniqueID:          fmt.Sprintf("%s_temperature", location),
			DeviceClass:       "temperature",
			UnitOfMeasurement: "°C",
			Device:            device,
			AvailabilityTopic: availability,
			ForceUpdate:       true,
		}
		if err := publishJSON(pub, sensorConfigTopic(string(location)), doc); err != nil {
			return err
		}
	}

	for _, location := range s.hw.FanLocations() {
		doc := numberDiscovery{
			Name:              fmt.Sprintf("ORV Fan Power %s", location),
			StateTopic:        stateTopic(s.cfg.DeviceID, string(location)),
			CommandTopic:      fmt.Sprintf("%s/fan/%s/set", s.cfg.DeviceID, location),
			UniqueID:          fmt.Sprintf("%s_fan", location),
			Min:               0,
			Max:               1,
			Step:              0.01,
			Device:            device,
			AvailabilityTopic: availability,
			ValueTemplate:     "{{ value_json.power }}",
		}
		if err := publishJSON(pub, numberConfigTopic(string(location)), doc); err != nil {
			return err
		}
	}
	return nil
}

func publishJSON(pub publisher, topic string, doc interface{}) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	if token := pub.Publish(topic, 1, true, payload); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	return nil
}
