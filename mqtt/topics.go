package mqtt

import "fmt"

// Topic layout (prefix = configured device id):
//
//	{id}/status/online            retained availability, "online"/"offline"
//	{id}/fan/{location}/set       subscribed fan commands, bare decimal
//	{id}/fan/{location}/state     retained JSON {"power": x}
//	{id}/temperature/{location}   retained bare decimal or "unavailable"
//
// plus the Home Assistant discovery documents under homeassistant/.

func statusTopic(deviceID string) string {
	return deviceID + "/status/online"
}

func commandFilter(deviceID string) string {
	return deviceID + "/fan/+/set"
}

func stateTopic(deviceID, location string) string {
	return fmt.Sprintf("%s/fan/%s/state", deviceID, location)
}

func temperatureTopic(deviceID, location string) string {
	return fmt.Sprintf("%s/temperature/%s", deviceID, location)
}

func sensorConfigTopic(location string) string {
	return fmt.Sprintf("homeassistant/sensor/%s_temperature/config", location)
}

func numberConfigTopic(location string) string {
	return fmt.Sprintf("homeassistant/number/%s_fan/config", location)
}
