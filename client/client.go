// Package client is a REST client for the HTTP control surface, used by
// orvctl and by anything else scripting the daemon.
package client

import (
	"fmt"
	"strconv"

	"github.com/go-resty/resty/v2"
)

// APIError is the structured error body returned by the control surface.
type APIError struct {
	Message    string `json:"error"`
	StatusCode int    `json:"-"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("control api error (status %d): %s", e.StatusCode, e.Message)
}

var _ error = (*APIError)(nil)

type commandsResult struct {
	Commands []string `json:"commands"`
}

type temperatureResult struct {
	Temperature float64 `json:"temperature"`
}

// Client talks to one daemon instance.
type Client struct {
	rest *resty.Client
}

func New(baseURL string) *Client {
	return &Client{
		rest: resty.New().SetBaseURL(baseURL),
	}
}

func (c *Client) apiError(res *resty.Response) error {
	apiErr, ok := res.Error().(*APIError)
	if !ok || apiErr == nil {
		apiErr = &APIError{Message: "invalid response"}
	}
	apiErr.StatusCode = res.StatusCode()
	return apiErr
}

// SetFanPower commands every fan channel at the location to the given
// power fraction and returns the executed device operations.
func (c *Client) SetFanPower(location string, power float64) ([]string, error) {
	res, err := c.rest.R().
		SetResult(&commandsResult{}).
		SetError(&APIError{}).
		Post(fmt.Sprintf("/fan/%s/%s", location, strconv.FormatFloat(power, 'f', -1, 64)))
	if err != nil {
		return nil, err
	}
	if res.IsError() {
		return nil, c.apiError(res)
	}
	return res.Result().(*commandsResult).Commands, nil
}

// Temperature returns the mean temperature of the location's probes.
func (c *Client) Temperature(location string) (float64, error) {
	res, err := c.rest.R().
		SetResult(&temperatureResult{}).
		SetError(&APIError{}).
		Get("/temperature/" + location)
	if err != nil {
		return 0, err
	}
	if res.IsError() {
		return 0, c.apiError(res)
	}
	return res.Result().(*temperatureResult).Temperature, nil
}

// SetIndicator switches an onboard status LED.
func (c *Client) SetIndicator(name string, on bool) ([]string, error) {
	res, err := c.rest.R().
		SetResult(&commandsResult{}).
		SetError(&APIError{}).
		Post(fmt.Sprintf("/indicator/%s/%t", name, on))
	if err != nil {
		return nil, err
	}
	if res.IsError() {
		return nil, c.apiError(res)
	}
	return res.Result().(*commandsResult).Commands, nil
}
