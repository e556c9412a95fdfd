// Package web is the HTTP control surface: a thin, stateless mapping from
// request paths to hardware calls. Handlers are independent, so concurrent
// requests need no coordination beyond what the hardware layer guarantees.
package web

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/open-rack-vent/orvcli/hardware"
	"github.com/open-rack-vent/orvcli/util"
)

const shutdownTimeout = 5 * time.Second

// Surface serves the HTTP control API.
type Surface struct {
	addr    string
	hw      hardware.Interface
	srv     *http.Server
	wg      sync.WaitGroup
	stopped util.AtomicBool
	log     *logrus.Entry
}

func NewSurface(addr string, hw hardware.Interface) *Surface {
	return &Surface{
		addr: addr,
		hw:   hw,
		log:  util.Logger.WithField("module", "web"),
	}
}

func (s *Surface) Name() string {
	return "web"
}

// Start binds the listen address and serves in the background. It returns
// once the surface is listening.
func (s *Surface) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return util.NewTransportError("could not listen on "+s.addr, err)
	}
	s.srv = &http.Server{Handler: Handler(s.hw)}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.log.WithError(err).Error("http server stopped")
		}
	}()
	s.log.WithField("addr", ln.Addr().String()).Info("listening")
	return nil
}

// Stop shuts the server down and blocks until the serve goroutine exited.
// Calling it again only joins.
func (s *Surface) Stop() {
	if s.srv == nil {
		return
	}
	if s.stopped.StoreIf(false, true) {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.srv.Shutdown(ctx); err != nil {
			s.log.WithError(err).Warn("http shutdown")
		}
	}
	s.wg.Wait()
}

// Handler builds the control API routes.
func Handler(hw hardware.Interface) http.Handler {
	mux := http.NewServeMux()
	log := util.Logger.WithField("module", "web")

	mux.HandleFunc("POST /fan/{location}/{power}", func(w http.ResponseWriter, r *http.Request) {
		location := hardware.RackLocation(r.PathValue("location"))
		power, err := strconv.ParseFloat(r.PathValue("power"), 64)
		if err != nil {
			writeError(w, util.NewParseError("power", err))
			return
		}
		if err := util.CheckUnitRange(power, "power"); err != nil {
			writeError(w, err)
			return
		}
		cmds, err := hw.SetFanPower(location, power)
		if err != nil {
			log.WithError(err).WithField("location", location).Info("set fan power failed")
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, newCommandsResponse(cmds))
	})

	mux.HandleFunc("GET /temperature/{location}", func(w http.ResponseWriter, r *http.Request) {
		location := hardware.RackLocation(r.PathValue("location"))
		readings, err := hw.ReadTemperatures(location)
		if err != nil {
			writeError(w, err)
			return
		}
		mean, ok := hardware.MeanTemperature(readings)
		if !ok {
			// A numeric mean is undefined with zero readings; to the caller
			// this location is unknown or empty.
			writeError(w, util.NewUnknownLocationError(string(location)))
			return
		}
		writeJSON(w, http.StatusOK, temperatureResponse{Temperature: mean})
	})

	mux.HandleFunc("POST /indicator/{name}/{state}", func(w http.ResponseWriter, r *http.Request) {
		name := hardware.Indicator(r.PathValue("name"))
		state, err := strconv.ParseBool(r.PathValue("state"))
		if err != nil {
			writeError(w, util.NewParseError("state", err))
			return
		}
		cmds, err := hw.SetIndicator(name, state)
		if err != nil {
			log.WithError(err).WithField("indicator", name).Info("set indicator failed")
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, newCommandsResponse(cmds))
	})

	return mux
}

type commandsResponse struct {
	Commands []string `json:"commands"`
}

func newCommandsResponse(cmds []string) commandsResponse {
	if cmds == nil {
		cmds = []string{}
	}
	return commandsResponse{Commands: cmds}
}

type temperatureResponse struct {
	Temperature float64 `json:"temperature"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), errorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	switch util.Code(err) {
	case util.EC_Parse, util.EC_Range, util.EC_BadRequest:
		return http.StatusBadRequest
	case util.EC_UnknownLocation, util.EC_UnknownIndicator, util.EC_UnknownMarking:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
