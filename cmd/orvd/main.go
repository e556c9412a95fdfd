// Command orvd is the rack cooling daemon. It resolves the wire map against
// the board revision, then exposes the fans, probes and indicators over the
// configured control surfaces until it is told to stop.
package main

import (
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/open-rack-vent/orvcli/config"
	"github.com/open-rack-vent/orvcli/hardware"
	"github.com/open-rack-vent/orvcli/mqtt"
	"github.com/open-rack-vent/orvcli/runtime"
	"github.com/open-rack-vent/orvcli/util"
	"github.com/open-rack-vent/orvcli/web"
)

var log = util.Logger.WithField("module", "orvd")

var configPath string

func main() {
	root := &cobra.Command{
		Use:           "orvd",
		Short:         "Open rack vent cooling daemon",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return daemon()
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "/etc/orvd/orvd.yml", "path to the config file")
	root.AddCommand(systemdCommand())

	if err := root.Execute(); err != nil {
		log.WithError(err).Fatal("orvd failed")
	}
}

func daemon() error {
	// .env is optional and only used for broker credentials in dev setups.
	_ = godotenv.Load()
	util.InitLogLevel()

	cfg, err := config.Load(configPath)
	if errors.Is(err, os.ErrNotExist) {
		log.WithField("path", configPath).Warn("config file not found, using the reference build defaults")
		cfg = config.Default()
	} else if err != nil {
		return err
	}
	log.WithFields(map[string]interface{}{
		"device_id": cfg.DeviceID,
		"platform":  cfg.Platform,
		"revision":  cfg.PCBRevision,
	}).Info("starting orvd")

	hw, err := hardware.Build(cfg.Platform, cfg.PCBRevision, cfg.WireMap)
	if err != nil {
		return err
	}
	if closer, ok := hw.(io.Closer); ok {
		defer closer.Close()
	}

	var surfaces []runtime.ControlSurface
	if cfg.HTTP.Enabled {
		surfaces = append(surfaces, web.NewSurface(cfg.HTTP.Listen, hw))
	}

	stop := runtime.NewStopSignal()
	if cfg.MQTT.Enabled {
		surfaces = append(surfaces, mqtt.NewSurface(mqtt.Config{
			BrokerURL:       cfg.MQTT.Broker,
			DeviceID:        cfg.DeviceID,
			Username:        cfg.MQTT.Username,
			Password:        cfg.MQTT.Password,
			PublishInterval: cfg.MQTT.PublishInterval,
			Revision:        cfg.PCBRevision,
		}, hw, stop))
	}

	if cfg.HTTP.Enabled {
		if _, err := hw.SetIndicator(hardware.IndicatorWeb, true); err != nil {
			log.WithError(err).Warn("could not raise web indicator")
		}
		defer func() {
			if _, err := hw.SetIndicator(hardware.IndicatorWeb, false); err != nil {
				log.WithError(err).Warn("could not clear web indicator")
			}
		}()
	}

	coord := runtime.NewCoordinator(hw, surfaces, cfg.BlinkInterval, stop)

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigc
		log.WithField("signal", sig.String()).Info("signal received, shutting down")
		coord.Trigger()
	}()

	return coord.Run()
}
