// Command orvctl is a small CLI client for the daemon's HTTP control
// surface: set fan power, read temperatures, switch indicators.
package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/open-rack-vent/orvcli/client"
	"github.com/open-rack-vent/orvcli/util"
)

var apiURL string

func main() {
	root := &cobra.Command{
		Use:           "orvctl",
		Short:         "Control a running orvd instance",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&apiURL, "api", "http://localhost:8000", "base URL of the orvd HTTP surface")
	root.AddCommand(fanCommand(), temperatureCommand(), indicatorCommand())

	if err := root.Execute(); err != nil {
		util.Logger.WithError(err).Fatal("orvctl failed")
	}
}

func fanCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "fan <location> <power>",
		Short: "Set the fan power fraction [0, 1] at a rack location",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			power, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("power must be a decimal in [0, 1]: %w", err)
			}
			cmds, err := client.New(apiURL).SetFanPower(args[0], power)
			if err != nil {
				return err
			}
			for _, c := range cmds {
				fmt.Fprintln(cmd.OutOrStdout(), c)
			}
			return nil
		},
	}
}

func temperatureCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "temperature <location>",
		Short: "Read the mean temperature at a rack location",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			temp, err := client.New(apiURL).Temperature(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%.1f\n", temp)
			return nil
		},
	}
}

func indicatorCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "indicator <name> <on|off>",
		Short: "Switch an onboard status LED",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var on bool
			switch args[1] {
			case "on", "true":
				on = true
			case "off", "false":
				on = false
			default:
				return fmt.Errorf("state must be on or off, got %q", args[1])
			}
			cmds, err := client.New(apiURL).SetIndicator(args[0], on)
			if err != nil {
				return err
			}
			for _, c := range cmds {
				fmt.Fprintln(cmd.OutOrStdout(), c)
			}
			return nil
		},
	}
}
