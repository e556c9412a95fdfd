package main

import (
	"os"
	"text/template"

	"github.com/spf13/cobra"
)

const unitTemplate = `[Unit]
Description=Open rack vent cooling daemon
After=network-online.target
Wants=network-online.target

[Service]
Type=simple
ExecStart={{.Executable}} --config {{.ConfigPath}}
Restart=on-failure
RestartSec=5

[Install]
WantedBy=multi-user.target
`

type unitData struct {
	Executable string
	ConfigPath string
}

// systemdCommand prints a systemd unit for the current binary so installs
// stay a copy-paste away from `systemctl enable`.
func systemdCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "systemd",
		Short: "Print a systemd unit file for this daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			executable, err := os.Executable()
			if err != nil {
				return err
			}
			tmpl := template.Must(template.New("unit").Parse(unitTemplate))
			return tmpl.Execute(cmd.OutOrStdout(), unitData{
				Executable: executable,
				ConfigPath: configPath,
			})
		},
	}
}
