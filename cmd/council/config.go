package main

import (
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mohamed-services/AgentLang/cmd/council/internal"
	"github.com/mohamed-services/AgentLang/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect council configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Display the effective configuration",
	Long: `Display the configuration after defaults, the config file and ${VAR}
interpolation have been applied. Credentials are never part of the configuration.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return printConfig(app.cfg, app.format, cmd.OutOrStdout())
	},
}

var configJudgesCmd = &cobra.Command{
	Use:   "judges",
	Short: "List the judge roster",
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.printRoster()
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configJudgesCmd)
}

func printConfig(cfg *config.Config, format internal.OutputFormat, w io.Writer) error {
	if format == internal.FormatJSON {
		return internal.NewJSONFormatter(w).JSON(cfg)
	}

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(cfg); err != nil {
		return err
	}
	return encoder.Close()
}

func (e *environment) printRoster() error {
	rows := make([][]string, 0, len(e.cfg.Judges.Members))
	for _, m := range e.cfg.Judges.Members {
		status := "enabled"
		switch {
		case m.AbstainReason != "":
			status = m.AbstainReason
		case !m.HasBackend():
			status = "no back-end"
		case !m.Enabled:
			status = "disabled"
		}

		model := ""
		if m.HasBackend() {
			model = string(m.Backend.Type) + "/" + m.Backend.Model
		}

		rows = append(rows, []string{m.ID, m.Name, m.Organization, model, status})
	}
	return e.out.Table(internal.Table{Columns: []string{"id", "name", "organization", "model", "status"}, Rows: rows})
}
