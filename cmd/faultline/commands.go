package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/viant/faultline/render"
	"github.com/viant/faultline/scope"
	"github.com/viant/faultline/session"
	"gopkg.in/yaml.v3"
)

var renderCmd = &cobra.Command{
	Use:   "render [record.yaml]",
	Short: "Render the call hierarchy digest of a recorded trace",
	Args:  cobra.ExactArgs(1),
	RunE:  runRender,
}

func runRender(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	record, err := loadRecord(ctx, args[0])
	if err != nil {
		return err
	}
	report, err := session.Replay(record, cfg)
	if err != nil {
		return err
	}
	switch format {
	case "yaml":
		return writeYAML(cmd, report)
	case "stream":
		return render.Stream(cmd.OutOrStdout(), strings.NewReader(report.Digest.String()), cfg.Render.Sentinel)
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), report.Digest.String())
	return err
}

var scopeCmd = &cobra.Command{
	Use:   "scope [record.yaml]",
	Short: "Select the detailed tracing scope from a recorded event log",
	Args:  cobra.ExactArgs(1),
	RunE:  runScope,
}

func runScope(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	record, err := loadRecord(ctx, args[0])
	if err != nil {
		return err
	}
	selected := scope.Select(record.Events, record.Test, cfg.ScopeOptions())
	if format == "yaml" {
		return writeYAML(cmd, selected)
	}
	for _, entry := range selected.Entries {
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), entry.String()); err != nil {
			return err
		}
	}
	return nil
}

func writeYAML(cmd *cobra.Command, value interface{}) error {
	data, err := yaml.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}
