// faultline renders recorded failure traces.
//
// Usage:
//
//	faultline render record.yaml
//	faultline scope record.yaml --format yaml
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/viant/afs"
	"github.com/viant/faultline/config"
	"github.com/viant/faultline/trace"
)

var (
	configURL string
	format    string
)

var rootCmd = &cobra.Command{
	Use:           "faultline",
	Short:         "Failure trace digest tool",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "faultline:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configURL, "config", "", "config YAML location")
	rootCmd.PersistentFlags().StringVar(&format, "format", "text", "output format: text, yaml or stream (text terminated by the sentinel)")
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(scopeCmd)
}

func loadConfig(ctx context.Context) (*config.Config, error) {
	if configURL == "" {
		return config.DefaultConfig(), nil
	}
	return config.Load(ctx, configURL)
}

func loadRecord(ctx context.Context, URL string) (*trace.Record, error) {
	data, err := afs.New().DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to read record %v: %w", URL, err)
	}
	return trace.UnmarshalRecord(data)
}
