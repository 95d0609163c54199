package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check service health and dataset provenance",
	RunE:  runHealth,
}

func init() {
	rootCmd.AddCommand(healthCmd)
}

func runHealth(cmd *cobra.Command, args []string) error {
	cli, err := newClient()
	if err != nil {
		return err
	}

	health, err := cli.Health(context.Background())
	if err != nil {
		return fmt.Errorf("fetch health: %w", err)
	}

	fmt.Printf("status: %s\n", health.Status)
	if ds, ok := health.Components["dataset"]; ok {
		fmt.Printf("dataset: %s (source=%s, records=%d)\n", ds.Status, ds.Source, ds.Records)
	}
	return nil
}
