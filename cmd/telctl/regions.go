package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var regionsCmd = &cobra.Command{
	Use:   "regions",
	Short: "List regions covered by the dataset",
	RunE:  runRegions,
}

func init() {
	rootCmd.AddCommand(regionsCmd)
}

func runRegions(cmd *cobra.Command, args []string) error {
	cli, err := newClient()
	if err != nil {
		return err
	}

	info, err := cli.Info(context.Background())
	if err != nil {
		return fmt.Errorf("fetch service info: %w", err)
	}

	for _, region := range info.RegionsAvailable {
		fmt.Println(region)
	}
	return nil
}
