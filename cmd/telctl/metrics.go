package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Compute aggregate statistics for regions",
	Long:  "Compute average latency, p95 latency, average uptime, and threshold breaches per region.",
	RunE:  runMetrics,
}

func init() {
	rootCmd.AddCommand(metricsCmd)

	metricsCmd.Flags().StringSlice("region", nil, "region to query (repeatable, required)")
	metricsCmd.Flags().Int("threshold", 180, "latency threshold in milliseconds")
	metricsCmd.Flags().Bool("json", false, "print the raw JSON response")
	metricsCmd.MarkFlagRequired("region")
}

func runMetrics(cmd *cobra.Command, args []string) error {
	regions, _ := cmd.Flags().GetStringSlice("region")
	threshold, _ := cmd.Flags().GetInt("threshold")
	asJSON, _ := cmd.Flags().GetBool("json")

	cli, err := newClient()
	if err != nil {
		return err
	}

	ctx := context.Background()
	results, err := cli.ComputeMetrics(ctx, regions, threshold)
	if err != nil {
		return fmt.Errorf("compute metrics: %w", err)
	}

	if asJSON {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(map[string]any{"regions": results})
	}

	names := make([]string, 0, len(results))
	for name := range results {
		names = append(names, name)
	}
	sort.Strings(names)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "REGION\tAVG_LATENCY\tP95_LATENCY\tAVG_UPTIME\tBREACHES")
	for _, name := range names {
		m := results[name]
		fmt.Fprintf(w, "%s\t%.2f\t%.2f\t%.4f\t%d\n", name, m.AvgLatency, m.P95Latency, m.AvgUptime, m.Breaches)
	}
	return w.Flush()
}
