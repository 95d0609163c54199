package main

import (
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/eshopco/telemetry-api/pkg/api/client"
)

var rootCmd = &cobra.Command{
	Use:   "telctl",
	Short: "eShopCo telemetry API client",
	Long: `Command line client for the eShopCo telemetry API.
Computes per-region latency and uptime aggregates and inspects service state.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("api-url", "", "telemetry API base URL (overrides TELEMETRY_API_URL)")
	rootCmd.PersistentFlags().Duration("timeout", 15*time.Second, "request timeout")
	viper.BindPFlag("api_url", rootCmd.PersistentFlags().Lookup("api-url"))
	viper.BindPFlag("timeout", rootCmd.PersistentFlags().Lookup("timeout"))
}

func initConfig() {
	viper.SetEnvPrefix("TELEMETRY")
	viper.AutomaticEnv()

	viper.SetDefault("api_url", "http://localhost:8080")
	viper.SetDefault("timeout", 15*time.Second)
}

func newClient() (*client.Client, error) {
	timeout := viper.GetDuration("timeout")
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	httpClient := &http.Client{Timeout: timeout}
	return client.New(viper.GetString("api_url"), client.WithHTTPClient(httpClient))
}
