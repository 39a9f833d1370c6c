// Command doormand runs the Doorman API gateway: a single binary exposing
// REST, SOAP, GraphQL, and gRPC protocol dispatch plus the platform admin
// surface described in internal/gatewayhttp. Command structure follows the
// cobra root-command-plus-subcommands idiom (serve, dump, restore subcommands
// plus a --version flag).
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	// Version is set via -ldflags at release build time.
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "doormand: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "doormand",
	Short: "Doorman multi-protocol API gateway",
	Long: `doormand runs the Doorman gateway: a REST/SOAP/GraphQL/gRPC reverse
proxy with endpoint resolution, authentication, rate limiting, per-user
credit accounting, and a platform administration API.`,
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("doormand %s (%s)\n", Version, Commit))
	rootCmd.PersistentFlags().String("config", "configs/local.yaml", "path to the gateway config file")
	rootCmd.PersistentFlags().String("env-file", ".env", "optional .env file loaded before config")

	cobra.OnInitialize(loadEnvFile)

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(restoreCmd)
}

// loadEnvFile loads --env-file into the process environment if it exists.
// Missing files are not an error: most deployments configure purely via the
// YAML file or real environment variables.
func loadEnvFile() {
	path, _ := rootCmd.PersistentFlags().GetString("env-file")
	if path == "" {
		return
	}
	if _, err := os.Stat(path); err != nil {
		return
	}
	_ = godotenv.Load(path)
}
