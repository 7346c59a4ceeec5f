package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/edustack/mentora/internal/profile"
	"github.com/edustack/mentora/internal/version"
	"github.com/edustack/mentora/server"
	apiv1 "github.com/edustack/mentora/server/router/api/v1"
)

var rootCmd = &cobra.Command{
	Use:   "mentora",
	Short: `An AI tutoring backend. Retrieves textbook passages, generates explanations, and tracks what a student should study next.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Only load .env for direct binary execution; service managers
		// provide the environment themselves.
		if !isRunningAsSystemdService() {
			_ = godotenv.Load()
		}
		return nil
	},
	Run: func(_ *cobra.Command, _ []string) {
		instanceProfile, err := buildProfile()
		if err != nil {
			slog.Error("invalid configuration", "error", err)
			os.Exit(1)
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		services, err := buildServices(ctx, instanceProfile)
		if err != nil {
			printDatabaseError(err, instanceProfile)
			slog.Error("failed to initialize services", "error", err)
			os.Exit(1)
		}
		defer services.Close()

		api := apiv1.NewAPIV1Service(instanceProfile, services.Orchestrator, services.Insight)
		s := server.NewServer(instanceProfile, api)

		c := make(chan os.Signal, 1)
		// SIGTERM is the graceful shutdown signal used by most process
		// managers, eg. systemd and Kubernetes.
		signal.Notify(c, terminationSignals...)

		errCh := s.Start(ctx)
		printGreetings(instanceProfile)

		select {
		case <-c:
		case err := <-errCh:
			slog.Error("server failed", "error", err)
		}
		s.Shutdown(ctx)
	},
}

func buildProfile() (*profile.Profile, error) {
	instanceProfile := &profile.Profile{
		Mode:    viper.GetString("mode"),
		Addr:    viper.GetString("addr"),
		Port:    viper.GetInt("port"),
		Driver:  viper.GetString("driver"),
		DSN:     viper.GetString("dsn"),
		Version: version.GetCurrentVersion(viper.GetString("mode")),
	}
	instanceProfile.FromEnv()
	if err := instanceProfile.Validate(); err != nil {
		return nil, err
	}
	return instanceProfile, nil
}

func init() {
	viper.SetDefault("mode", "dev")
	viper.SetDefault("driver", "postgres")
	viper.SetDefault("port", 28090)

	rootCmd.PersistentFlags().String("mode", "dev", `mode of server, can be "prod" or "dev" or "demo"`)
	rootCmd.PersistentFlags().String("addr", "", "address of server")
	rootCmd.PersistentFlags().Int("port", 28090, "port of server")
	rootCmd.PersistentFlags().String("driver", "postgres", "database driver, only postgres (with pgvector) is supported")
	rootCmd.PersistentFlags().String("dsn", "", "database source name (aka. DSN)")

	for _, flag := range []string{"mode", "addr", "port", "driver", "dsn"} {
		if err := viper.BindPFlag(flag, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
			panic(err)
		}
	}

	viper.SetEnvPrefix("mentora")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	rootCmd.AddCommand(ingestCmd, askCmd, searchCmd, versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of mentora",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Println(version.StringFull())
	},
}

func printGreetings(instanceProfile *profile.Profile) {
	fmt.Printf("Mentora %s started successfully!\n", instanceProfile.Version)

	if instanceProfile.IsDev() {
		fmt.Fprint(os.Stderr, "Development mode is enabled\n")
		if instanceProfile.DSN != "" {
			fmt.Fprintf(os.Stderr, "Database: %s\n", instanceProfile.DSN)
		}
	}

	fmt.Printf("Mode: %s\n", instanceProfile.Mode)
	if len(instanceProfile.Addr) == 0 {
		fmt.Printf("Server running on port %d\n", instanceProfile.Port)
	} else {
		fmt.Printf("Server running on %s:%d\n", instanceProfile.Addr, instanceProfile.Port)
	}
}

// isRunningAsSystemdService detects if the process is running under systemd.
func isRunningAsSystemdService() bool {
	return os.Getenv("INVOCATION_ID") != "" || os.Getenv("WATCHDOG_USEC") != ""
}

// printDatabaseError provides actionable messages for common database issues.
func printDatabaseError(err error, instanceProfile *profile.Profile) {
	errMsg := err.Error()
	switch {
	case strings.Contains(errMsg, "connection refused") || strings.Contains(errMsg, "no such host"):
		fmt.Fprintln(os.Stderr, "PostgreSQL is not reachable. Start it, then retry.")
	case strings.Contains(errMsg, "SSL is not enabled") || strings.Contains(errMsg, "sslmode"):
		fmt.Fprintln(os.Stderr, "PostgreSQL SSL mismatch. Add ?sslmode=disable to your DSN.")
	case strings.Contains(errMsg, "password authentication failed"):
		fmt.Fprintln(os.Stderr, "PostgreSQL authentication failed. Check the credentials in your DSN.")
	case strings.Contains(errMsg, "vector"):
		fmt.Fprintln(os.Stderr, "The pgvector extension is missing. Run: CREATE EXTENSION vector;")
	}
	if instanceProfile.IsDev() && instanceProfile.DSN != "" {
		fmt.Fprintf(os.Stderr, "DSN: %s\n", instanceProfile.DSN)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		panic(err)
	}
}
