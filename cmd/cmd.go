package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/frahmantamala/consent-management/internal"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	clearData bool
)

var rootCmd = &cobra.Command{
	Use:   "consent-management",
	Short: "Consent Management",
	Long:  `Client tooling for the consent management platform, plus a bundled reference backend.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*internal.Config, error) {
	// Container deployments configure through the environment only.
	if os.Getenv("APP_ENV") == "production" || os.Getenv("DOCKER_ENV") == "true" {
		cfg := internal.LoadConfigFromEnv()
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("error validating config from environment: %w", err)
		}
		return cfg, nil
	}

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.SetEnvPrefix("ENV")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// No config file is fine for the client commands; fall back to
		// defaults plus environment overrides.
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return internal.LoadConfigFromEnv(), nil
		}
		return nil, fmt.Errorf("error reading config: %w", err)
	}

	cfg := internal.DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return cfg, nil
}

func init() {
	seedCmd.Flags().BoolVar(&clearData, "clear", false, "Clear existing data before seeding")

	rootCmd.AddCommand(stubServerCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(consentsCmd)
	rootCmd.AddCommand(notificationsCmd)
	rootCmd.AddCommand(adminCmd)
	rootCmd.AddCommand(fiduciaryCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(feedbackCmd)
}
