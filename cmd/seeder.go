package cmd

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/consent-management/internal/stubserver"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the stub database with sample data",
	Long:  `Seed the stub backend with sample users, fiduciaries and consents for development.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		db, events, err := stubserver.OpenDB(cfg.Stub.Database)
		if err != nil {
			log.Fatalf("failed to open database: %v", err)
		}
		defer events.Close()

		if err := stubserver.Migrate(db); err != nil {
			log.Fatalf("failed to migrate database: %v", err)
		}
		if err := stubserver.Seed(db, clearData); err != nil {
			log.Fatalf("failed to seed database: %v", err)
		}
		log.Println("seed complete")
	},
}
