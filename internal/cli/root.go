package cli

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	port       string
	configPath string
	classroom  string
)

// Execute runs the CLI.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	if err := godotenv.Load(); err == nil {
		log.Printf("loaded .env")
	}

	envConfig := os.Getenv("CONFIG_PATH")
	if envConfig == "" {
		envConfig = "config/config.yaml"
	}

	cmd := &cobra.Command{
		Use:          "aptimaster",
		Short:        "Classroom assessment state sync: local backend, shared blob store and sync client",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&port, "port", os.Getenv("PORT"), "port to listen on (server commands)")
	cmd.PersistentFlags().StringVar(&configPath, "config", envConfig, "path to YAML config")
	cmd.PersistentFlags().StringVar(&classroom, "classroom", os.Getenv("CLASSROOM_ID"), "classroom id (client commands)")
	cmd.AddCommand(NewServeCmd(&configPath, &port))
	cmd.AddCommand(NewBlobStoreCmd(&configPath, &port))
	cmd.AddCommand(NewMigrateCmd(&configPath))
	cmd.AddCommand(NewSyncCmd(&configPath, &classroom))
	cmd.AddCommand(NewWatchCmd(&configPath, &classroom))
	cmd.AddCommand(NewProbeCmd(&configPath))
	cmd.AddCommand(NewQuestionCmd(&configPath, &classroom))
	cmd.AddCommand(NewSubmitCmd(&configPath, &classroom))
	cmd.AddCommand(NewUploadCmd(&configPath, &classroom))
	cmd.AddCommand(NewConfigCmd(&configPath))
	cmd.AddCommand(NewResetCmd(&configPath))
	return cmd
}
