package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the scheduler application
var rootCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Manage your calendar in plain language",
	Long: `scheduler is an assistant that reads and changes your calendar from
plain-language requests such as "move my dentist appointment to Friday" or
"what does next week look like?".

It can run as:
  - An interactive chat in the terminal (default)
  - An HTTP service answering POST /query
  - An MCP (Model Context Protocol) server exposing the calendar tools`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// persistent flags shared by every command
var (
	configFile string
	logLevel   string
	logFormat  string
)

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "scheduler version %s\n" .Version}}`)

	// If no subcommand is provided, start a chat
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "chat")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default: ./scheduler.yaml or ~/.config/scheduler/scheduler.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error. Overrides logging.level")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: text or json. Overrides logging.format")

	rootCmd.AddCommand(newChatCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())
	rootCmd.AddCommand(newVersionCmd())
}
