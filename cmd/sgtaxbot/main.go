package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ShaunLWM/SGCarLicenseBot/internal/cli"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "sgtaxbot",
		Short:   "Singapore road-tax lookup bot and listings tracker",
		Version: cli.Version,
		Long: `sgtaxbot answers Telegram road-tax enquiries by driving the LTA enquiry
portal through a headless browser, caches the results, and tracks used-car
marketplace listings for configured search terms.`,
	}

	rootCmd.AddCommand(cli.BotCmd())
	rootCmd.AddCommand(cli.SweepCmd())
	rootCmd.AddCommand(cli.ServeCmd())
	rootCmd.AddCommand(cli.FixspaceCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
