package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

const version = "1.0.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  `Display the current version of the advisor CLI.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("advisor version %s\n", version)
		fmt.Println("An A-share backtesting engine with exchange-accurate frictions")
		fmt.Println("https://github.com/Heilo-qaq/ai-stock-advisor")
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
