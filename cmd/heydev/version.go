package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JonnyTran/heydev"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of heydev",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("heydev version %s\n", strings.TrimSpace(heydev.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
