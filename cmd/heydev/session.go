package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/JonnyTran/heydev/internal/cli"
	"github.com/JonnyTran/heydev/internal/presentation/graph"
	"github.com/JonnyTran/heydev/pkg/session"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage stored sessions",
	Long:  `List, inspect, and remove sessions from the configured state store.`,
}

var sessionLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all known sessions",
	Run: func(cmd *cobra.Command, args []string) {
		sessions := getSessions(cmd)
		ids, err := sessions.List(cmd.Context())
		if err != nil {
			fmt.Printf("Error listing sessions: %v\n", err)
			os.Exit(1)
		}

		if len(ids) == 0 {
			fmt.Println("No sessions found.")
			return
		}

		fmt.Println("Sessions:")
		for _, id := range ids {
			fmt.Println("- " + id)
		}
	},
}

var sessionInspectCmd = &cobra.Command{
	Use:   "inspect <session-id>",
	Short: "Print a session's state document",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		sessions := getSessions(cmd)
		state, err := sessions.Load(cmd.Context(), args[0])
		if err != nil {
			fmt.Printf("Error loading session %q: %v\n", args[0], err)
			os.Exit(1)
		}

		if asGraph, _ := cmd.Flags().GetBool("graph"); asGraph {
			fmt.Println(graph.GenerateMermaid(state))
			return
		}

		data, err := json.MarshalIndent(state, "", "  ")
		if err != nil {
			fmt.Printf("Error marshaling state: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(data))
	},
}

var sessionRmCmd = &cobra.Command{
	Use:   "rm <session-id>",
	Short: "Remove a session",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		sessions := getSessions(cmd)
		if err := sessions.Delete(cmd.Context(), args[0]); err != nil {
			fmt.Printf("Error removing session %q: %v\n", args[0], err)
			os.Exit(1)
		}
		fmt.Printf("Session %q removed.\n", args[0])
	},
}

func getSessions(cmd *cobra.Command) *session.Manager {
	cfg := loadConfig(cmd)
	app, err := cli.Build(cfg, newLogger(cmd), nil)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	return app.Sessions
}

func init() {
	sessionInspectCmd.Flags().Bool("graph", false, "render the pipeline position as a Mermaid flowchart")
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionLsCmd)
	sessionCmd.AddCommand(sessionInspectCmd)
	sessionCmd.AddCommand(sessionRmCmd)
}
