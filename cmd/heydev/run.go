package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/JonnyTran/heydev/internal/cli"
	"github.com/JonnyTran/heydev/internal/presentation/tui"
	"github.com/JonnyTran/heydev/pkg/runner"
)

// runCmd starts an interactive publishing session on the terminal.
var runCmd = &cobra.Command{
	Use:   "run [session-id]",
	Short: "Run an interactive publishing session",
	Long: `Starts a publishing session and answers its gates from the terminal.
With a session-id argument, resumes or restarts that session; otherwise a
fresh session is created.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig(cmd)
		logger := newLogger(cmd)
		plain, _ := cmd.Flags().GetBool("plain")

		app, err := cli.Build(cfg, logger, nil)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		defer app.Close()

		sessionID := uuid.NewString()
		if len(args) > 0 {
			sessionID = args[0]
		}

		handler := runner.NewTextHandler(os.Stdin, os.Stdout)
		if !plain {
			tui.PrintBanner()
			handler.Renderer = tui.NewRenderer()
		}

		r := &runner.Runner{Handler: handler, Logger: logger}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := r.Run(ctx, app.Hub, sessionID); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().Bool("plain", false, "Disable markdown rendering and the banner")

	// Make 'run' the default if no command is provided.
	rootCmd.Run = runCmd.Run
}
