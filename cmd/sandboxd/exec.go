package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/boxrun/sandboxd/pkg/sandbox"
)

var execCmd = &cobra.Command{
	Use:   "exec CODE",
	Short: "Run one snippet of code in a fresh, throwaway box",
	Long: `exec is a local smoke-test client: it dials the debug socket of an
already-running 'sandboxd serve', creates a session, runs CODE in it,
prints stdout/stderr, and destroys the session before exiting.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		code := args[0]
		socketPath, _ := cmd.Flags().GetString("socket")

		client, err := sandbox.Dial(socketPath)
		if err != nil {
			return fmt.Errorf("connect to sandboxd at %s (is 'sandboxd serve' running?): %w", socketPath, err)
		}
		defer client.Close()

		sessionID, err := client.CreateSession()
		if err != nil {
			return fmt.Errorf("create session: %w", err)
		}
		defer client.Destroy(sessionID)

		stdout, stderr, err := client.ExecCode(sessionID, code)
		if err != nil {
			return fmt.Errorf("exec code: %w", err)
		}

		fmt.Print(stdout)
		if stderr != "" {
			fmt.Fprint(os.Stderr, stderr)
		}
		return nil
	},
}

func init() {
	execCmd.Flags().String("socket", "/run/sandboxd/sandboxd.sock", "Path to the sandboxd debug/control socket")
}
