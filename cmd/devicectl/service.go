package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newServiceCmd groups the process-supervision subcommands named in the
// CLI surface. None of them manage an actual OS service manager; no such
// dependency is wired into this module, so each reports that plainly
// instead of pretending to install or control anything.
func newServiceCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "service",
		Short: "Manage devicectl as an OS-level service (not implemented)",
	}
	for _, name := range []string{"install", "uninstall", "start", "stop", "restart"} {
		root.AddCommand(newServiceActionCmd(name))
	}
	return root
}

func newServiceActionCmd(action string) *cobra.Command {
	return &cobra.Command{
		Use:   action,
		Short: fmt.Sprintf("%s the devicectl service (not implemented)", action),
		RunE: func(cmd *cobra.Command, args []string) error {
			return fmt.Errorf("service %s: no OS service manager is wired into this build; run devicectl under your own supervisor (systemd, etc.)", action)
		},
	}
}
