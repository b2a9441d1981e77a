package cmd

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// historyCommand creates a new command which prints or clears the activity log.
func historyCommand(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "show the changes recorded in the activity log",
		Args:  cobra.NoArgs,
	}

	var clearLog bool
	cmd.Flags().BoolVar(&clearLog, "clear", false, "Empty the activity log")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		if g.activity == nil {
			return errors.New("activity log not configured")
		}

		if clearLog {
			if err := g.activity.Clear(); err != nil {
				return err
			}
			logrus.WithField("path", g.activity.Path()).Info("Cleared activity log")
			return nil
		}

		lines, err := g.activity.Read()
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			logrus.WithField("path", g.activity.Path()).Info("Activity log is empty")
			return nil
		}

		for _, l := range lines {
			fmt.Fprintln(cmd.OutOrStdout(), l)
		}
		return nil
	}

	return cmd
}
