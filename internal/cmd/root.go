// Package cmd provides the functionality necessary for CLI commands in diskofflaner.
package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jwalton/gchalk"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/diskofflaner/diskofflaner/internal/activity"
	"github.com/diskofflaner/diskofflaner/internal/build"
	"github.com/diskofflaner/diskofflaner/internal/contextual"
	"github.com/diskofflaner/diskofflaner/internal/system"
	"github.com/diskofflaner/diskofflaner/internal/topology"
)

// globals holds the persistent flags and the collaborators set up before a subcommand runs.
type globals struct {
	verbose      bool
	dryRun       bool
	activityPath string

	elevated func() bool
	activity *activity.Log
}

func (g *globals) close() {
	if g.activity != nil {
		_ = g.activity.Close()
	}
}

// MainCommand provides the main program entrypoint that dispatches to utility subcommands.
func MainCommand() *cobra.Command {
	cmd, _ := mainCommand()
	return cmd
}

// Execute runs the program with the arguments of the process and returns its exit code. Failures are printed to
// stderr with a classified description.
func Execute(ctx context.Context, stderr io.Writer) int {
	cmd, g := mainCommand()
	defer g.close()

	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "%s %s\n", gchalk.Red("error:"), describeError(err))
		return 1
	}
	return 0
}

func mainCommand() (*cobra.Command, *globals) {
	g := &globals{elevated: topology.IsElevated}
	cmd := rootCommand(g)

	cmds := []*cobra.Command{
		listCommand(),
		onlineCommand(g),
		offlineCommand(g),
		mountCommand(g),
		unmountCommand(g),
		lettersCommand(),
		summaryCommand(),
		historyCommand(g),
	}
	for i := range cmds {
		cmd.AddCommand(cmds[i])
	}

	return cmd, g
}

// rootCommand builds a root command object for program run.
func rootCommand(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diskofflaner",
		Short: "inspect physical disks and change their online and mount state",
		Long: strings.TrimSpace(`
This command lists the physical disks of the machine with their partitions, type and health, and brings them online
or offline. Partitions can be mounted and unmounted by drive letter on Windows or by mount point elsewhere.

Changes are recorded in an activity log. Use --dry-run to see what would be queried without changing anything.
`),
		Version:       build.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	versionTemplate := "{{.Name}} {{.Version}} [%s]\n\n%s\n"
	cmd.SetVersionTemplate(fmt.Sprintf(versionTemplate, build.CommitDate, build.GitHubLink))

	cmd.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "Enable verbose logging output")
	cmd.PersistentFlags().BoolVar(&g.dryRun, "dry-run", false, "Refuse every change to disks and mounts")
	cmd.PersistentFlags().StringVar(&g.activityPath, "activity-log", activity.DefaultPath(), "File recording the changes made")

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		level := logrus.InfoLevel
		if g.verbose {
			level = logrus.DebugLevel
		}
		setupLogging(level)

		ctx, err := g.setupContext(cmd.Context())
		if err != nil {
			return err
		}
		cmd.SetContext(ctx)

		return nil
	}

	return cmd
}

// setupContext provides the DiskBackend and SummaryCache to the subcommands. A backend already present in ctx is
// reused.
func (g *globals) setupContext(ctx context.Context) (context.Context, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	backend := contextual.Backend(ctx)
	if backend == nil {
		b, err := topology.New(topology.WithLogger(logrus.StandardLogger()))
		if err != nil {
			return nil, err
		}
		backend = b
	}

	if g.dryRun {
		logrus.Debug("Dry run, changes will be refused")
		backend = topology.Dryrun(backend)
	}

	g.activity = activity.New(g.activityPath)
	backend = topology.WithActivity(backend, g.activity)
	ctx = contextual.WithBackend(ctx, backend)

	if contextual.Summary(ctx) == nil {
		summarizer := system.Summarizer{Backend: backend, Host: system.ReadHost, Elevated: g.elevated}
		ctx = contextual.WithSummary(ctx, system.NewSummaryCache(summarizer.Collect, system.DefaultSummaryTTL))
	}

	return ctx, nil
}

// setupLogging configures logrus to use the desired timestamp format and log level.
func setupLogging(level logrus.Level) {
	Formatter := &logrus.TextFormatter{}

	// Configure the formatter
	Formatter.TimestampFormat = time.RFC822
	Formatter.FullTimestamp = true

	// Set the desired log level
	logrus.SetLevel(level)

	logrus.SetFormatter(Formatter)
}

// warnUnprivileged logs a warning when a command that changes disks runs without administrator or root
// privileges. The platform tools make the final decision.
func (g *globals) warnUnprivileged(cmd *cobra.Command, args []string) error {
	logrus.Debug("Checking user permissions...")
	if !g.elevated() {
		logrus.Warn("Not running elevated, the change will likely be refused")
	}

	return nil
}

// backendFrom fetches the DiskBackend set up by the root command.
func backendFrom(cmd *cobra.Command) (topology.DiskBackend, error) {
	backend := contextual.Backend(cmd.Context())
	if backend == nil {
		return nil, fmt.Errorf("disk backend required in context")
	}
	return backend, nil
}
