// Package main provides the entry point for Revelation Indicator.
// Revelation Indicator is a tray applet that unlocks a Revelation password
// database and gives quick access to its accounts from a menu.
//
// Features:
//   - Database menu mirroring the folders and accounts of the data file
//   - Automatic locking after inactivity and when the screen locks
//   - Optional password storage in the system keyring
//   - Reload when the data file changes on disk
//   - Command-line interface to list, show, browse and create data files
//
// Usage:
//
//	revelation-indicator [FILE] [options]
//	revelation-indicator list|show|browse|init ...
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/yllada/revelation-indicator/cli"
	"github.com/yllada/revelation-indicator/common"
	"github.com/yllada/revelation-indicator/ui"
)

// Build-time variables injected via ldflags (-X main.appVersion=x.y.z)
// Default values are used for local development builds
var (
	appVersion = "dev"
	buildTime  = "unknown"
	commitSHA  = "unknown"
)

var verbose bool

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "revelation-indicator [FILE]",
		Short:        "Tray applet for Revelation password databases",
		Long:         "Starts the tray applet, opening FILE or the configured data file.",
		Args:         cobra.MaximumNArgs(1),
		Version:      appVersion,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(cmd == cmd.Root())
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			common.CloseLogger()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			file := ""
			if len(args) == 1 {
				file = common.ExpandHome(args[0])
			}
			return runApplet(file)
		},
	}

	root.SetVersionTemplate(versionText())
	root.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable verbose logging")
	root.AddCommand(cli.Commands()...)
	return root
}

func versionText() string {
	text := fmt.Sprintf("%s v%s\n", common.AppName, appVersion)
	if buildTime != "unknown" {
		text += fmt.Sprintf("  Build:  %s\n  Commit: %s\n", buildTime, commitSHA)
	}
	return text
}

// setupLogging initializes the logger. Only the applet logs to a file.
func setupLogging(applet bool) error {
	logLevel := common.LevelInfo
	if verbose {
		logLevel = common.LevelDebug
	} else if !applet {
		logLevel = common.LevelWarn
	}
	if !applet {
		// Keep stdout for command output.
		common.GetLogger().SetOutput(os.Stderr)
	}

	if err := common.InitLogger(common.LogConfig{
		Level:       logLevel,
		EnableFile:  applet,
		MaxFileSize: 5 * 1024 * 1024, // 5MB
		MaxBackups:  5,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not initialize file logging: %v\n", err)
	}
	return nil
}

// runApplet starts the GTK application and blocks until it quits.
func runApplet(file string) error {
	common.LogInfo("Starting %s v%s", common.AppName, appVersion)
	app := ui.NewApplication(common.AppID, appVersion, file)

	setupSignalHandler(app)

	// FILE was consumed above; GApplication must not see it.
	exitCode := app.Run(os.Args[:1])
	if exitCode != 0 {
		common.LogWarn("Application exited with code %d", exitCode)
		return fmt.Errorf("exit code %d", exitCode)
	}
	return nil
}

// setupSignalHandler locks and quits the applet on SIGINT/SIGTERM.
func setupSignalHandler(app *ui.Application) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		common.LogInfo("Received signal %v, initiating graceful shutdown...", sig)
		app.Quit()
	}()
}
