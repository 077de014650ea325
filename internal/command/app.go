// Package command implements the qr-extrude command line.
package command

import (
	"errors"
	"fmt"
	"os"

	"qr-extrude/internal/config"
	"qr-extrude/internal/logger"
	"qr-extrude/internal/version"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
)

const (
	flagSettings = "settings"
	flagLogLevel = "log-level"
	flagJSONLogs = "json-logs"
	flagOut      = "out"
)

// New returns the command line application.
func New() *cli.App {
	return &cli.App{
		Name:                 "qr-extrude",
		Usage:                "extrude colored regions placed relative to a QR marker into OBJ meshes",
		Version:              fmt.Sprintf("%s (%s, built %s)", version.Version, version.GitCommit, version.BuildTime),
		HideHelpCommand:      true,
		EnableBashCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagSettings,
				Aliases: []string{"s"},
				Value:   "settings.yaml",
				Usage:   "load settings from `FILE`; defaults are used when it does not exist",
				EnvVars: []string{"QR_EXTRUDE_SETTINGS"},
			},
			&cli.StringFlag{
				Name:  flagLogLevel,
				Value: "info",
				Usage: "log `LEVEL` (debug, info, warn, error)",
			},
			&cli.BoolFlag{
				Name:  flagJSONLogs,
				Usage: "write logs as JSON instead of console text",
			},
		},
		Commands: []*cli.Command{
			processCommand(),
			watchCommand(),
			categoriesCommand(),
			initCommand(),
		},
	}
}

// newLogger builds the logger selected by the global flags.
func newLogger(c *cli.Context) (zerolog.Logger, error) {
	lvl, err := logger.ParseLevel(c.String(flagLogLevel))
	if err != nil {
		return zerolog.Nop(), err
	}
	if c.Bool(flagJSONLogs) {
		return logger.New(c.App.ErrWriter, lvl), nil
	}
	return logger.NewConsole(lvl), nil
}

// loadSettings reads the settings file, falling back to defaults when the
// file does not exist. The bool reports whether the file was found.
func loadSettings(c *cli.Context) (config.Settings, bool, error) {
	s, err := config.Load(c.String(flagSettings))
	if errors.Is(err, os.ErrNotExist) {
		return config.Default(), false, nil
	}
	if err != nil {
		return config.Settings{}, false, err
	}
	return *s, true, nil
}

func initCommand() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "write a settings file with the default values",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "force", Usage: "overwrite an existing file"},
		},
		Action: func(c *cli.Context) error {
			path := c.String(flagSettings)
			if _, err := os.Stat(path); err == nil && !c.Bool("force") {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			s := config.Default()
			if err := s.Save(path); err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "wrote %s\n", path)
			return nil
		},
	}
}
