package command

import (
	"os/signal"
	"syscall"
	"time"

	"qr-extrude/internal/app"
	"qr-extrude/internal/frame"

	"github.com/urfave/cli/v2"
)

func watchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "track the marker on a camera and emit overlays continuously",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "device",
				Usage: "camera device `ID` (default from settings)",
			},
			&cli.DurationFlag{
				Name:  "interval",
				Usage: "time between camera reads (default from settings)",
			},
			&cli.DurationFlag{
				Name:  "process-every",
				Value: time.Second,
				Usage: "minimum time between processing cycles; 0 processes every frame",
			},
			&cli.StringFlag{
				Name:    flagOut,
				Aliases: []string{"o"},
				Usage:   "write overlays to `DIR` (default from settings)",
			},
			&cli.BoolFlag{
				Name:  "no-reload",
				Usage: "do not watch the settings file for changes",
			},
		},
		Action: watch,
	}
}

func watch(c *cli.Context) error {
	rt, err := newSession(c)
	if err != nil {
		return err
	}
	defer rt.Close()

	device := rt.settings.Capture.Device
	if c.IsSet("device") {
		device = c.Int("device")
	}
	interval := rt.settings.Capture.Interval
	if c.IsSet("interval") {
		interval = c.Duration("interval")
	}

	if rt.found && !c.Bool("no-reload") {
		w, err := app.NewSettingsWatcher(c.String(flagSettings), rt.state, rt.log)
		if err != nil {
			return err
		}
		if err := w.Start(); err != nil {
			return err
		}
		defer w.Stop()
	}

	rt.state.On(app.EventFiducialDetected, func(interface{}) {
		rt.log.Debug().Msg("fiducial detected")
	})
	rt.state.On(app.EventFiducialLost, func(interface{}) {
		rt.log.Info().Msg("fiducial lost")
	})

	cam, err := frame.OpenCamera(device, interval)
	if err != nil {
		return err
	}
	defer cam.Close()

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt.log.Info().Int("device", device).Dur("interval", interval).Msg("watching")
	return rt.pipeline.Run(ctx, cam, c.Duration("process-every"))
}
