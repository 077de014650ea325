package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"qr-extrude/internal/app"
	"qr-extrude/internal/config"
	"qr-extrude/internal/fiducial"
	"qr-extrude/internal/frame"
	"qr-extrude/internal/overlay"
	"qr-extrude/pkg/colorutil"
	"qr-extrude/pkg/geometry"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
	"gocv.io/x/gocv"
)

func processCommand() *cli.Command {
	return &cli.Command{
		Name:      "process",
		Usage:     "process still images and write one OBJ per category",
		ArgsUsage: "IMAGE|DIR...",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagOut,
				Aliases: []string{"o"},
				Usage:   "write overlays to `DIR` (default from settings)",
			},
			&cli.StringFlag{
				Name:  "annotate",
				Usage: "write the last frame with marker, target and boundaries drawn to `FILE`",
			},
		},
		Action: process,
	}
}

// session bundles what both process and watch need.
type session struct {
	settings config.Settings
	found    bool
	state    *app.State
	detector *fiducial.Detector
	pipeline *app.Pipeline
	log      zerolog.Logger
}

func newSession(c *cli.Context) (*session, error) {
	log, err := newLogger(c)
	if err != nil {
		return nil, err
	}
	s, found, err := loadSettings(c)
	if err != nil {
		return nil, err
	}
	state, err := app.NewState(s)
	if err != nil {
		return nil, err
	}

	out := s.Overlay.OutputDir
	if c.IsSet(flagOut) {
		out = c.String(flagOut)
	}
	sink, err := overlay.NewDirSink(out)
	if err != nil {
		return nil, err
	}

	detector := fiducial.NewDetector()
	return &session{
		settings: s,
		found:    found,
		state:    state,
		detector: detector,
		pipeline: app.NewPipeline(state, detector, sink, log),
		log:      log,
	}, nil
}

func (r *session) Close() error {
	return r.detector.Close()
}

func process(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("no images given")
	}
	rt, err := newSession(c)
	if err != nil {
		return err
	}
	defer rt.Close()

	src, err := frame.NewFiles(c.Args().Slice()...)
	if err != nil {
		return err
	}
	defer src.Close()

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var processed, skipped int
	for {
		m, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}

		res, err := processFrame(ctx, rt, m)
		switch {
		case errors.Is(err, fiducial.ErrNoFiducial):
			skipped++
			rt.log.Info().Msg("no fiducial in frame")
		case err != nil && res == nil:
			skipped++
			rt.log.Warn().Err(err).Msg("cycle abandoned")
		default:
			processed++
			if err != nil {
				rt.log.Warn().Err(err).Msg("partial result")
			}
			printCycle(c.App.Writer, res)
			if path := c.String("annotate"); path != "" {
				if werr := writeAnnotated(path, m, res); werr != nil {
					m.Close()
					return werr
				}
			}
		}
		m.Close()
	}

	rt.log.Info().Int("processed", processed).Int("skipped", skipped).Msg("done")
	return nil
}

func processFrame(ctx context.Context, rt *session, m gocv.Mat) (*app.CycleResult, error) {
	if _, err := rt.pipeline.ObserveFrame(m); err != nil {
		return nil, err
	}
	return rt.pipeline.ProcessAll(ctx, m)
}

func printCycle(w io.Writer, res *app.CycleResult) {
	t := table.NewWriter()
	t.SetTitle(fmt.Sprintf("run %s  marker %q", res.Run, res.Fiducial.Payload))
	t.AppendHeader(table.Row{"Category", "Overlay", "Boundaries", "Solids", "Volume"})
	for _, cr := range res.Categories {
		id := "-"
		if cr.Emitted {
			id = cr.OverlayID
		}
		t.AppendRow(table.Row{cr.Category.Name, id, len(cr.Boundaries), cr.Solids, fmt.Sprintf("%.2f", cr.Volume)})
	}
	fmt.Fprintln(w, t.Render())
}

func writeAnnotated(path string, m gocv.Mat, res *app.CycleResult) error {
	boundaries := make(map[colorutil.RGB][]geometry.Polygon)
	for _, cr := range res.Categories {
		boundaries[cr.Category.Color] = append(boundaries[cr.Category.Color], cr.Boundaries...)
	}
	annotated := fiducial.Annotate(m, res.Fiducial.Corners, res.Target, boundaries)
	defer annotated.Close()
	if ok := gocv.IMWrite(path, annotated); !ok {
		return fmt.Errorf("write %s failed", path)
	}
	return nil
}
