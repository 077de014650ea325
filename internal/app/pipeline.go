package app

import (
	"context"
	"errors"
	"fmt"

	"qr-extrude/internal/alignment"
	"qr-extrude/internal/config"
	"qr-extrude/internal/fiducial"
	"qr-extrude/internal/logger"
	"qr-extrude/internal/overlay"
	"qr-extrude/internal/region"
	"qr-extrude/internal/solid"
	"qr-extrude/pkg/geometry"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.uber.org/multierr"
	"gocv.io/x/gocv"
)

// Detector finds the marker in a frame.
type Detector interface {
	Detect(frame gocv.Mat) (fiducial.Detection, error)
}

// CategoryResult is the outcome of one category in one cycle.
type CategoryResult struct {
	Category   config.Category
	OverlayID  string
	Boundaries []geometry.Polygon // Image space
	Rectified  []geometry.Polygon // Marker space
	Solids     int
	Volume     float64
	Emitted    bool
}

// CycleResult is the outcome of processing one frame.
type CycleResult struct {
	Run        uuid.UUID
	Fiducial   fiducial.Detection
	Target     geometry.Quad // Image-space corners of the extended target
	Categories []CategoryResult
}

// Pipeline turns frames into overlays.
type Pipeline struct {
	state    *State
	detector Detector
	sink     overlay.Sink
	log      zerolog.Logger
}

// NewPipeline creates a pipeline over shared state.
func NewPipeline(state *State, detector Detector, sink overlay.Sink, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		state:    state,
		detector: detector,
		sink:     sink,
		log:      logger.Component(log, "pipeline"),
	}
}

// ObserveFrame runs marker detection and records the result in the state.
// A frame without a marker clears the previous detection and returns
// fiducial.ErrNoFiducial.
func (p *Pipeline) ObserveFrame(frame gocv.Mat) (fiducial.Detection, error) {
	det, err := p.detector.Detect(frame)
	if err != nil {
		p.state.SetFiducial(nil)
		return fiducial.Detection{}, err
	}
	p.state.SetFiducial(&det)
	return det, nil
}

// ProcessAll segments, rectifies and extrudes every category for one frame,
// in table order, using the last observed marker. Without a marker the cycle
// is skipped with fiducial.ErrNoFiducial. A degenerate marker abandons the
// whole cycle. Failures in one category do not stop the others; they are
// combined into the returned error alongside the partial result.
func (p *Pipeline) ProcessAll(ctx context.Context, frame gocv.Mat) (*CycleResult, error) {
	run := uuid.New()
	log := p.log.With().Str("run", run.String()).Logger()

	det, ok := p.state.Fiducial()
	if !ok {
		log.Debug().Msg("no fiducial, skipping cycle")
		return nil, fiducial.ErrNoFiducial
	}

	setup := p.state.Setup()

	target, err := alignment.ExtendFiducial(det.Corners, setup.Dims)
	if err != nil {
		log.Warn().Err(err).Msg("cycle abandoned")
		p.state.Emit(EventCycleFailed, err)
		return nil, fmt.Errorf("extend fiducial: %w", err)
	}

	result := &CycleResult{Run: run, Fiducial: det, Target: target}
	var errs error
	for _, cat := range setup.Categories {
		if err := ctx.Err(); err != nil {
			return result, multierr.Append(errs, err)
		}

		res, err := p.processCategory(ctx, log, frame, det.Corners, setup.Dims, setup.Extraction, overlay.ID(setup.IDPrefix, cat.Name), cat)
		result.Categories = append(result.Categories, res)
		if err == nil {
			continue
		}
		if errors.Is(err, alignment.ErrDegenerateCorrespondence) {
			p.state.Emit(EventCycleFailed, err)
			return result, err
		}
		log.Warn().Err(err).Str("category", cat.Name).Msg("category failed")
		errs = multierr.Append(errs, fmt.Errorf("%s: %w", cat.Name, err))
	}

	if errs != nil {
		p.state.Emit(EventCycleFailed, errs)
	}
	return result, errs
}

func (p *Pipeline) processCategory(
	ctx context.Context,
	log zerolog.Logger,
	frame gocv.Mat,
	corners geometry.Quad,
	dims alignment.Dimensions,
	extraction region.ExtractOptions,
	id string,
	cat config.Category,
) (CategoryResult, error) {
	res := CategoryResult{Category: cat, OverlayID: id}

	mask, err := region.SegmentByColor(frame, cat.Color, cat.Tolerance)
	if err != nil {
		return res, err
	}
	defer mask.Close()

	res.Boundaries, err = region.ExtractBoundaries(mask, extraction)
	if err != nil {
		return res, err
	}
	if len(res.Boundaries) == 0 {
		log.Debug().Str("category", cat.Name).Msg("no boundaries")
		return res, nil
	}

	h, err := alignment.ImageToMarker(corners, dims.MarkerSize)
	if err != nil {
		return res, err
	}

	// Rectify keeps the polygons it could map; the rest are reported below.
	var rectErr error
	res.Rectified, rectErr = alignment.RectifyBoundaries(res.Boundaries, h)
	if len(res.Rectified) == 0 {
		return res, rectErr
	}

	mesh, err := solid.Build(res.Rectified, cat)
	if err != nil {
		return res, multierr.Append(rectErr, err)
	}
	res.Solids = len(mesh.Solids)
	res.Volume = mesh.Volume()
	if res.Solids == 0 {
		return res, rectErr
	}

	obj, err := mesh.MarshalOBJ()
	if err != nil {
		return res, multierr.Append(rectErr, err)
	}
	if err := p.sink.Overlay(ctx, id, obj, cat.Color); err != nil {
		return res, multierr.Append(rectErr, fmt.Errorf("overlay %s: %w", id, err))
	}
	res.Emitted = true

	log.Info().
		Str("category", cat.Name).
		Str("overlay", id).
		Int("boundaries", len(res.Boundaries)).
		Int("solids", res.Solids).
		Float64("volume", res.Volume).
		Msg("overlay emitted")
	p.state.Emit(EventOverlayEmitted, res)

	return res, rectErr
}
