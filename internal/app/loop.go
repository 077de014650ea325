package app

import (
	"context"
	"errors"
	"io"
	"time"

	"qr-extrude/internal/fiducial"
	"qr-extrude/internal/frame"
)

// Run pulls frames from src until it is exhausted or ctx ends. Every frame
// goes through marker detection; frames that arrive at least processEvery
// after the previous processed one also run ProcessAll. A zero processEvery
// processes every frame with a marker. Cycle failures and failed reads are
// logged and the loop continues with the next frame; only a closed device
// ends the run with an error.
func (p *Pipeline) Run(ctx context.Context, src frame.Source, processEvery time.Duration) error {
	var last time.Time
	for {
		m, err := src.Next(ctx)
		if err != nil {
			m.Close()
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, frame.ErrDeviceClosed) {
				return err
			}
			p.log.Warn().Err(err).Msg("frame read failed")
			continue
		}

		if _, err := p.ObserveFrame(m); err == nil && time.Since(last) >= processEvery {
			last = time.Now()
			if _, err := p.ProcessAll(ctx, m); err != nil && !errors.Is(err, fiducial.ErrNoFiducial) {
				p.log.Warn().Err(err).Msg("cycle failed")
			}
		}
		m.Close()
	}
}
