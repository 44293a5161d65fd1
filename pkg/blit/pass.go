package blit

import (
	"context"

	"github.com/abworrall/eclipse-postfx/pkg/fxbuf"
)

// RenderingData is what the host tells a pass about the current frame. The
// descriptor may change from one frame to the next.
type RenderingData struct {
	Frame        int
	CameraTarget Target
	Descriptor   fxbuf.Descriptor
}

// A Pass is a post-processing effect driven by the host's frame loop. Each
// frame the host calls Setup, then Execute, then Cleanup, in that order,
// executing the command buffers it hands to Setup and Cleanup itself.
type Pass interface {
	Name() string

	// Setup records per-frame preparation (e.g. temporaries) into cmd.
	Setup(cmd *CommandBuffer, rd *RenderingData) error

	// Execute records and submits the pass's work to dev.
	Execute(ctx context.Context, dev *Device, rd *RenderingData) error

	// Cleanup records the release of everything the frame allocated.
	Cleanup(cmd *CommandBuffer) error
}
