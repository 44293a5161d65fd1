package blit

import "errors"

var (
	// ErrNilCommandBuffer means the host called a pass without a command buffer.
	ErrNilCommandBuffer = errors.New("nil command buffer")

	ErrUnknownTarget  = errors.New("unknown render target")
	ErrTargetExists   = errors.New("render target already allocated")
	ErrAliasedTargets = errors.New("blit source and destination are the same target")
	ErrStageIndex     = errors.New("shader stage index out of range")
	ErrSizeMismatch   = errors.New("copy between targets of different sizes")
)
