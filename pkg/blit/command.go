package blit

import (
	"fmt"
	"strings"
	"sync"

	"github.com/abworrall/eclipse-postfx/pkg/fxbuf"
)

// OpCode is the kind of a recorded command.
type OpCode uint8

const (
	OpGetTemporary OpCode = iota
	OpRelease
	OpCopyTexture
	OpBlit
	OpBeginSample
	OpEndSample
)

func (op OpCode) String() string {
	switch op {
	case OpGetTemporary:
		return "GetTemporary"
	case OpRelease:
		return "Release"
	case OpCopyTexture:
		return "CopyTexture"
	case OpBlit:
		return "Blit"
	case OpBeginSample:
		return "BeginSample"
	case OpEndSample:
		return "EndSample"
	default:
		return "unknown"
	}
}

// A Command is one recorded operation. Which fields matter depends on Op.
type Command struct {
	Op       OpCode
	Src, Dst Target
	Desc     fxbuf.Descriptor
	Material *Material
	Stage    int // -1 for an identity blit
	Sample   string
}

func (c Command) String() string {
	switch c.Op {
	case OpGetTemporary:
		return fmt.Sprintf("GetTemporary(%s, %s)", c.Dst, c.Desc)
	case OpRelease:
		return fmt.Sprintf("Release(%s)", c.Dst)
	case OpCopyTexture:
		return fmt.Sprintf("CopyTexture(%s -> %s)", c.Src, c.Dst)
	case OpBlit:
		if c.Stage < 0 || c.Material == nil {
			return fmt.Sprintf("Blit(%s -> %s)", c.Src, c.Dst)
		}
		return fmt.Sprintf("Blit(%s -> %s, %s#%d)", c.Src, c.Dst, c.Material.Name, c.Stage)
	case OpBeginSample, OpEndSample:
		return fmt.Sprintf("%s(%s)", c.Op, c.Sample)
	}
	return c.Op.String()
}

// A CommandBuffer records commands for a Device to run later, in order.
// Recording never fails; problems surface when the buffer is executed.
type CommandBuffer struct {
	Name string
	cmds []Command
}

func NewCommandBuffer(name string) *CommandBuffer {
	return &CommandBuffer{Name: name}
}

func (cb *CommandBuffer) GetTemporary(t Target, desc fxbuf.Descriptor) {
	cb.cmds = append(cb.cmds, Command{Op: OpGetTemporary, Dst: t, Desc: desc})
}

func (cb *CommandBuffer) Release(t Target) {
	cb.cmds = append(cb.cmds, Command{Op: OpRelease, Dst: t})
}

// CopyTexture is an exact copy between two targets of the same size.
func (cb *CommandBuffer) CopyTexture(src, dst Target) {
	cb.cmds = append(cb.cmds, Command{Op: OpCopyTexture, Src: src, Dst: dst})
}

// Blit draws src over all of dst with no shading: a straight copy, or a
// bilinear resample if the sizes differ.
func (cb *CommandBuffer) Blit(src, dst Target) {
	cb.cmds = append(cb.cmds, Command{Op: OpBlit, Src: src, Dst: dst, Stage: -1})
}

// BlitStage draws src over all of dst through one stage of mat.
func (cb *CommandBuffer) BlitStage(src, dst Target, mat *Material, stage int) {
	cb.cmds = append(cb.cmds, Command{Op: OpBlit, Src: src, Dst: dst, Material: mat, Stage: stage})
}

func (cb *CommandBuffer) BeginSample(name string) {
	cb.cmds = append(cb.cmds, Command{Op: OpBeginSample, Sample: name})
}

func (cb *CommandBuffer) EndSample(name string) {
	cb.cmds = append(cb.cmds, Command{Op: OpEndSample, Sample: name})
}

// Commands returns the recorded commands. The slice must not be modified.
func (cb *CommandBuffer) Commands() []Command { return cb.cmds }

func (cb *CommandBuffer) Len() int { return len(cb.cmds) }

func (cb *CommandBuffer) Clear() {
	clear(cb.cmds)
	cb.cmds = cb.cmds[:0]
}

func (cb *CommandBuffer) String() string {
	lines := make([]string, 0, len(cb.cmds)+1)
	lines = append(lines, fmt.Sprintf("CommandBuffer %q [", cb.Name))
	for _, c := range cb.cmds {
		lines = append(lines, "  "+c.String())
	}
	return strings.Join(lines, "\n") + "\n]"
}

var commandBufferPool = sync.Pool{
	New: func() any { return &CommandBuffer{} },
}

// GetCommandBuffer takes an empty command buffer from a shared pool. Hand it
// back with ReleaseCommandBuffer once it has been executed.
func GetCommandBuffer(name string) *CommandBuffer {
	cb := commandBufferPool.Get().(*CommandBuffer)
	cb.Name = name
	cb.Clear()
	return cb
}

func ReleaseCommandBuffer(cb *CommandBuffer) {
	if cb == nil {
		return
	}
	cb.Clear()
	commandBufferPool.Put(cb)
}
