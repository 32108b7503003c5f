// Package pipeline builds the two-stage fire program and resolves its
// uniform slots. A Pipeline is either fully linked with every slot resolved
// or unusable; nothing in between is ever handed to the renderer.
package pipeline

import (
	"errors"
	"fmt"
	"log/slog"
)

// StageKind identifies a program stage.
type StageKind int

const (
	VertexStage StageKind = iota
	FragmentStage
)

func (k StageKind) String() string {
	switch k {
	case VertexStage:
		return "vertex"
	case FragmentStage:
		return "fragment"
	}
	return fmt.Sprintf("stage(%d)", int(k))
}

// Handle is a device object name (shader or program).
type Handle uint32

// Device compiles and links programs. Compile and link failures return an
// error carrying the device's info log.
type Device interface {
	CompileStage(kind StageKind, source string) (Handle, error)
	DeleteStage(h Handle)
	Link(vertex, fragment Handle) (Handle, error)
	DeleteProgram(h Handle)
	// UniformLocation returns -1 when the program has no active uniform
	// with that name.
	UniformLocation(program Handle, name string) int32
}

// State of a pipeline construction attempt.
type State int

const (
	Uninitialized State = iota
	Compiling
	Linked
	Failed
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Compiling:
		return "compiling"
	case Linked:
		return "linked"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// StageError reports a stage that failed to compile.
type StageError struct {
	Stage StageKind
	Log   string
}

func (e *StageError) Error() string {
	return fmt.Sprintf("compiling %s stage: %s", e.Stage, e.Log)
}

// LinkError reports a link failure.
type LinkError struct {
	Log string
}

func (e *LinkError) Error() string {
	return "linking program: " + e.Log
}

// SlotError reports a uniform the linked program does not expose.
type SlotError struct {
	Name string
}

func (e *SlotError) Error() string {
	return fmt.Sprintf("uniform %q not found in linked program", e.Name)
}

// Pipeline is one construction attempt. A Failed pipeline stays failed;
// build a new one to retry.
type Pipeline struct {
	dev      Device
	state    State
	vertex   Handle
	fragment Handle
	program  Handle
	slots    Slots
	err      error
}

// Build compiles both stages, links them and resolves every slot. Both
// stages are always compiled so a failure reports every broken stage.
// Errors are logged and kept in Err; Build never panics on bad sources.
func Build(dev Device, vertexSrc, fragmentSrc string) *Pipeline {
	p := &Pipeline{dev: dev, state: Compiling, slots: unresolvedSlots()}

	vs, vsErr := dev.CompileStage(VertexStage, vertexSrc)
	fs, fsErr := dev.CompileStage(FragmentStage, fragmentSrc)
	if vsErr != nil || fsErr != nil {
		if vsErr == nil {
			dev.DeleteStage(vs)
		}
		if fsErr == nil {
			dev.DeleteStage(fs)
		}
		return p.fail(errors.Join(vsErr, fsErr))
	}

	prog, err := dev.Link(vs, fs)
	if err != nil {
		dev.DeleteStage(vs)
		dev.DeleteStage(fs)
		return p.fail(err)
	}

	slots := unresolvedSlots()
	for _, f := range slots.fields() {
		loc := dev.UniformLocation(prog, f.name)
		if loc < 0 {
			dev.DeleteProgram(prog)
			dev.DeleteStage(vs)
			dev.DeleteStage(fs)
			return p.fail(&SlotError{Name: f.name})
		}
		*f.loc = loc
	}

	p.vertex, p.fragment, p.program = vs, fs, prog
	p.slots = slots
	p.state = Linked
	slog.Info("pipeline linked", "program", prog, "slots", slots.Count())
	return p
}

func (p *Pipeline) fail(err error) *Pipeline {
	p.state = Failed
	p.err = err
	p.slots = unresolvedSlots()

	var stageErr *StageError
	var linkErr *LinkError
	switch {
	case errors.As(err, &stageErr):
		slog.Error("pipeline stage compile failed", "stage", stageErr.Stage.String(), "log", stageErr.Log, "error", err)
	case errors.As(err, &linkErr):
		slog.Error("pipeline link failed", "log", linkErr.Log)
	default:
		slog.Error("pipeline build failed", "error", err)
	}
	return p
}

// State returns the current state.
func (p *Pipeline) State() State {
	if p == nil {
		return Uninitialized
	}
	return p.state
}

// Err returns the failure cause of a Failed pipeline.
func (p *Pipeline) Err() error {
	if p == nil {
		return nil
	}
	return p.err
}

// Program returns the linked program handle.
func (p *Pipeline) Program() Handle {
	if p == nil {
		return 0
	}
	return p.program
}

// Slots returns the resolved slots. Every slot is -1 unless Linked.
func (p *Pipeline) Slots() Slots {
	if p == nil {
		return unresolvedSlots()
	}
	return p.slots
}

// Release deletes the device objects. The pipeline returns to
// Uninitialized and can no longer draw. Safe to call more than once.
func (p *Pipeline) Release() {
	if p == nil {
		return
	}
	if p.state == Linked {
		p.dev.DeleteProgram(p.program)
		p.dev.DeleteStage(p.vertex)
		p.dev.DeleteStage(p.fragment)
		slog.Info("pipeline released", "program", p.program)
	}
	p.vertex, p.fragment, p.program = 0, 0, 0
	p.slots = unresolvedSlots()
	p.state = Uninitialized
}
