// Package renderer drives the fire program on the OpenGL context created by
// the window host.
package renderer

import (
	"fmt"
	"strings"

	"github.com/go-gl/gl/v3.3-core/gl"

	"github.com/pthm-cable/ember/pipeline"
)

// GLDevice compiles and links programs on the current GL context.
type GLDevice struct{}

// Init loads the GL function pointers. The context must be current on the
// calling thread.
func Init() error {
	if err := gl.Init(); err != nil {
		return fmt.Errorf("loading gl: %w", err)
	}
	return nil
}

// Version returns the driver's GL version string.
func Version() string {
	return gl.GoStr(gl.GetString(gl.VERSION))
}

func (GLDevice) CompileStage(kind pipeline.StageKind, source string) (pipeline.Handle, error) {
	shader := gl.CreateShader(stageType(kind))
	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
		log := infoLog(logLength, func(buf *uint8) {
			gl.GetShaderInfoLog(shader, logLength, nil, buf)
		})
		gl.DeleteShader(shader)
		return 0, &pipeline.StageError{Stage: kind, Log: log}
	}
	return pipeline.Handle(shader), nil
}

func (GLDevice) DeleteStage(h pipeline.Handle) {
	gl.DeleteShader(uint32(h))
}

func (GLDevice) Link(vertex, fragment pipeline.Handle) (pipeline.Handle, error) {
	program := gl.CreateProgram()
	gl.AttachShader(program, uint32(vertex))
	gl.AttachShader(program, uint32(fragment))
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)
		log := infoLog(logLength, func(buf *uint8) {
			gl.GetProgramInfoLog(program, logLength, nil, buf)
		})
		gl.DeleteProgram(program)
		return 0, &pipeline.LinkError{Log: log}
	}
	return pipeline.Handle(program), nil
}

func (GLDevice) DeleteProgram(h pipeline.Handle) {
	gl.DeleteProgram(uint32(h))
}

func (GLDevice) UniformLocation(program pipeline.Handle, name string) int32 {
	return gl.GetUniformLocation(uint32(program), gl.Str(name+"\x00"))
}

func stageType(kind pipeline.StageKind) uint32 {
	if kind == pipeline.VertexStage {
		return gl.VERTEX_SHADER
	}
	return gl.FRAGMENT_SHADER
}

func infoLog(length int32, read func(*uint8)) string {
	if length <= 0 {
		return "(no info log)"
	}
	buf := make([]byte, length)
	read(&buf[0])
	return strings.TrimSpace(strings.TrimRight(string(buf), "\x00"))
}
