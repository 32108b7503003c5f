package pipeline

// Uniforms is one frame's worth of parameter values.
type Uniforms struct {
	Time           float32
	Resolution     [2]float32
	PrimaryColor   [3]float32
	SecondaryColor [3]float32
	Intensity      float32
	Speed          float32
	Scale          float32
	Turbulence     float32
	Height         float32
	Opacity        float32
}

// Uploader writes uniform values into the currently bound program.
type Uploader interface {
	UseProgram(program Handle)
	Uniform1f(loc int32, v float32)
	Uniform2f(loc int32, x, y float32)
	Uniform3f(loc int32, x, y, z float32)
}

// Upload binds the program and pushes every value into its slot. It does
// nothing and returns false unless the pipeline is Linked.
func (p *Pipeline) Upload(up Uploader, u Uniforms) bool {
	if p.State() != Linked {
		return false
	}
	s := p.slots

	up.UseProgram(p.program)
	up.Uniform1f(s.Time, u.Time)
	up.Uniform2f(s.Resolution, u.Resolution[0], u.Resolution[1])
	up.Uniform3f(s.PrimaryColor, u.PrimaryColor[0], u.PrimaryColor[1], u.PrimaryColor[2])
	up.Uniform3f(s.SecondaryColor, u.SecondaryColor[0], u.SecondaryColor[1], u.SecondaryColor[2])
	up.Uniform1f(s.Intensity, u.Intensity)
	up.Uniform1f(s.Speed, u.Speed)
	up.Uniform1f(s.Scale, u.Scale)
	up.Uniform1f(s.Turbulence, u.Turbulence)
	up.Uniform1f(s.Height, u.Height)
	up.Uniform1f(s.Opacity, u.Opacity)
	return true
}
