package driver

import (
	"github.com/pthm-cable/ember/pipeline"
	"github.com/pthm-cable/ember/settings"
	"github.com/pthm-cable/ember/surface"
)

// Uniforms converts one frame's inputs into slot values. Colors are parsed
// from their hex form here, on every push.
func Uniforms(t float64, dims surface.Dimensions, s settings.Settings) pipeline.Uniforms {
	p := s.Params()
	return pipeline.Uniforms{
		Time:           float32(t),
		Resolution:     [2]float32{float32(dims.Width), float32(dims.Height)},
		PrimaryColor:   [3]float32{float32(p.Primary.X), float32(p.Primary.Y), float32(p.Primary.Z)},
		SecondaryColor: [3]float32{float32(p.Secondary.X), float32(p.Secondary.Y), float32(p.Secondary.Z)},
		Intensity:      float32(p.Intensity),
		Speed:          float32(p.Speed),
		Scale:          float32(p.Scale),
		Turbulence:     float32(p.Turbulence),
		Height:         float32(p.Height),
		Opacity:        float32(p.Opacity),
	}
}
