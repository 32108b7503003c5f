package pipeline

// Uniform names declared by the fire fragment stage.
const (
	UniformTime           = "time"
	UniformResolution     = "resolution"
	UniformPrimaryColor   = "primaryColor"
	UniformSecondaryColor = "secondaryColor"
	UniformIntensity      = "intensity"
	UniformSpeed          = "speed"
	UniformScale          = "scale"
	UniformTurbulence     = "turbulence"
	UniformHeight         = "height"
	UniformOpacity        = "opacity"
)

// NumSlots is the number of uniforms a linked pipeline resolves.
const NumSlots = 10

// Slots holds one uniform location per fire parameter.
type Slots struct {
	Time           int32
	Resolution     int32
	PrimaryColor   int32
	SecondaryColor int32
	Intensity      int32
	Speed          int32
	Scale          int32
	Turbulence     int32
	Height         int32
	Opacity        int32
}

type slotField struct {
	name string
	loc  *int32
}

func (s *Slots) fields() [NumSlots]slotField {
	return [NumSlots]slotField{
		{UniformTime, &s.Time},
		{UniformResolution, &s.Resolution},
		{UniformPrimaryColor, &s.PrimaryColor},
		{UniformSecondaryColor, &s.SecondaryColor},
		{UniformIntensity, &s.Intensity},
		{UniformSpeed, &s.Speed},
		{UniformScale, &s.Scale},
		{UniformTurbulence, &s.Turbulence},
		{UniformHeight, &s.Height},
		{UniformOpacity, &s.Opacity},
	}
}

// Names returns the uniform names in slot order.
func Names() []string {
	var s Slots
	names := make([]string, 0, NumSlots)
	for _, f := range s.fields() {
		names = append(names, f.name)
	}
	return names
}

func unresolvedSlots() Slots {
	var s Slots
	for _, f := range s.fields() {
		*f.loc = -1
	}
	return s
}

// Count returns how many slots hold a valid location.
func (s Slots) Count() int {
	n := 0
	for _, f := range s.fields() {
		if *f.loc >= 0 {
			n++
		}
	}
	return n
}
