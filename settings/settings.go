// Package settings holds the fire parameter record and merges partial
// updates into it.
package settings

import (
	"log/slog"
	"math"

	"github.com/pthm-cable/ember/flame"
)

// Field names as they appear in update messages and config files.
const (
	FieldPrimaryColor   = "primaryColor"
	FieldSecondaryColor = "secondaryColor"
	FieldIntensity      = "intensity"
	FieldSpeed          = "speed"
	FieldScale          = "scale"
	FieldTurbulence     = "turbulence"
	FieldHeight         = "height"
	FieldOpacity        = "opacity"
)

// Fields lists every recognized field in declaration order.
var Fields = []string{
	FieldPrimaryColor,
	FieldSecondaryColor,
	FieldIntensity,
	FieldSpeed,
	FieldScale,
	FieldTurbulence,
	FieldHeight,
	FieldOpacity,
}

// Settings is the complete parameter set. Colors are kept in their external
// hex form and converted when pushed to the renderer.
type Settings struct {
	PrimaryColor   string  `yaml:"primaryColor" json:"primaryColor"`
	SecondaryColor string  `yaml:"secondaryColor" json:"secondaryColor"`
	Intensity      float64 `yaml:"intensity" json:"intensity"`   // brightness multiplier, >= 0
	Speed          float64 `yaml:"speed" json:"speed"`           // vertical scroll rate, signed
	Scale          float64 `yaml:"scale" json:"scale"`           // spatial frequency, > 0
	Turbulence     float64 `yaml:"turbulence" json:"turbulence"` // domain warp weight
	Height         float64 `yaml:"height" json:"height"`         // alpha threshold gain
	Opacity        float64 `yaml:"opacity" json:"opacity"`       // global alpha, [0,1]
}

// Defaults returns the built-in parameter set.
func Defaults() Settings {
	return Settings{
		PrimaryColor:   "#FF6B35",
		SecondaryColor: "#FF0000",
		Intensity:      0.9,
		Speed:          0.2,
		Scale:          7.0,
		Turbulence:     0.9,
		Height:         1.0,
		Opacity:        1.0,
	}
}

// Params converts the record into renderer parameters. Malformed colors
// become white.
func (s Settings) Params() flame.Params {
	return flame.Params{
		Primary:    ParseColor(s.PrimaryColor),
		Secondary:  ParseColor(s.SecondaryColor),
		Intensity:  s.Intensity,
		Speed:      s.Speed,
		Scale:      s.Scale,
		Turbulence: s.Turbulence,
		Height:     s.Height,
		Opacity:    s.Opacity,
	}
}

// Patch is a partial update. A nil field is left untouched by Apply.
type Patch struct {
	PrimaryColor   *string
	SecondaryColor *string
	Intensity      *float64
	Speed          *float64
	Scale          *float64
	Turbulence     *float64
	Height         *float64
	Opacity        *float64
}

// Full returns a patch that supplies every field of s.
func Full(s Settings) Patch {
	return Patch{
		PrimaryColor:   &s.PrimaryColor,
		SecondaryColor: &s.SecondaryColor,
		Intensity:      &s.Intensity,
		Speed:          &s.Speed,
		Scale:          &s.Scale,
		Turbulence:     &s.Turbulence,
		Height:         &s.Height,
		Opacity:        &s.Opacity,
	}
}

// Empty reports whether the patch supplies no fields.
func (p Patch) Empty() bool {
	return p.PrimaryColor == nil && p.SecondaryColor == nil &&
		p.Intensity == nil && p.Speed == nil && p.Scale == nil &&
		p.Turbulence == nil && p.Height == nil && p.Opacity == nil
}

// Fields returns the names of the supplied fields in declaration order.
func (p Patch) Fields() []string {
	supplied := []bool{
		p.PrimaryColor != nil,
		p.SecondaryColor != nil,
		p.Intensity != nil,
		p.Speed != nil,
		p.Scale != nil,
		p.Turbulence != nil,
		p.Height != nil,
		p.Opacity != nil,
	}
	var names []string
	for i, ok := range supplied {
		if ok {
			names = append(names, Fields[i])
		}
	}
	return names
}

// Merge returns p overlaid with every field later supplies. Applying the
// result equals applying p then later.
func (p Patch) Merge(later Patch) Patch {
	if later.PrimaryColor != nil {
		p.PrimaryColor = later.PrimaryColor
	}
	if later.SecondaryColor != nil {
		p.SecondaryColor = later.SecondaryColor
	}
	if later.Intensity != nil {
		p.Intensity = later.Intensity
	}
	if later.Speed != nil {
		p.Speed = later.Speed
	}
	if later.Scale != nil {
		p.Scale = later.Scale
	}
	if later.Turbulence != nil {
		p.Turbulence = later.Turbulence
	}
	if later.Height != nil {
		p.Height = later.Height
	}
	if later.Opacity != nil {
		p.Opacity = later.Opacity
	}
	return p
}

// Store owns the current Settings. It is not safe for concurrent use; the
// frame driver is its only writer and reader.
type Store struct {
	current Settings
}

// NewStore creates a store seeded with initial. Invalid fields in initial
// fall back to Defaults.
func NewStore(initial Settings) *Store {
	s := &Store{current: Defaults()}
	s.Apply(Full(initial))
	return s
}

// Snapshot returns a copy of the current settings.
func (s *Store) Snapshot() Settings {
	return s.current
}

// Apply merges p field by field and returns the names of fields whose value
// changed. Rejected values leave the previous value in place.
func (s *Store) Apply(p Patch) []string {
	var changed []string

	setString := func(name string, dst *string, v *string) {
		if v == nil || *dst == *v {
			return
		}
		*dst = *v
		changed = append(changed, name)
	}

	setFloat := func(name string, dst *float64, v *float64, check func(float64) (float64, bool)) {
		if v == nil {
			return
		}
		val := *v
		if math.IsNaN(val) || math.IsInf(val, 0) {
			slog.Warn("rejecting non-finite setting", "field", name)
			return
		}
		if check != nil {
			var ok bool
			if val, ok = check(val); !ok {
				slog.Warn("rejecting invalid setting", "field", name, "value", *v)
				return
			}
		}
		if *dst == val {
			return
		}
		*dst = val
		changed = append(changed, name)
	}

	cur := &s.current
	setString(FieldPrimaryColor, &cur.PrimaryColor, p.PrimaryColor)
	setString(FieldSecondaryColor, &cur.SecondaryColor, p.SecondaryColor)
	setFloat(FieldIntensity, &cur.Intensity, p.Intensity, atLeastZero)
	setFloat(FieldSpeed, &cur.Speed, p.Speed, nil)
	setFloat(FieldScale, &cur.Scale, p.Scale, positive)
	setFloat(FieldTurbulence, &cur.Turbulence, p.Turbulence, nil)
	setFloat(FieldHeight, &cur.Height, p.Height, nil)
	setFloat(FieldOpacity, &cur.Opacity, p.Opacity, unitInterval)

	return changed
}

func atLeastZero(v float64) (float64, bool) {
	return math.Max(v, 0), true
}

func positive(v float64) (float64, bool) {
	return v, v > 0
}

func unitInterval(v float64) (float64, bool) {
	return math.Min(math.Max(v, 0), 1), true
}
