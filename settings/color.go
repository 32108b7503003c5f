package settings

import (
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/spatial/r3"
)

// FallbackColor is used for any color string that fails to parse.
var FallbackColor = r3.Vec{X: 1, Y: 1, Z: 1}

// ParseColor converts "#RRGGBB" or "RRGGBB" (any case) into normalized RGB.
// Anything else yields FallbackColor.
func ParseColor(s string) r3.Vec {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 6 || strings.IndexFunc(hex, notHexDigit) >= 0 {
		return FallbackColor
	}

	c, err := colorful.Hex("#" + hex)
	if err != nil {
		return FallbackColor
	}
	return r3.Vec{X: c.R, Y: c.G, Z: c.B}
}

func notHexDigit(r rune) bool {
	switch {
	case r >= '0' && r <= '9', r >= 'a' && r <= 'f', r >= 'A' && r <= 'F':
		return false
	}
	return true
}
