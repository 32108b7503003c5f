// Package shaders embeds the GLSL sources of the fire program.
package shaders

import _ "embed"

//go:embed fire.vert.glsl
var FireVertex string

//go:embed fire.frag.glsl
var FireFragment string
