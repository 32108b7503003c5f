package shaders

import "regexp"

var uniformDecl = regexp.MustCompile(`(?m)^\s*uniform\s+\w+\s+(\w+)\s*;`)

// DeclaredUniforms lists the uniform names declared at the top level of a
// GLSL source, in declaration order.
func DeclaredUniforms(src string) []string {
	var names []string
	for _, m := range uniformDecl.FindAllStringSubmatch(src, -1) {
		names = append(names, m[1])
	}
	return names
}
