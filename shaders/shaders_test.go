package shaders_test

import (
	"slices"
	"strings"
	"testing"

	"github.com/pthm-cable/ember/pipeline"
	"github.com/pthm-cable/ember/shaders"
)

func TestFragmentDeclaresEverySlot(t *testing.T) {
	got := shaders.DeclaredUniforms(shaders.FireFragment)
	want := pipeline.Names()

	if !slices.Equal(got, want) {
		t.Errorf("declared uniforms = %v, want %v", got, want)
	}
}

func TestVertexHasNoUniforms(t *testing.T) {
	if got := shaders.DeclaredUniforms(shaders.FireVertex); len(got) != 0 {
		t.Errorf("vertex stage declares uniforms %v", got)
	}
	if !strings.Contains(shaders.FireVertex, "gl_VertexID") {
		t.Error("vertex stage should generate positions from gl_VertexID")
	}
}

func TestSourcesShareVersion(t *testing.T) {
	for name, src := range map[string]string{"vertex": shaders.FireVertex, "fragment": shaders.FireFragment} {
		if !strings.HasPrefix(src, "#version 330 core") {
			t.Errorf("%s source does not start with #version 330 core", name)
		}
	}
}

func TestDeclaredUniforms(t *testing.T) {
	src := "uniform float a;\n  uniform vec3 bee ;\n// uniform float commented;\nfloat uniformish;\n"
	got := shaders.DeclaredUniforms(src)
	if !slices.Equal(got, []string{"a", "bee"}) {
		t.Errorf("got %v", got)
	}
}
