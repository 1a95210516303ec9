package deps

import (
	"reflect"
	"testing"
)

func TestBuilderChaining(t *testing.T) {
	spec := New("glfw").
		GenFlag("GLFW_BUILD_EXAMPLES=OFF").
		GenArgs("-G", "Ninja").
		BuildArgs("-j", "4").
		Shared().
		Spec()

	if spec.Name() != "glfw" {
		t.Errorf("Name() = %q, want %q", spec.Name(), "glfw")
	}

	wantGen := []string{"-DGLFW_BUILD_EXAMPLES=OFF", "-G", "Ninja", "-DBUILD_SHARED_LIBS=ON"}
	if !reflect.DeepEqual(spec.GenArgs(), wantGen) {
		t.Errorf("GenArgs() = %v, want %v", spec.GenArgs(), wantGen)
	}

	wantBuild := []string{"-j", "4"}
	if !reflect.DeepEqual(spec.BuildArgs(), wantBuild) {
		t.Errorf("BuildArgs() = %v, want %v", spec.BuildArgs(), wantBuild)
	}

	if !spec.IsShared() {
		t.Error("expected shared linkage")
	}
}

func TestSpecIsImmutable(t *testing.T) {
	builder := New("glm").GenFlag("GLM_BUILD_TESTS=OFF")
	spec := builder.Spec()

	builder.GenFlag("LATER=ON").Static()
	if got := len(spec.GenArgs()); got != 1 {
		t.Fatalf("spec changed after builder call: %v", spec.GenArgs())
	}
	if spec.Linkage() != LinkageDefault {
		t.Errorf("Linkage() = %v, want default", spec.Linkage())
	}

	args := spec.GenArgs()
	args[0] = "mutated"
	if spec.GenArgs()[0] != "-DGLM_BUILD_TESTS=OFF" {
		t.Error("GenArgs() exposes the internal slice")
	}
}

func TestSpecPaths(t *testing.T) {
	spec := New("fastgltf").Spec()

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"Dir", spec.Dir("deps"), "deps/fastgltf"},
		{"BuildDir", spec.BuildDir("deps"), "deps/fastgltf/build"},
		{"InstallDir", spec.InstallDir("deps"), "deps/fastgltf/install"},
		{"NestedRoot", spec.InstallDir("third_party/deps"), "third_party/deps/fastgltf/install"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestParseLinkage(t *testing.T) {
	tests := []struct {
		input   string
		want    Linkage
		wantErr bool
	}{
		{"", LinkageDefault, false},
		{"default", LinkageDefault, false},
		{"static", Static, false},
		{"shared", Shared, false},
		{"dynamic", LinkageDefault, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLinkage(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLinkage(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLinkage(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestLinkageString(t *testing.T) {
	if Shared.String() != "shared" || Static.String() != "static" || LinkageDefault.String() != "default" {
		t.Errorf("unexpected names: %s %s %s", Shared, Static, LinkageDefault)
	}
}
