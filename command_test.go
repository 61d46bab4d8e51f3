package shaderscript

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name string
		line string
		want Command
	}{
		{
			name: "clear color",
			line: "clear color 0.0 0.0 0.0 0.0",
			want: Command{Kind: CmdClearColor, Args: []float32{0, 0, 0, 0}},
		},
		{
			name: "clear",
			line: "clear",
			want: Command{Kind: CmdClear},
		},
		{
			name: "draw rect",
			line: "draw rect 10 10 10 10",
			want: Command{Kind: CmdDrawRect, Args: []float32{10, 10, 10, 10}},
		},
		{
			name: "draw rect negative coords",
			line: "draw rect -0.5 -0.5 1.0 1.0",
			want: Command{Kind: CmdDrawRect, Args: []float32{-0.5, -0.5, 1, 1}},
		},
		{
			name: "ortho",
			line: "ortho",
			want: Command{Kind: CmdOrtho},
		},
		{
			name: "probe rgb",
			line: "probe rgb 15 15 1.0 0.0 0.0",
			want: Command{Kind: CmdProbeRGB, Args: []float32{15, 15, 1, 0, 0}},
		},
		{
			name: "probe rgba",
			line: "probe rgba 15 15 1.0 0.0 0.0 1.0",
			want: Command{Kind: CmdProbeRGBA, Args: []float32{15, 15, 1, 0, 0, 1}},
		},
		{
			name: "uniform vec4",
			line: "uniform color vec4 1.0 0.0 0.0 1.0",
			want: Command{Kind: CmdUniform, Name: "color", Type: "vec4", Args: []float32{1, 0, 0, 1}},
		},
		{
			name: "uniform comma separated",
			line: "uniform color vec4 1.0, 0.0, 0.0, 1.0",
			want: Command{Kind: CmdUniform, Name: "color", Type: "vec4", Args: []float32{1, 0, 0, 1}},
		},
		{
			name: "uniform unrecognized type keeps no args",
			line: "uniform color mat4 1 0 0 1",
			want: Command{Kind: CmdUniform, Name: "color", Type: "mat4"},
		},
		{
			name: "comment",
			line: "# draw a red rectangle",
			want: Command{Kind: CmdComment},
		},
		{
			name: "blank",
			line: "",
			want: Command{Kind: CmdComment},
		},
		{
			name: "whitespace only",
			line: "   \t ",
			want: Command{Kind: CmdComment},
		},
		{
			name: "leading whitespace",
			line: "  clear color 1 1 1 1",
			want: Command{Kind: CmdClearColor, Args: []float32{1, 1, 1, 1}},
		},
		{
			name: "unknown keyword",
			line: "blit framebuffer",
			want: Command{Kind: CmdUnknown},
		},
		{
			name: "clear with unknown subcommand",
			line: "clear depth",
			want: Command{Kind: CmdUnknown},
		},
		{
			name: "probe with unknown subcommand",
			line: "probe depth 1 1 0.5",
			want: Command{Kind: CmdUnknown},
		},
		{
			name: "scientific notation",
			line: "clear color 1e0 0.0 0.0 1.0e0",
			want: Command{Kind: CmdClearColor, Args: []float32{1, 0, 0, 1}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseCommand(tt.line)
			if err != nil {
				t.Fatalf("parseCommand(%q): %v", tt.line, err)
			}
			tt.want.Raw = tt.line
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("parseCommand(%q) mismatch (-want +got):\n%s", tt.line, diff)
			}
		})
	}
}

func TestParseCommandErrors(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{name: "clear color short args", line: "clear color 1 0 0"},
		{name: "draw rect no args", line: "draw rect"},
		{name: "probe rgb junk args", line: "probe rgb 15 15 red green blue"},
		{name: "uniform missing name", line: "uniform"},
		{name: "uniform vec4 short args", line: "uniform color vec4 1.0 0.0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseCommand(tt.line)
			if err == nil {
				t.Fatalf("parseCommand(%q): expected error", tt.line)
			}
			var se *ScriptError
			if !errors.As(err, &se) {
				t.Errorf("parseCommand(%q): error is %T, want *ScriptError", tt.line, err)
			}
		})
	}
}

func TestParseFloats(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		count   int
		want    []float32
		wantErr bool
	}{
		{name: "whitespace separated", in: "1 2.5 -3", count: 3, want: []float32{1, 2.5, -3}},
		{name: "comma separated", in: "1,2,3,4", count: 4, want: []float32{1, 2, 3, 4}},
		{name: "mixed separators", in: "1, 2  ,3", count: 3, want: []float32{1, 2, 3}},
		{name: "trailing text ignored", in: "1 2 # comment", count: 2, want: []float32{1, 2}},
		{name: "too few", in: "1 2", count: 3, wantErr: true},
		{name: "not a number", in: "one two", count: 2, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseFloats(tt.in, tt.count, tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("parseFloats(%q, %d): expected error, got %v", tt.in, tt.count, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseFloats(%q, %d): %v", tt.in, tt.count, err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("parseFloats(%q, %d) mismatch (-want +got):\n%s", tt.in, tt.count, diff)
			}
		})
	}
}

func TestScanFloat(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		rest string
		ok   bool
	}{
		{"3.14 rest", 3.14, " rest", true},
		{"-2", -2, "", true},
		{"+0.5,next", 0.5, ",next", true},
		{"1e3", 1000, "", true},
		{"2.5e-1", 0.25, "", true},
		{"1e", 1, "e", true},
		{".", 0, ".", false},
		{"abc", 0, "abc", false},
		{"", 0, "", false},
	}
	for _, tt := range tests {
		v, rest, ok := scanFloat(tt.in)
		if ok != tt.ok || (ok && (v != tt.want || rest != tt.rest)) {
			t.Errorf("scanFloat(%q) = (%v, %q, %v), want (%v, %q, %v)",
				tt.in, v, rest, ok, tt.want, tt.rest, tt.ok)
		}
	}
}
