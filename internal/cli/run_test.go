package cli

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/marbleworks/rxkit/pkg/pipeline"
)

func testCLI() *CLI {
	return New(io.Discard, LogInfo)
}

func TestPipelineOptionsFromFlags(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	c := testCLI()
	opts := runOpts{
		source:  "-a-b-|",
		values:  []string{"a=apple", "b=pear"},
		opSpecs: []string{"take:1", "upper"},
		frameMS: 50,
		formats: []string{"marble", "json"},
	}

	popts, err := c.pipelineOptions(&opts)
	if err != nil {
		t.Fatalf("pipelineOptions: %v", err)
	}
	if popts.Source != "-a-b-|" {
		t.Errorf("Source = %q", popts.Source)
	}
	if popts.FrameMS != 50 {
		t.Errorf("FrameMS = %d, want 50", popts.FrameMS)
	}
	if popts.Values["a"] != "apple" || popts.Values["b"] != "pear" {
		t.Errorf("Values = %v", popts.Values)
	}
	if len(popts.Ops) != 2 || popts.Ops[0].Name != "take" || popts.Ops[1].Name != "upper" {
		t.Errorf("Ops = %+v", popts.Ops)
	}
}

func TestPipelineOptionsConfigMerge(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
frame_ms = 40

[values]
a = "from-config"
b = "kept"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	c := testCLI()
	opts := runOpts{
		source:     "-ab|",
		values:     []string{"a=from-flag"}, // flag wins over config
		configPath: path,
	}

	popts, err := c.pipelineOptions(&opts)
	if err != nil {
		t.Fatalf("pipelineOptions: %v", err)
	}
	if popts.FrameMS != 40 {
		t.Errorf("FrameMS = %d, want config value 40", popts.FrameMS)
	}
	if popts.Values["a"] != "from-flag" {
		t.Errorf("Values[a] = %q, want flag to win", popts.Values["a"])
	}
	if popts.Values["b"] != "kept" {
		t.Errorf("Values[b] = %q, want config value kept", popts.Values["b"])
	}
}

func TestPipelineOptionsBadValue(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	c := testCLI()
	for _, bad := range []string{"noequals", "=empty-token"} {
		opts := runOpts{source: "-|", values: []string{bad}}
		if _, err := c.pipelineOptions(&opts); err == nil {
			t.Errorf("value %q should fail", bad)
		}
	}
}

func TestPipelineOptionsBadOp(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	c := testCLI()
	opts := runOpts{source: "-|", opSpecs: []string{"take:zebra"}}
	if _, err := c.pipelineOptions(&opts); err == nil {
		t.Error("bad op arg should fail")
	}
}

func TestExtensionFor(t *testing.T) {
	tests := []struct {
		format string
		want   string
	}{
		{pipeline.FormatMarble, "marble.txt"},
		{pipeline.FormatJSON, "json"},
		{pipeline.FormatDOT, "dot"},
		{pipeline.FormatSVG, "svg"},
	}
	for _, tt := range tests {
		if got := extensionFor(tt.format); got != tt.want {
			t.Errorf("extensionFor(%q) = %q, want %q", tt.format, got, tt.want)
		}
	}
}

func TestWriteArtifactsToFiles(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "out")
	result := &pipeline.Result{
		Artifacts: map[string][]byte{
			pipeline.FormatMarble: []byte("-a-|"),
			pipeline.FormatJSON:   []byte("[]"),
		},
	}
	if err := writeArtifacts(result, base); err != nil {
		t.Fatalf("writeArtifacts: %v", err)
	}
	for _, name := range []string{"out.marble.txt", "out.json"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing artifact %s: %v", name, err)
		}
	}
}
