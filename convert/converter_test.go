package convert

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestExecConverterCmd(t *testing.T) {
	c := &ExecConverter{
		Command:     "$(StartupPath)/dcmdjpeg",
		Arguments:   "+te  $(InputFilename)\t$(OutputFilename) --config=$(StartupPath)/dicom.dic",
		StartupPath: "/opt/dcm",
	}

	cmd := c.Cmd(context.Background(), "/in/IM 1.dcm", "/out/IM 1.dcm")

	want := []string{
		"/opt/dcm/dcmdjpeg",
		"+te",
		"/in/IM 1.dcm",
		"/out/IM 1.dcm",
		"--config=/opt/dcm/dicom.dic",
	}
	if diff := cmp.Diff(want, cmd.Args); diff != "" {
		t.Errorf("args mismatch (-want +got):\n%s", diff)
	}
}

func TestExecConverterRun(t *testing.T) {
	if _, err := exec.LookPath("cp"); err != nil {
		t.Skip("cp not available")
	}
	dir := t.TempDir()
	in := filepath.Join(dir, "in.dcm")
	out := filepath.Join(dir, "out.dcm")
	if err := os.WriteFile(in, []byte("payload"), 0o644); err != nil {
		t.Fatal(err)
	}

	c := &ExecConverter{Command: "cp", Arguments: "$(InputFilename) $(OutputFilename)"}
	if err := c.Run(context.Background(), in, out); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "payload" {
		t.Errorf("expected copied payload, got %q", data)
	}

	if err := c.Run(context.Background(), filepath.Join(dir, "missing.dcm"), out+".2"); err == nil {
		t.Error("expected error for failing converter")
	}
}

func TestExecConverterNoOutput(t *testing.T) {
	if _, err := exec.LookPath("true"); err != nil {
		t.Skip("true not available")
	}
	dir := t.TempDir()
	c := &ExecConverter{Command: "true"}
	if err := c.Run(context.Background(), filepath.Join(dir, "in"), filepath.Join(dir, "out")); err == nil {
		t.Error("expected error when converter writes nothing")
	}
}
