package maincmd_test

import (
	"bytes"
	"context"
	"flag"
	"path/filepath"
	"testing"

	"github.com/mna/mainer"

	"github.com/oranpie/flavent/internal/filetest"
	"github.com/oranpie/flavent/internal/maincmd"
)

var testUpdateCheckTests = flag.Bool("test.update-check-tests", false, "If set, replace expected check command test results with actual results.")

// TestCheckFilesGolden runs CheckFiles over every fixture in testdata/in and
// compares its stdout/stderr against the golden files in testdata/out,
// covering both a clean pass (including one exercising "//" and "/* */"
// comments) and a tab-in-source diagnostic end to end.
func TestCheckFilesGolden(t *testing.T) {
	ctx := context.Background()
	srcDir, resultDir := filepath.Join("testdata", "in"), filepath.Join("testdata", "out")

	for _, fi := range filetest.SourceFiles(t, srcDir, ".flv") {
		t.Run(fi.Name(), func(t *testing.T) {
			var buf, ebuf bytes.Buffer
			stdio := mainer.Stdio{Stdout: &buf, Stderr: &ebuf}

			// error is ignored, we only care that it is reflected in the golden files
			_ = maincmd.CheckFiles(ctx, stdio, "", filepath.Join(srcDir, fi.Name()))
			filetest.DiffOutput(t, fi, buf.String(), resultDir, testUpdateCheckTests)
			filetest.DiffErrors(t, fi, ebuf.String(), resultDir, testUpdateCheckTests)
		})
	}
}
