// Package testutil provides shared helpers for the edenpkg test suite,
// usable from any internal package's *_test.go files.
package testutil

import (
	"bytes"
	"flag"
	"os"
	"path/filepath"
	"testing"
)

// update controls whether golden files are regenerated instead of
// compared. Pass -update on the test binary command line to regenerate
// every golden file in one pass:
//
//	go test ./... -update
var update = flag.Bool("update", false, "regenerate golden files")

// Golden compares actual against testdata/golden/<name>.golden relative
// to the calling test's working directory, byte for byte.
//
// With -update set, Golden writes actual to the golden file (creating the
// directory if needed) and passes, so intentional rendering changes can
// be committed in a single pass. Without it, any mismatch fails the test
// with both the expected and actual content.
func Golden(t *testing.T, name string, actual []byte) {
	t.Helper()

	golden := filepath.Join("testdata", "golden", name+".golden")

	if *update {
		if err := os.MkdirAll(filepath.Dir(golden), 0o755); err != nil {
			t.Fatalf("golden: create dir for %s: %v", golden, err)
		}
		if err := os.WriteFile(golden, actual, 0o644); err != nil {
			t.Fatalf("golden: write %s: %v", golden, err)
		}
		return
	}

	expected, err := os.ReadFile(golden)
	if err != nil {
		t.Fatalf("golden: read %s: %v (run with -update to generate)", golden, err)
	}

	if !bytes.Equal(actual, expected) {
		t.Errorf("golden mismatch for %s\n--- expected\n%s\n--- actual\n%s",
			name, expected, actual)
	}
}
