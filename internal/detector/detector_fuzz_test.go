package detector

import (
	"os"
	"path/filepath"
	"testing"
)

// FuzzPIDFileDetectorContent ensures PIDFileDetector.Alive does not panic
// on arbitrary file contents and various sizes.
func FuzzPIDFileDetectorContent(f *testing.F) {
	// Seed with valid and invalid examples
	f.Add([]byte("123\n"))
	f.Add([]byte("not-a-number"))
	f.Add([]byte("\n\n"))
	f.Add([]byte("42\n{\"start_unix\":1}\n"))

	f.Fuzz(func(t *testing.T, data []byte) {
		dir := t.TempDir()
		pf := filepath.Join(dir, "pid.pid")
		_ = os.WriteFile(pf, data, 0o644)
		_, _ = PIDFileDetector{PIDFile: pf}.Alive()
		_, _, _ = ReadPIDFile(pf)
	})
}
