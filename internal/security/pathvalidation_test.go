package security

import (
	"os"
	"path/filepath"
	"testing"
)

func TestValidatePathWithinDirectory(t *testing.T) {
	safeDir := t.TempDir()

	inside := filepath.Join(safeDir, "runs", "20260314-092653")
	if err := ValidatePathWithinDirectory(inside, safeDir); err != nil {
		t.Errorf("path inside safe dir rejected: %v", err)
	}

	// Missing paths validate by their nearest existing parent.
	missing := filepath.Join(safeDir, "not-created-yet", "metrics.json")
	if err := ValidatePathWithinDirectory(missing, safeDir); err != nil {
		t.Errorf("missing path inside safe dir rejected: %v", err)
	}

	escaping := filepath.Join(safeDir, "..", "outside")
	if err := ValidatePathWithinDirectory(escaping, safeDir); err == nil {
		t.Error("traversal path accepted")
	}

	if err := ValidatePathWithinDirectory("/etc/passwd", safeDir); err == nil {
		t.Error("absolute outside path accepted")
	}
}

func TestValidatePathWithinDirectorySymlink(t *testing.T) {
	safeDir := t.TempDir()
	outside := t.TempDir()

	link := filepath.Join(safeDir, "sneaky")
	if err := os.Symlink(outside, link); err != nil {
		t.Skipf("cannot create symlink: %v", err)
	}

	if err := ValidatePathWithinDirectory(filepath.Join(link, "file"), safeDir); err == nil {
		t.Error("symlink escape accepted")
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Precision-Recall(B)", "Precision-Recall_B"},
		{"F1-Confidence(B)", "F1-Confidence_B"},
		{"curves/Precision-Recall(B)", "curves_Precision-Recall_B"},
		{"a b  c", "a_b_c"},
		{"", "unknown"},
		{"(((", "unknown"},
		{"plain.png", "plain.png"},
	}
	for _, tc := range cases {
		if got := SanitizeFilename(tc.in); got != tc.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
