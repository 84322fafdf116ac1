// Package testsupport holds fixture and golden file helpers shared by tests.
package testsupport

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formsuite/pkg/formfile"
	"github.com/goliatone/go-formsuite/pkg/model"
)

// UpdateGoldensEnv enables golden rewrites when set.
const UpdateGoldensEnv = "UPDATE_GOLDENS"

// MustLoadForm reads a YAML or JSON form definition.
func MustLoadForm(t *testing.T, path string) model.Form {
	t.Helper()

	form, err := formfile.ReadFile(path)
	if err != nil {
		t.Fatalf("load form: %v", err)
	}
	return form
}

// MustLoadForms reads every definition under dir.
func MustLoadForms(t *testing.T, dir string) []model.Form {
	t.Helper()

	forms, err := formfile.LoadDir(dir)
	if err != nil {
		t.Fatalf("load forms: %v", err)
	}
	return forms
}

// CompareGolden returns a diff string if the values differ.
func CompareGolden(want, got any) string {
	return cmp.Diff(want, got)
}

// MustReadGolden reads a golden file and returns its raw bytes.
func MustReadGolden(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	return data
}

// WriteMaybeGolden updates a golden file when UPDATE_GOLDENS is set. Returns
// true if the golden was written (test should exit early).
func WriteMaybeGolden(t *testing.T, path string, data []byte) bool {
	t.Helper()
	if os.Getenv(UpdateGoldensEnv) == "" {
		return false
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
	return true
}

// Context returns a context cancelled when the test ends.
func Context(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}
