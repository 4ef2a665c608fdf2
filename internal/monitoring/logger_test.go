package monitoring

import "testing"

func TestSetLogger(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	var got string
	SetLogger(func(format string, v ...interface{}) {
		got = format
	})
	Logf("transform failed")
	if got != "transform failed" {
		t.Errorf("custom logger not called, got %q", got)
	}

	// nil installs a no-op, not a nil func.
	got = ""
	SetLogger(nil)
	Logf("dropped")
	if got != "" {
		t.Error("no-op logger should not record anything")
	}
	if Logf == nil {
		t.Error("Logf must never be nil")
	}
}

func TestLogfDefault(t *testing.T) {
	if Logf == nil {
		t.Fatal("Logf should default to a usable logger")
	}
	Logf("startup message: %s", "ok")
}
