package log

import "testing"

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(o *Options)
		wantErr int
	}{
		{"defaults", func(o *Options) {}, 0},
		{"json format", func(o *Options) { o.Format = "json" }, 0},
		{"bad level", func(o *Options) { o.Level = "loud" }, 1},
		{"bad format", func(o *Options) { o.Format = "xml" }, 1},
		{"both bad", func(o *Options) { o.Level = "loud"; o.Format = "xml" }, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := NewOptions()
			tt.mutate(o)
			if got := len(o.Validate()); got != tt.wantErr {
				t.Errorf("Validate() returned %d errors, want %d", got, tt.wantErr)
			}
		})
	}
}

func TestSetLevelOnNopLogger(t *testing.T) {
	if SetLevel("debug") {
		t.Error("SetLevel() on the nop logger should report false")
	}
}

func TestNewLoggerLevel(t *testing.T) {
	opts := NewOptions()
	opts.Level = "warn"
	l := NewLogger(opts).(*zapLogger)

	if got := l.level.Level().String(); got != "warn" {
		t.Fatalf("level = %s, want warn", got)
	}

	l.level.SetLevel(parseLevel("debug"))
	if got := l.level.Level().String(); got != "debug" {
		t.Fatalf("level after SetLevel = %s, want debug", got)
	}

	if child := l.WithName("car").(*zapLogger); child.level != l.level {
		t.Error("child logger should share the parent's atomic level")
	}
}
