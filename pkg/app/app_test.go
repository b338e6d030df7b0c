package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	cliflag "k8s.io/component-base/cli/flag"
)

type testOptions struct {
	Addr    string        `mapstructure:"addr"`
	Timeout time.Duration `mapstructure:"timeout"`
	Level   string        `mapstructure:"level"`

	completed bool
}

func (o *testOptions) Flags() cliflag.NamedFlagSets {
	fss := cliflag.NamedFlagSets{}
	fs := fss.FlagSet("test")
	fs.StringVar(&o.Addr, "addr", o.Addr, "address")
	fs.DurationVar(&o.Timeout, "timeout", o.Timeout, "timeout")
	fs.StringVar(&o.Level, "level", o.Level, "level")
	return fss
}

func (o *testOptions) Complete() error { o.completed = true; return nil }
func (o *testOptions) Validate() error { return nil }

func TestAppLoadsFileEnvAndFlags(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "picar-test.yaml")
	if err := os.WriteFile(cfg, []byte("addr: 10.0.0.1:80\ntimeout: 3s\nlevel: warn\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PICAR_TIMEOUT", "7s")

	opts := &testOptions{Addr: "0.0.0.0:8000", Timeout: time.Second, Level: "info"}
	ran := false
	a := NewApp("picar-test", "test", WithOptions(opts), WithRunFunc(func() error {
		ran = true
		return nil
	}))

	cmd := a.Command()
	cmd.SetArgs([]string{"--config", cfg, "--level", "debug"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if !ran || !opts.completed {
		t.Fatalf("ran = %v, completed = %v", ran, opts.completed)
	}
	if opts.Addr != "10.0.0.1:80" {
		t.Errorf("Addr = %q, want value from file", opts.Addr)
	}
	if opts.Timeout != 7*time.Second {
		t.Errorf("Timeout = %v, want value from env", opts.Timeout)
	}
	if opts.Level != "debug" {
		t.Errorf("Level = %q, want value from flag", opts.Level)
	}
}

func TestDefaultValidArgs(t *testing.T) {
	a := NewApp("picar-test", "test", WithDefaultValidArgs(), WithRunFunc(func() error { return nil }))
	cmd := a.Command()
	cmd.SetArgs([]string{"unexpected"})
	cmd.SetErr(new(discard))
	if err := cmd.Execute(); err == nil {
		t.Error("expected error for positional argument")
	}
}

type discard struct{}

func (*discard) Write(p []byte) (int, error) { return len(p), nil }
