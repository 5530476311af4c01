package util

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultConfigFile)
	src := `target = "tac"
threads = 4
comments = false

[optimise]
strength = false

[log]
level = "debug"
format = "json"
`
	if err := os.WriteFile(path, []byte(src), 0644); err != nil {
		t.Fatal(err)
	}

	opt := DefaultOptions()
	if err := LoadConfig(&opt, path, true); err != nil {
		t.Fatalf("LoadConfig: %s", err)
	}
	if opt.Target != TargetTAC {
		t.Errorf("target: got %s, want tac", TargetName(opt.Target))
	}
	if opt.Threads != 4 {
		t.Errorf("threads: got %d, want 4", opt.Threads)
	}
	if opt.Comments {
		t.Error("comments: got true, want false")
	}
	if !opt.Fold {
		t.Error("fold: unset key must keep the default")
	}
	if opt.Strength {
		t.Error("strength: got true, want false")
	}
	if !opt.Verbose || opt.LogFormat != "json" {
		t.Errorf("log: got verbose=%v format=%q", opt.Verbose, opt.LogFormat)
	}
	if err := opt.Validate(); err != nil {
		t.Errorf("Validate: %s", err)
	}
}

func TestLoadConfigMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.toml")
	opt := DefaultOptions()
	if err := LoadConfig(&opt, path, false); err != nil {
		t.Errorf("implicit missing config: got %s, want nil", err)
	}
	if err := LoadConfig(&opt, path, true); err == nil {
		t.Error("explicit missing config: got nil error")
	}
}

func TestLoadConfigBadTarget(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte(`target = "sparc"`), 0644); err != nil {
		t.Fatal(err)
	}
	opt := DefaultOptions()
	if err := LoadConfig(&opt, path, true); err == nil {
		t.Error("got nil error for unknown target")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		mod  func(*Options)
		ok   bool
	}{
		{"defaults", func(*Options) {}, true},
		{"zero threads", func(o *Options) { o.Threads = 0 }, false},
		{"too many threads", func(o *Options) { o.Threads = MaxThreads + 1 }, false},
		{"bad color", func(o *Options) { o.Color = "sometimes" }, false},
		{"bad log format", func(o *Options) { o.LogFormat = "xml" }, false},
	}
	for _, tt := range tests {
		opt := DefaultOptions()
		tt.mod(&opt)
		if err := opt.Validate(); (err == nil) != tt.ok {
			t.Errorf("%s: got err=%v, want ok=%v", tt.name, err, tt.ok)
		}
	}
}
