package config

import (
	"os"
	"testing"
	"time"
)

func TestSetIfEnv(t *testing.T) {
	os.Setenv("DOORMAN_TEST_STR", "value")
	defer os.Unsetenv("DOORMAN_TEST_STR")

	var target string
	setIfEnv(&target, "DOORMAN_TEST_STR")
	if target != "value" {
		t.Errorf("expected 'value', got %q", target)
	}

	target = "unchanged"
	setIfEnv(&target, "DOORMAN_TEST_MISSING")
	if target != "unchanged" {
		t.Errorf("expected target untouched when env var absent, got %q", target)
	}
}

func TestSetBoolIfEnv(t *testing.T) {
	cases := []struct {
		val  string
		want bool
	}{
		{"1", true},
		{"true", true},
		{"TRUE", true},
		{"True", true},
		{"0", false},
		{"false", false},
	}
	for _, tc := range cases {
		os.Setenv("DOORMAN_TEST_BOOL", tc.val)
		var target bool
		setBoolIfEnv(&target, "DOORMAN_TEST_BOOL")
		if target != tc.want {
			t.Errorf("setBoolIfEnv(%q) = %v, want %v", tc.val, target, tc.want)
		}
	}
	os.Unsetenv("DOORMAN_TEST_BOOL")
}

func TestSetDurationSecondsIfEnv(t *testing.T) {
	os.Setenv("DOORMAN_TEST_DUR", "60")
	var target Duration
	setDurationSecondsIfEnv(&target, "DOORMAN_TEST_DUR")
	if target.Duration != 60*time.Second {
		t.Errorf("expected 60s, got %v", target.Duration)
	}
	os.Unsetenv("DOORMAN_TEST_DUR")

	os.Setenv("DOORMAN_TEST_DUR", "90s")
	setDurationSecondsIfEnv(&target, "DOORMAN_TEST_DUR")
	if target.Duration != 90*time.Second {
		t.Errorf("expected 90s, got %v", target.Duration)
	}
	os.Unsetenv("DOORMAN_TEST_DUR")
}

func TestSetCSVIfEnv(t *testing.T) {
	os.Setenv("DOORMAN_TEST_CSV", "a, b ,c")
	var target []string
	setCSVIfEnv(&target, "DOORMAN_TEST_CSV")
	if len(target) != 3 || target[0] != "a" || target[1] != "b" || target[2] != "c" {
		t.Errorf("unexpected csv split: %v", target)
	}
	os.Unsetenv("DOORMAN_TEST_CSV")
}

func TestApplyEnvOverrides_MemOrExternal(t *testing.T) {
	defer os.Unsetenv("MEM_OR_EXTERNAL")

	os.Setenv("MEM_OR_EXTERNAL", "EXTERNAL")
	cfg := defaultConfig()
	cfg.applyEnvOverrides()
	if cfg.ConfigStore.Backend != ConfigStoreExternal {
		t.Errorf("expected EXTERNAL backend, got %s", cfg.ConfigStore.Backend)
	}

	os.Setenv("MEM_OR_EXTERNAL", "garbage")
	cfg = defaultConfig()
	cfg.applyEnvOverrides()
	if cfg.ConfigStore.Backend != ConfigStoreMemory {
		t.Errorf("expected fallback to MEM backend, got %s", cfg.ConfigStore.Backend)
	}
}

func TestApplyEnvOverrides_Threads(t *testing.T) {
	os.Setenv("THREADS", "3")
	defer os.Unsetenv("THREADS")

	cfg := defaultConfig()
	cfg.applyEnvOverrides()
	if cfg.Server.Workers != 3 {
		t.Errorf("expected 3 workers, got %d", cfg.Server.Workers)
	}
}

func TestParseInt(t *testing.T) {
	cases := map[string]int{
		"0":   0,
		"42":  42,
		"-7":  -7,
		" 10": 10,
	}
	for in, want := range cases {
		got, err := parseInt(in)
		if err != nil {
			t.Fatalf("parseInt(%q) unexpected error: %v", in, err)
		}
		if got != want {
			t.Errorf("parseInt(%q) = %d, want %d", in, got, want)
		}
	}

	if _, err := parseInt("not-a-number"); err == nil {
		t.Error("expected error for invalid integer")
	}
}
