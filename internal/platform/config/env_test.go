package config

import "testing"

type testConfig struct {
	Addr    string `env:"MERIDIAN_TEST_ADDR" envDefault:"localhost:9000"`
	Backend string `env:"MERIDIAN_TEST_BACKEND" envDefault:"memory"`
}

func TestParseEnvDefaults(t *testing.T) {
	var cfg testConfig
	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("ParseEnv() error = %v", err)
	}
	if cfg.Addr != "localhost:9000" {
		t.Fatalf("Addr = %q, want %q", cfg.Addr, "localhost:9000")
	}
	if cfg.Backend != "memory" {
		t.Fatalf("Backend = %q, want %q", cfg.Backend, "memory")
	}
}

func TestParseEnvOverride(t *testing.T) {
	t.Setenv("MERIDIAN_TEST_ADDR", "0.0.0.0:8080")

	var cfg testConfig
	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("ParseEnv() error = %v", err)
	}
	if cfg.Addr != "0.0.0.0:8080" {
		t.Fatalf("Addr = %q, want %q", cfg.Addr, "0.0.0.0:8080")
	}
}
