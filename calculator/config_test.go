package calculator

import (
	"os"
	"path/filepath"
	"testing"

	"blastfield/model"
)

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.ini")
	data := `[calculator]
ChargeExponent = 0.75
NumElements = 40
Workers = 8

[server]
Addr = :9100

[store]
Path = /tmp/blast.db
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Params.ChargeExponent != 0.75 || cfg.Params.NumElements != 40 || cfg.Workers != 8 {
		t.Errorf("calculator section not applied: %+v", cfg)
	}
	if cfg.Params.ToleranceFactor != model.DefaultToleranceFactor {
		t.Errorf("ToleranceFactor = %v, want default %v", cfg.Params.ToleranceFactor, model.DefaultToleranceFactor)
	}
	if cfg.ServerAddr != ":9100" || cfg.ServerPath != "/ws" || cfg.StorePath != "/tmp/blast.db" {
		t.Errorf("unexpected server/store config: %+v", cfg)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.ini"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Params != DefaultParams() {
		t.Errorf("params = %+v, want defaults", cfg.Params)
	}
}
