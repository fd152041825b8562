package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, yaml string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const minimalSerial = `
environment: test
transport:
  type: serial
  serial:
    port: /dev/ttyUSB0
logging:
  level: info
  format: json
  output: stdout
`

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalSerial))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Transport.PollInterval != 10*time.Millisecond {
		t.Fatalf("poll interval: %v", cfg.Transport.PollInterval)
	}
	if cfg.Transport.Serial.BaudRate != 115200 {
		t.Fatalf("baud: %d", cfg.Transport.Serial.BaudRate)
	}
	if cfg.Plot.WindowSize != 30 {
		t.Fatalf("window: %v", cfg.Plot.WindowSize)
	}
	if cfg.Plot.RedrawInterval != 100*time.Millisecond {
		t.Fatalf("redraw: %v", cfg.Plot.RedrawInterval)
	}
	if cfg.ClickHouse.Table != "samples" {
		t.Fatalf("table: %q", cfg.ClickHouse.Table)
	}
}

func TestLoadRejectsUnknownTransport(t *testing.T) {
	_, err := Load(writeConfig(t, `
environment: test
transport:
  type: carrier-pigeon
`))
	if err == nil {
		t.Fatal("expected validation error")
	}
}

func TestLoadRequiresSerialPort(t *testing.T) {
	_, err := Load(writeConfig(t, `
environment: test
transport:
  type: serial
`))
	if err == nil {
		t.Fatal("expected validation error")
	}
}

func TestLoadRejectsSharedKafkaTopic(t *testing.T) {
	_, err := Load(writeConfig(t, `
environment: test
transport:
  type: kafka
kafka:
  enabled: true
  brokers: ["localhost:9092"]
  topic: lines
`))
	if err == nil {
		t.Fatal("kafka sink plus kafka transport must be rejected")
	}
}

func TestLoadRequiresCSVPath(t *testing.T) {
	_, err := Load(writeConfig(t, minimalSerial+`
csv:
  enabled: true
`))
	if err == nil {
		t.Fatal("expected validation error")
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("SERIAL_PORT", "/dev/ttyACM3")
	t.Setenv("SERIAL_BAUD", "9600")

	cfg, err := LoadWithEnv(writeConfig(t, minimalSerial))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Transport.Serial.Port != "/dev/ttyACM3" {
		t.Fatalf("port: %q", cfg.Transport.Serial.Port)
	}
	if cfg.Transport.Serial.BaudRate != 9600 {
		t.Fatalf("baud: %d", cfg.Transport.Serial.BaudRate)
	}
}
