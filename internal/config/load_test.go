package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadJSONDefaults(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "config.json", `{
		"logging": {"level": "debug", "console": true},
		"http": {"enabled": true},
		"actuator": {"driver": "serial", "serial": {"port": "/dev/ttyUSB0"}}
	}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTP.Addr != ":5000" {
		t.Fatalf("HTTP.Addr = %q", cfg.HTTP.Addr)
	}
	if cfg.Store.SchedulesFile != filepath.Join("./data", "schedules.json") {
		t.Fatalf("SchedulesFile = %q", cfg.Store.SchedulesFile)
	}
	if cfg.Actuator.Serial.BaudRate != 9600 {
		t.Fatalf("BaudRate = %d", cfg.Actuator.Serial.BaudRate)
	}
}

func TestLoadYAML(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "config.yaml", `
logging:
  level: info
  console: true
http:
  enabled: true
  addr: ":8080"
store:
  dir: /var/lib/ampsched
engine:
  lead_time: 3m
actuator:
  driver: gpio
  gpio:
    pin: GPIO17
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTP.Addr != ":8080" {
		t.Fatalf("Addr = %q", cfg.HTTP.Addr)
	}
	if cfg.Engine.LeadTime != "3m" {
		t.Fatalf("LeadTime = %q", cfg.Engine.LeadTime)
	}
	if cfg.Actuator.GPIO.Pin != "GPIO17" {
		t.Fatalf("Pin = %q", cfg.Actuator.GPIO.Pin)
	}
	if cfg.Store.SongsDir != filepath.Join("/var/lib/ampsched", "list-of-songs") {
		t.Fatalf("SongsDir = %q", cfg.Store.SongsDir)
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "config.json", `{"loging": {}}`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestLoadRejectsTrailingData(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "config.json", `{"actuator":{"driver":"none"}}{"extra":1}`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for trailing data")
	}
}

func TestParseDurationOrDefault(t *testing.T) {
	t.Parallel()
	d, err := ParseDurationOrDefault("engine.lead_time", "", 2*time.Minute)
	if err != nil || d != 2*time.Minute {
		t.Fatalf("got %v, %v", d, err)
	}
	d, err = ParseDurationOrDefault("engine.lead_time", "90s", 2*time.Minute)
	if err != nil || d != 90*time.Second {
		t.Fatalf("got %v, %v", d, err)
	}
	if _, err := ParseDurationField("engine.lead_time", "-5s"); err == nil {
		t.Fatal("expected error for negative duration")
	}
}
