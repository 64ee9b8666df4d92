package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Load reads and strictly decodes the config file at path.
// JSON and YAML are both accepted; YAML is coerced to JSON so the same
// strict decoder (DisallowUnknownFields) covers both formats.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	jb, _, err := coerceToJSONBytes(path, b)
	if err != nil {
		return nil, err
	}

	var cfg Config
	dec := json.NewDecoder(bytes.NewReader(jb))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return nil, err
	}
	// reject trailing tokens (e.g. concatenated JSON)
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return nil, fmt.Errorf("invalid config: trailing data")
		}
		return nil, err
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.HTTP.Addr) == "" {
		c.HTTP.Addr = ":5000"
	}

	dir := strings.TrimSpace(c.Store.Dir)
	if dir == "" {
		dir = "./data"
		c.Store.Dir = dir
	}
	if strings.TrimSpace(c.Store.SchedulesFile) == "" {
		c.Store.SchedulesFile = filepath.Join(dir, "schedules.json")
	}
	if strings.TrimSpace(c.Store.SongsFile) == "" {
		c.Store.SongsFile = filepath.Join(dir, "songs.json")
	}
	if strings.TrimSpace(c.Store.SongsDir) == "" {
		c.Store.SongsDir = filepath.Join(dir, "list-of-songs")
	}

	if strings.TrimSpace(c.Actuator.Driver) == "" {
		c.Actuator.Driver = "none"
	}
	if c.Actuator.Serial.BaudRate <= 0 {
		c.Actuator.Serial.BaudRate = 9600
	}
}
