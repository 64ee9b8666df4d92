package config

type Config struct {
	Logging LoggingConfig `json:"logging"`
	HTTP    HTTPConfig    `json:"http"`
	Store   StoreConfig   `json:"store"`
	Engine  EngineConfig  `json:"engine"`

	Actuator ActuatorConfig `json:"actuator"`

	// History controls the optional trigger audit log.
	// If omitted, history is disabled.
	History *HistoryConfig `json:"history,omitempty"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// HTTPConfig controls the thin CRUD surface.
//
// All durations are Go duration strings (e.g. "500ms", "10s", "1m").
type HTTPConfig struct {
	Enabled      bool   `json:"enabled"`
	Addr         string `json:"addr,omitempty"` // default ":5000"
	ReadTimeout  string `json:"read_timeout,omitempty"`
	WriteTimeout string `json:"write_timeout,omitempty"`
}

// StoreConfig locates the durable schedule and track data.
//
// Defaults (when fields are omitted):
//   - dir: "./data"
//   - schedules file: <dir>/schedules.json
//   - songs file: <dir>/songs.json
//   - songs dir: <dir>/list-of-songs
//   - watch debounce: "500ms"
type StoreConfig struct {
	Dir           string `json:"dir,omitempty"`
	SchedulesFile string `json:"schedules_file,omitempty"`
	SongsFile     string `json:"songs_file,omitempty"`
	SongsDir      string `json:"songs_dir,omitempty"`
	WatchDebounce string `json:"watch_debounce,omitempty"`
}

// EngineConfig controls the occurrence engine.
//
// Defaults (when fields are omitted/zero):
//   - tick_interval: "1s"
//   - tolerance_sec: 1
//   - lead_time: "2m" (actuator warm-up before an occurrence starts)
//   - triggered_retention: "2m"
//   - reconcile_every: "1m"
//   - none_repeat_daily: true (a non-repeating schedule yields one
//     occurrence per day across its whole date range, like the data the
//     store format was built around)
type EngineConfig struct {
	Enabled            *bool  `json:"enabled,omitempty"`
	Timezone           string `json:"timezone,omitempty"` // IANA TZ, e.g. "Asia/Jakarta"
	TickInterval       string `json:"tick_interval,omitempty"`
	ToleranceSec       int    `json:"tolerance_sec,omitempty"`
	LeadTime           string `json:"lead_time,omitempty"`
	TriggeredRetention string `json:"triggered_retention,omitempty"`
	ReconcileEvery     string `json:"reconcile_every,omitempty"`
	NoneRepeatDaily    *bool  `json:"none_repeat_daily,omitempty"`
}

// ActuatorConfig selects the amplifier gateway backend.
//
// Driver values:
//   - "serial": Arduino-style serial relay ("1\n" on, "0\n" off)
//   - "gpio": direct relay pin via periph.io
//   - "none": log-only (development)
type ActuatorConfig struct {
	Driver string `json:"driver"`

	Serial SerialConfig `json:"serial,omitempty"`
	GPIO   GPIOConfig   `json:"gpio,omitempty"`

	// RatePerSec/Burst bound actuations per second; a runaway index can
	// otherwise hammer the hardware.
	RatePerSec  int    `json:"rate_per_sec,omitempty"`
	Burst       int    `json:"burst,omitempty"`
	SendTimeout string `json:"send_timeout,omitempty"` // default "2s"
}

type SerialConfig struct {
	Port     string `json:"port"`
	BaudRate int    `json:"baud_rate,omitempty"` // default 9600
}

type GPIOConfig struct {
	Pin       string `json:"pin"` // periph pin name, e.g. "GPIO17"
	ActiveLow bool   `json:"active_low,omitempty"`
}

// HistoryConfig controls the optional trigger audit log.
//
// Example:
//
//	"history": { "driver": "sqlite", "path": "./data/triggers.db" }
type HistoryConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
}
