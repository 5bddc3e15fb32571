package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// FileName is the config file looked up in the config directory.
const FileName = "rf2sync.cfg.json"

// SharedMemoryConfig holds the plugin mapping settings.
type SharedMemoryConfig struct {
	AccessMode     string
	PID            string
	ShmDir         string
	OverridePlayer bool
	PlayerIndex    int
}

// SyncConfig holds the engine cadence and debounce settings.
type SyncConfig struct {
	ActiveInterval   time.Duration
	IdleInterval     time.Duration
	FreezeWindow     time.Duration
	MaxResolveMisses int
}

// RecorderConfig holds the session recorder settings.
type RecorderConfig struct {
	Enabled        bool
	SampleInterval time.Duration
	TraceEvery     int
}

// MemoryConfig holds in-memory/JSON storage backend settings
type MemoryConfig struct {
	OutputDir      string `json:"outputDir" mapstructure:"outputDir"`
	CompressOutput bool   `json:"compressOutput" mapstructure:"compressOutput"`
}

// SQLiteConfig holds SQLite storage backend settings
type SQLiteConfig struct {
	DumpInterval time.Duration
	DumpPath     string
}

// WebSocketConfig holds streaming storage backend settings
type WebSocketConfig struct {
	URL    string
	Secret string
}

// StorageConfig selects and configures the storage backend.
type StorageConfig struct {
	Type      string
	Memory    MemoryConfig
	SQLite    SQLiteConfig
	WebSocket WebSocketConfig
}

// OTelConfig holds OpenTelemetry settings.
type OTelConfig struct {
	Enabled        bool
	ServiceName    string
	BatchTimeout   time.Duration
	Endpoint       string
	Insecure       bool
	MetricInterval time.Duration
}

// InfluxConfig holds InfluxDB settings.
type InfluxConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Protocol string
	Token    string
	Org      string
}

// GraylogConfig holds the GELF log sink settings.
type GraylogConfig struct {
	Enabled bool
	Address string
}

// ProcessConfig holds the simulator process discovery settings.
type ProcessConfig struct {
	Name       string
	FindEvery  int
	FoundEvery int
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	Database string
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file.
func Load(configDir string) error {
	setDefaults()

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}

	return nil
}

func setDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./rf2logs")

	viper.SetDefault("sharedMemory.accessMode", "copy")
	viper.SetDefault("sharedMemory.pid", "")
	viper.SetDefault("sharedMemory.shmDir", "/dev/shm")
	viper.SetDefault("sharedMemory.playerOverride.enabled", false)
	viper.SetDefault("sharedMemory.playerOverride.index", -1)

	viper.SetDefault("sync.activeInterval", "10ms")
	viper.SetDefault("sync.idleInterval", "500ms")
	viper.SetDefault("sync.freezeWindow", "5s")
	viper.SetDefault("sync.maxResolveMisses", 5)

	viper.SetDefault("recorder.enabled", true)
	viper.SetDefault("recorder.sampleInterval", "100ms")
	viper.SetDefault("recorder.traceEvery", 5)

	viper.SetDefault("api.serverUrl", "http://localhost:5000")
	viper.SetDefault("api.apiKey", "")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "rf2sync")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "supersecrettoken")
	viper.SetDefault("influx.org", "rf2sync")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("process.name", "rFactor2.exe")
	viper.SetDefault("process.findEvery", 200)
	viper.SetDefault("process.foundEvery", 5)

	viper.SetDefault("storage.type", "memory")
	viper.SetDefault("storage.memory.outputDir", "./sessions")
	viper.SetDefault("storage.memory.compressOutput", true)
	viper.SetDefault("storage.sqlite.dumpInterval", "3m")
	viper.SetDefault("storage.sqlite.dumpPath", "./sessions/rf2sync.db")
	viper.SetDefault("storage.websocket.url", "")
	viper.SetDefault("storage.websocket.secret", "")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "rf2sync")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)
	viper.SetDefault("otel.metricInterval", "30s")
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetDuration returns a duration config value.
func GetDuration(key string) time.Duration {
	return viper.GetDuration(key)
}

// GetSharedMemoryConfig returns the plugin mapping settings.
func GetSharedMemoryConfig() SharedMemoryConfig {
	return SharedMemoryConfig{
		AccessMode:     viper.GetString("sharedMemory.accessMode"),
		PID:            viper.GetString("sharedMemory.pid"),
		ShmDir:         viper.GetString("sharedMemory.shmDir"),
		OverridePlayer: viper.GetBool("sharedMemory.playerOverride.enabled"),
		PlayerIndex:    viper.GetInt("sharedMemory.playerOverride.index"),
	}
}

// GetSyncConfig returns the engine settings.
func GetSyncConfig() SyncConfig {
	return SyncConfig{
		ActiveInterval:   viper.GetDuration("sync.activeInterval"),
		IdleInterval:     viper.GetDuration("sync.idleInterval"),
		FreezeWindow:     viper.GetDuration("sync.freezeWindow"),
		MaxResolveMisses: viper.GetInt("sync.maxResolveMisses"),
	}
}

// GetRecorderConfig returns the recorder settings.
func GetRecorderConfig() RecorderConfig {
	return RecorderConfig{
		Enabled:        viper.GetBool("recorder.enabled"),
		SampleInterval: viper.GetDuration("recorder.sampleInterval"),
		TraceEvery:     viper.GetInt("recorder.traceEvery"),
	}
}

// GetStorageConfig returns the storage backend settings.
func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type: viper.GetString("storage.type"),
		Memory: MemoryConfig{
			OutputDir:      viper.GetString("storage.memory.outputDir"),
			CompressOutput: viper.GetBool("storage.memory.compressOutput"),
		},
		SQLite: SQLiteConfig{
			DumpInterval: viper.GetDuration("storage.sqlite.dumpInterval"),
			DumpPath:     viper.GetString("storage.sqlite.dumpPath"),
		},
		WebSocket: WebSocketConfig{
			URL:    viper.GetString("storage.websocket.url"),
			Secret: viper.GetString("storage.websocket.secret"),
		},
	}
}

// GetOTelConfig returns the OpenTelemetry settings.
func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:        viper.GetBool("otel.enabled"),
		ServiceName:    viper.GetString("otel.serviceName"),
		BatchTimeout:   viper.GetDuration("otel.batchTimeout"),
		Endpoint:       viper.GetString("otel.endpoint"),
		Insecure:       viper.GetBool("otel.insecure"),
		MetricInterval: viper.GetDuration("otel.metricInterval"),
	}
}

// GetInfluxConfig returns the InfluxDB settings.
func GetInfluxConfig() InfluxConfig {
	return InfluxConfig{
		Enabled:  viper.GetBool("influx.enabled"),
		Host:     viper.GetString("influx.host"),
		Port:     viper.GetString("influx.port"),
		Protocol: viper.GetString("influx.protocol"),
		Token:    viper.GetString("influx.token"),
		Org:      viper.GetString("influx.org"),
	}
}

// GetGraylogConfig returns the GELF sink settings.
func GetGraylogConfig() GraylogConfig {
	return GraylogConfig{
		Enabled: viper.GetBool("graylog.enabled"),
		Address: viper.GetString("graylog.address"),
	}
}

// GetProcessConfig returns the process discovery settings.
func GetProcessConfig() ProcessConfig {
	return ProcessConfig{
		Name:       viper.GetString("process.name"),
		FindEvery:  viper.GetInt("process.findEvery"),
		FoundEvery: viper.GetInt("process.foundEvery"),
	}
}

// GetDBConfig returns the PostgreSQL settings.
func GetDBConfig() DBConfig {
	return DBConfig{
		Host:     viper.GetString("db.host"),
		Port:     viper.GetString("db.port"),
		Username: viper.GetString("db.username"),
		Password: viper.GetString("db.password"),
		Database: viper.GetString("db.database"),
	}
}
