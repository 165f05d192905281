package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// FileName is the config file looked up in the config directory.
const FileName = "lightcontrol.cfg.json"

// HueConfig holds bridge connection settings
type HueConfig struct {
	BridgeAddress string        `json:"bridgeAddress" mapstructure:"bridgeAddress"`
	Username      string        `json:"username" mapstructure:"username"`
	DeviceType    string        `json:"deviceType" mapstructure:"deviceType"`
	Timeout       time.Duration `json:"timeout" mapstructure:"timeout"`
}

// StorageConfig selects and configures the persistence backend
type StorageConfig struct {
	Type     string         `json:"type" mapstructure:"type"`
	JSON     JSONConfig     `json:"json" mapstructure:"json"`
	SQLite   SQLiteConfig   `json:"sqlite" mapstructure:"sqlite"`
	Badger   BadgerConfig   `json:"badger" mapstructure:"badger"`
	Postgres PostgresConfig `json:"postgres" mapstructure:"postgres"`
}

// JSONConfig holds JSON file backend settings
type JSONConfig struct {
	Path string `json:"path" mapstructure:"path"`
}

// SQLiteConfig holds SQLite backend settings
type SQLiteConfig struct {
	Path string `json:"path" mapstructure:"path"`
}

// BadgerConfig holds BadgerDB backend settings. An empty dir keeps the store in memory.
type BadgerConfig struct {
	Dir string `json:"dir" mapstructure:"dir"`
}

// PostgresConfig holds PostgreSQL connection settings
type PostgresConfig struct {
	Host     string `json:"host" mapstructure:"host"`
	Port     string `json:"port" mapstructure:"port"`
	Username string `json:"username" mapstructure:"username"`
	Password string `json:"password" mapstructure:"password"`
	Database string `json:"database" mapstructure:"database"`
}

// GestureConfig tunes both hand gesture classifiers
type GestureConfig struct {
	RingHand            string  `json:"ringHand" mapstructure:"ringHand"`
	SlingshotHand       string  `json:"slingshotHand" mapstructure:"slingshotHand"`
	RequiredStableCount int     `json:"requiredStableCount" mapstructure:"requiredStableCount"`
	PalmUpThreshold     float64 `json:"palmUpThreshold" mapstructure:"palmUpThreshold"`
	PeaceSeparation     float64 `json:"peaceSeparation" mapstructure:"peaceSeparation"`
	ExtensionRatio      float64 `json:"extensionRatio" mapstructure:"extensionRatio"`
}

// RingConfig holds ring geometry and animation timings
type RingConfig struct {
	Radius          float64       `json:"radius" mapstructure:"radius"`
	OffsetY         float64       `json:"offsetY" mapstructure:"offsetY"`
	TokenRadius     float64       `json:"tokenRadius" mapstructure:"tokenRadius"`
	RemoveDistance  float64       `json:"removeDistance" mapstructure:"removeDistance"`
	SnapDistance    float64       `json:"snapDistance" mapstructure:"snapDistance"`
	OpenDuration    time.Duration `json:"openDuration" mapstructure:"openDuration"`
	CloseDuration   time.Duration `json:"closeDuration" mapstructure:"closeDuration"`
	ArrangeDuration time.Duration `json:"arrangeDuration" mapstructure:"arrangeDuration"`
}

// SlingshotConfig holds pull limits and trajectory preview settings
type SlingshotConfig struct {
	MaxPullDistance   float64       `json:"maxPullDistance" mapstructure:"maxPullDistance"`
	ForceMultiplier   float64       `json:"forceMultiplier" mapstructure:"forceMultiplier"`
	PreviewLength     float64       `json:"previewLength" mapstructure:"previewLength"`
	ArcHeight         float64       `json:"arcHeight" mapstructure:"arcHeight"`
	TrajectorySamples int           `json:"trajectorySamples" mapstructure:"trajectorySamples"`
	ResetDelay        time.Duration `json:"resetDelay" mapstructure:"resetDelay"`
}

// AnchorConfig holds marker placement settings
type AnchorConfig struct {
	MoveSettleDelay time.Duration `json:"moveSettleDelay" mapstructure:"moveSettleDelay"`
	PlaceDistance   float64       `json:"placeDistance" mapstructure:"placeDistance"`
	MarkerRadius    float64       `json:"markerRadius" mapstructure:"markerRadius"`
	EditOpacity     float64       `json:"editOpacity" mapstructure:"editOpacity"`
	IdleOpacity     float64       `json:"idleOpacity" mapstructure:"idleOpacity"`
}

// DispatcherConfig holds command queue settings
type DispatcherConfig struct {
	BufferSize     int           `json:"bufferSize" mapstructure:"bufferSize"`
	CommandTimeout time.Duration `json:"commandTimeout" mapstructure:"commandTimeout"`
}

// MonitorConfig holds status snapshot settings
type MonitorConfig struct {
	Interval   time.Duration `json:"interval" mapstructure:"interval"`
	StatusFile string        `json:"statusFile" mapstructure:"statusFile"`
}

// MetricsConfig holds OpenTelemetry metric export settings
type MetricsConfig struct {
	Enabled     bool          `json:"enabled" mapstructure:"enabled"`
	ServiceName string        `json:"serviceName" mapstructure:"serviceName"`
	Interval    time.Duration `json:"interval" mapstructure:"interval"`
	File        string        `json:"file" mapstructure:"file"`
}

// SetDefaults registers default values for every key.
func SetDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./logs")

	viper.SetDefault("hue.bridgeAddress", "")
	viper.SetDefault("hue.username", "")
	viper.SetDefault("hue.deviceType", "lightcontrol#go")
	viper.SetDefault("hue.timeout", "5s")

	viper.SetDefault("storage.type", "json")
	viper.SetDefault("storage.json.path", "lightControls.json")
	viper.SetDefault("storage.sqlite.path", "lightcontrol.db")
	viper.SetDefault("storage.badger.dir", "lightcontrol.badger")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "lightcontrol")

	viper.SetDefault("gesture.ringHand", "left")
	viper.SetDefault("gesture.slingshotHand", "right")
	viper.SetDefault("gesture.requiredStableCount", 3)
	viper.SetDefault("gesture.palmUpThreshold", 0.5)
	viper.SetDefault("gesture.peaceSeparation", 0.03)
	viper.SetDefault("gesture.extensionRatio", 0.7)

	viper.SetDefault("ring.radius", 0.075)
	viper.SetDefault("ring.offsetY", 0.2)
	viper.SetDefault("ring.tokenRadius", 0.02)
	viper.SetDefault("ring.removeDistance", 0.15)
	viper.SetDefault("ring.snapDistance", 0.12)
	viper.SetDefault("ring.openDuration", "1s")
	viper.SetDefault("ring.closeDuration", "500ms")
	viper.SetDefault("ring.arrangeDuration", "1s")

	viper.SetDefault("slingshot.maxPullDistance", 0.5)
	viper.SetDefault("slingshot.forceMultiplier", -30.0)
	viper.SetDefault("slingshot.previewLength", 1.5)
	viper.SetDefault("slingshot.arcHeight", 0.05)
	viper.SetDefault("slingshot.trajectorySamples", 10)
	viper.SetDefault("slingshot.resetDelay", "500ms")

	viper.SetDefault("anchors.moveSettleDelay", "1s")
	viper.SetDefault("anchors.placeDistance", 0.5)
	viper.SetDefault("anchors.markerRadius", 0.15)
	viper.SetDefault("anchors.editOpacity", 0.5)
	viper.SetDefault("anchors.idleOpacity", 0.05)

	viper.SetDefault("dispatcher.bufferSize", 64)
	viper.SetDefault("dispatcher.commandTimeout", "5s")

	viper.SetDefault("monitor.interval", "30s")
	viper.SetDefault("monitor.statusFile", "")

	viper.SetDefault("metrics.enabled", false)
	viper.SetDefault("metrics.serviceName", "lightcontrol")
	viper.SetDefault("metrics.interval", "1m")
	viper.SetDefault("metrics.file", "")
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file.
func Load(configDir string) error {
	SetDefaults()

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}

	return nil
}

// GetHueConfig returns bridge settings
func GetHueConfig() HueConfig {
	return HueConfig{
		BridgeAddress: viper.GetString("hue.bridgeAddress"),
		Username:      viper.GetString("hue.username"),
		DeviceType:    viper.GetString("hue.deviceType"),
		Timeout:       viper.GetDuration("hue.timeout"),
	}
}

// GetStorageConfig returns the persistence backend configuration
func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type: viper.GetString("storage.type"),
		JSON: JSONConfig{
			Path: viper.GetString("storage.json.path"),
		},
		SQLite: SQLiteConfig{
			Path: viper.GetString("storage.sqlite.path"),
		},
		Badger: BadgerConfig{
			Dir: viper.GetString("storage.badger.dir"),
		},
		Postgres: PostgresConfig{
			Host:     viper.GetString("db.host"),
			Port:     viper.GetString("db.port"),
			Username: viper.GetString("db.username"),
			Password: viper.GetString("db.password"),
			Database: viper.GetString("db.database"),
		},
	}
}

// GetGestureConfig returns classifier thresholds
func GetGestureConfig() GestureConfig {
	return GestureConfig{
		RingHand:            viper.GetString("gesture.ringHand"),
		SlingshotHand:       viper.GetString("gesture.slingshotHand"),
		RequiredStableCount: viper.GetInt("gesture.requiredStableCount"),
		PalmUpThreshold:     viper.GetFloat64("gesture.palmUpThreshold"),
		PeaceSeparation:     viper.GetFloat64("gesture.peaceSeparation"),
		ExtensionRatio:      viper.GetFloat64("gesture.extensionRatio"),
	}
}

// GetRingConfig returns ring layout settings
func GetRingConfig() RingConfig {
	return RingConfig{
		Radius:          viper.GetFloat64("ring.radius"),
		OffsetY:         viper.GetFloat64("ring.offsetY"),
		TokenRadius:     viper.GetFloat64("ring.tokenRadius"),
		RemoveDistance:  viper.GetFloat64("ring.removeDistance"),
		SnapDistance:    viper.GetFloat64("ring.snapDistance"),
		OpenDuration:    viper.GetDuration("ring.openDuration"),
		CloseDuration:   viper.GetDuration("ring.closeDuration"),
		ArrangeDuration: viper.GetDuration("ring.arrangeDuration"),
	}
}

// GetSlingshotConfig returns slingshot settings
func GetSlingshotConfig() SlingshotConfig {
	return SlingshotConfig{
		MaxPullDistance:   viper.GetFloat64("slingshot.maxPullDistance"),
		ForceMultiplier:   viper.GetFloat64("slingshot.forceMultiplier"),
		PreviewLength:     viper.GetFloat64("slingshot.previewLength"),
		ArcHeight:         viper.GetFloat64("slingshot.arcHeight"),
		TrajectorySamples: viper.GetInt("slingshot.trajectorySamples"),
		ResetDelay:        viper.GetDuration("slingshot.resetDelay"),
	}
}

// GetAnchorConfig returns marker placement settings
func GetAnchorConfig() AnchorConfig {
	return AnchorConfig{
		MoveSettleDelay: viper.GetDuration("anchors.moveSettleDelay"),
		PlaceDistance:   viper.GetFloat64("anchors.placeDistance"),
		MarkerRadius:    viper.GetFloat64("anchors.markerRadius"),
		EditOpacity:     viper.GetFloat64("anchors.editOpacity"),
		IdleOpacity:     viper.GetFloat64("anchors.idleOpacity"),
	}
}

// GetDispatcherConfig returns command queue settings
func GetDispatcherConfig() DispatcherConfig {
	return DispatcherConfig{
		BufferSize:     viper.GetInt("dispatcher.bufferSize"),
		CommandTimeout: viper.GetDuration("dispatcher.commandTimeout"),
	}
}

// GetMonitorConfig returns status snapshot settings
func GetMonitorConfig() MonitorConfig {
	return MonitorConfig{
		Interval:   viper.GetDuration("monitor.interval"),
		StatusFile: viper.GetString("monitor.statusFile"),
	}
}

// GetMetricsConfig returns metric export settings
func GetMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Enabled:     viper.GetBool("metrics.enabled"),
		ServiceName: viper.GetString("metrics.serviceName"),
		Interval:    viper.GetDuration("metrics.interval"),
		File:        viper.GetString("metrics.file"),
	}
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
