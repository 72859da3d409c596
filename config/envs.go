package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds the application's configuration values.
type Config struct {
	BridgeAddr          string // Address of the external agent, e.g. ws://localhost:8765. Empty runs without an agent
	HostIP              string // Host IP for the status API
	RESTPort            int    // Port for the status API. Zero disables the API
	FrameRate           int    // Simulation steps per second
	DialTimeoutMs       int    // Bound on a single bridge dial
	ReconnectIntervalMs int    // Interval between reconnect attempts. Zero disables reconnecting
	AutoReset           bool   // Start a new episode right after every terminal outcome
	TaskMode            string // Environment layout: corridor or maze
	MazeSeed            int64  // Seed for grid generation and trial draws. Zero seeds from the clock
	DBHost              string // Hostname or IP address for the database. Empty disables the episode log
	DBPort              int    // Port number for the database
	DBUser              string // Username for the database
	DBPassword          string // Password for the database
	DBName              string // Name of the database
	RedisAddr           string // Address of the redis server. Empty keeps recent outcomes in memory
	RedisHistoryTTL     int    // Seconds recent outcomes live in redis
	GinMode             string // Mode for the Gin framework (e.g., release, debug, test)
	JWTSecret           string // Secret key for JWT signing. Empty leaves the control routes open
	JWTIssuer           string // Issuer claim for JWTs
}

// Envs holds the application's configuration loaded from environment variables.
var Envs = initConfig()

// initConfig initializes and returns the application configuration.
// It loads environment variables from a .env file.
func initConfig() Config {
	// Load .env file if available
	if err := godotenv.Load(); err != nil {
		log.Printf("[APP] [INFO] .env file not found or could not be loaded: %v", err)
	}

	return Config{
		BridgeAddr:          getEnvWithDefault("BRIDGE_ADDR", ""),
		HostIP:              getEnvWithDefault("HOST_IP", "127.0.0.1"),
		RESTPort:            getEnvAsIntWithDefault("REST_PORT", 8080),
		FrameRate:           getEnvAsIntWithDefault("FRAME_RATE", 60),
		DialTimeoutMs:       getEnvAsIntWithDefault("DIAL_TIMEOUT_MS", 5000),
		ReconnectIntervalMs: getEnvAsIntWithDefault("RECONNECT_INTERVAL_MS", 0),
		AutoReset:           getEnvAsBoolWithDefault("AUTO_RESET", false),
		TaskMode:            getEnvWithDefault("TASK_MODE", "corridor"),
		MazeSeed:            int64(getEnvAsIntWithDefault("MAZE_SEED", 0)),
		DBHost:              getEnvWithDefault("DB_HOST", ""),
		DBPort:              getEnvAsIntWithDefault("DB_PORT", 27017),
		DBUser:              getEnvWithDefault("DB_USER", ""),
		DBPassword:          getEnvWithDefault("DB_PASS", ""),
		DBName:              getEnvWithDefault("DB_NAME", "vinom_lab"),
		RedisAddr:           getEnvWithDefault("REDIS_ADDR", ""),
		RedisHistoryTTL:     getEnvAsIntWithDefault("REDIS_HISTORY_TTL", 86400),
		GinMode:             getEnvWithDefault("GIN_MODE", "release"),
		JWTSecret:           getEnvWithDefault("JWT_SECRET", ""),
		JWTIssuer:           getEnvWithDefault("JWT_ISSUER", "vinom-lab"),
	}
}

// MustGetEnv retrieves the value of an environment variable or logs a fatal error if not set.
// It is for settings that only some commands require.
func MustGetEnv(key string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		log.Fatalf("[APP] [FATAL] Environment variable %s is not set", key)
	}
	return value
}

// getEnvAsIntWithDefault retrieves the value of an environment variable as an integer or returns a default value if not set.
// A value that cannot be parsed is a fatal error.
func getEnvAsIntWithDefault(key string, defaultValue int) int {
	valueStr, exists := os.LookupEnv(key)
	if !exists || valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Fatalf("[APP] [FATAL] Environment variable %s must be an integer: %v", key, err)
	}
	return value
}

// getEnvAsBoolWithDefault retrieves the value of an environment variable as a boolean or returns a default value if not set.
func getEnvAsBoolWithDefault(key string, defaultValue bool) bool {
	valueStr, exists := os.LookupEnv(key)
	if !exists || valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Fatalf("[APP] [FATAL] Environment variable %s must be a boolean: %v", key, err)
	}
	return value
}

// getEnvWithDefault retrieves the value of an environment variable or returns a default value if not set.
func getEnvWithDefault(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
