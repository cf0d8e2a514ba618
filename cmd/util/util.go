package util

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ValentinKolb/rKV/lib/serializer"
	"github.com/ValentinKolb/rKV/lib/store/rstore"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		// Check if we need to wrap
		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		// Add space before word (if not first word on line)
		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		// Add the word
		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	// Add any remaining text
	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// SetupStoreFlags adds common Redis connection flags to a command
func SetupStoreFlags(cmd *cobra.Command) {
	key := "host"
	cmd.PersistentFlags().String(key, "localhost", WrapString("Hostname of the Redis server"))

	key = "port"
	cmd.PersistentFlags().Int(key, 6379, WrapString("Port of the Redis server"))

	key = "password"
	cmd.PersistentFlags().String(key, "", WrapString("Password for the Redis server (empty for no auth)"))

	key = "db"
	cmd.PersistentFlags().Int(key, 0, WrapString("Logical Redis database index to select"))

	key = "connect-timeout"
	cmd.PersistentFlags().Int(key, 10000, WrapString("Connect timeout in milliseconds"))

	key = "max-retries"
	cmd.PersistentFlags().Int(key, 3, WrapString("How many times to retry a failed request"))

	key = "queue-while-disconnected"
	cmd.PersistentFlags().Bool(key, true, WrapString("Whether requests issued while the connection is down wait for the reconnect instead of failing fast"))

	key = "namespace"
	cmd.PersistentFlags().String(key, rstore.DefaultNamespace, WrapString("Prefix prepended to every key to isolate this application's keyspace"))

	key = "invalidation-channel"
	cmd.PersistentFlags().String(key, rstore.DefaultInvalidationChannel, WrapString("Pub/sub channel for cross-process invalidation messages"))
}

// InitClientConfig initializes configuration from environment variables
func InitClientConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix("rkv")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}

// GetStoreConfig reads the store configuration from viper
func GetStoreConfig() rstore.Config {
	return rstore.Config{
		Host:                viper.GetString("host"),
		Port:                viper.GetInt("port"),
		Password:            viper.GetString("password"),
		DB:                  viper.GetInt("db"),
		ConnectTimeout:      time.Duration(viper.GetInt("connect-timeout")) * time.Millisecond,
		MaxRetries:          viper.GetInt("max-retries"),
		FailFast:            !viper.GetBool("queue-while-disconnected"),
		Namespace:           viper.GetString("namespace"),
		InvalidationChannel: viper.GetString("invalidation-channel"),
	}
}

// GetSerializer creates a string serializer based on configuration
func GetSerializer() (serializer.ISerializer[string], error) {
	switch viper.GetString("serializer") {
	case "json":
		return serializer.NewJSONSerializer[string](), nil
	case "gob":
		return serializer.NewGOBSerializer[string](), nil
	case "raw":
		return serializer.NewStringSerializer(), nil
	default:
		return nil, fmt.Errorf("invalid serializer %s", viper.GetString("serializer"))
	}
}

// BindCommandFlags binds a command's flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}
