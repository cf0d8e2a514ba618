package rstore

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

const (
	// DefaultNamespace is prepended to every logical key unless overridden.
	DefaultNamespace = "rkv:"
	// DefaultInvalidationChannel is the well-known pub/sub channel for
	// best-effort cross-process invalidation messages.
	DefaultInvalidationChannel = "rkv:invalidations"

	defaultHost           = "localhost"
	defaultPort           = 6379
	defaultConnectTimeout = 10 * time.Second
	defaultMaxRetries     = 3

	// Reconnect backoff grows linearly with the attempt count up to a cap.
	retryBackoffStep = 50 * time.Millisecond
	retryBackoffCap  = 2000 * time.Millisecond
)

// --------------------------------------------------------------------------
// Store configuration struct
// --------------------------------------------------------------------------

// Config holds all connection and namespacing parameters of a Redis store.
// The zero value is usable: unset fields fall back to the defaults above.
type Config struct {
	// Connection parameters
	Host           string
	Port           int
	Password       string // optional credential
	DB             int    // logical database (partition) index
	ConnectTimeout time.Duration
	MaxRetries     int // per-request retry budget inside the client

	// FailFast makes every command fail on the first connection error
	// instead of being queued and retried while the connection is down.
	// The zero value keeps queueing on.
	FailFast bool

	// Key namespacing and invalidation
	Namespace           string
	InvalidationChannel string
}

// DefaultConfig returns a configuration pointing at a local Redis with the
// default namespace and invalidation channel.
func DefaultConfig() Config {
	return Config{
		Host:                defaultHost,
		Port:                defaultPort,
		DB:                  0,
		ConnectTimeout:      defaultConnectTimeout,
		MaxRetries:          defaultMaxRetries,
		Namespace:           DefaultNamespace,
		InvalidationChannel: DefaultInvalidationChannel,
	}
}

// withDefaults fills unset fields with their default values.
func (c Config) withDefaults() Config {
	if c.Host == "" {
		c.Host = defaultHost
	}
	if c.Port == 0 {
		c.Port = defaultPort
	}
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = defaultConnectTimeout
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = defaultMaxRetries
	}
	if c.Namespace == "" {
		c.Namespace = DefaultNamespace
	}
	if c.InvalidationChannel == "" {
		c.InvalidationChannel = DefaultInvalidationChannel
	}
	return c
}

// Addr returns the host:port address of the configured Redis endpoint.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// options converts the configuration into go-redis client options. The
// linear RetryBackoff schedule bounds the client's internal retry delays.
func (c Config) options() *redis.Options {
	maxRetries := c.MaxRetries
	if c.FailFast {
		// -1 disables command retries entirely, commands fail fast
		maxRetries = -1
	}
	return &redis.Options{
		Addr:            c.Addr(),
		Password:        c.Password,
		DB:              c.DB,
		DialTimeout:     c.ConnectTimeout,
		MaxRetries:      maxRetries,
		MinRetryBackoff: RetryBackoff(1),
		MaxRetryBackoff: retryBackoffCap,
	}
}

// RetryBackoff returns the delay before reconnect attempt number attempt
// (1-based). The schedule grows linearly with the attempt count and is
// capped: attempt x 50ms, at most 2000ms.
func RetryBackoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := time.Duration(attempt) * retryBackoffStep
	if d > retryBackoffCap {
		return retryBackoffCap
	}
	return d
}

// String returns a formatted string representation of the configuration
func (c Config) String() string {
	var sb strings.Builder

	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Redis Connection")
	addField("Address", c.Addr())
	addField("Database", strconv.Itoa(c.DB))
	addField("Password Set", fmt.Sprintf("%t", c.Password != ""))
	addField("Connect Timeout", c.ConnectTimeout.String())
	addField("Max Retries", strconv.Itoa(c.MaxRetries))
	addField("Queue While Down", fmt.Sprintf("%t", !c.FailFast))

	addSection("Key Namespacing")
	addField("Namespace", c.Namespace)
	addField("Invalidation Channel", c.InvalidationChannel)

	return sb.String()
}
