package telemetry

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/fyrsmithlabs/designsprint/internal/config"
)

// ServiceName is reported as service.name on every span and metric.
const ServiceName = "designsprint"

// OTLP transports.
const (
	ProtocolGRPC = "grpc"
	ProtocolHTTP = "http"
)

// Config controls the OTLP exporters. The zero value is disabled.
type Config struct {
	Enabled  bool
	Endpoint string
	Protocol string
	// Insecure sends plaintext. Only loopback endpoints may use it.
	Insecure bool

	ServiceVersion string
	// AIProvider and AIModel are attached to the resource so every span and
	// metric can be sliced by backend.
	AIProvider string
	AIModel    string

	// SampleRate is the fraction of root traces kept, 0 to 1.
	SampleRate      float64
	ExportInterval  time.Duration
	ShutdownTimeout time.Duration
}

// NewDefaultConfig returns a disabled config pointing at a local collector.
func NewDefaultConfig() *Config {
	return &Config{
		Endpoint:        "localhost:4317",
		Protocol:        ProtocolGRPC,
		Insecure:        true,
		ServiceVersion:  "dev",
		SampleRate:      1,
		ExportInterval:  15 * time.Second,
		ShutdownTimeout: 5 * time.Second,
	}
}

// FromSettings derives the telemetry config from the loaded application
// config. version is the build version; empty keeps "dev".
func FromSettings(cfg *config.Config, version string) *Config {
	c := NewDefaultConfig()
	c.Enabled = cfg.Telemetry.Enabled
	if cfg.Telemetry.Endpoint != "" {
		c.Endpoint = cfg.Telemetry.Endpoint
	}
	if cfg.Telemetry.Protocol != "" {
		c.Protocol = strings.ToLower(cfg.Telemetry.Protocol)
	}
	c.Insecure = cfg.Telemetry.Insecure
	if version != "" {
		c.ServiceVersion = version
	}
	c.AIProvider = cfg.AI.Provider
	c.AIModel = cfg.AI.Model
	return c
}

// Validate reports every problem with an enabled config at once.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	var errs []error
	if c.Endpoint == "" {
		errs = append(errs, errors.New("endpoint is required"))
	}
	if c.Protocol != ProtocolGRPC && c.Protocol != ProtocolHTTP {
		errs = append(errs, fmt.Errorf("protocol must be %s or %s, got %q", ProtocolGRPC, ProtocolHTTP, c.Protocol))
	}
	if c.Endpoint != "" && c.Insecure && !c.loopback() {
		errs = append(errs, fmt.Errorf("insecure export to %s is not allowed; use TLS or a loopback collector", c.Endpoint))
	}
	if c.SampleRate < 0 || c.SampleRate > 1 {
		errs = append(errs, fmt.Errorf("sample rate must be within [0, 1], got %g", c.SampleRate))
	}
	if c.ExportInterval <= 0 {
		errs = append(errs, errors.New("export interval must be positive"))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("shutdown timeout must be positive"))
	}
	return errors.Join(errs...)
}

// loopback reports whether the endpoint is localhost or a loopback IP.
func (c *Config) loopback() bool {
	host := stripScheme(c.Endpoint)
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.Trim(host, "[]")
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// stripScheme turns a URL-style endpoint into the host:port the OTLP
// exporters expect.
func stripScheme(endpoint string) string {
	for _, scheme := range []string{"https://", "http://"} {
		if strings.HasPrefix(endpoint, scheme) {
			return strings.TrimSuffix(endpoint[len(scheme):], "/")
		}
	}
	return endpoint
}
