// Package config provides YAML configuration parsing for risewatch.
//
// This package lets risewatch run as a standalone binary with a configuration
// file, as an alternative to the programmatic SDK.
//
// Example configuration:
//
//	target:
//	  name: iss
//	  url: http://api.open-notify.org/iss-pass.json?lat=${LAT:-45.5}&lon=${LON:--73.6}&n=1
//	  keyword: risetime
//	  timeout: 10s
//
//	poll_interval: 1h
//	notify_lead: 10m
//
//	notify:
//	  bell:
//	    rings: 3
//
//	log:
//	  level: info
//	  file: /var/log/risewatch.log
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/netip"
	"net/url"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// minPollInterval keeps a misconfigured interval from hammering the API.
	minPollInterval = 10 * time.Second

	defaultPollInterval    = time.Hour
	defaultNotifyLead      = 10 * time.Minute
	defaultTick            = time.Second
	defaultBufferSize      = 2048
	defaultMaxTokenLength  = 16
	defaultLookahead       = 1000
	defaultTimeout         = 10 * time.Second
	defaultBringUpAttempts = 3
	defaultBringUpDelay    = 5 * time.Second
	defaultDNSTimeout      = 5 * time.Second
	defaultResolveTTL      = 30 * time.Minute
	defaultDNSPort         = 53
)

// Config is the root configuration structure.
//
// It maps directly to the YAML file. Use [Load] or [Parse] to create one.
type Config struct {
	// Target is the endpoint polled for the event time.
	Target TargetConfig `yaml:"target"`

	// PollInterval is the time between requests. Defaults to 1h.
	PollInterval Duration `yaml:"poll_interval"`

	// NotifyLead is how long before the event the notification fires.
	// Defaults to 10m.
	NotifyLead Duration `yaml:"notify_lead"`

	// Tick is how often the loop checks its schedule. Defaults to 1s.
	Tick Duration `yaml:"tick"`

	// BufferSize is the response buffer capacity in bytes. Defaults to 2048.
	BufferSize int `yaml:"buffer_size"`

	// StatusPort enables the status API on this port. 0 disables it.
	StatusPort int `yaml:"status_port"`

	// Network configures bring-up and DNS.
	Network NetworkConfig `yaml:"network"`

	// Notify selects the notifiers. With none configured, events are logged.
	Notify NotifyConfig `yaml:"notify"`

	// Log configures logging.
	Log LogConfig `yaml:"log"`
}

// TargetConfig defines the polled endpoint.
type TargetConfig struct {
	// Name identifies the target in logs and the status API.
	Name string `yaml:"name"`

	// URL is the endpoint URL.
	// Supports environment variable substitution: ${VAR} or ${VAR:-default}
	URL string `yaml:"url"`

	// Keyword is the field whose value is the event time in Unix seconds.
	// A bare name k matches "k": with optional whitespace after the colon.
	// A keyword holding a quote or a colon is matched exactly as given, for
	// example 'risetime": '.
	Keyword string `yaml:"keyword"`

	// MaxTokenLength bounds the extracted value. Defaults to 16.
	MaxTokenLength int `yaml:"max_token_length"`

	// Lookahead is how many body bytes are searched for the keyword.
	// Defaults to 1000.
	Lookahead int `yaml:"lookahead"`

	// Timeout is the per-request deadline. Defaults to 10s.
	Timeout Duration `yaml:"timeout"`

	// Headers are sent with each request.
	// Values support environment variable substitution.
	Headers map[string]string `yaml:"headers"`
}

// NetworkConfig defines how the network is brought up.
//
// When Local is set the lease is static and DNS must list at least one
// server. Otherwise the host's interface, gateway and resolv.conf are used.
type NetworkConfig struct {
	// Interface selects the host interface. Empty picks the first one up.
	Interface string `yaml:"interface"`

	// ResolvConf overrides /etc/resolv.conf.
	ResolvConf string `yaml:"resolv_conf"`

	// Local is a static local address.
	Local string `yaml:"local"`

	// Gateway is a static gateway address. Optional.
	Gateway string `yaml:"gateway"`

	// DNS lists static name servers as "addr" or "addr:port".
	DNS []string `yaml:"dns"`

	// DNSTimeout bounds each DNS exchange. Defaults to 5s.
	DNSTimeout Duration `yaml:"dns_timeout"`

	// ResolveTTL is how long a resolved address is reused. Defaults to 30m.
	ResolveTTL Duration `yaml:"resolve_ttl"`

	// BringUpAttempts is how many times bring-up is tried. Defaults to 3.
	BringUpAttempts int `yaml:"bringup_attempts"`

	// BringUpRetryDelay is the pause between attempts. Defaults to 5s.
	BringUpRetryDelay Duration `yaml:"bringup_retry_delay"`

	// parsed by validate
	local   netip.Addr
	gateway netip.Addr
	dns     []netip.AddrPort
}

// Static reports whether a static lease is configured.
func (n NetworkConfig) Static() bool {
	return n.Local != ""
}

// NotifyConfig selects notifiers. Several may be enabled at once.
type NotifyConfig struct {
	// Log logs the event. It is used when nothing else is enabled.
	Log bool `yaml:"log"`

	// Bell rings the terminal bell.
	Bell *BellConfig `yaml:"bell"`

	// Command runs an external command.
	Command *CommandConfig `yaml:"command"`
}

// BellConfig configures the terminal bell.
type BellConfig struct {
	// Rings is the number of bells. Defaults to 1.
	Rings int `yaml:"rings"`

	// Interval is the pause between bells.
	Interval Duration `yaml:"interval"`
}

// CommandConfig configures the command notifier.
type CommandConfig struct {
	// Path is the executable.
	Path string `yaml:"path"`

	// Args are passed to the executable. Values support environment
	// variable substitution.
	Args []string `yaml:"args"`

	// Timeout kills the command if it runs longer. 0 means no limit.
	Timeout Duration `yaml:"timeout"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is debug, info, warn or error. Defaults to info.
	Level string `yaml:"level"`

	// Format is text or json. Defaults to text.
	Format string `yaml:"format"`

	// File also writes logs to this path, rotated by size.
	File string `yaml:"file"`

	// MaxSizeMB is the size at which the file is rotated. Defaults to 10.
	MaxSizeMB int `yaml:"max_size_mb"`

	// MaxBackups is how many rotated files are kept. 0 keeps all.
	MaxBackups int `yaml:"max_backups"`

	// MaxAgeDays is how long rotated files are kept. 0 keeps them forever.
	MaxAgeDays int `yaml:"max_age_days"`

	// Compress gzips rotated files.
	Compress bool `yaml:"compress"`
}

// Duration wraps time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// envVarPattern matches ${VAR} and ${VAR:-default}.
// Group 1 is the name, group 2 the ":-default" part, group 3 the default.
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment values.
// An unset variable without a default is an error.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}

		sub := envVarPattern.FindStringSubmatch(match)
		name := sub[1]
		hasDefault := sub[2] != ""

		if value, ok := os.LookupEnv(name); ok {
			return value
		}
		if hasDefault {
			return sub[3]
		}
		firstErr = fmt.Errorf("environment variable %q is not set", name)
		return match
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML configuration data, applies defaults, expands environment
// variables in the URL, header values and command arguments, and validates
// the result.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.expandAndValidate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Target.Name == "" {
		c.Target.Name = c.Target.Keyword
	}
	if c.Target.MaxTokenLength == 0 {
		c.Target.MaxTokenLength = defaultMaxTokenLength
	}
	if c.Target.Lookahead == 0 {
		c.Target.Lookahead = defaultLookahead
	}
	if c.Target.Timeout == 0 {
		c.Target.Timeout = Duration(defaultTimeout)
	}
	if c.PollInterval == 0 {
		c.PollInterval = Duration(defaultPollInterval)
	}
	if c.NotifyLead == 0 {
		c.NotifyLead = Duration(defaultNotifyLead)
	}
	if c.Tick == 0 {
		c.Tick = Duration(defaultTick)
	}
	if c.BufferSize == 0 {
		c.BufferSize = defaultBufferSize
	}
	if c.Network.DNSTimeout == 0 {
		c.Network.DNSTimeout = Duration(defaultDNSTimeout)
	}
	if c.Network.ResolveTTL == 0 {
		c.Network.ResolveTTL = Duration(defaultResolveTTL)
	}
	if c.Network.BringUpAttempts == 0 {
		c.Network.BringUpAttempts = defaultBringUpAttempts
	}
	if c.Network.BringUpRetryDelay == 0 {
		c.Network.BringUpRetryDelay = Duration(defaultBringUpDelay)
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Log.MaxSizeMB == 0 {
		c.Log.MaxSizeMB = 10
	}
}

// expandAndValidate expands environment variables and validates the config.
func (c *Config) expandAndValidate() error {
	if err := c.Target.expandAndValidate(); err != nil {
		return err
	}

	if c.PollInterval.Duration() < minPollInterval {
		return fmt.Errorf("poll_interval must be at least %s, got %s", minPollInterval, c.PollInterval.Duration())
	}
	if c.NotifyLead.Duration() <= 0 {
		return fmt.Errorf("notify_lead must be positive, got %s", c.NotifyLead.Duration())
	}
	if c.Tick.Duration() <= 0 {
		return fmt.Errorf("tick must be positive, got %s", c.Tick.Duration())
	}
	if c.BufferSize < 64 {
		return fmt.Errorf("buffer_size must be at least 64, got %d", c.BufferSize)
	}
	if c.StatusPort < 0 || c.StatusPort > 65535 {
		return fmt.Errorf("status_port must be between 0 and 65535, got %d", c.StatusPort)
	}

	if err := c.Network.validate(); err != nil {
		return err
	}
	if err := c.Notify.expandAndValidate(); err != nil {
		return err
	}
	return c.Log.validate()
}

func (t *TargetConfig) expandAndValidate() error {
	if t.Keyword == "" {
		return errors.New("target: keyword is required")
	}
	if t.URL == "" {
		return fmt.Errorf("target (%s): url is required", t.Name)
	}
	expanded, err := expandEnvVars(t.URL)
	if err != nil {
		return fmt.Errorf("target (%s): url: %w", t.Name, err)
	}
	t.URL = expanded

	u, err := url.Parse(t.URL)
	if err != nil {
		return fmt.Errorf("target (%s): invalid url: %w", t.Name, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("target (%s): url scheme must be http or https, got %q", t.Name, u.Scheme)
	}
	if u.Hostname() == "" {
		return fmt.Errorf("target (%s): url must have a host", t.Name)
	}

	for k, v := range t.Headers {
		expanded, err := expandEnvVars(v)
		if err != nil {
			return fmt.Errorf("target (%s): headers[%s]: %w", t.Name, k, err)
		}
		t.Headers[k] = expanded
	}

	if t.MaxTokenLength < 0 {
		return fmt.Errorf("target (%s): max_token_length must be positive, got %d", t.Name, t.MaxTokenLength)
	}
	if t.Lookahead < 0 {
		return fmt.Errorf("target (%s): lookahead must be positive, got %d", t.Name, t.Lookahead)
	}
	if t.Timeout.Duration() < time.Second {
		return fmt.Errorf("target (%s): timeout must be at least 1s, got %s", t.Name, t.Timeout.Duration())
	}
	return nil
}

func (n *NetworkConfig) validate() error {
	if n.BringUpAttempts < 1 {
		return fmt.Errorf("network: bringup_attempts must be at least 1, got %d", n.BringUpAttempts)
	}
	if n.BringUpRetryDelay.Duration() < 0 {
		return fmt.Errorf("network: bringup_retry_delay cannot be negative, got %s", n.BringUpRetryDelay.Duration())
	}
	if n.DNSTimeout.Duration() <= 0 {
		return fmt.Errorf("network: dns_timeout must be positive, got %s", n.DNSTimeout.Duration())
	}
	if n.ResolveTTL.Duration() <= 0 {
		return fmt.Errorf("network: resolve_ttl must be positive, got %s", n.ResolveTTL.Duration())
	}

	if !n.Static() {
		if n.Gateway != "" || len(n.DNS) > 0 {
			return errors.New("network: gateway and dns require local to be set")
		}
		return nil
	}

	local, err := netip.ParseAddr(n.Local)
	if err != nil {
		return fmt.Errorf("network: invalid local address: %w", err)
	}
	n.local = local

	if n.Gateway != "" {
		gw, err := netip.ParseAddr(n.Gateway)
		if err != nil {
			return fmt.Errorf("network: invalid gateway address: %w", err)
		}
		n.gateway = gw
	}

	if len(n.DNS) == 0 {
		return errors.New("network: a static lease requires at least one dns server")
	}
	n.dns = n.dns[:0]
	for i, s := range n.DNS {
		ap, err := parseServer(s)
		if err != nil {
			return fmt.Errorf("network: dns[%d]: %w", i, err)
		}
		n.dns = append(n.dns, ap)
	}
	return nil
}

// parseServer accepts "addr" or "addr:port"; the port defaults to 53.
func parseServer(s string) (netip.AddrPort, error) {
	if ap, err := netip.ParseAddrPort(s); err == nil {
		return ap, nil
	}
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return netip.AddrPort{}, fmt.Errorf("invalid server %q", s)
	}
	return netip.AddrPortFrom(addr, defaultDNSPort), nil
}

func (n *NotifyConfig) expandAndValidate() error {
	if n.Bell != nil {
		if n.Bell.Rings < 0 {
			return fmt.Errorf("notify.bell: rings cannot be negative, got %d", n.Bell.Rings)
		}
		if n.Bell.Interval.Duration() < 0 {
			return fmt.Errorf("notify.bell: interval cannot be negative, got %s", n.Bell.Interval.Duration())
		}
	}

	if n.Command != nil {
		if n.Command.Path == "" {
			return errors.New("notify.command: path is required")
		}
		for i, arg := range n.Command.Args {
			expanded, err := expandEnvVars(arg)
			if err != nil {
				return fmt.Errorf("notify.command: args[%d]: %w", i, err)
			}
			n.Command.Args[i] = expanded
		}
		if n.Command.Timeout.Duration() < 0 {
			return fmt.Errorf("notify.command: timeout cannot be negative, got %s", n.Command.Timeout.Duration())
		}
	}
	return nil
}

func (l *LogConfig) validate() error {
	switch l.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log: level must be debug, info, warn or error, got %q", l.Level)
	}
	switch l.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log: format must be text or json, got %q", l.Format)
	}
	if l.MaxSizeMB < 0 || l.MaxBackups < 0 || l.MaxAgeDays < 0 {
		return errors.New("log: rotation limits cannot be negative")
	}
	return nil
}
