package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"ovirt-sriov/internal/ovirt"
)

const (
	keyURL      = "url"
	keyUsername = "username"
	keyPassword = "password"
	keyCAFile   = "ca_file"
	keyInsecure = "insecure"
	keyCompress = "compress"
	keyTimeout  = "timeout"

	// EnvPrefix prefixes every connection environment variable, e.g. OVIRT_URL
	EnvPrefix = "OVIRT"

	defaultTimeout = 60 * time.Second
)

// AddConnectionFlags registers the engine connection flags on flags
func AddConnectionFlags(flags *pflag.FlagSet) {
	flags.String("url", "", "oVirt engine API URL, e.g. https://engine.example.com/ovirt-engine/api (env OVIRT_URL)")
	flags.String("username", "", "Engine user, e.g. admin@internal (env OVIRT_USERNAME)")
	flags.String("password", "", "Engine password (env OVIRT_PASSWORD)")
	flags.String("ca-file", "", "CA bundle used to verify the engine certificate (env OVIRT_CA_FILE)")
	flags.Bool("insecure", false, "Skip verification of the engine certificate (env OVIRT_INSECURE)")
	flags.Bool("compress", true, "Request compressed responses from the engine (env OVIRT_COMPRESS)")
	flags.String("timeout", defaultTimeout.String(), "Timeout of each engine request, e.g. 90s; a plain number is seconds (env OVIRT_TIMEOUT)")
	flags.String("connection-file", "", "YAML file with url, username, password, ca_file, insecure, compress, timeout")
}

// LoadConnection resolves connection settings from flags, environment and an
// optional connection file, in that order of precedence.
func LoadConnection(flags *pflag.FlagSet) (ovirt.Settings, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetDefault(keyTimeout, defaultTimeout.String())
	v.SetDefault(keyCompress, true)

	bindings := map[string]string{
		keyURL:      "url",
		keyUsername: "username",
		keyPassword: "password",
		keyCAFile:   "ca-file",
		keyInsecure: "insecure",
		keyCompress: "compress",
		keyTimeout:  "timeout",
	}
	for key, flag := range bindings {
		if f := flags.Lookup(flag); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return ovirt.Settings{}, fmt.Errorf("failed to bind flag %s: %v", flag, err)
			}
		}
	}

	if f := flags.Lookup("connection-file"); f != nil && f.Value.String() != "" {
		v.SetConfigFile(f.Value.String())
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return ovirt.Settings{}, fmt.Errorf("failed to read connection file: %v", err)
		}
	}

	timeout, err := ParseTimeout(v.GetString(keyTimeout))
	if err != nil {
		return ovirt.Settings{}, err
	}

	settings := ovirt.Settings{
		URL:      v.GetString(keyURL),
		Username: v.GetString(keyUsername),
		Password: v.GetString(keyPassword),
		CAFile:   v.GetString(keyCAFile),
		Insecure: v.GetBool(keyInsecure),
		Compress: v.GetBool(keyCompress),
		Timeout:  timeout,
	}
	if err := ValidateConnection(settings); err != nil {
		return ovirt.Settings{}, err
	}
	return settings, nil
}

// ParseTimeout reads a duration like "90s" or "2m". A plain number is a count
// of seconds, as engine timeouts are usually written.
func ParseTimeout(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return defaultTimeout, nil
	}
	if secs, err := strconv.ParseFloat(value, 64); err == nil {
		return time.Duration(secs * float64(time.Second)), nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid timeout %q", value)
	}
	return d, nil
}

// ValidateConnection reports every missing or conflicting connection setting
func ValidateConnection(s ovirt.Settings) error {
	var result *multierror.Error

	if s.URL == "" {
		result = multierror.Append(result, fmt.Errorf("url is required (--url or %s_URL)", EnvPrefix))
	}
	if s.Username == "" {
		result = multierror.Append(result, fmt.Errorf("username is required (--username or %s_USERNAME)", EnvPrefix))
	}
	if s.Password == "" {
		result = multierror.Append(result, fmt.Errorf("password is required (--password or %s_PASSWORD)", EnvPrefix))
	}
	if s.Insecure && s.CAFile != "" {
		result = multierror.Append(result, fmt.Errorf("ca_file and insecure are mutually exclusive"))
	}
	if s.Timeout < 0 {
		result = multierror.Append(result, fmt.Errorf("timeout must not be negative"))
	}

	return result.ErrorOrNil()
}
