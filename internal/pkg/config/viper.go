package config

import (
	"bytes"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to environment overrides, e.g. TWOFA_DATABASE_URL
// overrides database.url.
const EnvPrefix = "TWOFA"

// startupKeys are consumed once while wiring the application; a file change
// touching them is reported but has no effect until restart.
var startupKeys = []string{
	"app.server.http.address",
	"database.url",
	"redis.url",
	"hash.hmac.secret",
	"hash.bcrypt.pepper",
	"jwt.secret",
	"mfa.totp.period",
	"mfa.totp.digits",
	"mfa.totp.window",
}

var defaults = []struct {
	key   string
	value any
}{
	{"app.env", "development"},
	{"app.maintenance.enabled", false},
	{"app.server.max_goroutine", 100},
	{"app.server.trust_proxy_headers", false},
	{"app.server.shutdown_timeout_seconds", 10},
	{"app.server.http.address", ":8080"},
	{"app.server.http.read_timeout_seconds", 10},
	{"app.server.http.read_header_timeout_seconds", 5},
	{"app.server.http.write_timeout_seconds", 10},
	{"app.server.http.idle_timeout_seconds", 60},

	{"instrument.log_level", "info"},
	{"instrument.log_http_body", false},

	{"jwt.ttl_seconds", 3600},

	{"mfa.totp.issuer", "TwoFactorAuthDemo"},
	{"mfa.totp.period", 30},
	{"mfa.totp.digits", 6},
	{"mfa.totp.window", 2},
	{"mfa.qr.size", 256},

	{"modules.twofactor.challenge_ttl_seconds", 300},
	{"modules.twofactor.max_attempts", 0},
	{"modules.twofactor.replay_guard", false},
	{"modules.twofactor.debug_resend_code", false},

	{"messaging.driver", "none"},
}

// Viper is a Config implementation backed by github.com/spf13/viper.
type Viper struct {
	v *viper.Viper
}

// NewViper reads the file at pathFile and watches it for edits. The format
// follows the file extension.
func NewViper(pathFile string) (*Viper, error) {
	v := newViper()
	v.SetConfigFile(pathFile)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	snapshot := lo.SliceToMap(startupKeys, func(key string) (string, string) {
		return key, v.GetString(key)
	})

	v.OnConfigChange(func(e fsnotify.Event) {
		changed := lo.Filter(startupKeys, func(key string, _ int) bool {
			return v.GetString(key) != snapshot[key]
		})
		if len(changed) > 0 {
			slog.Warn("config changed keys that need a restart", "path", filepath.Base(e.Name), "keys", changed)
			return
		}
		slog.Info("config reloaded", "path", filepath.Base(e.Name), "op", e.Op.String())
	})
	v.WatchConfig()

	return &Viper{v: v}, nil
}

// NewViperFromBytes loads configuration from memory.
// configType should be a format supported by Viper (e.g. "yaml", "json", "toml").
func NewViperFromBytes(configType string, data []byte) (*Viper, error) {
	if strings.TrimSpace(configType) == "" {
		return nil, errors.New("config type is required")
	}

	v := newViper()
	v.SetConfigType(configType)

	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, err
	}

	return &Viper{v: v}, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for _, d := range defaults {
		v.SetDefault(d.key, d.value)
	}

	return v
}

func (vc *Viper) IsSet(key string) bool         { return vc.v.IsSet(key) }
func (vc *Viper) GetBool(key string) bool       { return vc.v.GetBool(key) }
func (vc *Viper) GetString(key string) string   { return vc.v.GetString(key) }
func (vc *Viper) GetInt(key string) int         { return vc.v.GetInt(key) }
func (vc *Viper) GetInt32(key string) int32     { return vc.v.GetInt32(key) }
func (vc *Viper) GetFloat64(key string) float64 { return vc.v.GetFloat64(key) }

// GetSecond treats the stored integer as a number of seconds.
func (vc *Viper) GetSecond(key string) time.Duration {
	return time.Duration(vc.v.GetInt64(key)) * time.Second
}

// GetArray accepts either a YAML list or a comma separated string.
func (vc *Viper) GetArray(key string) []string {
	var raw []string
	switch vc.v.Get(key).(type) {
	case []any, []string:
		raw = vc.v.GetStringSlice(key)
	case nil:
		return nil
	default:
		raw = strings.Split(vc.v.GetString(key), ",")
	}

	return lo.Compact(lo.Map(raw, func(item string, _ int) string {
		return strings.TrimSpace(item)
	}))
}

// Close is a no-op; the file watcher lives for the process lifetime.
func (vc *Viper) Close() error {
	return nil
}
