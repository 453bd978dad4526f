package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config はアプリケーション全体の設定を表現します。
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Storage  StorageConfig  `yaml:"storage"`
	Auth     AuthConfig     `yaml:"auth"`
	Log      LogConfig      `yaml:"log"`
	Users    []UserConfig   `yaml:"users"`
}

// ServerConfig は HTTP / gRPC サーバーに関する設定です。
type ServerConfig struct {
	HTTPListenAddr     string        `yaml:"http_listen_addr"`
	GRPCListenAddr     string        `yaml:"grpc_listen_addr"`
	ShutdownTimeout    time.Duration `yaml:"-"`
	ShutdownTimeoutRaw string        `yaml:"shutdown_timeout"`
}

// DatabaseConfig は PostgreSQL 接続に関する設定です。
type DatabaseConfig struct {
	Host               string        `yaml:"host"`
	Port               int           `yaml:"port"`
	User               string        `yaml:"user"`
	Password           string        `yaml:"password"`
	Name               string        `yaml:"name"`
	SSLMode            string        `yaml:"ssl_mode"`
	MaxOpenConns       int           `yaml:"max_open_conns"`
	MaxIdleConns       int           `yaml:"max_idle_conns"`
	ConnMaxLifetime    time.Duration `yaml:"-"`
	ConnMaxIdleTime    time.Duration `yaml:"-"`
	ConnMaxLifetimeRaw string        `yaml:"conn_max_lifetime"`
	ConnMaxIdleTimeRaw string        `yaml:"conn_max_idle_time"`
}

// StorageConfig は添付ファイル保存先 (MinIO / S3 互換) の設定です。
// Endpoint が空の場合、添付ファイルは無効になります。
type StorageConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// AuthConfig はセッショントークンの設定です。
type AuthConfig struct {
	JWTSecret   string        `yaml:"jwt_secret"`
	Issuer      string        `yaml:"issuer"`
	TokenTTL    time.Duration `yaml:"-"`
	TokenTTLRaw string        `yaml:"token_ttl"`
}

// LogConfig はロガーの設定です。
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// UserConfig は職員ディレクトリの 1 エントリです。
type UserConfig struct {
	ID           string `yaml:"id"`
	Username     string `yaml:"username"`
	Name         string `yaml:"name"`
	Email        string `yaml:"email"`
	Role         string `yaml:"role"`
	Active       *bool  `yaml:"active"`
	PasswordHash string `yaml:"password_hash"`
}

const (
	defaultShutdownTimeout = 10 * time.Second
	defaultTokenTTL        = 8 * time.Hour
	defaultIssuer          = "contract-claims"
	minJWTSecretLength     = 32
)

// Load は指定されたパスから設定ファイルを読み込みます。
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := cfg.validateAndNormalize(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validateAndNormalize() error {
	if err := c.Server.validateAndNormalize(); err != nil {
		return err
	}
	if err := c.Database.validateAndNormalize(); err != nil {
		return err
	}
	if err := c.Storage.validateAndNormalize(); err != nil {
		return err
	}
	if err := c.Auth.validateAndNormalize(); err != nil {
		return err
	}
	c.Log.normalize()

	seen := make(map[string]struct{}, len(c.Users))
	for i := range c.Users {
		u := &c.Users[i]
		if err := u.validateAndNormalize(i); err != nil {
			return err
		}
		if _, dup := seen[u.Username]; dup {
			return fmt.Errorf("config: users[%d].username %q is duplicated", i, u.Username)
		}
		seen[u.Username] = struct{}{}
	}

	return nil
}

func (s *ServerConfig) validateAndNormalize() error {
	if s.HTTPListenAddr == "" {
		return fmt.Errorf("config: server.http_listen_addr must be set")
	}

	timeout, err := parseDurationAllowEmpty(s.ShutdownTimeoutRaw)
	if err != nil {
		return fmt.Errorf("config: server.shutdown_timeout: %w", err)
	}
	if timeout == 0 {
		timeout = defaultShutdownTimeout
	}
	s.ShutdownTimeout = timeout
	return nil
}

func (d *DatabaseConfig) validateAndNormalize() error {
	if d.Host == "" {
		return fmt.Errorf("config: database.host must be set")
	}
	if d.Port == 0 {
		return fmt.Errorf("config: database.port must be set")
	}
	if d.User == "" {
		return fmt.Errorf("config: database.user must be set")
	}
	if d.Password == "" {
		return fmt.Errorf("config: database.password must be set")
	}
	if d.Name == "" {
		return fmt.Errorf("config: database.name must be set")
	}
	if d.SSLMode == "" {
		d.SSLMode = "disable"
	}

	lifetime, err := parseDurationAllowEmpty(d.ConnMaxLifetimeRaw)
	if err != nil {
		return fmt.Errorf("config: database.conn_max_lifetime: %w", err)
	}
	d.ConnMaxLifetime = lifetime

	idleTime, err := parseDurationAllowEmpty(d.ConnMaxIdleTimeRaw)
	if err != nil {
		return fmt.Errorf("config: database.conn_max_idle_time: %w", err)
	}
	d.ConnMaxIdleTime = idleTime

	return nil
}

func (s *StorageConfig) validateAndNormalize() error {
	if !s.Enabled() {
		return nil
	}
	if s.AccessKey == "" || s.SecretKey == "" {
		return fmt.Errorf("config: storage.access_key and storage.secret_key must be set")
	}
	if s.Bucket == "" {
		return fmt.Errorf("config: storage.bucket must be set")
	}
	return nil
}

// Enabled は添付ファイル保存先が設定されているかを返します。
func (s StorageConfig) Enabled() bool {
	return strings.TrimSpace(s.Endpoint) != ""
}

func (a *AuthConfig) validateAndNormalize() error {
	if len(a.JWTSecret) < minJWTSecretLength {
		return fmt.Errorf("config: auth.jwt_secret must be at least %d characters", minJWTSecretLength)
	}
	if a.Issuer == "" {
		a.Issuer = defaultIssuer
	}

	ttl, err := parseDurationAllowEmpty(a.TokenTTLRaw)
	if err != nil {
		return fmt.Errorf("config: auth.token_ttl: %w", err)
	}
	if ttl == 0 {
		ttl = defaultTokenTTL
	}
	a.TokenTTL = ttl
	return nil
}

func (l *LogConfig) normalize() {
	l.Level = strings.ToLower(strings.TrimSpace(l.Level))
	if l.Level == "" {
		l.Level = "info"
	}
	l.Format = strings.ToLower(strings.TrimSpace(l.Format))
	if l.Format == "" {
		l.Format = "json"
	}
}

func (u *UserConfig) validateAndNormalize(i int) error {
	u.Username = strings.ToLower(strings.TrimSpace(u.Username))
	if u.Username == "" {
		return fmt.Errorf("config: users[%d].username must be set", i)
	}
	if u.ID == "" {
		u.ID = strconv.Itoa(i + 1)
	}
	if u.Role == "" {
		return fmt.Errorf("config: users[%d].role must be set", i)
	}
	if u.PasswordHash == "" {
		return fmt.Errorf("config: users[%d].password_hash must be set", i)
	}
	return nil
}

// IsActive は active が省略された場合に有効とみなします。
func (u UserConfig) IsActive() bool {
	return u.Active == nil || *u.Active
}

func parseDurationAllowEmpty(raw string) (time.Duration, error) {
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	return d, nil
}

// DSN は pgx 用の接続文字列を返します。
func (d DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     "/" + d.Name,
		RawQuery: url.Values{"sslmode": {d.SSLMode}}.Encode(),
	}
	return u.String()
}
