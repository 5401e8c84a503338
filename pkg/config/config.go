package config

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// envPrefix scopes environment overrides, e.g. GAMESTORE_JWT_SECRET overrides jwt.secret.
const envPrefix = "GAMESTORE"

// current holds the latest loaded configuration. A published snapshot is never
// modified; a reload publishes a new one.
var current atomic.Pointer[AppConfig]

func init() {
	current.Store(new(AppConfig))
}

// Current returns the latest configuration snapshot.
func Current() *AppConfig {
	return current.Load()
}

type AppConfig struct {
	Port      int    `mapstructure:"port"`
	Address   string `mapstructure:"address"`
	Name      string `mapstructure:"name"`
	Mode      string `mapstructure:"mode"`
	Version   string `mapstructure:"version"`
	MachineID int64  `mapstructure:"machine_id"`

	*LogConfig      `mapstructure:"log"`
	*MySQLConfig    `mapstructure:"mysql"`
	*RedisConfig    `mapstructure:"redis"`
	*CacheConfig    `mapstructure:"cache"`
	*JWTConfig      `mapstructure:"jwt"`
	*CORSConfig     `mapstructure:"cors"`
	*RegistryConfig `mapstructure:"registry"`
	*GatewayConfig  `mapstructure:"gateway"`
	*ServicesConfig `mapstructure:"services"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Filename   string `mapstructure:"filename"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
}

type MySQLConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	DBName       string `mapstructure:"dbname"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	AutoMigrate  bool   `mapstructure:"auto_migrate"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

// CacheConfig sizes the in-memory cache used when Redis is unreachable.
type CacheConfig struct {
	MemoryMaxEntries int64         `mapstructure:"memory_max_entries"`
	SweepInterval    time.Duration `mapstructure:"sweep_interval"`
}

type JWTConfig struct {
	Secret        string        `mapstructure:"secret"`
	Issuer        string        `mapstructure:"issuer"`
	AccessExpire  time.Duration `mapstructure:"access_expire"`
	RefreshExpire time.Duration `mapstructure:"refresh_expire"`
}

type CORSConfig struct {
	Origins []string `mapstructure:"origins"`
}

// RegistryConfig points at the Consul agent used for registration and discovery.
type RegistryConfig struct {
	Host          string        `mapstructure:"host"`
	Port          int           `mapstructure:"port"`
	CheckInterval time.Duration `mapstructure:"check_interval"`
	CheckTimeout  time.Duration `mapstructure:"check_timeout"`
	Tags          []string      `mapstructure:"tags"`
}

type RouteConfig struct {
	Prefix       string `mapstructure:"prefix"`
	Service      string `mapstructure:"service"`
	RequiresAuth bool   `mapstructure:"requires_auth"`
}

type GatewayConfig struct {
	TimeoutMS    int           `mapstructure:"timeout_ms"`
	SegmentMatch   bool          `mapstructure:"segment_match"`
	Routes         []RouteConfig `mapstructure:"routes"`
	TrustedProxies []string      `mapstructure:"trusted_proxies"`
}

// ServicesConfig names the downstream services a service talks to directly.
type ServicesConfig struct {
	Game string `mapstructure:"game"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", 8080)
	v.SetDefault("mode", "dev")
	v.SetDefault("version", "1.0.0")
	v.SetDefault("machine_id", 1)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.max_size", 200)
	v.SetDefault("log.max_backups", 7)
	v.SetDefault("log.max_age", 30)

	v.SetDefault("mysql.host", "127.0.0.1")
	v.SetDefault("mysql.port", 3306)
	v.SetDefault("mysql.user", "root")
	v.SetDefault("mysql.password", "")
	v.SetDefault("mysql.dbname", "gamestore")
	v.SetDefault("mysql.max_open_conns", 10)
	v.SetDefault("mysql.max_idle_conns", 2)

	v.SetDefault("redis.host", "127.0.0.1")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.pool_size", 10)

	v.SetDefault("cache.memory_max_entries", 10000)
	v.SetDefault("cache.sweep_interval", time.Minute)

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.issuer", "gamestore")
	v.SetDefault("jwt.access_expire", 15*time.Minute)
	v.SetDefault("jwt.refresh_expire", 7*24*time.Hour)

	v.SetDefault("cors.origins", []string{"http://localhost:3000"})

	v.SetDefault("registry.host", "127.0.0.1")
	v.SetDefault("registry.port", 8500)
	v.SetDefault("registry.check_interval", 10*time.Second)
	v.SetDefault("registry.check_timeout", 5*time.Second)

	v.SetDefault("gateway.timeout_ms", 5000)
	v.SetDefault("services.game", "game-service")
}

// Init loads config.yaml from the working directory.
func Init() error {
	return InitFromFile("")
}

// InitFromFile loads the given YAML file, applies environment overrides and publishes a
// fresh snapshot whenever the file changes.
func InitFromFile(path string) (err error) {
	v := viper.GetViper()
	setDefaults(v)
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err = v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config %q: %w", path, err)
	}
	cfg, err := decode(v)
	if err != nil {
		return err
	}
	current.Store(cfg)

	v.OnConfigChange(func(in fsnotify.Event) {
		fmt.Printf("config file changed: %s\n", in.Name)
		reload(v)
	})
	v.WatchConfig()
	return nil
}

func decode(v *viper.Viper) (*AppConfig, error) {
	cfg := new(AppConfig)
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

// reload swaps in a snapshot of v's current values; a bad file keeps the previous one.
func reload(v *viper.Viper) {
	cfg, err := decode(v)
	if err != nil {
		fmt.Printf("viper.Unmarshal failed, err:%v\n", err)
		return
	}
	current.Store(cfg)
}

// Load reads a config file into a fresh AppConfig without publishing or watching it.
func Load(path string) (*AppConfig, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %q: %w", path, err)
	}
	return decode(v)
}

// IsRelease reports whether the service runs in production mode.
func (c *AppConfig) IsRelease() bool {
	return c.Mode == "release"
}
