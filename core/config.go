package core

import (
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Gateway backends
const (
	BackendSupabase = "supabase"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
	BackendMemory   = "memory"
)

type (
	ServerConfig struct {
		Address         string
		DebugHost       string
		ShutdownTimeout time.Duration
		SessionTTL      time.Duration
		CookieMaxAge    time.Duration
	}

	GatewayConfig struct {
		Backend      string
		ItemsPerPage int
	}

	SupabaseConfig struct {
		URL     string
		AnonKey string
		Timeout time.Duration
	}

	DatabaseConfig struct {
		Engine     string // postgres | sqlite
		Host       string
		Port       string
		User       string
		Password   string
		Name       string
		DisableTLS bool
		Path       string // sqlite file; ":memory:" allowed
	}

	AdminConfig struct {
		Email        string
		PasswordHash string
	}

	StudentsConfig struct {
		EmailOnEmpty string // space | null | keep
	}

	Config struct {
		AppName          string
		Build            string
		Env              string
		Debug            bool
		TestMode         bool
		SecretKey        string
		ConfigDir        string
		FrontendBaseURL  string
		SendgridApiKey   string
		RollbarToken     string
		ContactEmail     string
		defaultFromEmail string

		Server   ServerConfig
		Gateway  GatewayConfig
		Supabase SupabaseConfig
		Database DatabaseConfig
		Admin    AdminConfig
		Students StudentsConfig
	}
)

func (c *Config) DefaultFromEmail() mail.Address {
	return mail.Address{Name: c.AppName, Address: c.defaultFromEmail}
}

// Address returns the "host:port" of the database server.
func (dc DatabaseConfig) Address() string {
	if dc.Port == "" {
		return dc.Host
	}
	return dc.Host + ":" + dc.Port
}

// NewConfig loads the configuration for the current ENV.
//
// ENV is one of DEV (default), TEST, QA or PROD and is also used as the env var prefix,
// e.g. DEV_DEBUG=false. config/.env.<env> and config/config.yaml are loaded when present.
func NewConfig() *Config {
	v := viper.New()
	setDefaults(v)

	env := strings.ToUpper(os.Getenv("ENV"))
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	confDir := os.Getenv("CONFIG_DIR")
	if confDir == "" {
		confDir = "config"
	}

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(confDir, ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(confDir)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Fatalf("config.ReadInConfig(%s): %v", confDir, err)
		}
	}
	v.AutomaticEnv()

	conf := fromViper(v)
	conf.Env = env
	conf.ConfigDir = confDir
	return conf
}

func setDefaults(v *viper.Viper) {
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("appName", "Shri Vishwakarma School")
	v.SetDefault("build", "develop")
	v.SetDefault("secretKey", "k3n=7+v0t$%bd1d^^m-2dq6e(cny!k@0)u2s3!v0qx#5ia&w9")
	v.SetDefault("frontendBaseURL", "http://localhost:8000")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("contactEmail", "office@localhost")
	v.SetDefault("sendgridApiKey", "")
	v.SetDefault("rollbarToken", "")

	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.debugHost", ":4000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.sessionTTL", 30*time.Minute)
	v.SetDefault("server.cookieMaxAge", 10*time.Minute)

	v.SetDefault("gateway.backend", BackendSupabase)
	v.SetDefault("gateway.itemsPerPage", 10)

	v.SetDefault("supabase.url", "")
	v.SetDefault("supabase.anonKey", "")
	v.SetDefault("supabase.timeout", 10*time.Second)

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "school")
	v.SetDefault("database.disableTLS", true)
	v.SetDefault("database.path", "school.db")

	v.SetDefault("admin.email", "admin@localhost")
	v.SetDefault("admin.passwordHash", "")

	v.SetDefault("students.emailOnEmpty", "space")
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		AppName:          v.GetString("appName"),
		Build:            v.GetString("build"),
		Debug:            v.GetBool("debug"),
		TestMode:         v.GetBool("testMode"),
		SecretKey:        v.GetString("secretKey"),
		FrontendBaseURL:  v.GetString("frontendBaseURL"),
		SendgridApiKey:   v.GetString("sendgridApiKey"),
		RollbarToken:     v.GetString("rollbarToken"),
		ContactEmail:     v.GetString("contactEmail"),
		defaultFromEmail: v.GetString("defaultFromEmail"),
		Server: ServerConfig{
			Address:         v.GetString("server.address"),
			DebugHost:       v.GetString("server.debugHost"),
			ShutdownTimeout: v.GetDuration("server.shutdownTimeout"),
			SessionTTL:      v.GetDuration("server.sessionTTL"),
			CookieMaxAge:    v.GetDuration("server.cookieMaxAge"),
		},
		Gateway: GatewayConfig{
			Backend:      strings.ToLower(v.GetString("gateway.backend")),
			ItemsPerPage: v.GetInt("gateway.itemsPerPage"),
		},
		Supabase: SupabaseConfig{
			URL:     strings.TrimRight(v.GetString("supabase.url"), "/"),
			AnonKey: v.GetString("supabase.anonKey"),
			Timeout: v.GetDuration("supabase.timeout"),
		},
		Database: DatabaseConfig{
			Engine:     strings.ToLower(v.GetString("database.engine")),
			Host:       v.GetString("database.host"),
			Port:       v.GetString("database.port"),
			User:       v.GetString("database.user"),
			Password:   v.GetString("database.password"),
			Name:       v.GetString("database.name"),
			DisableTLS: v.GetBool("database.disableTLS"),
			Path:       v.GetString("database.path"),
		},
		Admin: AdminConfig{
			Email:        CleanString(v.GetString("admin.email"), true /* lower */),
			PasswordHash: v.GetString("admin.passwordHash"),
		},
		Students: StudentsConfig{
			EmailOnEmpty: strings.ToLower(v.GetString("students.emailOnEmpty")),
		},
	}
}

// NewTestConfig returns a Config suitable for tests: debug off, in-memory backend.
func NewTestConfig() *Config {
	v := viper.New()
	setDefaults(v)
	v.Set("testMode", true)
	v.Set("debug", false)
	v.Set("gateway.backend", BackendMemory)
	v.Set("secretKey", "secret")
	conf := fromViper(v)
	conf.Env = "TEST"
	return conf
}
