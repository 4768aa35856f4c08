package core

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		Env          string // DEV (local; default), TEST, QA, PROD
		Build        string
		AppName      string
		Debug        bool
		TestMode     bool
		SecretKey    string
		MasterCode   string
		RollbarToken string
		WorkDir      string

		Server   ServerConfig
		Database DatabaseConfig
		Photo    PhotoConfig
	}

	ServerConfig struct {
		Host                    string
		Address                 string
		JWTExpirationDelta      time.Duration
		ShutdownTimeout         time.Duration
		DisableRequestLogs      bool
		MaxUploadSize           int64
		DefaultPreviewDimension int
	}

	DatabaseConfig struct {
		Path        string
		BusyTimeout time.Duration
		MaxOpenConn int
	}

	PhotoConfig struct {
		MaxWidth    int
		MaxHeight   int
		JPEGQuality int
	}
)

// NewConfig loads the configuration from the environment (and `config/.env.<env>` if present).
func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("build", "develop")
	v.SetDefault("appName", "Gradebook")
	v.SetDefault("secretKey", "k2#h7q!v9z-dev-only-0w(3t&x8m$e1r@5n")
	v.SetDefault("masterCode", "")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.jwtExpirationDelta", 12*time.Hour)
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.disableRequestLogs", false)
	v.SetDefault("server.maxUploadSize", int64(5<<20))
	v.SetDefault("server.defaultPreviewDimension", 240)
	v.SetDefault("database.path", "gradebook.db")
	v.SetDefault("database.busyTimeout", 5*time.Second)
	v.SetDefault("database.maxOpenConn", 4)
	v.SetDefault("photo.maxWidth", 600)
	v.SetDefault("photo.maxHeight", 800)
	v.SetDefault("photo.jpegQuality", 85)

	env := strings.ToUpper(os.Getenv("ENV"))
	if env == "" {
		env = "DEV"
	}
	if env == "TEST" {
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	wd, err := os.Getwd()
	if err != nil {
		log.Fatalf("config.os.Getwd: %v", err)
	}
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	return &Config{
		Env:          env,
		Build:        v.GetString("build"),
		AppName:      v.GetString("appName"),
		Debug:        v.GetBool("debug"),
		TestMode:     v.GetBool("testMode"),
		SecretKey:    v.GetString("secretKey"),
		MasterCode:   v.GetString("masterCode"),
		RollbarToken: v.GetString("rollbarToken"),
		WorkDir:      wd,
		Server: ServerConfig{
			Host:                    v.GetString("server.host"),
			Address:                 v.GetString("server.address"),
			JWTExpirationDelta:      v.GetDuration("server.jwtExpirationDelta"),
			ShutdownTimeout:         v.GetDuration("server.shutdownTimeout"),
			DisableRequestLogs:      v.GetBool("server.disableRequestLogs"),
			MaxUploadSize:           v.GetInt64("server.maxUploadSize"),
			DefaultPreviewDimension: v.GetInt("server.defaultPreviewDimension"),
		},
		Database: DatabaseConfig{
			Path:        v.GetString("database.path"),
			BusyTimeout: v.GetDuration("database.busyTimeout"),
			MaxOpenConn: v.GetInt("database.maxOpenConn"),
		},
		Photo: PhotoConfig{
			MaxWidth:    v.GetInt("photo.maxWidth"),
			MaxHeight:   v.GetInt("photo.maxHeight"),
			JPEGQuality: v.GetInt("photo.jpegQuality"),
		},
	}
}

// NewTestConfig returns a Config suitable for tests: no .env lookup, in test mode, quiet.
func NewTestConfig() *Config {
	return &Config{
		Env:        "TEST",
		Build:      "test",
		AppName:    "Gradebook",
		TestMode:   true,
		SecretKey:  "secret",
		MasterCode: "2527",
		Server: ServerConfig{
			Host:                    "localhost",
			JWTExpirationDelta:      10 * time.Minute,
			ShutdownTimeout:         time.Second,
			DisableRequestLogs:      true,
			MaxUploadSize:           5 << 20,
			DefaultPreviewDimension: 64,
		},
		Database: DatabaseConfig{
			BusyTimeout: 5 * time.Second,
			MaxOpenConn: 1,
		},
		Photo: PhotoConfig{
			MaxWidth:    120,
			MaxHeight:   160,
			JPEGQuality: 80,
		},
	}
}
