package core

import (
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

var (
	ErrMissingSecret      = errors.New("config: JWT_SECRET is required")
	ErrMissingDatabaseURL = errors.New("config: DATABASE_URL is required")
)

type (
	Config struct {
		AppName         string
		Build           string
		Env             string // DEV (local; default), TEST, QA, PROD
		Debug           bool
		TestMode        bool
		WorkDir         string
		FrontendBaseURL string
		RollbarToken    string
		SendgridApiKey  string

		defaultFromEmail string

		Server   ServerConfig
		Auth     AuthConfig
		Database DatabaseConfig
		Redis    RedisConfig
		Files    FilesConfig
		Seed     SeedAdminConfig
	}

	ServerConfig struct {
		Host            string
		DebugHost       string
		ShutdownTimeout time.Duration
	}

	AuthConfig struct {
		Secret             string
		JWTExpirationDelta time.Duration
	}

	DatabaseConfig struct {
		URL  string
		Name string
	}

	RedisConfig struct {
		URL string
	}

	FilesConfig struct {
		Store          string // local, cloudinary, b2
		UploadsDir     string
		MaxUploadBytes int64
		RedirectHosts  []string // extra hosts downloads may redirect to
		CloudinaryURL  string
		B2AccountID    string
		B2AppKey       string
		B2Bucket       string
	}

	SeedAdminConfig struct {
		Name     string
		Email    string
		Password string
	}
)

// Engine returns the storage engine named by the DATABASE_URL scheme.
func (c DatabaseConfig) Engine() string {
	i := strings.Index(c.URL, "://")
	if i < 0 {
		return ""
	}
	switch scheme := strings.ToLower(c.URL[:i]); scheme {
	case "mongodb", "mongodb+srv":
		return "mongo"
	case "postgres", "postgresql":
		return "postgres"
	default:
		return scheme
	}
}

func (c SeedAdminConfig) IsSet() bool {
	return c.Email != "" && c.Password != ""
}

func (conf *Config) DefaultFromEmail() mail.Address {
	addr, err := mail.ParseAddress(conf.defaultFromEmail)
	if err != nil {
		return mail.Address{Name: conf.AppName, Address: "noreply@localhost"}
	}
	if addr.Name == "" {
		addr.Name = conf.AppName
	}
	return *addr
}

// Validate checks the settings the application cannot run without.
func (conf *Config) Validate() error {
	if conf.Auth.Secret == "" {
		return ErrMissingSecret
	}
	if conf.Database.URL == "" {
		return ErrMissingDatabaseURL
	}
	return nil
}

// LoadConfig reads the configuration from the environment (and `config/.env.<env>` if present).
func LoadConfig() (*Config, error) {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("APP_NAME", "PTE Manager")
	v.SetDefault("BUILD", "develop")
	v.SetDefault("DEBUG", false)
	v.SetDefault("FRONTEND_BASE_URL", "http://localhost:3000")
	v.SetDefault("DEFAULT_FROM_EMAIL", "PTE Manager <noreply@localhost>")
	v.SetDefault("SERVER_HOST", ":8000")
	v.SetDefault("SERVER_DEBUG_HOST", ":4000")
	v.SetDefault("SERVER_SHUTDOWN_TIMEOUT", 5*time.Second)
	v.SetDefault("JWT_EXPIRATION", 7*24*time.Hour)
	v.SetDefault("DATABASE_NAME", "pte_manager")
	v.SetDefault("FILE_STORE", "local")
	v.SetDefault("UPLOADS_DIR", "uploads")
	v.SetDefault("UPLOAD_MAX_BYTES", int64(50<<20))

	env := strings.ToUpper(os.Getenv("ENV"))
	switch env {
	case "":
		env = "DEV"
		v.SetDefault("DEBUG", true)
	case "DEV":
		v.SetDefault("DEBUG", true)
	case "TEST":
		v.SetDefault("TEST_MODE", true)
	}
	v.SetEnvPrefix(env)

	wd, err := os.Getwd()
	if err != nil {
		return nil, errors.Wrap(err, "getting working directory")
	}
	if dir := os.Getenv("WORK_DIR"); dir != "" {
		wd = dir
	}

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			return nil, errors.Wrapf(err, "loading %s", dotEnvPath)
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "stat %s", dotEnvPath)
	}
	v.AutomaticEnv()

	conf := &Config{
		AppName:          v.GetString("APP_NAME"),
		Build:            v.GetString("BUILD"),
		Env:              env,
		Debug:            v.GetBool("DEBUG"),
		TestMode:         v.GetBool("TEST_MODE"),
		WorkDir:          wd,
		FrontendBaseURL:  v.GetString("FRONTEND_BASE_URL"),
		RollbarToken:     v.GetString("ROLLBAR_TOKEN"),
		SendgridApiKey:   v.GetString("SENDGRID_API_KEY"),
		defaultFromEmail: v.GetString("DEFAULT_FROM_EMAIL"),
		Server: ServerConfig{
			Host:            v.GetString("SERVER_HOST"),
			DebugHost:       v.GetString("SERVER_DEBUG_HOST"),
			ShutdownTimeout: v.GetDuration("SERVER_SHUTDOWN_TIMEOUT"),
		},
		Auth: AuthConfig{
			Secret:             v.GetString("JWT_SECRET"),
			JWTExpirationDelta: v.GetDuration("JWT_EXPIRATION"),
		},
		Database: DatabaseConfig{
			URL:  v.GetString("DATABASE_URL"),
			Name: v.GetString("DATABASE_NAME"),
		},
		Redis: RedisConfig{URL: v.GetString("REDIS_URL")},
		Files: FilesConfig{
			Store:          strings.ToLower(v.GetString("FILE_STORE")),
			UploadsDir:     v.GetString("UPLOADS_DIR"),
			MaxUploadBytes: v.GetInt64("UPLOAD_MAX_BYTES"),
			RedirectHosts:  splitList(v.GetString("FILE_REDIRECT_HOSTS")),
			CloudinaryURL:  v.GetString("CLOUDINARY_URL"),
			B2AccountID:    v.GetString("B2_ACCOUNT_ID"),
			B2AppKey:       v.GetString("B2_APPLICATION_KEY"),
			B2Bucket:       v.GetString("B2_BUCKET"),
		},
		Seed: SeedAdminConfig{
			Name:     v.GetString("SEED_ADMIN_NAME"),
			Email:    CleanString(v.GetString("SEED_ADMIN_EMAIL"), true /* lower */),
			Password: v.GetString("SEED_ADMIN_PASSWORD"),
		},
	}
	if !filepath.IsAbs(conf.Files.UploadsDir) {
		conf.Files.UploadsDir = filepath.Join(wd, conf.Files.UploadsDir)
	}

	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

// splitList splits a comma separated setting, dropping blanks.
func splitList(s string) []string {
	out := make([]string, 0)
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// NewConfig is LoadConfig for dependency containers: it exits the process on invalid configuration.
func NewConfig() *Config {
	conf, err := LoadConfig()
	if err != nil {
		fatalf("%v", err)
	}
	return conf
}

// NewTestConfig returns a valid Config suitable for tests.
func NewTestConfig() *Config {
	wd, _ := os.Getwd()
	return &Config{
		AppName:          "PTE Manager",
		Build:            "test",
		Env:              "TEST",
		TestMode:         true,
		WorkDir:          wd,
		FrontendBaseURL:  "http://localhost:3000",
		defaultFromEmail: "PTE Manager <noreply@localhost>",
		Server:           ServerConfig{Host: ":0", ShutdownTimeout: time.Second},
		Auth:             AuthConfig{Secret: "test-secret", JWTExpirationDelta: 7 * 24 * time.Hour},
		Database:         DatabaseConfig{URL: "memory://", Name: "pte_manager_test"},
		Files: FilesConfig{
			Store:          "local",
			UploadsDir:     filepath.Join(os.TempDir(), "pte-manager-test-uploads"),
			MaxUploadBytes: 1 << 20,
		},
	}
}
