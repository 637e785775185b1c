package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

//go:embed config.yml
var embeddedConfig []byte

type JWTConfig struct {
	SecretKey      string        `mapstructure:"secretKey"`
	Issuer         string        `mapstructure:"issuer"`
	Audience       string        `mapstructure:"audience"`
	AccessTokenTTL time.Duration `mapstructure:"accessTokenTTL"`
}

type DefaultAdminConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Name     string `mapstructure:"name"`
	Email    string `mapstructure:"email"`
	Password string `mapstructure:"password"`
	Phone    string `mapstructure:"phone"`
	Address  string `mapstructure:"address"`
}

type AuthConfig struct {
	BcryptCost       int                `mapstructure:"bcryptCost"`
	ResetTokenTTL    time.Duration      `mapstructure:"resetTokenTTL"`
	ExposeResetToken bool               `mapstructure:"exposeResetToken"`
	DefaultAdmin     DefaultAdminConfig `mapstructure:"defaultAdmin"`
}

type Config struct {
	Mode         string `mapstructure:"mode"`
	Repositories struct {
		Postgres struct {
			Host              string `mapstructure:"host"`
			Password          string `mapstructure:"password"`
			Port              string `mapstructure:"port"`
			Username          string `mapstructure:"username"`
			DB                string `mapstructure:"db"`
			SSLMODE           string `mapstructure:"SSLMODE"`
			MAXCONWAITINGTIME int    `mapstructure:"MAXCONWAITINGTIME"`
		} `mapstructure:"postgres"`
	} `mapstructure:"repositories"`
	Server struct {
		HTTPPort        string        `mapstructure:"HTTPPort"`
		Timeout         time.Duration `mapstructure:"HTTPTimeout"`
		ShutdownTimeout time.Duration `mapstructure:"shutdownTimeout"`
	} `mapstructure:"server"`
	JWT   JWTConfig  `mapstructure:"jwt"`
	Auth  AuthConfig `mapstructure:"auth"`
	Cache struct {
		DashboardTTL time.Duration `mapstructure:"dashboardTTL"`
	} `mapstructure:"cache"`
	CORS struct {
		AllowedOrigins []string `mapstructure:"allowedOrigins"`
	} `mapstructure:"cors"`
	Telemetry struct {
		ServiceName string `mapstructure:"serviceName"`
	} `mapstructure:"telemetry"`
}

// envBindings maps config keys to the environment variables the deployment
// already uses.
var envBindings = map[string]string{
	"mode":                           "APP_ENV",
	"server.HTTPPort":                "PORT",
	"jwt.secretKey":                  "JWT_SECRET",
	"repositories.postgres.host":     "DB_HOST",
	"repositories.postgres.port":     "DB_PORT",
	"repositories.postgres.username": "DB_USER",
	"repositories.postgres.password": "DB_PASSWORD",
	"repositories.postgres.db":       "DB_NAME",
}

func InitConfig() (Config, error) {
	var config Config
	v := viper.New()

	// Add file-based config paths
	v.AddConfigPath(".")
	v.AddConfigPath("config")
	v.AddConfigPath("/app/config")

	v.SetConfigName("config")
	v.SetConfigType("yml")

	err := v.ReadInConfig()
	if err != nil {
		fmt.Printf("Warning: Failed to find file-based config: %s. Falling back to embedded config.\n", err)
		if err = v.ReadConfig(bytes.NewReader(embeddedConfig)); err != nil {
			return Config{}, fmt.Errorf("failed to read embedded config: %w", err)
		}
	}

	for key, env := range envBindings {
		if err = v.BindEnv(key, env); err != nil {
			return Config{}, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	if err = v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err = config.Validate(); err != nil {
		return Config{}, err
	}
	fmt.Println("Successfully loaded app configs...")
	return config, nil
}

// Validate rejects configurations the server cannot start with.
func (c Config) Validate() error {
	var errs []error
	if c.JWT.SecretKey == "" {
		errs = append(errs, errors.New("jwt.secretKey (JWT_SECRET) must be set"))
	}
	if c.JWT.AccessTokenTTL <= 0 {
		errs = append(errs, errors.New("jwt.accessTokenTTL must be positive"))
	}
	if c.Auth.ResetTokenTTL <= 0 {
		errs = append(errs, errors.New("auth.resetTokenTTL must be positive"))
	}
	if c.Server.HTTPPort == "" {
		errs = append(errs, errors.New("server.HTTPPort (PORT) must be set"))
	}
	if c.Auth.DefaultAdmin.Enabled && (c.Auth.DefaultAdmin.Email == "" || c.Auth.DefaultAdmin.Password == "") {
		errs = append(errs, errors.New("auth.defaultAdmin requires email and password when enabled"))
	}
	return errors.Join(errs...)
}

// IsDevelopment reports whether the process runs in development mode.
func (c Config) IsDevelopment() bool {
	return c.Mode == "" || c.Mode == "development"
}
