package core

import (
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/trezcool/tahsil/core/skill"
)

type (
	Config struct {
		AppName          string
		Env              string // DEV (local; default), TEST, QA, PROD
		Build            string
		Debug            bool
		TestMode         bool
		SecretKey        string
		DefaultFromEmail string
		FrontendBaseURL  string
		RollbarToken     string
		LogFile          string
		PasswordsFile    string // gzipped list of common passwords
		Server           ServerConfig
		Database         DatabaseConfig
		Email            EmailConfig
		Report           ReportConfig
		Skills           []skill.Definition
	}

	ServerConfig struct {
		Address            string
		DebugAddress       string
		Host               string
		DisableReqLogs     bool
		JWTExpirationDelta time.Duration
		ShutdownTimeout    time.Duration

		JWTRefreshExpirationDelta time.Duration
		PasswordResetTimeoutDelta time.Duration
	}

	DatabaseConfig struct {
		Engine     string
		Host       string
		Port       string
		Name       string
		User       string
		Password   string
		DisableTLS bool

		// used to create the app user & database
		AdminUser     string
		AdminPassword string
	}

	EmailConfig struct {
		SendgridKey string
	}

	ReportConfig struct {
		Schedule     string // cron spec of the weekly snapshot job
		SeriesWindow int
		HistorySize  int
	}
)

// Address returns the "host:port" of the database server.
func (c DatabaseConfig) Address() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// Catalog builds the skill catalog described by the configuration.
func (c *Config) Catalog() (*skill.Catalog, error) {
	return skill.NewCatalog(c.Skills...)
}

func NewConfig() (*Config, error) {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("appName", "Tahsil")
	v.SetDefault("build", "develop")
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("secretKey", "v8k2-zq)tn4$+b7=lm&wa1x(h!p)#*r9(#yd3h^$cegm7kqa")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("frontendBaseURL", "http://localhost:3000")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("logFile", filepath.Join("logs", "tahsil.log"))
	v.SetDefault("passwordsFile", filepath.Join("assets", "common-passwords.txt.gz"))

	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.debugAddress", ":4000")
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.disableReqLogs", false)
	v.SetDefault("server.jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("server.shutdownTimeout", 10*time.Second)
	v.SetDefault("server.jwtRefreshExpirationDelta", 30*24*time.Hour)
	v.SetDefault("server.passwordResetTimeoutDelta", 3*24*time.Hour)

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.name", "tahsil")
	v.SetDefault("database.user", "tahsil")
	v.SetDefault("database.password", "")
	v.SetDefault("database.disableTLS", true)
	v.SetDefault("database.adminUser", "postgres")
	v.SetDefault("database.adminPassword", "")

	v.SetDefault("email.sendgridKey", "")

	v.SetDefault("report.schedule", "0 22 * * 5") // Friday night, end of the school week
	v.SetDefault("report.seriesWindow", 7)
	v.SetDefault("report.historySize", 10)

	env := strings.ToUpper(os.Getenv("ENV"))
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	case "QA", "PROD":
		v.SetDefault("debug", false)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			return nil, errors.Wrapf(err, "loading %s", dotEnvPath)
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "stat %s", dotEnvPath)
	}
	v.AutomaticEnv()

	conf := &Config{
		AppName:          v.GetString("appName"),
		Env:              env,
		Build:            v.GetString("build"),
		Debug:            v.GetBool("debug"),
		TestMode:         v.GetBool("testMode"),
		SecretKey:        v.GetString("secretKey"),
		DefaultFromEmail: v.GetString("defaultFromEmail"),
		FrontendBaseURL:  v.GetString("frontendBaseURL"),
		RollbarToken:     v.GetString("rollbarToken"),
		LogFile:          v.GetString("logFile"),
		PasswordsFile:    v.GetString("passwordsFile"),
		Server: ServerConfig{
			Address:            v.GetString("server.address"),
			DebugAddress:       v.GetString("server.debugAddress"),
			Host:               v.GetString("server.host"),
			DisableReqLogs:     v.GetBool("server.disableReqLogs"),
			JWTExpirationDelta: v.GetDuration("server.jwtExpirationDelta"),
			ShutdownTimeout:    v.GetDuration("server.shutdownTimeout"),

			JWTRefreshExpirationDelta: v.GetDuration("server.jwtRefreshExpirationDelta"),
			PasswordResetTimeoutDelta: v.GetDuration("server.passwordResetTimeoutDelta"),
		},
		Database: DatabaseConfig{
			Engine:     v.GetString("database.engine"),
			Host:       v.GetString("database.host"),
			Port:       v.GetString("database.port"),
			Name:       v.GetString("database.name"),
			User:       v.GetString("database.user"),
			Password:   v.GetString("database.password"),
			DisableTLS: v.GetBool("database.disableTLS"),

			AdminUser:     v.GetString("database.adminUser"),
			AdminPassword: v.GetString("database.adminPassword"),
		},
		Email: EmailConfig{
			SendgridKey: v.GetString("email.sendgridKey"),
		},
		Report: ReportConfig{
			Schedule:     v.GetString("report.schedule"),
			SeriesWindow: v.GetInt("report.seriesWindow"),
			HistorySize:  v.GetInt("report.historySize"),
		},
	}

	// the skill catalog may be overridden from a config file, eg. config/skills.yaml
	conf.Skills = skill.DefaultDefinitions()
	v.SetConfigName("skills")
	v.AddConfigPath("config")
	if err := v.ReadInConfig(); err == nil {
		var defs []skill.Definition
		if err := v.UnmarshalKey("skills", &defs); err != nil {
			return nil, errors.Wrap(err, "decoding skills")
		}
		if len(defs) > 0 {
			conf.Skills = defs
		}
	} else if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
		return nil, errors.Wrap(err, "reading skills config")
	}

	if _, err := conf.Catalog(); err != nil {
		return nil, errors.Wrap(err, "invalid skill catalog")
	}
	return conf, nil
}
