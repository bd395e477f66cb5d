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

type (
	databaseConfig struct {
		Engine     string
		Host       string
		Port       string
		Name       string
		User       string
		Password   string
		DisableTLS bool
	}

	serverConfig struct {
		Host                      string
		Address                   string
		DebugAddress              string
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
	}

	chartConfig struct {
		Width  int
		Height int
	}

	Config struct {
		Env              string
		Build            string
		AppName          string
		Debug            bool
		TestMode         bool
		SecretKey        string
		WorkDir          string
		DataDir          string
		CredentialsFile  string
		StorageEngine    string
		RollbarToken     string
		SendgridApiKey   string
		DefaultFromEmail mail.Address
		Database         databaseConfig
		Server           serverConfig
		Chart            chartConfig
	}
)

// Address returns the database "host:port".
func (c databaseConfig) Address() string {
	return c.Host + ":" + c.Port
}

// CredentialsPath is the absolute path of the credential file.
func (c *Config) CredentialsPath() string {
	if filepath.IsAbs(c.CredentialsFile) {
		return c.CredentialsFile
	}
	return filepath.Join(c.DataDir, c.CredentialsFile)
}

func NewConfig() *Config {
	conf := viper.New()

	wd, err := os.Getwd()
	if err != nil {
		log.Fatalf("config.os.Getwd(): %v", err)
	}

	// defaults
	conf.SetTypeByDefaultValue(true)
	conf.SetDefault("build", "develop")
	conf.SetDefault("debug", true)
	conf.SetDefault("testMode", false)
	conf.SetDefault("appName", "Alama")
	conf.SetDefault("secretKey", "k1y#9s)dn2x@f+0h!r8q-u=v4m%wz*b6e^tlc&p7oa3gj$5i")
	conf.SetDefault("dataDir", wd)
	conf.SetDefault("credentialsFile", "credentials.json")
	conf.SetDefault("storage.engine", "file")
	conf.SetDefault("rollbarToken", "")
	conf.SetDefault("sendgridApiKey", "")
	conf.SetDefault("defaultFromEmail", "noreply@localhost")
	conf.SetDefault("database.host", "localhost")
	conf.SetDefault("database.port", "5432")
	conf.SetDefault("database.name", "alama")
	conf.SetDefault("database.user", "postgres")
	conf.SetDefault("database.password", "postgres")
	conf.SetDefault("database.disableTLS", true)
	conf.SetDefault("server.host", "localhost")
	conf.SetDefault("server.address", ":8000")
	conf.SetDefault("server.debugAddress", ":4000")
	conf.SetDefault("server.shutdownTimeout", 5*time.Second)
	conf.SetDefault("server.jwtExpirationDelta", 8*time.Hour)
	conf.SetDefault("server.jwtRefreshExpirationDelta", 7*24*time.Hour)
	conf.SetDefault("chart.width", 640)
	conf.SetDefault("chart.height", 400)

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		conf.SetDefault("testMode", true)
	}
	conf.SetEnvPrefix(env)
	conf.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	conf.AutomaticEnv()

	fromEmail, err := mail.ParseAddress(conf.GetString("defaultFromEmail"))
	if err != nil {
		log.Fatalf("config.defaultFromEmail: %v", err)
	}

	return &Config{
		Env:              env,
		Build:            conf.GetString("build"),
		AppName:          conf.GetString("appName"),
		Debug:            conf.GetBool("debug"),
		TestMode:         conf.GetBool("testMode"),
		SecretKey:        conf.GetString("secretKey"),
		WorkDir:          wd,
		DataDir:          conf.GetString("dataDir"),
		CredentialsFile:  conf.GetString("credentialsFile"),
		StorageEngine:    conf.GetString("storage.engine"),
		RollbarToken:     conf.GetString("rollbarToken"),
		SendgridApiKey:   conf.GetString("sendgridApiKey"),
		DefaultFromEmail: *fromEmail,
		Database: databaseConfig{
			Engine:     "postgres",
			Host:       conf.GetString("database.host"),
			Port:       conf.GetString("database.port"),
			Name:       conf.GetString("database.name"),
			User:       conf.GetString("database.user"),
			Password:   conf.GetString("database.password"),
			DisableTLS: conf.GetBool("database.disableTLS"),
		},
		Server: serverConfig{
			Host:                      conf.GetString("server.host"),
			Address:                   conf.GetString("server.address"),
			DebugAddress:              conf.GetString("server.debugAddress"),
			ShutdownTimeout:           conf.GetDuration("server.shutdownTimeout"),
			JWTExpirationDelta:        conf.GetDuration("server.jwtExpirationDelta"),
			JWTRefreshExpirationDelta: conf.GetDuration("server.jwtRefreshExpirationDelta"),
		},
		Chart: chartConfig{
			Width:  conf.GetInt("chart.width"),
			Height: conf.GetInt("chart.height"),
		},
	}
}

// NewTestConfig returns a Config suitable for tests, storing data under dataDir.
func NewTestConfig(dataDir string) *Config {
	return &Config{
		Env:              "TEST",
		Build:            "test",
		AppName:          "Alama",
		TestMode:         true,
		SecretKey:        "secret",
		WorkDir:          dataDir,
		DataDir:          dataDir,
		CredentialsFile:  "credentials.json",
		StorageEngine:    "file",
		DefaultFromEmail: mail.Address{Address: "noreply@localhost"},
		Server: serverConfig{
			Host:                      "localhost",
			ShutdownTimeout:           time.Second,
			JWTExpirationDelta:        10 * time.Minute,
			JWTRefreshExpirationDelta: 4 * time.Hour,
		},
		Chart: chartConfig{Width: 640, Height: 400},
	}
}
