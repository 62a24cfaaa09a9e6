package core

import (
	"log"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDev  = "DEV"
	EnvTest = "TEST"
	EnvQA   = "QA"
	EnvProd = "PROD"
)

type (
	ServerConfig struct {
		Host               string
		DebugHost          string
		ShutdownTimeout    time.Duration
		JWTExpirationDelta time.Duration
		// SignInRate is the number of sign-in attempts allowed per second and per client.
		SignInRate  float64
		SignInBurst int
	}

	DatabaseConfig struct {
		Engine        string
		Host          string
		Port          int
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	SupabaseConfig struct {
		URL    string
		APIKey string
	}

	RedisConfig struct {
		Addr     string
		Password string
		DB       int
	}

	// DelayConfig holds the simulated latencies of the outbound workflows.
	DelayConfig struct {
		Broadcast    time.Duration
		ClassMessage time.Duration
		Feedback     time.Duration
	}

	Config struct {
		Debug            bool
		TestMode         bool
		AppName          string
		SecretKey        string
		Env              string
		Build            string
		WorkDir          string
		FrontendBaseURL  string
		RollbarToken     string
		SendgridApiKey   string
		DefaultFromEmail mail.Address
		// SessionBackend is one of "memory" or "redis".
		SessionBackend string
		// DemoPasswordHash, when set, is the bcrypt hash every demo account must match.
		DemoPasswordHash string
		// MailingLists maps audience groups to list addresses; "classes" is a format taking the class id.
		MailingLists map[string]string

		Server   ServerConfig
		Database DatabaseConfig
		Supabase SupabaseConfig
		Redis    RedisConfig
		Delays   DelayConfig
	}
)

func (c DatabaseConfig) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c Config) IsTest() bool { return c.TestMode }

// NewConfig loads the configuration for the current ENV (DEV by default) from the environment,
// after loading `config/.env.<env>` if it exists.
func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("appName", "SchoolConnect")
	v.SetDefault("secretKey", "k1b8-s7ue)qhl$+91=rz&uomx2(c!x)#*d3(#pl4h^$vcpe6wa")
	v.SetDefault("build", "develop")
	v.SetDefault("frontendBaseURL", "http://localhost:8081")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("sendgridApiKey", "")
	v.SetDefault("defaultFromName", "SchoolConnect")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("sessionBackend", "memory")
	v.SetDefault("demoPasswordHash", "")
	v.SetDefault("mailingList.students", "all-students@localhost")
	v.SetDefault("mailingList.teachers", "all-teachers@localhost")
	v.SetDefault("mailingList.parents", "all-parents@localhost")
	v.SetDefault("mailingList.staff", "staff@localhost")
	v.SetDefault("mailingList.classes", "class-%s@localhost")

	v.SetDefault("server.host", "0.0.0.0:8000")
	v.SetDefault("server.debugHost", "0.0.0.0:4000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("server.signInRate", 1.0)
	v.SetDefault("server.signInBurst", 5)

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "schoolconnect")
	v.SetDefault("database.user", "schoolconnect")
	v.SetDefault("database.password", "schoolconnect")
	v.SetDefault("database.adminUser", "postgres")
	v.SetDefault("database.adminPassword", "postgres")
	v.SetDefault("database.disableTLS", true)

	v.SetDefault("supabase.url", "")
	v.SetDefault("supabase.apiKey", "")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("delay.broadcast", 2*time.Second)
	v.SetDefault("delay.classMessage", 1500*time.Millisecond)
	v.SetDefault("delay.feedback", 1500*time.Millisecond)

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = EnvDev
	case EnvTest:
		v.SetDefault("testMode", true)
	case EnvQA, EnvProd:
		v.SetDefault("debug", false)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	wd := workDir()

	// load .env if it exists (ignore if it does not)
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
		Debug:           v.GetBool("debug"),
		TestMode:        v.GetBool("testMode"),
		AppName:         v.GetString("appName"),
		SecretKey:       v.GetString("secretKey"),
		Env:             env,
		Build:           v.GetString("build"),
		WorkDir:         wd,
		FrontendBaseURL: v.GetString("frontendBaseURL"),
		RollbarToken:    v.GetString("rollbarToken"),
		SendgridApiKey:  v.GetString("sendgridApiKey"),
		DefaultFromEmail: mail.Address{
			Name:    v.GetString("defaultFromName"),
			Address: v.GetString("defaultFromEmail"),
		},
		SessionBackend:   v.GetString("sessionBackend"),
		DemoPasswordHash: v.GetString("demoPasswordHash"),
		MailingLists: map[string]string{
			"students": v.GetString("mailingList.students"),
			"teachers": v.GetString("mailingList.teachers"),
			"parents":  v.GetString("mailingList.parents"),
			"staff":    v.GetString("mailingList.staff"),
			"classes":  v.GetString("mailingList.classes"),
		},
		Server: ServerConfig{
			Host:               v.GetString("server.host"),
			DebugHost:          v.GetString("server.debugHost"),
			ShutdownTimeout:    v.GetDuration("server.shutdownTimeout"),
			JWTExpirationDelta: v.GetDuration("server.jwtExpirationDelta"),
			SignInRate:         v.GetFloat64("server.signInRate"),
			SignInBurst:        v.GetInt("server.signInBurst"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("database.engine"),
			Host:          v.GetString("database.host"),
			Port:          v.GetInt("database.port"),
			Name:          v.GetString("database.name"),
			User:          v.GetString("database.user"),
			Password:      v.GetString("database.password"),
			AdminUser:     v.GetString("database.adminUser"),
			AdminPassword: v.GetString("database.adminPassword"),
			DisableTLS:    v.GetBool("database.disableTLS"),
		},
		Supabase: SupabaseConfig{
			URL:    v.GetString("supabase.url"),
			APIKey: v.GetString("supabase.apiKey"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Delays: DelayConfig{
			Broadcast:    v.GetDuration("delay.broadcast"),
			ClassMessage: v.GetDuration("delay.classMessage"),
			Feedback:     v.GetDuration("delay.feedback"),
		},
	}
}

// NewTestConfig returns the configuration used by tests: no delays, no external services.
func NewTestConfig() *Config {
	conf := NewConfig()
	conf.Debug = false
	conf.TestMode = true
	conf.Env = EnvTest
	conf.SessionBackend = "memory"
	conf.Delays = DelayConfig{}
	return conf
}

// workDir walks up from the current directory until it finds the module root (go.mod).
// go test runs from the package directory, so relative paths cannot be trusted.
func workDir() string {
	wd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}
	curr := wd
	for {
		if _, err := os.Stat(filepath.Join(curr, "go.mod")); err == nil {
			return curr
		}
		parent := filepath.Dir(curr)
		if parent == curr {
			return wd // installed binary: no module root around
		}
		curr = parent
	}
}
