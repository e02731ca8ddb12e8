package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/MelikaWorks/performance-evaluation-system/internal/hr/catalog"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Log      LogConfig      `mapstructure:"log"`
	Org      OrgConfig      `mapstructure:"org"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type JWTConfig struct {
	Secret             string        `mapstructure:"secret"`
	AccessTokenExpire  time.Duration `mapstructure:"access_token_expire"`
	RefreshTokenExpire time.Duration `mapstructure:"refresh_token_expire"`
	Issuer             string        `mapstructure:"issuer"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// OrgConfig is the organization-specific code assignment: which job-role
// codes map to which role tags, which units are HR, which forms exist.
// Defaults match the production plant; other sites override in config.
type OrgConfig struct {
	RoleFactoryManager   string   `mapstructure:"role_factory_manager"`
	RoleUnitManager      string   `mapstructure:"role_unit_manager"`
	RoleSectionHead      string   `mapstructure:"role_section_head"`
	RoleSupervisor       string   `mapstructure:"role_supervisor"`
	RoleSeniorSpecialist string   `mapstructure:"role_senior_specialist"`
	RoleSpecialist       string   `mapstructure:"role_specialist"`
	RoleAssociate        string   `mapstructure:"role_associate"`
	RoleEmployee         string   `mapstructure:"role_employee"`
	RoleOfficeAssistant  string   `mapstructure:"role_office_assistant"`
	HRUnitCodes          []string `mapstructure:"hr_unit_codes"`
	FormCodeEmployee     string   `mapstructure:"form_code_employee"`
	FormCodeAssociate    string   `mapstructure:"form_code_associate"`
	FormCodeSupervisor   string   `mapstructure:"form_code_supervisor"`
	FormCodeSpecialist   string   `mapstructure:"form_code_specialist"`
	FormCodeManager      string   `mapstructure:"form_code_manager"`
	RequireSameUnit      bool     `mapstructure:"require_same_unit"`
}

// CatalogSettings converts the org section into catalog settings, filling
// unset fields from the production defaults.
func (o OrgConfig) CatalogSettings() catalog.Settings {
	s := catalog.DefaultSettings()
	if o.RoleFactoryManager != "" {
		s.RoleFactoryManager = o.RoleFactoryManager
	}
	if o.RoleUnitManager != "" {
		s.RoleUnitManager = o.RoleUnitManager
	}
	if o.RoleSectionHead != "" {
		s.RoleSectionHead = o.RoleSectionHead
	}
	if o.RoleSupervisor != "" {
		s.RoleSupervisor = o.RoleSupervisor
	}
	if o.RoleSeniorSpecialist != "" {
		s.RoleSeniorSpecialist = o.RoleSeniorSpecialist
	}
	if o.RoleSpecialist != "" {
		s.RoleSpecialist = o.RoleSpecialist
	}
	if o.RoleAssociate != "" {
		s.RoleAssociate = o.RoleAssociate
	}
	if o.RoleEmployee != "" {
		s.RoleEmployee = o.RoleEmployee
	}
	if o.RoleOfficeAssistant != "" {
		s.RoleOfficeAssistant = o.RoleOfficeAssistant
	}
	if len(o.HRUnitCodes) > 0 {
		s.HRUnitCodes = o.HRUnitCodes
	}
	if o.FormCodeEmployee != "" {
		s.FormCodeEmployee = o.FormCodeEmployee
	}
	if o.FormCodeAssociate != "" {
		s.FormCodeAssociate = o.FormCodeAssociate
	}
	if o.FormCodeSupervisor != "" {
		s.FormCodeSupervisor = o.FormCodeSupervisor
	}
	if o.FormCodeSpecialist != "" {
		s.FormCodeSpecialist = o.FormCodeSpecialist
	}
	if o.FormCodeManager != "" {
		s.FormCodeManager = o.FormCodeManager
	}
	return s
}

func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// no config file, environment variables only
	}

	bindEnvVariables(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.dbname", "hr_eval")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "1h")
	v.SetDefault("database.conn_max_idle_time", "10m")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 10)

	v.SetDefault("jwt.access_token_expire", "2h")
	v.SetDefault("jwt.refresh_token_expire", "720h")
	v.SetDefault("jwt.issuer", "hr-eval")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.output", "stdout")

	v.SetDefault("org.require_same_unit", true)
}

func bindEnvVariables(v *viper.Viper) {
	// Server
	v.BindEnv("server.port", "SERVER_PORT")
	v.BindEnv("server.mode", "SERVER_MODE")

	// Database
	v.BindEnv("database.host", "DB_HOST")
	v.BindEnv("database.port", "DB_PORT")
	v.BindEnv("database.user", "DB_USER")
	v.BindEnv("database.password", "DB_PASSWORD")
	v.BindEnv("database.dbname", "DB_NAME")

	// Redis
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.port", "REDIS_PORT")
	v.BindEnv("redis.password", "REDIS_PASSWORD")

	// JWT
	v.BindEnv("jwt.secret", "JWT_SECRET")

	// Log
	v.BindEnv("log.level", "LOG_LEVEL")
	v.BindEnv("log.format", "LOG_FORMAT")
}

// GetEnvOrDefault returns the environment variable or the fallback.
func GetEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
