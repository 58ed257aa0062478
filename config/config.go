package config

import (
	"log"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type MQConfig struct {
	URL string `yaml:"url"`
}

type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

type IMAPConfig struct {
	Host   string `yaml:"host"`
	Port   int    `yaml:"port"`
	Folder string `yaml:"folder"`
}

type AuthConfig struct {
	JWTSecret         string `yaml:"jwt_secret"`
	AdminPasswordHash string `yaml:"admin_password_hash"`
}

type CryptoConfig struct {
	// MasterKey protects the stored mailbox password. 必须和旧存量密文用同一个 key。
	MasterKey string `yaml:"master_key"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
}

type SiteConfig struct {
	// Name is the display name of this deployment; tokens embed its slug.
	Name string `yaml:"name"`
	// WindowDays is the trailing mailbox search window for verification.
	WindowDays int `yaml:"window_days"`
}

type Config struct {
	DB     DBConfig     `yaml:"db"`
	Redis  RedisConfig  `yaml:"redis"`
	MQ     MQConfig     `yaml:"mq"`
	SMTP   SMTPConfig   `yaml:"smtp"`
	IMAP   IMAPConfig   `yaml:"imap"`
	Auth   AuthConfig   `yaml:"auth"`
	Crypto CryptoConfig `yaml:"crypto"`
	Server ServerConfig `yaml:"server"`
	Site   SiteConfig   `yaml:"site"`
}

func Load() *Config {
	f, err := os.Open("config.yaml")
	if err != nil {
		log.Fatalf("failed to open config.yaml: %v", err)
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		log.Fatalf("failed to decode config.yaml: %v", err)
	}

	applyDefaults(&cfg)

	// 环境变量覆盖（生产环境使用）
	overrideFromEnv(&cfg)

	return &cfg
}

func applyDefaults(cfg *Config) {
	if cfg.IMAP.Host == "" {
		cfg.IMAP.Host = "imap.gmail.com"
	}
	if cfg.IMAP.Port == 0 {
		cfg.IMAP.Port = 993
	}
	if cfg.IMAP.Folder == "" {
		cfg.IMAP.Folder = "INBOX"
	}
	if cfg.SMTP.Port == 0 {
		cfg.SMTP.Port = 587
	}
	if cfg.Site.WindowDays == 0 {
		cfg.Site.WindowDays = 7
	}
	if cfg.Server.Port == "" {
		cfg.Server.Port = ":8080"
	}
}

func overrideFromEnv(cfg *Config) {
	// DB配置
	if host := os.Getenv("DB_HOST"); host != "" {
		cfg.DB.Host = host
	}
	if port := os.Getenv("DB_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.DB.Port = p
		}
	}
	if user := os.Getenv("DB_USER"); user != "" {
		cfg.DB.User = user
	}
	if password := os.Getenv("DB_PASSWORD"); password != "" {
		cfg.DB.Password = password
	}
	if name := os.Getenv("DB_NAME"); name != "" {
		cfg.DB.Name = name
	}

	// Redis配置
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Redis.Addr = addr
	}
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		cfg.Redis.Password = password
	}

	// MQ配置
	if url := os.Getenv("MQ_URL"); url != "" {
		cfg.MQ.URL = url
	}

	// SMTP配置
	if host := os.Getenv("SMTP_HOST"); host != "" {
		cfg.SMTP.Host = host
	}
	if port := os.Getenv("SMTP_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.SMTP.Port = p
		}
	}
	if user := os.Getenv("SMTP_USERNAME"); user != "" {
		cfg.SMTP.Username = user
	}
	if password := os.Getenv("SMTP_PASSWORD"); password != "" {
		cfg.SMTP.Password = password
	}

	// IMAP配置
	if host := os.Getenv("IMAP_HOST"); host != "" {
		cfg.IMAP.Host = host
	}
	if port := os.Getenv("IMAP_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.IMAP.Port = p
		}
	}

	// 认证与加密
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		cfg.Auth.JWTSecret = secret
	}
	if hash := os.Getenv("ADMIN_PASSWORD_HASH"); hash != "" {
		cfg.Auth.AdminPasswordHash = hash
	}
	if key := os.Getenv("MASTER_KEY"); key != "" {
		cfg.Crypto.MasterKey = key
	}

	// Server配置
	if port := os.Getenv("SERVER_PORT"); port != "" {
		cfg.Server.Port = port
	}
}
