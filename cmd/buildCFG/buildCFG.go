package buildCFG

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/config"
	"github.com/wb-go/wbf/dbpg"
)

type ServerConfig struct {
	Port           string
	RequestTimeout time.Duration
}

type RabbitConfig struct {
	Url      string
	Exchange string
	Queue    string
}

type AuthConfig struct {
	JWTSecret     string
	JWTExpiry     time.Duration
	Issuer        string
	ActivationTTL time.Duration
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	Sender   string
}

func BuildServerConfig(cfg *config.Config, log *zerolog.Logger) ServerConfig {
	port := cfg.GetString("server.port")
	if port == "" {
		port = "8080"
		log.Warn().Msg("server.port not set, defaulting to 8080")
	}

	timeoutSec := cfg.GetInt("server.request_timeout_seconds")
	if timeoutSec <= 0 {
		timeoutSec = 10
	}

	return ServerConfig{
		Port:           port,
		RequestTimeout: time.Duration(timeoutSec) * time.Second,
	}
}

func BuildDBConfig(cfg *config.Config, log *zerolog.Logger) (string, []string, *dbpg.Options, error) {
	masterDSN := cfg.GetString("database.master_dsn")
	if masterDSN == "" {
		return "", nil, nil, fmt.Errorf("database.master_dsn is required")
	}

	var slaveDSNs []string
	if raw := cfg.GetString("database.slave_dsns"); raw != "" {
		for _, dsn := range strings.Split(raw, ",") {
			if dsn = strings.TrimSpace(dsn); dsn != "" {
				slaveDSNs = append(slaveDSNs, dsn)
			}
		}
	}

	opts := &dbpg.Options{
		MaxOpenConns:    cfg.GetInt("database.max_open_conns"),
		MaxIdleConns:    cfg.GetInt("database.max_idle_conns"),
		ConnMaxLifetime: time.Duration(cfg.GetInt("database.conn_max_lifetime_seconds")) * time.Second,
	}

	log.Info().Int("slaves", len(slaveDSNs)).Msg("database configuration built")
	return masterDSN, slaveDSNs, opts, nil
}

func BuildRabbitConfig(cfg *config.Config, log *zerolog.Logger) (RabbitConfig, error) {
	rc := RabbitConfig{
		Url:      cfg.GetString("rabbit.url"),
		Exchange: cfg.GetString("rabbit.exchange"),
		Queue:    cfg.GetString("rabbit.queue"),
	}
	if rc.Url == "" {
		return RabbitConfig{}, fmt.Errorf("rabbit.url is required")
	}
	if rc.Exchange == "" || rc.Queue == "" {
		return RabbitConfig{}, fmt.Errorf("rabbit.exchange and rabbit.queue are required")
	}

	log.Info().Str("exchange", rc.Exchange).Str("queue", rc.Queue).Msg("rabbit configuration built")
	return rc, nil
}

func BuildAuthConfig(cfg *config.Config, log *zerolog.Logger) (AuthConfig, error) {
	secret := cfg.GetString("auth.jwt_secret")
	if secret == "" {
		return AuthConfig{}, fmt.Errorf("auth.jwt_secret is required")
	}

	expiryHours := cfg.GetInt("auth.jwt_expiry_hours")
	if expiryHours <= 0 {
		expiryHours = 24
	}
	activationHours := cfg.GetInt("auth.activation_ttl_hours")
	if activationHours <= 0 {
		activationHours = 72
	}
	issuer := cfg.GetString("auth.issuer")
	if issuer == "" {
		issuer = "event-hub"
	}

	log.Info().Str("issuer", issuer).Msg("auth configuration built")
	return AuthConfig{
		JWTSecret:     secret,
		JWTExpiry:     time.Duration(expiryHours) * time.Hour,
		Issuer:        issuer,
		ActivationTTL: time.Duration(activationHours) * time.Hour,
	}, nil
}

func BuildSMTPConfig(cfg *config.Config, log *zerolog.Logger) (SMTPConfig, error) {
	sc := SMTPConfig{
		Host:     cfg.GetString("smtp.host"),
		Port:     cfg.GetInt("smtp.port"),
		Username: cfg.GetString("smtp.username"),
		Password: cfg.GetString("smtp.password"),
		Sender:   cfg.GetString("smtp.sender"),
	}
	if sc.Host == "" || sc.Port == 0 {
		return SMTPConfig{}, fmt.Errorf("smtp.host and smtp.port are required")
	}
	if sc.Sender == "" {
		sc.Sender = sc.Username
	}

	log.Info().Str("host", sc.Host).Msg("smtp configuration built")
	return sc, nil
}
