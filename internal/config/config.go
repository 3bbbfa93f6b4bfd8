package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Env      string
	HTTPPort string

	DatabaseURL string
	RedisURL    string

	JWTIssuer        string
	JWTSecret        string
	JWTRefreshSecret string
	JWTAccessTTL     time.Duration
	JWTRefreshTTL    time.Duration

	CookieDomain        string
	CookieSecure        bool
	RefreshCookieMaxAge time.Duration

	// OTP lifecycle. Cooldowns are per-flow on purpose: the onboarding flow
	// historically used a tighter window than the login/verification flows.
	OTPTTL                time.Duration
	OTPCooldownOnboarding time.Duration
	OTPCooldownDefault    time.Duration

	AuthSecretTTL time.Duration

	// BootstrapAuthSecret, when set, seeds an initial AUTH secret on an empty
	// database so the first super admin can be onboarded.
	BootstrapAuthSecret string

	MailEnabled  bool
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SMTPFrom     string
	SMTPFromName string
	SMTPLogoPath string

	StorageEnabled   bool
	StorageEndpoint  string
	StorageAccessKey string
	StorageSecretKey string
	StorageBucket    string
	StorageUseSSL    bool
	StorageBaseURL   string

	CORSAllowedOrigins []string

	AuthRateLimitPerMin int
	APIRateLimitPerMin  int
	RateLimitFailOpen   bool

	ReadinessProbeTimeout time.Duration
	StartupGracePeriod    time.Duration

	OTELServiceName           string
	OTELEnvironment           string
	OTELExporterOTLPEndpoint  string
	OTELExporterOTLPInsecure  bool
	OTELMetricsExportInterval time.Duration
	OTELTraceSamplingRatio    float64
	OTELMetricsEnabled        bool
	OTELTracingEnabled        bool
	OTELLogsEnabled           bool
	OTELLogLevel              string
}

func Load() (*Config, error) {
	env := getEnv("APP_ENV", "development")

	cfg := &Config{
		Env:      env,
		HTTPPort: getEnv("HTTP_PORT", "4000"),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),

		JWTIssuer:        getEnv("JWT_ISSUER", "alokah-superapp"),
		JWTSecret:        os.Getenv("JWT_SECRET_KEY"),
		JWTRefreshSecret: os.Getenv("JWT_REFRESH_SECRET_KEY"),

		CookieDomain: os.Getenv("COOKIE_DOMAIN"),
		CookieSecure: getEnvBool("COOKIE_SECURE", true),

		MailEnabled:  getEnvBool("MAIL_ENABLED", true),
		SMTPHost:     getEnv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:     getEnvInt("SMTP_PORT", 465),
		SMTPUser:     os.Getenv("SMTP_USER"),
		SMTPPassword: os.Getenv("SMTP_PASS"),
		SMTPFrom:     os.Getenv("SMTP_FROM"),
		SMTPFromName: getEnv("SMTP_FROM_NAME", "Alokah"),
		SMTPLogoPath: os.Getenv("SMTP_LOGO_PATH"),

		StorageEnabled:   getEnvBool("STORAGE_ENABLED", false),
		StorageEndpoint:  os.Getenv("STORAGE_ENDPOINT"),
		StorageAccessKey: os.Getenv("STORAGE_ACCESS_KEY"),
		StorageSecretKey: os.Getenv("STORAGE_SECRET_KEY"),
		StorageBucket:    getEnv("STORAGE_BUCKET", "alokah-assets"),
		StorageUseSSL:    getEnvBool("STORAGE_USE_SSL", true),
		StorageBaseURL:   os.Getenv("STORAGE_PUBLIC_BASE_URL"),

		BootstrapAuthSecret: os.Getenv("BOOTSTRAP_AUTH_SECRET"),

		CORSAllowedOrigins: splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),

		AuthRateLimitPerMin: getEnvInt("AUTH_RATE_LIMIT_PER_MIN", 30),
		APIRateLimitPerMin:  getEnvInt("API_RATE_LIMIT_PER_MIN", 120),
		RateLimitFailOpen:   getEnvBool("RATE_LIMIT_FAIL_OPEN", false),

		OTELServiceName:          getEnv("OTEL_SERVICE_NAME", "alokah-superapp-backend"),
		OTELEnvironment:          getEnv("OTEL_ENVIRONMENT", env),
		OTELExporterOTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		OTELExporterOTLPInsecure: getEnvBool("OTEL_EXPORTER_OTLP_INSECURE", true),
		OTELTraceSamplingRatio:   getEnvFloat("OTEL_TRACE_SAMPLING_RATIO", 1.0),
		OTELMetricsEnabled:       getEnvBool("OTEL_METRICS_ENABLED", true),
		OTELTracingEnabled:       getEnvBool("OTEL_TRACING_ENABLED", true),
		OTELLogsEnabled:          getEnvBool("OTEL_LOGS_ENABLED", true),
		OTELLogLevel:             strings.ToLower(getEnv("OTEL_LOG_LEVEL", "info")),
	}

	var err error
	if cfg.JWTAccessTTL, err = parseDurationEnv("JWT_EXPIRES_IN", "168h"); err != nil {
		return nil, err
	}
	if cfg.JWTRefreshTTL, err = parseDurationEnv("JWT_REFRESH_EXPIRES_IN", "720h"); err != nil {
		return nil, err
	}
	if cfg.RefreshCookieMaxAge, err = parseDurationEnv("JWT_COOKIE_EXPIRES_IN", "168h"); err != nil {
		return nil, err
	}
	if cfg.OTPTTL, err = parseDurationEnv("OTP_TTL", "5m"); err != nil {
		return nil, err
	}
	if cfg.OTPCooldownOnboarding, err = parseDurationEnv("OTP_SIGNUP_COOLDOWN", "5s"); err != nil {
		return nil, err
	}
	if cfg.OTPCooldownDefault, err = parseDurationEnv("OTP_LOGIN_COOLDOWN", "30s"); err != nil {
		return nil, err
	}
	if cfg.AuthSecretTTL, err = parseDurationEnv("AUTH_SECRET_TTL", "1440h"); err != nil {
		return nil, err
	}
	if cfg.OTELMetricsExportInterval, err = parseDurationEnv("OTEL_METRICS_EXPORT_INTERVAL", "10s"); err != nil {
		return nil, err
	}
	if cfg.ReadinessProbeTimeout, err = parseDurationEnv("READINESS_PROBE_TIMEOUT", "2s"); err != nil {
		return nil, err
	}
	if cfg.StartupGracePeriod, err = parseDurationEnv("STARTUP_GRACE_PERIOD", "0s"); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []string
	if c.DatabaseURL == "" {
		errs = append(errs, "DATABASE_URL is required")
	}
	if len(c.JWTSecret) < 32 {
		errs = append(errs, "JWT_SECRET_KEY must be at least 32 chars")
	}
	if len(c.JWTRefreshSecret) < 32 {
		errs = append(errs, "JWT_REFRESH_SECRET_KEY must be at least 32 chars")
	}
	if c.JWTSecret != "" && c.JWTSecret == c.JWTRefreshSecret {
		errs = append(errs, "JWT_SECRET_KEY and JWT_REFRESH_SECRET_KEY must differ")
	}
	if c.JWTAccessTTL <= 0 {
		errs = append(errs, "JWT_EXPIRES_IN must be > 0")
	}
	if c.JWTRefreshTTL < c.JWTAccessTTL {
		errs = append(errs, "JWT_REFRESH_EXPIRES_IN must not be shorter than JWT_EXPIRES_IN")
	}
	if c.OTPTTL <= 0 {
		errs = append(errs, "OTP_TTL must be > 0")
	}
	if c.OTPCooldownOnboarding <= 0 || c.OTPCooldownDefault <= 0 {
		errs = append(errs, "OTP cooldowns must be > 0")
	}
	if c.MailEnabled {
		if c.SMTPHost == "" {
			errs = append(errs, "SMTP_HOST is required when MAIL_ENABLED=true")
		}
		if c.SMTPFrom == "" {
			errs = append(errs, "SMTP_FROM is required when MAIL_ENABLED=true")
		}
	}
	if c.StorageEnabled {
		if c.StorageEndpoint == "" {
			errs = append(errs, "STORAGE_ENDPOINT is required when STORAGE_ENABLED=true")
		}
		if c.StorageAccessKey == "" || c.StorageSecretKey == "" {
			errs = append(errs, "STORAGE_ACCESS_KEY and STORAGE_SECRET_KEY are required when STORAGE_ENABLED=true")
		}
	}
	if c.AuthRateLimitPerMin <= 0 {
		errs = append(errs, "AUTH_RATE_LIMIT_PER_MIN must be > 0")
	}
	if c.APIRateLimitPerMin <= 0 {
		errs = append(errs, "API_RATE_LIMIT_PER_MIN must be > 0")
	}
	if c.OTELTraceSamplingRatio < 0 || c.OTELTraceSamplingRatio > 1 {
		errs = append(errs, "OTEL_TRACE_SAMPLING_RATIO must be between 0 and 1")
	}
	if !isValidLogLevel(c.OTELLogLevel) {
		errs = append(errs, "OTEL_LOG_LEVEL must be one of debug, info, warn, error")
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// CooldownFor returns the OTP issuance cooldown for a flow. The onboarding
// flow keeps its historical 5s window; everything else uses the default.
func (c *Config) CooldownFor(flow string) time.Duration {
	if flow == "onboarding" {
		return c.OTPCooldownOnboarding
	}
	return c.OTPCooldownDefault
}

func isValidLogLevel(v string) bool {
	switch v {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

func parseDurationEnv(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getEnv(key, def))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}

func getEnv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getEnvFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		trim := strings.TrimSpace(p)
		if trim != "" {
			out = append(out, trim)
		}
	}
	return out
}
