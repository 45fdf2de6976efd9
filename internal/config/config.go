package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/muniwatch/debt-service/internal/models"
)

// Config holds application configuration
type Config struct {
	LogLevel string

	// Ledger
	LedgerFile    string
	WritePolicy   models.WritePolicy
	IncludeSource bool
	DBConn        string // optional Postgres mirror

	// Rate resolution
	ResolvePolicy  models.ResolvePolicy
	FallbackRate   float64
	ManualOverride float64 // 0 disables the override candidate
	SourceTimeout  time.Duration
	StatCanURL     string
	StatCanVector  int
	ValetURL       string
	ValetSeries    string
	ScrapeURL      string

	// Debt model
	MunicipalSpread float64
	Households      int
	Projects        []models.ProjectDebt
	PortfolioMode   bool

	// Alerts (optional)
	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	SenderEmail  string
	AlertEmail   string

	// Invocation
	RunMode  string // "once" or "serve"
	Port     string
	CronSpec string
}

// NewConfig loads configuration from environment variables
func NewConfig() (*Config, error) {
	writePolicy, err := models.ParseWritePolicy(getEnv("WRITE_POLICY", string(models.WriteAppendDedupByDay)))
	if err != nil {
		return nil, err
	}
	resolvePolicy, err := models.ParseResolvePolicy(getEnv("RESOLVE_POLICY", string(models.ResolveAvailabilityFirst)))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		LogLevel:      getEnv("LOG_LEVEL", "INFO"),
		LedgerFile:    getEnv("LEDGER_FILE", "interest_rate_log.csv"),
		WritePolicy:   writePolicy,
		IncludeSource: getEnvBool("INCLUDE_SOURCE", false),
		DBConn:        getEnv("DB_CONN", ""),

		ResolvePolicy:  resolvePolicy,
		FallbackRate:   getEnvFloat("FALLBACK_RATE", 3.45),
		ManualOverride: getEnvFloat("MANUAL_OVERRIDE", 0),
		SourceTimeout:  time.Duration(getEnvInt("SOURCE_TIMEOUT_SEC", 12)) * time.Second,
		StatCanURL:     getEnv("STATCAN_URL", "https://www150.statcan.gc.ca/t1/wds/rest/getDataFromVectorsAndLatestNPeriods"),
		StatCanVector:  getEnvInt("STATCAN_VECTOR", 39062),
		ValetURL:       getEnv("VALET_URL", "https://www.bankofcanada.ca/valet/observations"),
		ValetSeries:    getEnv("VALET_SERIES", "BD.CDN.LONG.DQ.YLD"),
		ScrapeURL:      getEnv("SCRAPE_URL", "https://www.tradingview.com/symbols/TVC-CA30Y/"),

		MunicipalSpread: getEnvFloat("MUNICIPAL_SPREAD", 1.10),
		Households:      getEnvInt("HOUSEHOLDS", 45000),

		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnv("SMTP_PORT", "587"),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SenderEmail:  getEnv("SENDER_EMAIL", ""),
		AlertEmail:   getEnv("ALERT_EMAIL", ""),

		RunMode:  getEnv("RUN_MODE", "once"),
		Port:     getEnv("PORT", "8080"),
		CronSpec: getEnv("CRON_SPEC", "0 13 * * *"),
	}

	if path := getEnv("PORTFOLIO_FILE", ""); path != "" {
		projects, err := loadPortfolio(path)
		if err != nil {
			return nil, err
		}
		cfg.Projects = projects
		cfg.PortfolioMode = true
	} else {
		cfg.Projects = []models.ProjectDebt{{
			Name:      getEnv("PROJECT_NAME", "Brantford SEC Arena"),
			Principal: getEnvFloat("PRINCIPAL", 140000000),
			TermYears: getEnvInt("TERM_YEARS", 30),
		}}
	}

	for _, p := range cfg.Projects {
		if p.Principal <= 0 {
			return nil, fmt.Errorf("project %q: principal must be positive", p.Name)
		}
		if p.TermYears <= 0 {
			return nil, fmt.Errorf("project %q: term_years must be positive", p.Name)
		}
	}
	if cfg.MunicipalSpread < 0 {
		return nil, fmt.Errorf("MUNICIPAL_SPREAD must not be negative")
	}
	if cfg.ResolvePolicy == models.ResolveAvailabilityFirst && cfg.FallbackRate <= 0 {
		return nil, fmt.Errorf("FALLBACK_RATE must be positive under availability_first")
	}
	if !cfg.PortfolioMode && cfg.Households <= 0 {
		return nil, fmt.Errorf("HOUSEHOLDS must be positive")
	}
	if cfg.RunMode != "once" && cfg.RunMode != "serve" {
		return nil, fmt.Errorf("RUN_MODE must be \"once\" or \"serve\"")
	}

	return cfg, nil
}

// loadPortfolio reads an ordered project list from a YAML file.
func loadPortfolio(path string) ([]models.ProjectDebt, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read portfolio file: %w", err)
	}
	var doc struct {
		Projects []models.ProjectDebt `yaml:"projects"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse portfolio file: %w", err)
	}
	if len(doc.Projects) == 0 {
		return nil, fmt.Errorf("portfolio file %s lists no projects", path)
	}
	return doc.Projects, nil
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if value, exists := os.LookupEnv(key); exists {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultVal
}
