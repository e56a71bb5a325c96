// Package config loads crawl configuration from JSON files and the
// environment.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config is the crawl configuration. A JSON config file is decoded over the
// defaults, so absent keys keep their default values (including the
// default-true booleans). Credentials come from the environment only.
type Config struct {
	StartURLs []string `json:"startUrls" validate:"required,min=1,dive,url"`

	ProxyCountry string   `json:"proxyCountry"`
	ProxyGroups  []string `json:"proxyGroups"`
	ProxyURL     string   `json:"proxyUrl" validate:"omitempty,url"`

	DatasetName    string `json:"datasetName" validate:"required"`
	OCRDatasetName string `json:"ocrDatasetName"`
	OutputDir      string `json:"outputDir" validate:"required"`

	UseOCRBackup           bool `json:"useOCRBackup"`
	UseAIParser            bool `json:"useAIParser"`
	PromoHeuristicsEnabled bool `json:"promoHeuristicsEnabled"`

	OpenAIModel          string `json:"openaiModel"`
	WaitForNetworkIdleMs int    `json:"waitForNetworkIdleMs" validate:"gte=0"`
	MaxConcurrency       int    `json:"maxConcurrency" validate:"gte=1,lte=16"`

	// Credentials resolved from the environment, never from the config file.
	OpenAIAPIKey  string `json:"-"`
	OpenAIBaseURL string `json:"-"`
	WebhookURL    string `json:"-"`
	DatabaseURL   string `json:"-"`
}

// Default returns the configuration used when no file overrides it.
func Default() Config {
	return Config{
		StartURLs: []string{
			"https://dutchie.com/dispensary/quincy-cannabis-quincy-retail-rec",
		},
		ProxyCountry:           "US",
		DatasetName:            "menu_products",
		OutputDir:              "output",
		UseOCRBackup:           true,
		UseAIParser:            true,
		PromoHeuristicsEnabled: true,
		OpenAIModel:            "gpt-4o-mini",
		WaitForNetworkIdleMs:   2000,
		MaxConcurrency:         3,
	}
}

// Load reads the optional config file over the defaults, applies environment
// credentials, fills the date-suffixed OCR dataset name, and validates.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := json.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	}

	cfg.applyEnv()

	if cfg.OCRDatasetName == "" {
		cfg.OCRDatasetName = DefaultOCRDatasetName(time.Now())
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// DefaultOCRDatasetName suffixes the OCR dataset with the run date so each
// day's secondary output lands in its own dataset.
func DefaultOCRDatasetName(now time.Time) string {
	return "menu_ocr_" + now.UTC().Format("20060102")
}

func (c *Config) applyEnv() {
	if key := firstEnv("OPENAI_API_KEY", "openai_api_key"); key != "" {
		c.OpenAIAPIKey = key
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		c.OpenAIBaseURL = v
	}
	if v := os.Getenv("GCHAT_WEBHOOK_URL"); v != "" {
		c.WebhookURL = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.DatabaseURL = v
	}
}

// Validate checks the configuration values.
func (c *Config) Validate() error {
	err := validator.New().Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag()))
		}
		return fmt.Errorf("config error: %s", strings.Join(msgs, "; "))
	}
	return fmt.Errorf("config validation: %w", err)
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return ""
}
