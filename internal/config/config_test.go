package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.NotEmpty(t, cfg.StartURLs)
	assert.Equal(t, "menu_products", cfg.DatasetName)
	assert.Equal(t, "output", cfg.OutputDir)
	assert.True(t, cfg.UseOCRBackup)
	assert.True(t, cfg.UseAIParser)
	assert.True(t, cfg.PromoHeuristicsEnabled)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAIModel)
	assert.Equal(t, 2000, cfg.WaitForNetworkIdleMs)
	assert.Equal(t, 3, cfg.MaxConcurrency)
}

func TestLoad_NoFileUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().StartURLs, cfg.StartURLs)
	assert.NotEmpty(t, cfg.OCRDatasetName, "OCR dataset name filled from run date")
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `{
		"startUrls": ["https://example.com/menu"],
		"datasetName": "custom_products",
		"useAIParser": false,
		"maxConcurrency": 5
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://example.com/menu"}, cfg.StartURLs)
	assert.Equal(t, "custom_products", cfg.DatasetName)
	assert.False(t, cfg.UseAIParser)
	assert.Equal(t, 5, cfg.MaxConcurrency)

	// Keys absent from the file keep their defaults, including the
	// default-true booleans.
	assert.True(t, cfg.UseOCRBackup)
	assert.True(t, cfg.PromoHeuristicsEnabled)
	assert.Equal(t, 2000, cfg.WaitForNetworkIdleMs)
}

func TestLoad_EnvCredentials(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("GCHAT_WEBHOOK_URL", "https://chat.example.com/hook")
	t.Setenv("DATABASE_URL", "postgres://localhost/menus")
	t.Setenv("OPENAI_BASE_URL", "http://localhost:8080/v1")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "sk-test", cfg.OpenAIAPIKey)
	assert.Equal(t, "https://chat.example.com/hook", cfg.WebhookURL)
	assert.Equal(t, "postgres://localhost/menus", cfg.DatabaseURL)
	assert.Equal(t, "http://localhost:8080/v1", cfg.OpenAIBaseURL)
}

func TestLoad_LowercaseAPIKeyFallback(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("openai_api_key", "sk-lower")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "sk-lower", cfg.OpenAIAPIKey)
}

func TestLoad_CredentialsNeverFromFile(t *testing.T) {
	path := writeConfig(t, `{"OpenAIAPIKey": "sk-leaked", "startUrls": ["https://example.com/menu"]}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Empty(t, cfg.OpenAIAPIKey)
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty start urls", `{"startUrls": []}`},
		{"bad url", `{"startUrls": ["not a url"]}`},
		{"zero concurrency", `{"maxConcurrency": 0}`},
		{"excess concurrency", `{"maxConcurrency": 64}`},
		{"blank dataset", `{"datasetName": ""}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "config")
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}

func TestLoad_MalformedJSON(t *testing.T) {
	_, err := Load(writeConfig(t, `{not json`))
	assert.Error(t, err)
}

func TestDefaultOCRDatasetName(t *testing.T) {
	now := time.Date(2025, 3, 9, 23, 30, 0, 0, time.UTC)
	assert.Equal(t, "menu_ocr_20250309", DefaultOCRDatasetName(now))
}

func TestLoad_OCRDatasetNameFromFileKept(t *testing.T) {
	path := writeConfig(t, `{"ocrDatasetName": "my_ocr"}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "my_ocr", cfg.OCRDatasetName)
}
