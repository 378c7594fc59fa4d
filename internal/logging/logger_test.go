package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTestConfig(t *testing.T, tempDir, content string) {
	t.Helper()
	configDir := filepath.Join(tempDir, ".cuepoint")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		t.Fatalf("Failed to create config dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(configDir, "config.yaml"), []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
}

func resetLoggingState() {
	CloseAll()
	loggers = make(map[Category]*Logger)
	logsDir = ""
	workspace = ""
	config = loggingConfig{}
	logLevel = LevelInfo
}

// TestCategoriesCreateFiles tests that enabled categories create log files
// when debug_mode is true.
func TestCategoriesCreateFiles(t *testing.T) {
	tempDir := t.TempDir()

	writeTestConfig(t, tempDir, `
logging:
  level: debug
  debug_mode: true
  categories:
    boot: true
    server: true
    engine: true
    bookings: true
    cms: true
`)

	resetLoggingState()
	defer resetLoggingState()

	if err := Initialize(tempDir); err != nil {
		t.Fatalf("Failed to initialize logging: %v", err)
	}
	if !IsDebugMode() {
		t.Error("Expected debug mode to be enabled")
	}

	categories := []Category{CategoryBoot, CategoryServer, CategoryEngine, CategoryBookings, CategoryCMS}
	for _, cat := range categories {
		Get(cat).Info("test message for %s", cat)
	}
	CloseAll()

	entries, err := os.ReadDir(filepath.Join(tempDir, ".cuepoint", "logs"))
	if err != nil {
		t.Fatalf("Failed to read logs dir: %v", err)
	}
	for _, cat := range categories {
		found := false
		for _, e := range entries {
			if strings.Contains(e.Name(), string(cat)+".log") {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("No log file created for category %s", cat)
		}
	}
}

// TestProductionModeIsSilent tests that no logs directory is created when
// there is no config file (production default).
func TestProductionModeIsSilent(t *testing.T) {
	tempDir := t.TempDir()

	resetLoggingState()
	defer resetLoggingState()

	if err := Initialize(tempDir); err != nil {
		t.Fatalf("Failed to initialize logging: %v", err)
	}
	if IsDebugMode() {
		t.Error("Expected debug mode to be disabled without config")
	}

	Boot("this should go nowhere")
	Server("this should also go nowhere")

	if _, err := os.Stat(filepath.Join(tempDir, ".cuepoint", "logs")); !os.IsNotExist(err) {
		t.Error("Logs directory should not exist in production mode")
	}
}

// TestDisabledCategoryIsNoop tests that a disabled category yields a no-op logger.
func TestDisabledCategoryIsNoop(t *testing.T) {
	tempDir := t.TempDir()

	writeTestConfig(t, tempDir, `
logging:
  level: debug
  debug_mode: true
  categories:
    boot: true
    chat: false
`)

	resetLoggingState()
	defer resetLoggingState()

	if err := Initialize(tempDir); err != nil {
		t.Fatalf("Failed to initialize logging: %v", err)
	}

	if IsCategoryEnabled(CategoryChat) {
		t.Error("Expected chat category to be disabled")
	}
	// Unlisted categories default to enabled in debug mode.
	if !IsCategoryEnabled(CategoryEngine) {
		t.Error("Expected unlisted engine category to default to enabled")
	}

	Chat("should be dropped")
	CloseAll()

	entries, err := os.ReadDir(filepath.Join(tempDir, ".cuepoint", "logs"))
	if err != nil {
		t.Fatalf("Failed to read logs dir: %v", err)
	}
	for _, e := range entries {
		if strings.Contains(e.Name(), "chat.log") {
			t.Errorf("Log file created for disabled category: %s", e.Name())
		}
	}
}
