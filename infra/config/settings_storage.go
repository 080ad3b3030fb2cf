package config

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"
)

// ErrSettingsNotFound is returned when a payment method has no persisted settings
var ErrSettingsNotFound = errors.New("settings not found")

// SettingsStorage handles persistent storage of payment method settings.
// Each installed method owns a single settings row keyed by its system name.
type SettingsStorage struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSettingsStorage creates a settings storage backed by the given database
func NewSettingsStorage(db *sql.DB) (*SettingsStorage, error) {
	storage := &SettingsStorage{db: db}

	if err := storage.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize settings schema: %w", err)
	}

	return storage, nil
}

// initSchema creates the necessary tables
func (s *SettingsStorage) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS method_settings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		method_name TEXT NOT NULL UNIQUE,
		settings_data TEXT NOT NULL,
		active BOOLEAN NOT NULL DEFAULT 1,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_method_name ON method_settings(method_name);

	CREATE TRIGGER IF NOT EXISTS update_method_settings_updated_at
		AFTER UPDATE ON method_settings
	BEGIN
		UPDATE method_settings SET updated_at = CURRENT_TIMESTAMP WHERE id = NEW.id;
	END;
	`

	_, err := s.db.Exec(query)
	return err
}

// retryOperation executes a database operation with retry logic for SQLITE_BUSY errors
func (s *SettingsStorage) retryOperation(operation func() error, maxRetries int) error {
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		err := operation()
		if err == nil {
			return nil
		}

		if strings.Contains(err.Error(), "SQLITE_BUSY") || strings.Contains(err.Error(), "database is locked") {
			lastErr = err
			if attempt < maxRetries {
				backoff := time.Duration(10*(1<<attempt)) * time.Millisecond
				log.Printf("SQLite busy, retrying in %v (attempt %d/%d)", backoff, attempt+1, maxRetries+1)
				time.Sleep(backoff)
				continue
			}
		} else {
			return err
		}
	}

	return fmt.Errorf("operation failed after %d retries, last error: %w", maxRetries+1, lastErr)
}

// Install seeds the default settings for a method. Installing an already
// installed method is a no-op so repeated installs never reset admin-edited
// settings.
func (s *SettingsStorage) Install(methodName string, defaults map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	settingsJSON, err := json.Marshal(defaults)
	if err != nil {
		return fmt.Errorf("failed to marshal default settings: %w", err)
	}

	return s.retryOperation(func() error {
		query := `
		INSERT INTO method_settings (method_name, settings_data, active)
		VALUES (?, ?, 1)
		ON CONFLICT(method_name) DO NOTHING
		`

		_, err := s.db.Exec(query, methodName, string(settingsJSON))
		if err != nil {
			return fmt.Errorf("failed to install settings for %s: %w", methodName, err)
		}

		log.Printf("Installed payment method: %s", methodName)
		return nil
	}, 3)
}

// Uninstall deletes the settings row for a method
func (s *SettingsStorage) Uninstall(methodName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.retryOperation(func() error {
		_, err := s.db.Exec("DELETE FROM method_settings WHERE method_name = ?", methodName)
		if err != nil {
			return fmt.Errorf("failed to uninstall %s: %w", methodName, err)
		}

		log.Printf("Uninstalled payment method: %s", methodName)
		return nil
	}, 3)
}

// Save persists the settings for an installed method
func (s *SettingsStorage) Save(methodName string, settings map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	settingsJSON, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	return s.retryOperation(func() error {
		query := `
		UPDATE method_settings
		SET settings_data = ?, updated_at = CURRENT_TIMESTAMP
		WHERE method_name = ?
		`

		result, err := s.db.Exec(query, string(settingsJSON), methodName)
		if err != nil {
			return fmt.Errorf("failed to save settings for %s: %w", methodName, err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrSettingsNotFound
		}

		return nil
	}, 3)
}

// Load returns the persisted settings for a method
func (s *SettingsStorage) Load(methodName string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var settings map[string]string
	err := s.retryOperation(func() error {
		var settingsJSON string
		err := s.db.QueryRow("SELECT settings_data FROM method_settings WHERE method_name = ?", methodName).Scan(&settingsJSON)
		if err != nil {
			if err == sql.ErrNoRows {
				return ErrSettingsNotFound
			}
			return fmt.Errorf("failed to load settings for %s: %w", methodName, err)
		}

		if err := json.Unmarshal([]byte(settingsJSON), &settings); err != nil {
			return fmt.Errorf("failed to unmarshal settings for %s: %w", methodName, err)
		}

		return nil
	}, 3)

	if err != nil {
		return nil, err
	}

	return settings, nil
}

// IsActive reports whether a method is installed and active
func (s *SettingsStorage) IsActive(methodName string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var active bool
	err := s.db.QueryRow("SELECT active FROM method_settings WHERE method_name = ?", methodName).Scan(&active)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("failed to check %s: %w", methodName, err)
	}

	return active, nil
}

// SetActive toggles a method without uninstalling it
func (s *SettingsStorage) SetActive(methodName string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.retryOperation(func() error {
		result, err := s.db.Exec("UPDATE method_settings SET active = ? WHERE method_name = ?", active, methodName)
		if err != nil {
			return fmt.Errorf("failed to update %s: %w", methodName, err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrSettingsNotFound
		}

		return nil
	}, 3)
}
