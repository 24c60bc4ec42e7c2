package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"

	"manualexec/internal/models"
	"manualexec/internal/repository"
)

const (
	SettingDryRunPolicy       = "policy.dry_run"
	FeatureAutoRefreshSummary = "feature.auto_refresh_summary"
	FeatureOpsSummaryCron     = "feature.ops_summary_cron"
)

const (
	DryRunRefuseAfterReal = "refuse_after_real"
	DryRunAllow           = "allow"
)

// ParseDryRunPolicy accepts a known dry-run precedence policy.
func ParseDryRunPolicy(raw string) (string, bool) {
	switch p := strings.ToLower(strings.TrimSpace(raw)); p {
	case DryRunRefuseAfterReal, DryRunAllow:
		return p, true
	default:
		return "", false
	}
}

type settingSpec struct {
	description string
	defaultVal  any
	validate    func(raw json.RawMessage) error
}

var knownSettings = map[string]settingSpec{
	SettingDryRunPolicy: {
		description: "dry run precedence: refuse_after_real | allow",
		defaultVal:  DryRunRefuseAfterReal,
		validate: func(raw json.RawMessage) error {
			var v string
			if err := json.Unmarshal(raw, &v); err != nil {
				return fmt.Errorf("expected a string")
			}
			if _, ok := ParseDryRunPolicy(v); !ok {
				return fmt.Errorf("unknown policy %q", v)
			}
			return nil
		},
	},
	FeatureAutoRefreshSummary: {description: "feature switch", defaultVal: true, validate: validateBool},
	FeatureOpsSummaryCron:     {description: "feature switch", defaultVal: true, validate: validateBool},
}

func validateBool(raw json.RawMessage) error {
	var v bool
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("expected true or false")
	}
	return nil
}

// SettingsService holds runtime-adjustable pipeline policy.
type SettingsService struct {
	Repo repository.SystemSettingsRepository
	// Defaults replaces built-in default values, e.g. from config.
	Defaults map[string]any
}

// EnsureDefaults inserts missing settings. Existing values are never
// overwritten.
func (s *SettingsService) EnsureDefaults(ctx context.Context) error {
	if s == nil || s.Repo == nil {
		return nil
	}
	now := time.Now().UTC()
	for key, spec := range knownSettings {
		existing, err := s.Repo.GetSystemSettingByKey(ctx, key)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}
		val := spec.defaultVal
		if v, ok := s.Defaults[key]; ok {
			val = v
		}
		raw, _ := json.Marshal(val)
		item := &models.SystemSetting{
			Key:         key,
			Value:       datatypes.JSON(raw),
			Description: spec.description,
			UpdatedBy:   "system",
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.Repo.UpsertSystemSetting(ctx, item); err != nil {
			return err
		}
	}
	return nil
}

func (s *SettingsService) IsEnabled(ctx context.Context, key string, fallback bool) bool {
	item := s.lookup(ctx, key)
	if item == nil {
		return fallback
	}
	var enabled bool
	if err := json.Unmarshal(item.Value, &enabled); err != nil {
		return fallback
	}
	return enabled
}

func (s *SettingsService) GetString(ctx context.Context, key, fallback string) string {
	item := s.lookup(ctx, key)
	if item == nil {
		return fallback
	}
	var v string
	if err := json.Unmarshal(item.Value, &v); err != nil || strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}

func (s *SettingsService) lookup(ctx context.Context, key string) *models.SystemSetting {
	if s == nil || s.Repo == nil {
		return nil
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return nil
	}
	item, err := s.Repo.GetSystemSettingByKey(ctx, key)
	if err != nil || item == nil || len(item.Value) == 0 {
		return nil
	}
	return item
}

// Set stores value for a known key after validating it.
func (s *SettingsService) Set(ctx context.Context, c Confirm, key string, value json.RawMessage, by string) (*models.SystemSetting, error) {
	if err := requireConfirm(c, "settings update"); err != nil {
		return nil, err
	}
	if s == nil || s.Repo == nil {
		return nil, newError(CodeIO, "settings store not configured", nil)
	}
	key = strings.TrimSpace(key)
	spec, ok := knownSettings[key]
	if !ok {
		return nil, newError(CodeValidation, fmt.Sprintf("unknown setting %q", key), nil)
	}
	if err := spec.validate(value); err != nil {
		return nil, newError(CodeValidation, fmt.Sprintf("%s: %v", key, err), nil)
	}
	item := &models.SystemSetting{
		Key:         key,
		Value:       datatypes.JSON(value),
		Description: spec.description,
		UpdatedBy:   by,
		UpdatedAt:   time.Now().UTC(),
	}
	if err := s.Repo.UpsertSystemSetting(ctx, item); err != nil {
		return nil, newError(CodeIO, "write setting", err)
	}
	return item, nil
}

func (s *SettingsService) Get(ctx context.Context, key string) (*models.SystemSetting, error) {
	if s == nil || s.Repo == nil {
		return nil, notFoundSetting(key)
	}
	item, err := s.Repo.GetSystemSettingByKey(ctx, strings.TrimSpace(key))
	if err != nil {
		return nil, newError(CodeIO, "read setting", err)
	}
	if item == nil {
		return nil, notFoundSetting(key)
	}
	return item, nil
}

func (s *SettingsService) List(ctx context.Context) ([]models.SystemSetting, error) {
	if s == nil || s.Repo == nil {
		return []models.SystemSetting{}, nil
	}
	items, err := s.Repo.ListSystemSettings(ctx, repository.ListSystemSettingsParams{Limit: 200, OrderBy: "key"})
	if err != nil {
		return nil, newError(CodeIO, "list settings", err)
	}
	return items, nil
}

func notFoundSetting(key string) error {
	return newError(CodeNotFound, fmt.Sprintf("setting %q not found", key), nil)
}
