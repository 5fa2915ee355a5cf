// Package config loads committee run configuration from a YAML file, the
// environment and a .env file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/vsinha/prepcommittee/pkg/domain/entities"
	"github.com/vsinha/prepcommittee/pkg/domain/services"
	"github.com/vsinha/prepcommittee/pkg/infrastructure/logging"
)

// Environment variables that override the policy file.
const (
	EnvMode              = "COMMITTEE_MODE"
	EnvQuorum            = "COMMITTEE_QUORUM"
	EnvServiceDate       = "COMMITTEE_SERVICE_DATE"
	EnvMaxUnderOrderRisk = "COMMITTEE_MAX_UNDER_ORDER_RISK"
	EnvUseHistoryAgent   = "COMMITTEE_USE_HISTORY_AGENT"
)

// ContextFile is the run section of a policy file.
type ContextFile struct {
	Mode          string `yaml:"mode,omitempty"`
	ServiceDate   string `yaml:"service_date,omitempty"`
	GeneratedAt   string `yaml:"generated_at,omitempty"`
	HorizonDays   int    `yaml:"horizon_days,omitempty"`
	AutoRemediate *bool  `yaml:"auto_remediate,omitempty"`
}

// File is a policy file: a run section and partial policy overrides.
type File struct {
	Context ContextFile              `yaml:"context"`
	Policy  services.PolicyOverrides `yaml:"policy"`
}

// LoadDotEnv loads .env files into the environment. Missing files are not an
// error; variables already set win.
func LoadDotEnv(files ...string) {
	_ = godotenv.Load(files...)
}

// LoadPolicyFile reads a policy file. An empty path yields an empty file.
func LoadPolicyFile(path string) (*File, error) {
	if strings.TrimSpace(path) == "" {
		return &File{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file: %w", err)
	}
	f, err := ParsePolicy(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse policy file %s: %w", path, err)
	}
	return f, nil
}

// ParsePolicy decodes a policy document, rejecting unknown keys.
func ParsePolicy(r io.Reader) (*File, error) {
	f := &File{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(f); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return f, nil
}

// ApplyEnv overlays COMMITTEE_* variables read through getenv onto f.
func ApplyEnv(f *File, getenv func(string) string) error {
	if getenv == nil {
		getenv = os.Getenv
	}
	if v := strings.TrimSpace(getenv(EnvMode)); v != "" {
		f.Context.Mode = v
	}
	if v := strings.TrimSpace(getenv(EnvServiceDate)); v != "" {
		f.Context.ServiceDate = v
	}
	if v := strings.TrimSpace(getenv(EnvQuorum)); v != "" {
		q, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvQuorum, err)
		}
		f.Policy.Quorum = &q
	}
	if v := strings.TrimSpace(getenv(EnvMaxUnderOrderRisk)); v != "" {
		risk, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvMaxUnderOrderRisk, err)
		}
		f.Policy.Constraints.MaxUnderOrderRisk = &risk
	}
	if v := strings.TrimSpace(getenv(EnvUseHistoryAgent)); v != "" {
		use, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvUseHistoryAgent, err)
		}
		f.Policy.UseHistoryAgent = &use
	}
	return nil
}

// Resolve turns f into a run context with a fully validated policy. now
// stamps the run when the file names no generation time.
func Resolve(f *File, now time.Time, logger logging.Logger) (entities.CommitteeContext, error) {
	cctx := entities.CommitteeContext{
		Mode:          entities.ModeDual,
		HorizonDays:   f.Context.HorizonDays,
		GeneratedAt:   now,
		AutoRemediate: true,
		Policy:        services.BuildPolicy(&f.Policy, logger),
	}
	if f.Context.Mode != "" {
		mode, err := entities.ParseMode(f.Context.Mode)
		if err != nil {
			return cctx, err
		}
		cctx.Mode = mode
	}
	if f.Context.AutoRemediate != nil {
		cctx.AutoRemediate = *f.Context.AutoRemediate
	}
	if f.Context.ServiceDate != "" {
		t, err := ParseTime(f.Context.ServiceDate)
		if err != nil {
			return cctx, fmt.Errorf("invalid service date: %w", err)
		}
		cctx.ServiceDate = t
	}
	if f.Context.GeneratedAt != "" {
		t, err := ParseTime(f.Context.GeneratedAt)
		if err != nil {
			return cctx, fmt.Errorf("invalid generation time: %w", err)
		}
		cctx.GeneratedAt = t
	}
	if cctx.HorizonDays < 0 {
		return cctx, fmt.Errorf("horizon days cannot be negative, got %d", cctx.HorizonDays)
	}
	return cctx, nil
}

// ParseTime accepts RFC 3339 timestamps and bare dates.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised time %q (expected RFC 3339 or YYYY-MM-DD)", s)
}
