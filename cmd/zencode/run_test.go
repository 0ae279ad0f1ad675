package main

import (
	"testing"
	"time"

	"github.com/ShimantoBhowmik/zen-code/internal/config"
	"github.com/ShimantoBhowmik/zen-code/internal/pipeline"
	"github.com/ShimantoBhowmik/zen-code/pkg/models"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{30 * time.Second, "30s"},
		{5 * time.Minute, "5m"},
		{2 * time.Hour, "2h"},
		{2*time.Hour + 30*time.Minute, "2h30m"},
		{49 * time.Hour, "2d"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := formatDuration(tt.d); got != tt.want {
				t.Errorf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
			}
		})
	}
}

func TestMaskSecret(t *testing.T) {
	if got := maskSecret(""); got != "(not set)" {
		t.Errorf("maskSecret(empty) = %q", got)
	}
	if got := maskSecret("sk-ant-secret"); got != "****" {
		t.Errorf("maskSecret(set) = %q", got)
	}
}

func TestSetConfigValue(t *testing.T) {
	cfg := config.Default()

	if err := setConfigValue(cfg, "anthropic.model", "claude-sonnet-4-20250514"); err != nil {
		t.Fatalf("set model: %v", err)
	}
	if cfg.Anthropic.Model != "claude-sonnet-4-20250514" {
		t.Errorf("model = %q", cfg.Anthropic.Model)
	}

	if err := setConfigValue(cfg, "validation.enabled", "false"); err != nil {
		t.Fatalf("set validation.enabled: %v", err)
	}
	if cfg.Validation.Enabled {
		t.Error("validation.enabled should be false")
	}

	if err := setConfigValue(cfg, "sandbox.max_repo_size_mb", "not-a-number"); err == nil {
		t.Error("non-numeric max_repo_size_mb should fail")
	}
	if err := setConfigValue(cfg, "no.such.key", "v"); err == nil {
		t.Error("unknown key should fail")
	}
}

func TestGetConfigValue_MasksSecrets(t *testing.T) {
	cfg := config.Default()
	cfg.Anthropic.APIKey = "sk-ant-secret"
	cfg.GitHub.Token = "ghp_secret"

	for _, key := range []string{"anthropic.api_key", "github.token"} {
		got, err := getConfigValue(cfg, key)
		if err != nil {
			t.Fatalf("get %s: %v", key, err)
		}
		if got != "****" {
			t.Errorf("getConfigValue(%s) = %q, want masked", key, got)
		}
	}
}

func TestReportOutcome_ValidationFailureIsAnError(t *testing.T) {
	result := &pipeline.Result{
		Success: false,
		Verdict: models.Verdict{Feedback: "SyntaxError", Iterations: 3},
	}
	if err := reportOutcome(result, nil); err == nil {
		t.Error("a failed validation verdict should map to a non-zero exit")
	}
}

func TestReportOutcome_CancelIsNotAnError(t *testing.T) {
	if err := reportOutcome(nil, pipeline.ErrCanceled); err != nil {
		t.Errorf("cancel should exit cleanly, got %v", err)
	}
}

func TestReportOutcome_Success(t *testing.T) {
	result := &pipeline.Result{
		Success:    true,
		Branch:     "zen-code-1700000000",
		CommitHash: "abc1234",
		PRURL:      "https://github.com/o/r/pull/1",
	}
	if err := reportOutcome(result, nil); err != nil {
		t.Errorf("successful run should exit cleanly, got %v", err)
	}
}

func TestPluralSuffix(t *testing.T) {
	if got := pluralSuffix(1, "y", "ies"); got != "y" {
		t.Errorf("pluralSuffix(1) = %q", got)
	}
	if got := pluralSuffix(3, "y", "ies"); got != "ies" {
		t.Errorf("pluralSuffix(3) = %q", got)
	}
}
