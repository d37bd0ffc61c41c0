// Package config provides configuration loading and validation for threadsplit.
package config

import "time"

// Config is the root configuration structure loaded from YAML.
type Config struct {
	// Input is the log file to partition.
	Input string `yaml:"input"`

	// OutputDir is recreated empty before any file is written.
	OutputDir string `yaml:"output_dir"`

	LastSeen LastSeenConfig  `yaml:"last_seen"`
	Webhooks []WebhookConfig `yaml:"webhooks,omitempty"`
}

// MissingPolicy decides what a last_<type> file holds for an active thread
// that never logged that message type.
type MissingPolicy string

const (
	// MissingSkip writes nothing for the thread (default).
	MissingSkip MissingPolicy = "skip"
	// MissingBlank writes an empty line for the thread.
	MissingBlank MissingPolicy = "blank"
)

// LastSeenConfig controls the last_<type> summary files.
type LastSeenConfig struct {
	Missing MissingPolicy `yaml:"missing"`
}

// WebhookTrigger determines when a webhook fires.
type WebhookTrigger string

const (
	// WebhookTriggerOnIssues fires only when the input had unparsed lines (default).
	WebhookTriggerOnIssues WebhookTrigger = "on_issues"
	// WebhookTriggerAlways fires after every run.
	WebhookTriggerAlways WebhookTrigger = "always"
	// WebhookTriggerNever disables the webhook.
	WebhookTriggerNever WebhookTrigger = "never"
)

// WebhookConfig defines a webhook endpoint that receives the run report.
type WebhookConfig struct {
	// Name is an optional identifier for the webhook.
	Name string `yaml:"name,omitempty"`

	// URL is the webhook endpoint (required).
	URL string `yaml:"url"`

	// Token is an optional bearer token. ${VAR} and $VAR are expanded.
	Token string `yaml:"token,omitempty"`

	// Trigger defaults to "on_issues".
	Trigger WebhookTrigger `yaml:"trigger,omitempty"`

	// Timeout defaults to 10s.
	Timeout time.Duration `yaml:"timeout,omitempty"`
}
