package config

import "strings"

const defaultUploadsMaxBytes = 2 << 20

// UploadsConfig controls where profile pictures and banners are written.
type UploadsConfig struct {
	// Dir is the root directory for uploaded files, served under /uploads/.
	Dir string `env:"DIR" envDefault:"uploads"`

	// MaxBytes caps a single uploaded file.
	MaxBytes int64 `env:"MAX_BYTES" envDefault:"2097152"`
}

// Sanitize applies guardrails to upload configuration values.
func (u *UploadsConfig) Sanitize() {
	u.Dir = strings.TrimSpace(u.Dir)
	if u.Dir == "" {
		u.Dir = "uploads"
	}
	if u.MaxBytes <= 0 {
		u.MaxBytes = defaultUploadsMaxBytes
	}
}
