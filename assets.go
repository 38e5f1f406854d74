// Package codequest provides embedded assets for production builds.
package codequest

import "embed"

// In dev mode templates are read from disk and reloaded on change.
// Otherwise both trees are served from the binary.

//go:embed all:frontend/static
var StaticFS embed.FS

//go:embed all:frontend/templates
var TemplateFS embed.FS
