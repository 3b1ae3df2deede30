package main

import "embed"

// WebFS holds the page templates, static assets, help text and bundled stories.
//
//go:embed web
var WebFS embed.FS
