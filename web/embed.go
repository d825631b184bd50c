package web

import "embed"

// TemplatesFS embeds the page templates.
//
//go:embed templates/*.html
var TemplatesFS embed.FS

// StaticFS embeds the stylesheet.
//
//go:embed static/*
var StaticFS embed.FS
