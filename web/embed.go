package web

import "embed"

// StaticFS embeds the single page frontend (index.html, css, js).
//
//go:embed static/*
var StaticFS embed.FS
