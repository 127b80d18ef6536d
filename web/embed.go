// Package web provides embedded static assets: the admin stylesheet, the
// public site stylesheet and the embedded tour viewer script, served at
// /static/.
package web

import "embed"

// StaticFS embeds the web/static/ directory tree. Docker builds compile
// css/input.css into css/admin.css; in local development the admin layout
// loads TailwindCSS from the CDN instead.
//
//go:embed all:static
var StaticFS embed.FS
