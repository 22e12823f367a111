// Package api defines the wire types of the OrganAIzer HTTP API.
//
// # API Overview
//
// OrganAIzer exposes a small gateway surface:
//   - POST /api/text-image/generate for aspect-aware image generation
//   - POST /api/llm for a single-prompt completion
//   - GET /, /health, /healthz, /ready and /version
//
// # Authentication
//
// API endpoints require the X-API-Key header when auth is enabled:
//
//	X-API-Key: your-api-key
//
// A missing header yields 403 and an unknown key yields 401, both with a
// {"detail": "..."} body.
//
// # Base URL
//
// The default base URL for the API is:
//
//	http://localhost:8000
//
// Prometheus metrics are served separately on the metrics port.
package api
