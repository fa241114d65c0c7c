// Package middleware groups the HTTP middleware used by the agent's web
// surface: request ray-id injection and API key authentication.
package middleware
