// Package server holds configuration for the agent's HTTP surface: the
// change-notification webhook, manual sync trigger, and status endpoints.
package server
