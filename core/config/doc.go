// Package config assembles the agent configuration from environment
// variables and an optional .env file.
//
// Every section is a partial config owned by the package it configures
// (logger, database, target, storage, inventory). Defaults come from the
// 'default' struct tags; environment variables map onto nested keys with
// underscores, e.g. AGENT_CONCURRENT_REQUESTS -> agent.concurrent_requests.
package config
