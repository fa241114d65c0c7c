// Package loader provides the plugin-like feature loading system.
//
// It allows the agent to register and initialize features (modules)
// dynamically. Each feature implements the Feature interface, which defines
// its lifecycle hooks and route registration logic.
package loader
