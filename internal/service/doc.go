// Package service implements the application layer of circuitmap.
//
// This package sits between the HTTP handlers and the repository and layout
// engine, running layout passes over the stored inventory and publishing
// events for connected clients.
//
// # Services
//
// SceneService reads the inventory from the repository, runs layout passes
// through the topology engine, imports new inventories and persists
// committed site coordinates.
//
// SessionService keeps one viewport.State per interactive viewer. Drags run
// against the session's state and the single commit at the end of each drag
// is written back through SceneService. Idle sessions are reaped.
//
// # Event System
//
// Services publish events via EventBus for real-time updates to connected
// clients via Server-Sent Events (SSE): scene updates, committed
// coordinates, inventory reloads and site changes.
package service
