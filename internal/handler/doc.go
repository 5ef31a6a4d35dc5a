// Package handler implements HTTP request handlers for the circuitmap API.
//
// # Handlers
//
// Handler serves layout passes over the stored inventory, site and facility
// CRUD, committed coordinates, inventory import and scene export.
//
// Interactive viewers open a session, report their container size and send
// drag events; the session holds live pixel positions and commits each drag
// once on release.
//
// # Response Format
//
// Success responses return JSON data with appropriate status codes (200, 201).
// Error responses return JSON with {error, details} structure.
//
// # Server-Sent Events
//
// The /events endpoint streams scene updates, committed coordinates and
// inventory reloads so other viewers can refresh.
package handler
