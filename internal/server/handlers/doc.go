// Package handlers contains the HTTP handlers of the snapfront web surface.
//
// This package provides handlers for:
//   - Store administration pages (snaps, members, settings, models)
//   - Publisher JSON views (GitHub repositories, build status and links)
//   - Account newsletter preferences
//   - Status endpoints
//
// Handlers report failures through the foundation/errors HTTP adapter and
// write JSON payloads from the server/responses package.
package handlers
