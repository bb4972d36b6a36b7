// Package models defines domain entities and persistence interfaces for the playlist filter service.
//
// Persistent entities are database-backed models with full lifecycle management:
//   - [Account] : Saved portal credentials under a friendly name
//   - [Generation] : One generated playlist with its filter settings and summary counts
//
// All persistent entities implement the Model interface providing ID generation, timestamps, validation, and soft delete support.
// The Repository[T] interface defines standard CRUD operations for database access.
package models
