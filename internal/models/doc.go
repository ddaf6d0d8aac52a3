// Package models defines domain entities and persistence interfaces for the imx fleet image service.
//
// The package contains two categories of types:
//
// 1. Data Transfer Objects (DTOs): Lightweight structs exchanged with the controller API
//   - [Image] : An image record mirrored across the node fleet
//   - [Location] : One node/namespace pair an image currently resides on
//   - [DeletionEvent] : Push notification announcing that an image entered its terminal state
//
// 2. Persistent Entities: Database-backed models used by the controller server
//   - [PersistedImage] : Controller-side image row with sequence number and soft delete support
//
// Persistent entities implement the Model interface providing ID generation, timestamps, validation, and soft delete support.
// The Repository[T] interface defines standard CRUD operations for database access.
package models
