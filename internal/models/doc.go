// Package models defines the core domain entities for fairtab.
//
// A Person is identified by email address alone. Groups and Expenses
// reference people exclusively by email; there is no separate synthetic
// person ID anywhere in the system.
//
// Entities are plain data with JSON tags matching the snapshot format
// used for backup and restore.
package models
