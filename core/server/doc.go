// Package server holds the HTTP server configuration.
//
// While the main application entry point handles the server startup, this package
// defines the settings the server and its middleware read.
//
// # Configuration
//
// The Config struct defines the HTTP port, the JWT signing secret used by the
// auth middleware, the roles that count as moderators and the request body limit.
//
// # Usage
//
// This package is embedded by core/config and read by cmd/start.go when the
// Fiber application and its middleware are built.
package server
