// Package cmd implements the moray command-line interface. It provides
// client commands for buckets, objects and raw SQL as well as a development
// server backed by an in-memory or bbolt store.
//
// The package is organized into several subpackages:
//
//   - bucket: list, get, create and delete buckets
//   - object: get, put, find and delete objects, plus a latency benchmark
//   - sql: run raw statements
//   - serve: start the development server
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// Every flag can also be set with an environment variable MORAY_<FLAG>
// (dashes become underscores), .env and .env.local are loaded on start.
//
// See moray -help for a list of all commands.
package cmd
