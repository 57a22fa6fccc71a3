// Package modules contains all self-contained application features.
//
// Each subdirectory is a module that implements the `module.Module` interface.
// Modules are listed in `internal/app/modules.go` and mounted by the server
// under /app/<name> at startup.
package modules
