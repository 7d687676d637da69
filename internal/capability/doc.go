// Package capability builds the catalog of host objects that sandboxed
// scripts reach through require("debug:<name>").
//
// Providers are registered once at startup, from code or from a catalog
// file, and snapshotted into a fresh sandbox.Catalog for every invocation.
package capability
