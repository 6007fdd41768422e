// Package fixture reads key/value rows from JSON lines files and loads
// them into a storage engine. Files may be zstd compressed.
package fixture
