// Package confloader loads layered configuration with koanf.
//
// Priority (highest to lowest):
//
//  1. Overrides (command line flags)
//  2. Environment variables (KVSUM_ prefix, "__" between levels)
//  3. YAML configuration file
//  4. Defaults already set on the target struct
package confloader
