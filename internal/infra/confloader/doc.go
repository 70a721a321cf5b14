// Package confloader loads layered configuration with koanf.
//
// Layers, lowest priority first:
//
//  1. Defaults supplied by the caller (WithDefaults)
//  2. A YAML file (WithConfigFile)
//  3. Environment variables (LEXDESK_SECTION_KEY)
//  4. Explicit overrides, usually command-line flags (WithOverrides)
//
// Watcher reports writes to a watched file so long-running processes can
// re-read the parts of their configuration that are safe to change live.
package confloader
