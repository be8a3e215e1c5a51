// SPDX-License-Identifier: EPL-2.0

// Package config loads and validates the JSON settings file.
//
// A missing file is not an error: Load returns Default. Fields absent from
// the file keep their default values.
package config
