// SPDX-License-Identifier: EPL-2.0

// Package utils holds small sample conversion helpers shared by the
// engine, the file writers and the resampler.
package utils
