// SPDX-License-Identifier: EPL-2.0

// Package midi turns Standard MIDI Files into timed synthesiser events.
//
// All tracks are merged and every event is placed on an absolute sample
// frame using the file's tempo map. Channel voice messages become
// event.Event values; meta events other than tempo are dropped.
package midi
