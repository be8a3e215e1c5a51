// SPDX-License-Identifier: EPL-2.0

// Package device opens the platform audio output.
//
// The backend is chosen at build time:
//
//	(default)        ebitengine/oto, pulls interleaved float32 from the engine
//	-tags portaudio  gordonklaus/portaudio on the default output device
//	-tags headless   no audio hardware; the callback is paced by a timer
//
// Every backend reports the defaults of its output device. Negotiate
// combines those with the requested configuration: the device decides the
// sample rate and the channel count, and the requested buffer size is
// clamped into the range the device supports. The engine is then built
// with the negotiated rate and its Fill method is handed to Open as the
// device callback.
package device
