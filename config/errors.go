// SPDX-License-Identifier: EPL-2.0

package config

import "errors"

var (
	ErrSampleRate    = errors.New("sample rate out of range")
	ErrChannels      = errors.New("channel count out of range")
	ErrLatency       = errors.New("latency must cover at least one block")
	ErrEventCapacity = errors.New("event capacity must be a power of two")
	ErrVoices        = errors.New("voice count out of range")
	ErrUnison        = errors.New("unison count out of range")
	ErrEnvelope      = errors.New("envelope parameters out of range")
	ErrScope         = errors.New("scope settings out of range")
	ErrEffects       = errors.New("effect settings out of range")
)
