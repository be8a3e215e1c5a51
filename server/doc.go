// SPDX-License-Identifier: EPL-2.0

// Package server exposes the synthesiser over HTTP.
//
//	GET  /health                 liveness
//	GET  /status                 engine counters
//	GET  /scope                  latest stabilised scope frame
//	PUT  /scope/trigger          {"level": 0.1, "edge": "falling"}
//	POST /notes/{note}/on        ?velocity=1..127 (default 100)
//	POST /notes/{note}/off
//	POST /control/{cc}           ?value=0..127
//	POST /bend                   ?value=0..16383 (8192 is centre)
//	POST /program/{program}
//	POST /panic                  all notes off
//
// Events are handed to the control hub and never block. A full queue
// answers 503.
package server
