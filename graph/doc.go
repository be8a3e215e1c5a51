// SPDX-License-Identifier: EPL-2.0

// Package graph schedules a small signal graph one block at a time.
//
// Nodes are added once and wired with Connect. Rebuild walks the graph
// depth first in ascending node id, marks every edge that closes a loop as
// a feedback edge and orders the rest with Kahn's algorithm, taking the
// lowest ready id first so the order is reproducible.
//
// Each node reads the latest block of each upstream node. Across a feedback
// edge that block is the one from the previous call to Process, which is
// how a delay inside a loop works without the scheduler resolving the
// cycle.
//
// Rebuild allocates; Process does not.
package graph
