// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package gpu implements the device-side pipeline of the visualizer: the
// generation-stepping compute kernel, the tile computer, the LRU tile cache,
// the viewport assembler, and the storage-buffer renderer.
//
// Everything here runs on one control goroutine. Heavy work is submitted to
// the GPU asynchronously; the control goroutine blocks on a fence after each
// batch of generations, so a tile is fully valid before it enters the cache
// and no cross-goroutine locking is needed anywhere in the pipeline.
package gpu
