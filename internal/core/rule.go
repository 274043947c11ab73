// Package core holds the plain value types shared between the public cae
// surface and the GPU pipeline: rule arithmetic, initial-state seeding,
// tile geometry, blit planning, and the render-uniform mirror. Nothing in
// this package touches the GPU.
package core

// RuleNext returns the next state of a cell under a Wolfram rule, given the
// (left, center, right) neighborhood at the previous generation. Each input
// cell must be 0 or 1. Bit b of the rule is the output for the neighborhood
// encoding b = 4*left + 2*center + right.
//
// This is the CPU mirror of the expression in shaders/ca_step.wgsl.
func RuleNext(rule uint8, left, center, right uint32) uint32 {
	idx := 4*left + 2*center + right
	return (uint32(rule) >> idx) & 1
}
