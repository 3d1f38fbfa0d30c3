// Package bampair buffers unpaired BAM mates by read name and emits ordered
// read.Read pairs as their second mate arrives (spec §4.4). It also adapts
// a raw bam.Reader into single-end and "simple" read.Iterator streams.
//
// The cache bampair keeps is unbounded: for a well-formed, name-sorted BAM
// every paired record eventually finds its mate, but callers must tolerate
// a residual cache at EOF for pathological inputs (widely separated mates
// never reunite, and are silently dropped rather than ever emitted).
package bampair
