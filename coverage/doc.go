// Package coverage implements the BAM-to-track coverage engine (spec
// §4.10): a lazy filter chain over read.Iterator, fragment-length
// estimation by cross-correlation, and treatment/control coverage
// assembly with RPKM/CPM scaling and pseudocount normalization.
package coverage
