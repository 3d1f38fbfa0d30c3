// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package genome defines the reference-genome and half-open-range types
// shared by the bam, bbi, bigwig, track and coverage packages.
package genome

import "fmt"

// Genome is an ordered mapping from chromosome name to length in bases.
// Chromosomes are referenced elsewhere by their zero-based index into this
// ordered list, never by name alone.
type Genome struct {
	names   []string
	lengths []int
	index   map[string]int
}

// New builds a Genome from parallel name/length slices. The order given is
// preserved as the chromosome index order.
func New(names []string, lengths []int) (Genome, error) {
	if len(names) != len(lengths) {
		return Genome{}, fmt.Errorf("genome: %d names but %d lengths", len(names), len(lengths))
	}
	index := make(map[string]int, len(names))
	for i, n := range names {
		if _, ok := index[n]; ok {
			return Genome{}, fmt.Errorf("genome: duplicate chromosome name %q", n)
		}
		index[n] = i
	}
	return Genome{
		names:   append([]string(nil), names...),
		lengths: append([]int(nil), lengths...),
		index:   index,
	}, nil
}

// NChromosomes returns the number of chromosomes.
func (g Genome) NChromosomes() int { return len(g.names) }

// Name returns the name of chromosome i.
func (g Genome) Name(i int) string { return g.names[i] }

// Length returns the length, in bases, of chromosome i.
func (g Genome) Length(i int) int { return g.lengths[i] }

// Names returns the chromosome names in index order. The caller must not
// modify the returned slice.
func (g Genome) Names() []string { return g.names }

// Lengths returns the chromosome lengths in index order. The caller must not
// modify the returned slice.
func (g Genome) Lengths() []int { return g.lengths }

// Index returns the zero-based chromosome index for name, or (-1, false) if
// name is not present in the genome.
func (g Genome) Index(name string) (int, bool) {
	i, ok := g.index[name]
	if !ok {
		return -1, false
	}
	return i, ok
}

// LengthOf is a convenience wrapper around Index+Length; it returns
// (0, false) for an unknown chromosome.
func (g Genome) LengthOf(name string) (int, bool) {
	i, ok := g.index[name]
	if !ok {
		return 0, false
	}
	return g.lengths[i], true
}

// Equal reports whether g and other describe the same set of (name, length)
// pairs, regardless of chromosome order.
func (g Genome) Equal(other Genome) bool {
	if len(g.names) != len(other.names) {
		return false
	}
	for i, n := range g.names {
		l2, ok := other.LengthOf(n)
		if !ok || l2 != g.lengths[i] {
			return false
		}
	}
	return true
}
