// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package bam decodes the BAM binary alignment record format: header,
// reference dictionary, and the fixed-layout alignment records (CIGAR,
// packed sequence, quality, typed auxiliary fields) that follow it. It
// reads from a plain byte stream, typically one produced by
// github.com/grailbio/bio-bigwig/encoding/bgzf.
package bam
