// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package ioseek provides the abstract seekable byte source that the BGZF
// and BBI readers are built on: something offering Read and Seek over a
// local file, an HTTP server that understands byte-range requests, or an S3
// object. Both BGZF and BBI do many small random reads, so the HTTP variant
// keeps a small read-ahead page cache to avoid a round trip per read.
package ioseek

import (
	"io"

	"github.com/grailbio/base/errors"
)

// Source is the minimal interface the BGZF and BBI readers require of their
// underlying byte store.
type Source interface {
	io.Reader
	io.Seeker
	io.Closer
}

// pageSize is the size of the HTTP read-ahead buffer. It is deliberately
// small: BBI readers issue many scattered small reads (R-tree nodes, data
// block headers) rather than long sequential scans.
const pageSize = 8 * 1024

// Open resolves path to a Source. "http://" and "https://" URLs use
// byte-range requests; "s3://" URLs are delegated to grailbio/base/file;
// anything else is treated as a local filesystem path.
func Open(path string) (Source, error) {
	switch {
	case hasScheme(path, "http://"), hasScheme(path, "https://"):
		return newHTTPSource(path)
	case hasScheme(path, "s3://"):
		return newS3Source(path)
	default:
		return newFileSource(path)
	}
}

func hasScheme(path, scheme string) bool {
	return len(path) >= len(scheme) && path[:len(scheme)] == scheme
}

// ErrSeekPastEnd is returned by Seek when the requested offset is beyond the
// known length of the source.
var ErrSeekPastEnd = errors.E(errors.Invalid, "ioseek: seek past end of source")
