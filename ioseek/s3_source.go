package ioseek

import (
	"context"

	"github.com/grailbio/base/file"
)

// s3Source wraps grailbio/base/file's S3 backend (itself backed by
// aws/aws-sdk-go) behind the Source interface, so that ioseek.Open can accept
// an "s3://bucket/key" URL exactly like a local path or an http:// URL.
type s3Source struct {
	ctx context.Context
	f   file.File
	r   file.Reader
}

func newS3Source(path string) (Source, error) {
	ctx := context.Background()
	f, err := file.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	return &s3Source{ctx: ctx, f: f, r: f.Reader(ctx)}, nil
}

func (s *s3Source) Read(p []byte) (int, error) { return s.r.Read(p) }

func (s *s3Source) Seek(offset int64, whence int) (int64, error) {
	return s.r.Seek(offset, whence)
}

func (s *s3Source) Close() error { return s.r.Close() }
