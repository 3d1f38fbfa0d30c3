package ioseek

import "os"

type fileSource struct {
	f *os.File
}

func newFileSource(path string) (Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &fileSource{f: f}, nil
}

func (s *fileSource) Read(p []byte) (int, error) { return s.f.Read(p) }

func (s *fileSource) Seek(offset int64, whence int) (int64, error) {
	return s.f.Seek(offset, whence)
}

func (s *fileSource) Close() error { return s.f.Close() }
