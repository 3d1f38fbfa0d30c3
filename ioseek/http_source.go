package ioseek

import (
	"fmt"
	"io"
	"net/http"

	"github.com/pkg/errors"
)

// httpSource is a Source over an HTTP server that supports byte-range
// requests (RFC 7233). It maintains a small read-ahead page so that the
// many scattered small reads the BBI reader issues don't each cost a round
// trip.
type httpSource struct {
	url    string
	client *http.Client

	size int64 // -1 if unknown

	pos int64 // current logical read/seek position

	page    []byte
	pageOff int64 // absolute offset of page[0]; -1 if page is empty
}

func newHTTPSource(url string) (Source, error) {
	s := &httpSource{
		url:     url,
		client:  http.DefaultClient,
		size:    -1,
		pageOff: -1,
	}
	if err := s.probeSize(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *httpSource) probeSize() error {
	req, err := http.NewRequest(http.MethodHead, s.url, nil)
	if err != nil {
		return err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return errors.Wrapf(err, "ioseek: HEAD %s", s.url)
	}
	defer resp.Body.Close()
	if resp.ContentLength > 0 {
		s.size = resp.ContentLength
	}
	return nil
}

func (s *httpSource) Read(p []byte) (int, error) {
	if s.size >= 0 && s.pos >= s.size {
		return 0, io.EOF
	}
	n, err := s.readAt(s.pos, p)
	s.pos += int64(n)
	return n, err
}

// readAt serves p from the page cache, refetching a fresh page via a Range
// request when p's start offset falls outside the cached page.
func (s *httpSource) readAt(off int64, p []byte) (int, error) {
	if s.pageOff < 0 || off < s.pageOff || off >= s.pageOff+int64(len(s.page)) {
		if err := s.fetchPage(off); err != nil {
			return 0, err
		}
	}
	avail := s.page[off-s.pageOff:]
	n := copy(p, avail)
	return n, nil
}

func (s *httpSource) fetchPage(off int64) error {
	n := int64(pageSize)
	end := off + n - 1
	req, err := http.NewRequest(http.MethodGet, s.url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", off, end))
	resp, err := s.client.Do(req)
	if err != nil {
		return errors.Wrapf(err, "ioseek: GET %s range %d-%d", s.url, off, end)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusPartialContent && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ioseek: unexpected status %s fetching %s", resp.Status, s.url)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrapf(err, "ioseek: reading range body from %s", s.url)
	}
	s.page = body
	s.pageOff = off
	return nil
}

func (s *httpSource) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = s.pos + offset
	case io.SeekEnd:
		if s.size < 0 {
			return 0, fmt.Errorf("ioseek: SeekEnd unsupported, unknown content length for %s", s.url)
		}
		abs = s.size + offset
	default:
		return 0, fmt.Errorf("ioseek: invalid whence %d", whence)
	}
	if abs < 0 || (s.size >= 0 && abs > s.size) {
		return 0, ErrSeekPastEnd
	}
	s.pos = abs
	return abs, nil
}

func (s *httpSource) Close() error { return nil }
