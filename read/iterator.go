package read

import "io"

// Iterator is a lazy, pull-based sequence of Reads. Next returns
// (Read{}, io.EOF) at a clean end of stream; any other error terminates the
// stream permanently, and every call thereafter returns the same error
// (spec §5).
type Iterator interface {
	Next() (Read, error)
}

// Func adapts a plain function to the Iterator interface.
type Func func() (Read, error)

// Next implements Iterator.
func (f Func) Next() (Read, error) { return f() }

// Collect drains it into a slice. It stops at the first error; io.EOF is
// not itself returned.
func Collect(it Iterator) ([]Read, error) {
	var out []Read
	for {
		r, err := it.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, r)
	}
}

// Filter is a stage that maps a Read to zero-or-one Reads: returning
// ok=false drops the input Read without error (spec §4.10's filter chain).
type Filter func(Read) (out Read, ok bool)

// Apply composes filters into a single Iterator over src, in the given
// order. Each input Read flows through every filter in sequence; the first
// filter to reject it stops the chain for that Read.
func Apply(src Iterator, filters ...Filter) Iterator {
	return Func(func() (Read, error) {
		for {
			r, err := src.Next()
			if err != nil {
				return Read{}, err
			}
			ok := true
			for _, f := range filters {
				r, ok = f(r)
				if !ok {
					break
				}
			}
			if ok {
				return r, nil
			}
		}
	})
}
