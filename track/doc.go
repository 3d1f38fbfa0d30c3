// Package track implements the in-memory chromosome→bin-vector track
// abstraction (spec §4.9): a fixed bin size per chromosome, NaN as the
// "no data" sentinel, and the mutable operations the coverage engine and
// BigWig writer build on (add_read family, map/window_map, smoothen,
// quantile normalization, control normalization).
package track
