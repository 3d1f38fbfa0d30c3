package coverage

import (
	"context"
	"io"

	"github.com/grailbio/bio-bigwig/encoding/bam"
	"github.com/grailbio/bio-bigwig/encoding/bampair"
	"github.com/grailbio/bio-bigwig/encoding/bgzf"
	"github.com/grailbio/bio-bigwig/genome"
	"github.com/grailbio/bio-bigwig/ioseek"
	"github.com/grailbio/bio-bigwig/track"
	"github.com/pkg/errors"
)

// BamCoverage opens treatments and controls (BAM file paths, each resolved
// through ioseek.Open so local, http(s), and s3 sources all work), computes
// their coverage per opts, and returns the resulting track (spec §4.10, §6).
// The treatment and control fragment-length estimates are returned only
// alongside an error, taken from the CoverageError; on success both estimate
// slices are nil. ctx is accepted for
// symmetry with the module's other entry points; none of the underlying
// opens are currently cancellable.
func BamCoverage(ctx context.Context, treatments, controls []string, opts Options) (*track.Track, []FraglenEstimate, []FraglenEstimate, error) {
	treatmentStreams, treatmentClosers, g, err := openBamFiles(treatments, genome.Genome{})
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, "coverage: opening treatment files")
	}
	defer closeAll(treatmentClosers)

	var controlStreams []StreamOpener
	var controlClosers []io.Closer
	if len(controls) > 0 {
		controlStreams, controlClosers, g, err = openBamFiles(controls, g)
		if err != nil {
			return nil, nil, nil, errors.Wrap(err, "coverage: opening control files")
		}
		defer closeAll(controlClosers)
	}

	t, cerr := assembleCoverage(treatmentStreams, controlStreams, g, opts)
	if cerr != nil {
		return nil, cerr.TreatmentFraglens, cerr.ControlFraglens, cerr.Err
	}
	return &t, nil, nil, nil
}

// openBamFiles opens every path in paths as a BAM stream. g, if non-zero
// (NChromosomes() > 0), is the genome every file is checked against;
// otherwise the first file's reference dictionary is adopted.
func openBamFiles(paths []string, g genome.Genome) ([]StreamOpener, []io.Closer, genome.Genome, error) {
	streams := make([]StreamOpener, 0, len(paths))
	closers := make([]io.Closer, 0, len(paths))
	for _, path := range paths {
		src, err := ioseek.Open(path)
		if err != nil {
			closeAll(closers)
			return nil, nil, genome.Genome{}, errors.Wrapf(err, "opening %q", path)
		}
		closers = append(closers, src)

		reader, err := bam.NewReader(bgzf.NewReader(src), bam.DefaultReaderOptions())
		if err != nil {
			closeAll(closers)
			return nil, nil, genome.Genome{}, errors.Wrapf(err, "reading BAM header of %q", path)
		}

		if g.NChromosomes() == 0 {
			g = reader.Genome()
		} else if !g.Equal(reader.Genome()) {
			closeAll(closers)
			return nil, nil, genome.Genome{}, errors.Errorf("coverage: %q has a different reference genome than the preceding files", path)
		}

		streams = append(streams, bampair.NewStream(reader))
	}
	return streams, closers, g, nil
}

func closeAll(closers []io.Closer) {
	for _, c := range closers {
		c.Close()
	}
}
