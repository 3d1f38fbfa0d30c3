package bam

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/grailbio/bio-bigwig/genome"
)

// Magic is the fixed 4-byte BAM file signature.
var Magic = [4]byte{'B', 'A', 'M', 1}

// Header is the parsed BAM header: the free-text SAM header and the
// reference (chromosome) dictionary, the latter exposed as a genome.Genome.
type Header struct {
	Text   string
	Genome genome.Genome
}

func readHeader(r io.Reader) (Header, error) {
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return Header{}, fmt.Errorf("bam: reading magic: %w", err)
	}
	if magic != Magic {
		return Header{}, fmt.Errorf("bam: bad magic %q, expected %q", magic, Magic)
	}

	lText, err := readInt32(r)
	if err != nil {
		return Header{}, fmt.Errorf("bam: reading l_text: %w", err)
	}
	if lText < 0 {
		return Header{}, fmt.Errorf("bam: negative l_text %d", lText)
	}
	text := make([]byte, lText)
	if _, err := io.ReadFull(r, text); err != nil {
		return Header{}, fmt.Errorf("bam: reading header text: %w", err)
	}

	nRef, err := readInt32(r)
	if err != nil {
		return Header{}, fmt.Errorf("bam: reading n_ref: %w", err)
	}
	if nRef < 0 {
		return Header{}, fmt.Errorf("bam: negative n_ref %d", nRef)
	}

	names := make([]string, 0, nRef)
	lengths := make([]int, 0, nRef)
	for i := int32(0); i < nRef; i++ {
		lName, err := readInt32(r)
		if err != nil {
			return Header{}, fmt.Errorf("bam: reading l_name[%d]: %w", i, err)
		}
		if lName < 1 {
			return Header{}, fmt.Errorf("bam: invalid l_name[%d]=%d", i, lName)
		}
		nameBuf := make([]byte, lName)
		if _, err := io.ReadFull(r, nameBuf); err != nil {
			return Header{}, fmt.Errorf("bam: reading name[%d]: %w", i, err)
		}
		// name is NUL-terminated; l_name counts the terminator.
		name := string(nameBuf[:lName-1])

		lRef, err := readInt32(r)
		if err != nil {
			return Header{}, fmt.Errorf("bam: reading l_ref[%d]: %w", i, err)
		}
		names = append(names, name)
		lengths = append(lengths, int(lRef))
	}

	g, err := genome.New(names, lengths)
	if err != nil {
		return Header{}, fmt.Errorf("bam: building genome: %w", err)
	}
	return Header{Text: string(text), Genome: g}, nil
}

func readInt32(r io.Reader) (int32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return int32(binary.LittleEndian.Uint32(buf[:])), nil
}

func readUint32(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}
