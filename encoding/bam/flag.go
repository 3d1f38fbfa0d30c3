package bam

// Flag is the BAM record FLAG field: a bitmask of alignment properties.
type Flag uint16

const (
	FlagPaired        Flag = 1 << 0
	FlagProperPair    Flag = 1 << 1
	FlagUnmapped      Flag = 1 << 2
	FlagMateUnmapped  Flag = 1 << 3
	FlagReverse       Flag = 1 << 4
	FlagMateReverse   Flag = 1 << 5
	FlagRead1         Flag = 1 << 6
	FlagRead2         Flag = 1 << 7
	FlagSecondary     Flag = 1 << 8
	FlagQCFail        Flag = 1 << 9
	FlagDuplicate     Flag = 1 << 10
	FlagSupplementary Flag = 1 << 11
)

func (f Flag) Paired() bool        { return f&FlagPaired != 0 }
func (f Flag) ProperPair() bool    { return f&FlagProperPair != 0 }
func (f Flag) Unmapped() bool      { return f&FlagUnmapped != 0 }
func (f Flag) MateUnmapped() bool  { return f&FlagMateUnmapped != 0 }
func (f Flag) Reverse() bool       { return f&FlagReverse != 0 }
func (f Flag) MateReverse() bool   { return f&FlagMateReverse != 0 }
func (f Flag) Read1() bool         { return f&FlagRead1 != 0 }
func (f Flag) Read2() bool         { return f&FlagRead2 != 0 }
func (f Flag) Secondary() bool     { return f&FlagSecondary != 0 }
func (f Flag) QCFail() bool        { return f&FlagQCFail != 0 }
func (f Flag) Duplicate() bool     { return f&FlagDuplicate != 0 }
func (f Flag) Supplementary() bool { return f&FlagSupplementary != 0 }

// HasNoMappedMate reports whether the record is unpaired, or paired with an
// unmapped mate.
func (f Flag) HasNoMappedMate() bool {
	return !f.Paired() || f.MateUnmapped()
}

// Strand returns '+' or '-' according to the Reverse flag. Callers that
// need '*' for unmapped/unknown strand should check Unmapped() first.
func (f Flag) Strand() byte {
	if f.Reverse() {
		return '-'
	}
	return '+'
}
