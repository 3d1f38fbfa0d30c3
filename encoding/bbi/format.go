package bbi

import "encoding/binary"

// Magic numbers for the three BBI on-disk structures this package decodes.
const (
	BigWigMagic  uint32 = 0x888FFC26
	CirTreeMagic uint32 = 0x78CA8C91
	IdxMagic     uint32 = 0x2468ACE0
)

// Data block kinds (spec §4.6).
const (
	TypeBedGraph byte = 1
	TypeVariable byte = 2
	TypeFixed    byte = 3
)

// MaxZoomLevels bounds the reduction-level ladder a writer will build.
const MaxZoomLevels = 10

var le = binary.LittleEndian
