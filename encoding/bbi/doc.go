// Package bbi implements the on-disk primitives shared by the BBI family of
// binary indexed formats (BigWig, BigBed): the file header, the chromosome
// B+ tree, the spatial R-tree, and the zlib-compressed data block codecs.
//
// It knows nothing about genomic semantics beyond chromosome ids and base
// coordinates; encoding/bigwig layers a Genome and query API on top.
package bbi
