// Package bigwig implements the BigWig reader and writer (spec §4.7,
// §4.8) on top of the generic BBI container in encoding/bbi.
package bigwig
