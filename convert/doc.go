// Package convert runs the full series-to-volume pipeline.
//
// [Run] takes the files of one series and, in order:
//
//  1. optionally passes every file through an external converter that
//     guarantees uncompressed explicit little-endian input,
//  2. decodes and normalizes each file, skipping the ones that fail,
//  3. sorts the slices by location, keeps every Nth one and writes the raw
//     volume plus its XML description,
//  4. derives the DDS texture and the tar archives (plain and compressed)
//     that the keep flags ask for,
//  5. removes every intermediate file that is not kept.
//
// Per-file problems never abort a run; they are collected as [FileError]
// values in the [Report]. A run fails only when no slice is usable or an
// output cannot be written.
package convert
