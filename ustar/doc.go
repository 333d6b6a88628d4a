// Package ustar reads and writes the GNU flavour of the tar archive format
// ("ustar " magic with a trailing space).
//
// # Layout
//
// Every entry starts with a 512-byte header of NUL-terminated ASCII fields.
// Numeric fields (mode, uid, gid, size, mtime, checksum) are octal text.
// The payload follows the header and is padded with zeros up to the next
// 512-byte boundary of the archive stream. Two all-zero blocks end the
// archive.
//
// # Checksums
//
// The checksum is the unsigned sum of all 512 header bytes, computed with
// the checksum field itself filled with ASCII spaces, written as six octal
// digits, a NUL and a space.
//
// # Reading
//
// Iteration stops at the first block that is not a valid header. A zero
// block is a normal end; anything else is reported by [Reader.Err] after
// [Reader.Next] has returned io.EOF. Only regular files and directories are
// surfaced. The prefix field is not interpreted: GNU archives use that
// region for other data.
package ustar
