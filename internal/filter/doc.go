// Package filter implements the stream compression filters applied to
// output archives.
//
// # Supported Filters
//
//   - gzip: RFC 1952 streams via [Gzip], written as .tgz archives
//   - zstd: Zstandard frames via [Zstd], written as .tar.zst archives
//
// Both are backed by github.com/klauspost/compress.
//
// # Detection
//
// [NewReader] sniffs the leading magic bytes of a stream and transparently
// decompresses it when a known filter matches. Unknown input is passed
// through unchanged, so plain .tar files can be read the same way:
//
//	r, err := filter.Open("volume_raw.tgz")
//	if err != nil {
//	    return err
//	}
//	defer r.Close()
//	entries, err := ustar.List(r)
package filter
