package objpool

import "github.com/cespare/xxhash/v2"

// pageChecksum hashes every block header in pg with xxhash, for the
// opt-in, diagnostic-only corruption evidence ValidatePages can surface
// alongside its pad-byte findings when Config.ChecksumPages is set. It
// never gates Free — the pad-byte check in §4.6/§4.7 remains the sole
// authority for E_CORRUPTED_BLOCK.
func pageChecksum(pg *page, l layout, objectsPerPage int) uint64 {
	d := xxhash.New()
	for i := 0; i < objectsPerPage; i++ {
		d.Write(pg.blockHeader(l, i))
	}
	return d.Sum64()
}
