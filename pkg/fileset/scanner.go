// Package fileset walks a directory of numbered Bitcoin Core block
// files (blk00000.dat, blk00001.dat, ...) and feeds each file's bytes to
// the block decoder in turn, stopping at the first missing number. A
// block must lie wholly within one file.
package fileset

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"btcspv/pkg/block"
)

// filename is Bitcoin Core's numbered blk-file naming: "blk" + 5-digit
// zero-padded index + ".dat".
func filename(n int) string {
	return fmt.Sprintf("blk%05d.dat", n)
}

// Scan walks dir for blk00000.dat, blk00001.dat, ... in order, decoding
// every block it finds into idx and appending each header to headerOut.
// It stops cleanly at the first missing numbered file — that is normal
// termination, not an error. Returns the total number of files consumed.
func Scan(dir string, idx *block.Index, headerOut *bytes.Buffer) (int, error) {
	count := 0
	for n := 0; ; n++ {
		path := filepath.Join(dir, filename(n))
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return count, nil
			}
			return count, fmt.Errorf("fileset: reading %s: %w", path, err)
		}

		if _, err := block.DecodeStream(data, idx, headerOut); err != nil {
			return count, fmt.Errorf("fileset: decoding %s: %w", path, err)
		}
		count++
	}
}
