// Package hasher computes streamed content digests for duplicate
// detection. SHA-256 is the engine's strongest duplicate signal: two files
// with equal digests are byte-identical for all practical purposes.
package hasher

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
)

// ChunkSize is the read size used while streaming. Files are never loaded
// into memory whole.
const ChunkSize = 1024 * 1024 // 1 MiB

// File returns the SHA-256 hex digest of the file at path.
func File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	buf := make([]byte, ChunkSize)
	for {
		n, err := f.Read(buf)
		if n > 0 {
			h.Write(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// FileWithCap returns the digest of the file at path unless its size
// exceeds capBytes, in which case skipped is true and the file is not read
// at all. A capBytes of 0 means no cap. The size comes from a fresh stat;
// callers that already hold a size snapshot (the grouper caps on the
// scanned record size) check the cap themselves and call File directly.
func FileWithCap(path string, capBytes int64) (digest string, skipped bool, err error) {
	if capBytes > 0 {
		fi, err := os.Stat(path)
		if err != nil {
			return "", false, err
		}
		if fi.Size() > capBytes {
			return "", true, nil
		}
	}
	digest, err = File(path)
	return digest, false, err
}
