/*
Package fingerprint maps raw frame bytes to a fixed width content hash.

The digest is MD5 so that fingerprints computed here compare bit-for-bit with
fingerprints computed by any other producer on the relay.
*/
package fingerprint

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
)

// Size is the number of bytes in a Fingerprint.
const Size = md5.Size

// Fingerprint is the content hash of a frame.
type Fingerprint [Size]byte

// Compute returns the fingerprint of b. Any input, including empty, is valid.
func Compute(b []byte) Fingerprint {
	return Fingerprint(md5.Sum(b))
}

// FromBytes reinterprets a 16 byte slice as a fingerprint.
func FromBytes(b []byte) (Fingerprint, error) {
	var fp Fingerprint
	if len(b) != Size {
		return fp, fmt.Errorf("fingerprint must be %d bytes, got %d", Size, len(b))
	}
	copy(fp[:], b)
	return fp, nil
}

// Parse decodes a lowercase or uppercase hex fingerprint.
func Parse(s string) (Fingerprint, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return Fingerprint{}, fmt.Errorf("fingerprint %q is not hex: %w", s, err)
	}
	return FromBytes(raw)
}

// String renders the fingerprint as lowercase hex.
func (fp Fingerprint) String() string {
	return hex.EncodeToString(fp[:])
}
