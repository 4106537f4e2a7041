package source

import (
	"strconv"

	"github.com/minio/highwayhash"
)

// fingerprintKey is the 32 byte highwayhash key of function fingerprints
var fingerprintKey = []byte("faultline/source/fingerprint/v01")

// Fingerprint hashes function identity, position, receiver type declaration and declaration text.
// Map lines are absolute, so a body moved within its file gets a distinct fingerprint.
func Fingerprint(fn *Function) (uint64, error) {
	hash, err := highwayhash.New64(fingerprintKey)
	if err != nil {
		return 0, err
	}
	for _, part := range []string{fn.ID.String(), strconv.Itoa(fn.Start), fn.Owner, fn.Text} {
		if _, err = hash.Write([]byte(part)); err != nil {
			return 0, err
		}
		if _, err = hash.Write([]byte{0}); err != nil {
			return 0, err
		}
	}
	return hash.Sum64(), nil
}
