package reservation

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// Base36 uppercase alphabet for the random suffix.
const reservationNumberChars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

const reservationNumberSuffixLen = 4

// MaxNumberAttempts bounds the regenerate-and-retry loop on a reservation
// number collision at insert time.
const MaxNumberAttempts = 3

// GenerateReservationNumber produces a human-readable reservation number of
// the form "VET-YYYYMMDD-XXXX" where XXXX is a random base36 uppercase suffix.
// The generator itself does not guarantee global uniqueness; the repository's
// unique constraint is the authority and a collision at insert time is a
// retryable condition.
func GenerateReservationNumber(now time.Time) (string, error) {
	suffix := make([]byte, reservationNumberSuffixLen)
	for i := range suffix {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(reservationNumberChars))))
		if err != nil {
			return "", fmt.Errorf("failed to generate reservation number: %w", err)
		}
		suffix[i] = reservationNumberChars[n.Int64()]
	}
	return fmt.Sprintf("VET-%s-%s", now.UTC().Format("20060102"), suffix), nil
}
