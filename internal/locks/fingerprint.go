package locks

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

// Fingerprint derives the deterministic lock key for one slot. Two requests
// for the exact same sub-court/date/interval always map to the same key;
// overlapping-but-not-identical intervals map to different keys and are
// protected by the transactional overlap check at booking insert instead.
func Fingerprint(subCourtID uuid.UUID, date string, startTime, endTime string) string {
	raw := fmt.Sprintf("%s|%s|%s|%s", subCourtID.String(), date, startTime, endTime)
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
