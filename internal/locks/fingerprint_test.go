package locks

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestFingerprint_Deterministic(t *testing.T) {
	subCourtID := uuid.New()

	a := Fingerprint(subCourtID, "2026-09-07", "18:00", "19:00")
	b := Fingerprint(subCourtID, "2026-09-07", "18:00", "19:00")

	assert.Equal(t, a, b)
	assert.Len(t, a, 64, "sha256 hex digest")
}

func TestFingerprint_DistinctPerField(t *testing.T) {
	subCourtID := uuid.New()
	base := Fingerprint(subCourtID, "2026-09-07", "18:00", "19:00")

	tests := []struct {
		name string
		got  string
	}{
		{"different sub-court", Fingerprint(uuid.New(), "2026-09-07", "18:00", "19:00")},
		{"different date", Fingerprint(subCourtID, "2026-09-08", "18:00", "19:00")},
		{"different start", Fingerprint(subCourtID, "2026-09-07", "17:00", "19:00")},
		{"different end", Fingerprint(subCourtID, "2026-09-07", "18:00", "20:00")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotEqual(t, base, tt.got)
		})
	}
}

func TestFingerprint_OverlappingIntervalsDiffer(t *testing.T) {
	// Overlapping-but-not-identical intervals intentionally map to different
	// keys; the insert-time overlap check covers them instead
	subCourtID := uuid.New()
	a := Fingerprint(subCourtID, "2026-09-07", "18:00", "20:00")
	b := Fingerprint(subCourtID, "2026-09-07", "19:00", "21:00")
	assert.NotEqual(t, a, b)
}
