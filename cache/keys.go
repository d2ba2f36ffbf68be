package cache

import (
	"crypto/md5" //nolint:gosec // fingerprint for cache lookup, not a security boundary
	"encoding/hex"
	"strconv"
	"strings"
)

// Key namespaces
const (
	NamespaceMood       = "mood_analysis"
	NamespacePrediction = "pass_prediction"
)

// Fingerprint derives a stable key from payload: the namespace, a colon and
// the hex MD5 digest of the payload bytes.
func Fingerprint(namespace string, payload []byte) string {
	sum := md5.Sum(payload) //nolint:gosec // see import
	return namespace + ":" + hex.EncodeToString(sum[:])
}

// TextKey fingerprints a text payload byte for byte, so case and whitespace
// differences produce different keys.
func TextKey(text string) string {
	return Fingerprint(NamespaceMood, []byte(text))
}

// PredictionFields are the numeric inputs of a pass prediction, in the
// canonical order used for fingerprinting.
type PredictionFields struct {
	StudyHours             float64
	SleepHours             float64
	Attendance             float64
	ClassAvgScore          float64
	StudentTestScore       float64
	StudentAssignmentScore float64
	NumFailedBefore        float64
	ParticipationScore     float64
}

// ordered returns the fields in fingerprint order. The order is part of the
// key format and must not change.
func (f PredictionFields) ordered() [8]float64 {
	return [8]float64{
		f.StudyHours,
		f.SleepHours,
		f.Attendance,
		f.ClassAvgScore,
		f.StudentTestScore,
		f.StudentAssignmentScore,
		f.NumFailedBefore,
		f.ParticipationScore,
	}
}

// PredictionKey fingerprints the prediction inputs joined by '-' in
// canonical field order.
func PredictionKey(f PredictionFields) string {
	values := f.ordered()
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return Fingerprint(NamespacePrediction, []byte(strings.Join(parts, "-")))
}
