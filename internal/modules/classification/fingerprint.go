package classification

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/aristath/meterwatch/internal/domain"
	"github.com/vmihailenco/msgpack/v5"
)

// fingerprintVersion changes whenever the classifier's thresholds change, so
// cached verdicts of an older classifier are never served
const fingerprintVersion = 2

// fingerprintRecord holds the inputs the classifier reads from a record.
// Derived statistics are excluded: they are recomputed on every call.
type fingerprintRecord struct {
	Year         int      `msgpack:"y"`
	Month        int      `msgpack:"m"`
	Period       string   `msgpack:"p"`
	ActiveEnergy float64  `msgpack:"e"`
	BilledDays   int      `msgpack:"d"`
	AveragePower *float64 `msgpack:"w"`
	Variation    *float64 `msgpack:"v"`
	IsAnomalous  bool     `msgpack:"a"`
}

type fingerprintPayload struct {
	Version int                 `msgpack:"version"`
	Records []fingerprintRecord `msgpack:"records"`
}

// Fingerprint returns a stable hex digest of the classifier inputs of series
func Fingerprint(series domain.Series) (string, error) {
	payload := fingerprintPayload{
		Version: fingerprintVersion,
		Records: make([]fingerprintRecord, len(series)),
	}
	for i, r := range series {
		payload.Records[i] = fingerprintRecord{
			Year:         r.Year,
			Month:        r.Month,
			Period:       r.Period,
			ActiveEnergy: r.ActiveEnergy,
			BilledDays:   r.BilledDays,
			AveragePower: r.AveragePower.Ptr(),
			Variation:    r.VariationPercent.Ptr(),
			IsAnomalous:  r.IsAnomalous,
		}
	}

	encoded, err := msgpack.Marshal(&payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode series: %w", err)
	}

	sum := sha256.Sum256(encoded)
	return hex.EncodeToString(sum[:]), nil
}
