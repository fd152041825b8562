// Package decode parses raw telemetry lines into timestamped records.
//
// The wire format is an ASCII line of comma-separated key:value fields.
// Exactly one field must carry the key "Time"; its value is the line
// timestamp. Every other field is a candidate signal sample.
package decode

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"SerialScope/internal/domain/models"
)

// ErrMissingTimestamp is returned when a line carries no usable Time
// field. The line is dropped by the caller; the stream continues.
var ErrMissingTimestamp = errors.New("decode: line has no Time field")

// Decode parses one raw line. Pure function of its input.
//
// Field-level leniency, deliberately tolerant of noisy devices:
//   - a field without a ':' separator is silently skipped
//   - a non-Time value that fails float parsing becomes NaN rather
//     than discarding the whole line
//   - a Time value that fails float parsing counts as missing, since a
//     NaN entry in the shared time index would poison every later
//     window search
//
// Keys are trimmed of surrounding whitespace and matched
// case-sensitively. If the same key appears twice on one line, the
// last occurrence wins.
func Decode(line string) (models.Record, error) {
	var rec models.Record
	haveTime := false

	for _, field := range strings.Split(line, ",") {
		key, raw, ok := strings.Cut(field, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}

		if key == models.TimeKey {
			ts, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
			if err != nil {
				continue
			}
			rec.Timestamp = ts
			haveTime = true
			continue
		}

		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			v = math.NaN()
		}
		if i := sampleIndex(rec.Samples, key); i >= 0 {
			rec.Samples[i].Value = v
		} else {
			rec.Samples = append(rec.Samples, models.Sample{Name: key, Value: v})
		}
	}

	if !haveTime {
		return models.Record{}, ErrMissingTimestamp
	}
	return rec, nil
}

func sampleIndex(samples []models.Sample, name string) int {
	for i := range samples {
		if samples[i].Name == name {
			return i
		}
	}
	return -1
}
