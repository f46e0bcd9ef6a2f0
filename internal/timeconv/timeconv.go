// Package timeconv converts the half-dozen timestamp encodings used across
// host artifacts into a single internal representation (Unix epoch seconds)
// and a single external representation (millisecond-precision ISO-8601 UTC),
// per spec §3/§4.3. The FILETIME conversion is grounded on the teacher's
// registry-hive FiletimeToTime helper; the rest are added for the other
// container formats that carry their own epoch.
package timeconv

import (
	"fmt"
	"time"
)

// UnixEpochSentinel is the canonical "unknown timestamp" value (spec §3).
const UnixEpochSentinel = "1970-01-01T00:00:00.000Z"

// windowsEpochDelta100ns is the number of 100ns FILETIME units between the
// Windows epoch (1601-01-01) and the Unix epoch (1970-01-01).
const windowsEpochDelta100ns = 116444736000000000

// FromFiletime converts a Windows FILETIME (100ns units since 1601-01-01) to
// Unix epoch seconds.
func FromFiletime(v uint64) int64 {
	if v <= windowsEpochDelta100ns {
		return 0
	}
	return int64((v - windowsEpochDelta100ns) / 10_000_000)
}

// oleAutomationEpoch is 1899-12-30, the OLE Automation date epoch.
var oleAutomationEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

// FromOLEAutomation converts an OLE Automation date (days since 1899-12-30,
// fractional part is time-of-day) to Unix epoch seconds.
func FromOLEAutomation(days float64) int64 {
	d := time.Duration(days * float64(24*time.Hour))
	return oleAutomationEpoch.Add(d).Unix()
}

// cocoaEpochDelta is the number of seconds between the Unix epoch and the
// Cocoa/Mach epoch (2001-01-01).
const cocoaEpochDelta = 978307200

// FromCocoa converts a Cocoa/Mach absolute time (seconds since 2001-01-01)
// to Unix epoch seconds.
func FromCocoa(seconds float64) int64 {
	return int64(seconds) + cocoaEpochDelta
}

// FromWebKit converts a WebKit/Chrome timestamp (microseconds since
// 1601-01-01) to Unix epoch seconds.
func FromWebKit(micros int64) int64 {
	// 1601-01-01 to 1970-01-01 is the same delta as FILETIME, expressed in
	// microseconds instead of 100ns units.
	const webkitEpochDeltaMicros = windowsEpochDelta100ns / 10
	if micros <= webkitEpochDeltaMicros {
		return 0
	}
	return (micros - webkitEpochDeltaMicros) / 1_000_000
}

// FromFAT converts a 32-bit MS-DOS/FAT timestamp, packed little-endian as
// (time:16 low word, date:16 high word) with a 1980 year base and 2-second
// time resolution, to Unix epoch seconds. Invalid dates return 0 (callers
// format that as the sentinel).
func FromFAT(v uint32) int64 {
	date := uint16(v)
	timePart := uint16(v >> 16)

	day := int(date & 0x1F)
	month := int((date >> 5) & 0x0F)
	year := int((date>>9)&0x7F) + 1980

	second := int(timePart&0x1F) * 2
	minute := int((timePart >> 5) & 0x3F)
	hour := int((timePart >> 11) & 0x1F)

	if month < 1 || month > 12 || day < 1 || day > 31 || hour > 23 || minute > 59 || second > 59 {
		return 0
	}
	t := time.Date(year, time.Month(month), day, hour, minute, second, 0, time.UTC)
	return t.Unix()
}

// hfsEpochDelta is the number of seconds between the Unix epoch and the HFS+
// epoch (1904-01-01).
const hfsEpochDelta = 2082844800

// FromHFS converts an HFS+ timestamp (seconds since 1904-01-01) to Unix
// epoch seconds.
func FromHFS(seconds uint32) int64 {
	v := int64(seconds) - hfsEpochDelta
	if v < 0 {
		return 0
	}
	return v
}

// ToISO8601Milli formats Unix epoch seconds as a millisecond-precision UTC
// ISO-8601 string. Fractional precision below whole seconds is always zero
// here; callers with sub-second precision should use ToISO8601MilliFrom.
func ToISO8601Milli(unixSec int64) string {
	if unixSec <= 0 {
		return UnixEpochSentinel
	}
	return time.Unix(unixSec, 0).UTC().Format("2006-01-02T15:04:05.000Z")
}

// ToISO8601MilliFrom formats a time.Time with millisecond precision, UTC,
// regardless of the time zone it carries.
func ToISO8601MilliFrom(t time.Time) string {
	if t.IsZero() || t.Unix() <= 0 {
		return UnixEpochSentinel
	}
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}

// ParseISO8601Milli parses the exact format emitted by ToISO8601Milli, for
// the round-trip property in spec §8.
func ParseISO8601Milli(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02T15:04:05.000Z", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("timeconv: %w", err)
	}
	return t, nil
}
