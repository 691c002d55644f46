package utils

import (
	"sync"
	"time"
	_ "time/tzdata"
)

const (
	LondonLocation = "Europe/London"
	DateMinuteFmt  = "2006-01-02 15:04"
)

// GetLondonTimeLocation falls back to UTC only if the embedded zone database
// cannot resolve Europe/London.
var GetLondonTimeLocation = sync.OnceValue(func() *time.Location {
	loc, err := time.LoadLocation(LondonLocation)
	if err != nil {
		return time.UTC
	}
	return loc
})

func TimeNowUTC() time.Time {
	return time.Now().UTC()
}

// UKTime formats t as wall clock time in London, e.g. "2025-03-04 14:30".
func UKTime(t time.Time) string {
	return t.In(GetLondonTimeLocation()).Format(DateMinuteFmt)
}

// UTCTime formats t as "2025-03-04 13:30 UTC".
func UTCTime(t time.Time) string {
	return t.UTC().Format(DateMinuteFmt) + " UTC"
}

// MapPeriodeStringToUnix converts a range such as "2m" into a unix window ending at now.
func MapPeriodeStringToUnix(periode string, now time.Time) (int64, int64) {
	switch periode {
	case "1d":
		return now.AddDate(0, 0, -1).Unix(), now.Unix()
	case "1w":
		return now.AddDate(0, 0, -7).Unix(), now.Unix()
	case "14d":
		return now.AddDate(0, 0, -14).Unix(), now.Unix()
	case "1m":
		return now.AddDate(0, 0, -30).Unix(), now.Unix()
	case "50d":
		return now.AddDate(0, 0, -50).Unix(), now.Unix()
	case "2m":
		return now.AddDate(0, 0, -60).Unix(), now.Unix()
	case "3m":
		return now.AddDate(0, 0, -90).Unix(), now.Unix()
	case "4m":
		return now.AddDate(0, 0, -120).Unix(), now.Unix()
	case "6m":
		return now.AddDate(0, 0, -180).Unix(), now.Unix()
	case "1y":
		return now.AddDate(0, 0, -365).Unix(), now.Unix()
	default:
		return 0, 0
	}
}
