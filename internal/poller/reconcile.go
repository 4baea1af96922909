package poller

import (
	"math"
	"strconv"
	"time"

	"evlogger/internal/models"
)

// monthKeys enumerates every yyyymm month spanning the oldest to newest
// date in the daily stats feed, inclusive. Stepping one day at a time
// guarantees partial months at either end are not skipped.
func monthKeys(stats []models.DailyDrivingStat) []string {
	if len(stats) == 0 {
		return nil
	}

	oldest := stats[0].Date
	newest := stats[0].Date
	for _, stat := range stats[1:] {
		if stat.Date.Before(oldest) {
			oldest = stat.Date
		}
		if stat.Date.After(newest) {
			newest = stat.Date
		}
	}

	var keys []string
	seen := make(map[string]bool)
	for d := oldest; !d.After(newest); d = d.AddDate(0, 0, 1) {
		key := d.Format("200601")
		if !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
	}
	return keys
}

// newDailyStats filters the fetched daily aggregates down to the days that
// must be persisted: never today (still mutable upstream), never a date
// already saved. Energy arrives in Wh and is stored in kWh.
func newDailyStats(fetched []models.DailyDrivingStat, saved map[string]bool, today time.Time) []*models.DailyStat {
	currentDate := today.Format("2006-01-02")

	var out []*models.DailyStat
	for _, day := range fetched {
		dateStr := day.Date.Format("2006-01-02")
		if dateStr == currentDate {
			continue
		}
		if saved[dateStr] {
			continue
		}

		var avg, avgNet float64
		if day.DistanceKm > 0 {
			avg = day.TotalConsumedWh / (100 / day.DistanceKm)
			avgNet = (day.TotalConsumedWh - day.RegeneratedWh) / (100 / day.DistanceKm)
		}

		out = append(out, &models.DailyStat{
			Date:          dateStr,
			UnixTimestamp: day.Date.Unix(),
			TotalKWh:      roundKWh(day.TotalConsumedWh),
			EngineKWh:     roundKWh(day.EngineWh),
			ClimateKWh:    roundKWh(day.ClimateWh),
			ElectronicsKW: roundKWh(day.ElectronicsWh),
			BatteryCareKW: roundKWh(day.BatteryCareWh),
			RegenKWh:      roundKWh(day.RegeneratedWh),
			DistanceKm:    day.DistanceKm,
			AvgKWh:        roundKWh(avg),
			AvgNetKWh:     roundKWh(avgNet),
		})
	}
	return out
}

// tripRows converts one day's trip feed into persistable rows, oldest
// first. The vendor presents trips newest first, so the slice is walked in
// reverse. Each trip's identity is the day's reference date plus its HHMMSS
// offset.
func tripRows(dayDate time.Time, trips []models.TripDetail) []*models.Trip {
	var out []*models.Trip
	for i := len(trips) - 1; i >= 0; i-- {
		trip := trips[i]
		offset, ok := parseHHMMSS(trip.HHMMSS)
		if !ok {
			continue
		}
		out = append(out, &models.Trip{
			Timestamp:    dayDate.Add(offset),
			DriveMinutes: trip.DriveMinutes,
			IdleMinutes:  trip.IdleMinutes,
			DistanceKm:   trip.DistanceKm,
			AvgSpeedKmh:  trip.AvgSpeedKmh,
			MaxSpeedKmh:  trip.MaxSpeedKmh,
		})
	}
	return out
}

func parseHHMMSS(value string) (time.Duration, bool) {
	if len(value) != 6 {
		return 0, false
	}
	hours, err := strconv.Atoi(value[:2])
	if err != nil {
		return 0, false
	}
	minutes, err := strconv.Atoi(value[2:4])
	if err != nil {
		return 0, false
	}
	seconds, err := strconv.Atoi(value[4:])
	if err != nil {
		return 0, false
	}
	return time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second, true
}

func roundKWh(wh float64) float64 {
	return math.Round(wh/1000*10) / 10
}
