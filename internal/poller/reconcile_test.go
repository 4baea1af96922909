package poller

import (
	"testing"
	"time"

	"evlogger/internal/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestMonthKeysSpansMonths(t *testing.T) {
	stats := []models.DailyDrivingStat{
		{Date: day(2024, time.February, 2)},
		{Date: day(2024, time.January, 30)},
	}
	keys := monthKeys(stats)
	if len(keys) != 2 {
		t.Fatalf("expected 2 month keys, got %v", keys)
	}
	if keys[0] != "202401" || keys[1] != "202402" {
		t.Fatalf("expected [202401 202402], got %v", keys)
	}
}

func TestMonthKeysNoDuplicates(t *testing.T) {
	stats := []models.DailyDrivingStat{
		{Date: day(2024, time.March, 1)},
		{Date: day(2024, time.March, 15)},
		{Date: day(2024, time.March, 31)},
	}
	keys := monthKeys(stats)
	if len(keys) != 1 || keys[0] != "202403" {
		t.Fatalf("expected [202403], got %v", keys)
	}
}

func TestMonthKeysYearBoundary(t *testing.T) {
	stats := []models.DailyDrivingStat{
		{Date: day(2023, time.December, 28)},
		{Date: day(2024, time.January, 3)},
	}
	keys := monthKeys(stats)
	if len(keys) != 2 || keys[0] != "202312" || keys[1] != "202401" {
		t.Fatalf("expected [202312 202401], got %v", keys)
	}
}

func TestMonthKeysEmpty(t *testing.T) {
	if keys := monthKeys(nil); keys != nil {
		t.Fatalf("expected nil for empty stats, got %v", keys)
	}
}

func TestNewDailyStatsSkipsTodayAndSaved(t *testing.T) {
	today := day(2024, time.May, 10)
	fetched := []models.DailyDrivingStat{
		{Date: day(2024, time.May, 8), TotalConsumedWh: 12000, DistanceKm: 50},
		{Date: day(2024, time.May, 9), TotalConsumedWh: 8000, DistanceKm: 30},
		{Date: day(2024, time.May, 10), TotalConsumedWh: 1000, DistanceKm: 5},
	}
	saved := map[string]bool{"2024-05-08": true}

	out := newDailyStats(fetched, saved, today)
	if len(out) != 1 {
		t.Fatalf("expected 1 new day, got %d", len(out))
	}
	if out[0].Date != "2024-05-09" {
		t.Fatalf("expected 2024-05-09, got %s", out[0].Date)
	}
}

func TestNewDailyStatsAverages(t *testing.T) {
	today := day(2024, time.May, 10)
	fetched := []models.DailyDrivingStat{
		{
			Date:            day(2024, time.May, 9),
			TotalConsumedWh: 10000,
			RegeneratedWh:   2000,
			DistanceKm:      50,
		},
	}

	out := newDailyStats(fetched, nil, today)
	if len(out) != 1 {
		t.Fatalf("expected 1 day, got %d", len(out))
	}
	// 10000 / (100/50) = 5000 Wh per 100 km -> 5.0 kWh
	if out[0].AvgKWh != 5.0 {
		t.Fatalf("expected avg 5.0, got %v", out[0].AvgKWh)
	}
	// (10000-2000) / 2 = 4000 Wh -> 4.0 kWh
	if out[0].AvgNetKWh != 4.0 {
		t.Fatalf("expected net avg 4.0, got %v", out[0].AvgNetKWh)
	}
	if out[0].TotalKWh != 10.0 {
		t.Fatalf("expected total 10.0 kWh, got %v", out[0].TotalKWh)
	}
}

func TestNewDailyStatsZeroDistance(t *testing.T) {
	today := day(2024, time.May, 10)
	fetched := []models.DailyDrivingStat{
		{Date: day(2024, time.May, 9), TotalConsumedWh: 3000, DistanceKm: 0},
	}

	out := newDailyStats(fetched, nil, today)
	if len(out) != 1 {
		t.Fatalf("expected 1 day, got %d", len(out))
	}
	if out[0].AvgKWh != 0 || out[0].AvgNetKWh != 0 {
		t.Fatalf("expected zero averages for zero distance, got %v / %v", out[0].AvgKWh, out[0].AvgNetKWh)
	}
}

func TestTripRowsReversedAndTimestamped(t *testing.T) {
	dayDate := day(2024, time.May, 9)
	trips := []models.TripDetail{
		{HHMMSS: "181530", DistanceKm: 12}, // newest first, as the vendor sends them
		{HHMMSS: "073000", DistanceKm: 4},
	}

	rows := tripRows(dayDate, trips)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if !rows[0].Timestamp.Before(rows[1].Timestamp) {
		t.Fatalf("expected oldest trip first, got %s then %s", rows[0].Timestamp, rows[1].Timestamp)
	}

	expected := dayDate.Add(7*time.Hour + 30*time.Minute)
	if !rows[0].Timestamp.Equal(expected) {
		t.Fatalf("expected %s, got %s", expected, rows[0].Timestamp)
	}
}

func TestTripRowsSkipsMalformedOffset(t *testing.T) {
	rows := tripRows(day(2024, time.May, 9), []models.TripDetail{
		{HHMMSS: "12345"},
		{HHMMSS: "ab12cd"},
		{HHMMSS: "120000", DistanceKm: 8},
	})
	if len(rows) != 1 {
		t.Fatalf("expected only the well-formed trip, got %d rows", len(rows))
	}
	if rows[0].DistanceKm != 8 {
		t.Fatalf("unexpected trip row: %+v", rows[0])
	}
}
