package billing

import (
	"errors"
	"testing"
	"time"
)

func TestResolvePeriod_MonthTokenCoversFullMonth(t *testing.T) {
	now := time.Date(2024, time.May, 15, 10, 30, 0, 0, time.UTC)

	period, err := ResolvePeriod(PeriodInput{Month: "2024-02"}, now)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if period.Month != "2024-02" {
		t.Fatalf("month token = %q", period.Month)
	}
	wantStart := time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)
	wantEnd := time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC)
	if !period.Start.Equal(wantStart) || !period.End.Equal(wantEnd) {
		t.Fatalf("leap February window = %v..%v", period.Start, period.End)
	}
}

func TestResolvePeriod_ExplicitPairKeptAsGiven(t *testing.T) {
	now := time.Date(2024, time.May, 15, 0, 0, 0, 0, time.UTC)
	day := time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC)

	period, err := ResolvePeriod(PeriodInput{From: day, To: day}, now)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !period.Start.Equal(day) || !period.End.Equal(day) {
		t.Fatalf("single-day window = %v..%v", period.Start, period.End)
	}
	if period.Month != "2024-03" {
		t.Fatalf("token should come from the start date, got %q", period.Month)
	}
}

func TestResolvePeriod_PartialPairRejected(t *testing.T) {
	now := time.Date(2024, time.May, 15, 0, 0, 0, 0, time.UTC)

	_, err := ResolvePeriod(PeriodInput{From: now}, now)
	if !errors.Is(err, ErrInvalidPeriod) {
		t.Fatalf("expected ErrInvalidPeriod for missing end, got %v", err)
	}
	_, err = ResolvePeriod(PeriodInput{To: now}, now)
	if !errors.Is(err, ErrInvalidPeriod) {
		t.Fatalf("expected ErrInvalidPeriod for missing start, got %v", err)
	}
}

func TestResolvePeriod_MalformedMonthRejected(t *testing.T) {
	now := time.Date(2024, time.May, 15, 0, 0, 0, 0, time.UTC)
	for _, month := range []string{"2024", "2024-13", "Feb-2024"} {
		if _, err := ResolvePeriod(PeriodInput{Month: month}, now); !errors.Is(err, ErrInvalidPeriod) {
			t.Fatalf("month %q: expected ErrInvalidPeriod, got %v", month, err)
		}
	}
}

func TestResolvePeriod_DefaultsToCurrentMonth(t *testing.T) {
	now := time.Date(2024, time.May, 15, 18, 0, 0, 0, time.UTC)

	period, err := ResolvePeriod(PeriodInput{}, now)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if period.Month != "2024-05" {
		t.Fatalf("default month = %q", period.Month)
	}
	wantStart := time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC)
	wantEnd := time.Date(2024, time.May, 31, 0, 0, 0, 0, time.UTC)
	if !period.Start.Equal(wantStart) || !period.End.Equal(wantEnd) {
		t.Fatalf("default window = %v..%v", period.Start, period.End)
	}
}

func TestResolvePeriod_EndBeforeStartRejected(t *testing.T) {
	now := time.Date(2024, time.May, 15, 0, 0, 0, 0, time.UTC)
	from := time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)

	if _, err := ResolvePeriod(PeriodInput{From: from, To: to}, now); !errors.Is(err, ErrInvalidPeriod) {
		t.Fatalf("expected ErrInvalidPeriod for inverted range, got %v", err)
	}
}
