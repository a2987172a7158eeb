package xls

import (
	"testing"
	"time"

	"github.com/mtakeda/olebiff/biff"
)

func TestSerialToTime1900(t *testing.T) {
	cases := []struct {
		serial float64
		want   time.Time
	}{
		{1, time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)},
		{59, time.Date(1900, 2, 28, 0, 0, 0, 0, time.UTC)},
		// Serial 61 is the first day after the phantom 1900-02-29.
		{61, time.Date(1900, 3, 1, 0, 0, 0, 0, time.UTC)},
		{25569, time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)},
		{25569.5, time.Date(1970, 1, 1, 12, 0, 0, 0, time.UTC)},
		{36526.25, time.Date(2000, 1, 1, 6, 0, 0, 0, time.UTC)},
	}
	for _, c := range cases {
		got, err := SerialToTime(c.serial, biff.DateSystem1900)
		if err != nil {
			t.Errorf("SerialToTime(%v) failed: %v", c.serial, err)
			continue
		}
		if !got.Equal(c.want) {
			t.Errorf("SerialToTime(%v) = %v, want %v", c.serial, got, c.want)
		}
	}
}

func TestSerialToTime1904(t *testing.T) {
	got, err := SerialToTime(0, biff.DateSystem1904)
	if err != nil {
		t.Fatalf("SerialToTime failed: %v", err)
	}
	if want := time.Date(1904, 1, 1, 0, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("serial 0 = %v, want %v", got, want)
	}

	// The same instant sits 1462 serials apart in the two systems.
	a, _ := SerialToTime(30000, biff.DateSystem1900)
	b, _ := SerialToTime(30000-1462, biff.DateSystem1904)
	if !a.Equal(b) {
		t.Errorf("system offset broken: %v vs %v", a, b)
	}
}

func TestSerialToTimeRejects(t *testing.T) {
	if _, err := SerialToTime(-1, biff.DateSystem1900); err == nil {
		t.Error("negative serial accepted")
	}
	if _, err := SerialToTime(3e6, biff.DateSystem1900); err == nil {
		t.Error("year-10000 serial accepted")
	}
	if _, err := SerialToTime(1, biff.DateSystem("maya")); err == nil {
		t.Error("unknown date system accepted")
	}
}

func TestFormatLooksLikeDate(t *testing.T) {
	dates := []string{"yyyy-mm-dd", "h:mm AM/PM", `d" of "mmmm`, "[h]:mm:ss"}
	for _, f := range dates {
		if !formatLooksLikeDate(f) {
			t.Errorf("%q not classified as date", f)
		}
	}
	others := []string{"0.00", "#,##0", `0" meters"`, "General", "@"}
	for _, f := range others {
		if formatLooksLikeDate(f) {
			t.Errorf("%q misclassified as date", f)
		}
	}
}
