package parcel

import (
	"testing"
	"time"
)

func TestTimeModule_TimeRoundTrip(t *testing.T) {
	c := New()
	now := time.Date(2026, 7, 29, 12, 0, 0, 0, time.UTC)

	data, err := c.Dumps(now)
	if err != nil {
		t.Fatal(err)
	}
	v, err := c.Loads(data)
	if err != nil {
		t.Fatal(err)
	}
	got, ok := v.(time.Time)
	if !ok || !got.Equal(now) {
		t.Errorf("Loads() = %#v, want %v", v, now)
	}
}

func TestTimeModule_DurationRoundTrip(t *testing.T) {
	c := New()
	d := 90 * time.Second

	data, err := c.Dumps(d)
	if err != nil {
		t.Fatal(err)
	}
	v, err := c.Loads(data)
	if err != nil {
		t.Fatal(err)
	}
	got, ok := v.(time.Duration)
	if !ok || got != d {
		t.Errorf("Loads() = %#v, want %v", v, d)
	}
}
