package availability

import (
	"errors"
	"testing"
	"time"
)

func boolPtr(b bool) *bool { return &b }

func TestCreateRequestValidate(t *testing.T) {
	date := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		req  CreateRequest
		want error
	}{
		{"valid recurring", CreateRequest{DayOfWeek: 1, StartTime: "09:00", EndTime: "12:00"}, nil},
		{"valid one-off", CreateRequest{DayOfWeek: 1, StartTime: "09:00", EndTime: "12:00", Recurring: boolPtr(false), SpecificDate: &date}, nil},
		{"day too high", CreateRequest{DayOfWeek: 7, StartTime: "09:00", EndTime: "12:00"}, ErrInvalidDay},
		{"day negative", CreateRequest{DayOfWeek: -1, StartTime: "09:00", EndTime: "12:00"}, ErrInvalidDay},
		{"bad start", CreateRequest{DayOfWeek: 1, StartTime: "9am", EndTime: "12:00"}, ErrInvalidTime},
		{"bad end", CreateRequest{DayOfWeek: 1, StartTime: "09:00", EndTime: "25:00"}, ErrInvalidTime},
		{"start equals end", CreateRequest{DayOfWeek: 1, StartTime: "09:00", EndTime: "09:00"}, ErrStartAfterEnd},
		{"start after end", CreateRequest{DayOfWeek: 1, StartTime: "13:00", EndTime: "09:00"}, ErrStartAfterEnd},
		{"one-off without date", CreateRequest{DayOfWeek: 1, StartTime: "09:00", EndTime: "12:00", Recurring: boolPtr(false)}, ErrMissingDate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.want == nil && err != nil {
				t.Fatalf("Validate() = %v, want nil", err)
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Fatalf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestWindowContains(t *testing.T) {
	w := Window{StartTime: "09:00", EndTime: "12:00"}

	tests := []struct {
		hhmm string
		want bool
	}{
		{"09:00", true}, // bounds are inclusive
		{"10:30", true},
		{"12:00", true},
		{"08:59", false},
		{"12:01", false},
		{"13:00", false},
	}
	for _, tt := range tests {
		if got := w.Contains(tt.hhmm); got != tt.want {
			t.Errorf("Contains(%q) = %v, want %v", tt.hhmm, got, tt.want)
		}
	}
}
