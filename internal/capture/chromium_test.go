package capture

import (
	"context"
	"testing"
)

func TestLocalURL(t *testing.T) {
	tests := []struct {
		listen string
		want   string
	}{
		{":8080", "http://127.0.0.1:8080/calendar.html"},
		{"0.0.0.0:9000", "http://127.0.0.1:9000/calendar.html"},
		{"127.0.0.1:8080", "http://127.0.0.1:8080/calendar.html"},
		{"[::]:8080", "http://127.0.0.1:8080/calendar.html"},
		{"[::1]:8080", "http://[::1]:8080/calendar.html"},
	}
	for _, tt := range tests {
		got, err := LocalURL(tt.listen)
		if err != nil {
			t.Fatalf("%s: %v", tt.listen, err)
		}
		if got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.listen, got, tt.want)
		}
	}
	if _, err := LocalURL("no-port"); err == nil {
		t.Fatal("expected error for address without port")
	}
}

func TestCalendarPNGValidatesOptions(t *testing.T) {
	if err := CalendarPNG(context.Background(), Options{OutputPath: "x.png"}); err == nil {
		t.Fatal("expected error without URL")
	}
	if err := CalendarPNG(context.Background(), Options{URL: "http://127.0.0.1/"}); err == nil {
		t.Fatal("expected error without output path")
	}
}

func TestNormalizeDefaults(t *testing.T) {
	o := Options{URL: "http://x", OutputPath: "p.png"}
	if err := o.normalize(); err != nil {
		t.Fatal(err)
	}
	if o.Width != DefaultWidth || o.Height != DefaultHeight || o.Timeout != DefaultTimeout {
		t.Fatalf("defaults not applied: %+v", o)
	}
}
