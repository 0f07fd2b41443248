package api

import (
	"errors"
	"net/http"
	"testing"
)

func TestParseTotal(t *testing.T) {
	cases := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"12", 12, false},
		{" 7 ", 7, false},
		{"3.0", 3, false},
		{"0", 0, false},
		{"", 0, true},
		{"abc", 0, true},
		{"-1", 0, true},
		{"2.5", 0, true},
	}
	for _, tc := range cases {
		got, err := ParseTotal(tc.in)
		if tc.wantErr {
			if !errors.Is(err, ErrMalformedResponse) {
				t.Errorf("ParseTotal(%q) err = %v, want ErrMalformedResponse", tc.in, err)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Errorf("ParseTotal(%q) = %d, %v; want %d", tc.in, got, err, tc.want)
		}
	}
}

func TestErrorUnwrap(t *testing.T) {
	if err := error(&Error{Status: http.StatusForbidden}); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("403 should unwrap to ErrUnauthorized")
	}
	if err := error(&Error{Status: http.StatusInternalServerError}); errors.Is(err, ErrNotFound) {
		t.Errorf("500 should not unwrap to ErrNotFound")
	}
}

func TestPendingTrackerMutating(t *testing.T) {
	tr := NewPendingTracker()
	doneGet := tr.Begin(http.MethodGet, "/applications")
	if tr.HasMutating() {
		t.Fatal("GET only: HasMutating should be false")
	}
	donePost := tr.Begin(http.MethodPost, "/applications")
	if !tr.HasMutating() {
		t.Fatal("POST pending: HasMutating should be true")
	}
	donePost()
	donePost()
	doneGet()
	if len(tr.Pending()) != 0 {
		t.Fatal("all requests completed")
	}
	var nilTracker *PendingTracker
	nilTracker.Begin(http.MethodPost, "/x")()
	if nilTracker.HasMutating() {
		t.Fatal("nil tracker tracks nothing")
	}
}
