package telemetry

import (
	"errors"
	"testing"
)

func TestDecodeRejectsInvalidJSON(t *testing.T) {
	if _, err := Decode([]byte(`{"battery":`)); err == nil {
		t.Fatalf("expected error for truncated JSON")
	}
}

func TestDecodeRejectsTrailingData(t *testing.T) {
	cases := []string{
		`{"battery":{"current":80}} %%garbage`,
		`{"battery":{"current":80}}{"extra":1}`,
		`{}[]`,
	}
	for _, body := range cases {
		_, err := Decode([]byte(body))
		if !errors.Is(err, ErrTrailingData) {
			t.Fatalf("body %s: expected ErrTrailingData, got %v", body, err)
		}
	}
	// Trailing whitespace is not data.
	if _, err := Decode([]byte("{\"battery\":{\"current\":80}} \n\t")); err != nil {
		t.Fatalf("trailing whitespace rejected: %v", err)
	}
}

func TestDecodeRejectsNonObject(t *testing.T) {
	for _, body := range []string{`[1,2,3]`, `"hello"`, `42`, `null`} {
		_, err := Decode([]byte(body))
		if !errors.Is(err, ErrNotAnObject) {
			t.Fatalf("body %s: expected ErrNotAnObject, got %v", body, err)
		}
	}
}

func TestDecodeAcceptsObject(t *testing.T) {
	p, err := Decode([]byte(`{"battery":{"current":85}}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	v, ok := p.Number("battery.current")
	if !ok || v != 85 {
		t.Fatalf("expected battery.current=85, got %v found=%v", v, ok)
	}
}

func TestLookupMissingPath(t *testing.T) {
	p, err := Decode([]byte(`{"battery":{"current":85}}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := p.Lookup("heart_rate.last"); ok {
		t.Fatalf("expected heart_rate.last to be absent")
	}
	if _, ok := p.Lookup("battery.current.deeper"); ok {
		t.Fatalf("expected path through scalar to be absent")
	}
}

func TestLookupFoundNil(t *testing.T) {
	p, err := Decode([]byte(`{"stress":{"current":null}}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	v, ok := p.Lookup("stress.current")
	if !ok {
		t.Fatalf("expected nil value to count as found")
	}
	if v != nil {
		t.Fatalf("expected nil, got %v", v)
	}
}

func TestListSkipsNonObjects(t *testing.T) {
	p, err := Decode([]byte(`{"workout":{"history":[{"sportType":1},42,{"sportType":2}]}}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	items := p.List("workout.history")
	if len(items) != 2 {
		t.Fatalf("expected 2 object elements, got %d", len(items))
	}
}

func TestSectionToleratesWrongType(t *testing.T) {
	p := Payload{"device": "not an object"}
	if s := p.Section("device"); len(s) != 0 {
		t.Fatalf("expected empty section, got %v", s)
	}
}
