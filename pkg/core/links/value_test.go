package links

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestValueJSONRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		json string
	}{
		{"int", Int(42), "42"},
		{"integral float", Float(3), "3.0"},
		{"float", Float(0.25), "0.25"},
		{"string", String("DEAD"), `"DEAD"`},
		{"bool", Bool(true), "true"},
		{"absent", Absent, "null"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.v)
			if err != nil {
				t.Fatalf("Marshal() error: %v", err)
			}
			if string(data) != tt.json {
				t.Errorf("Marshal() = %s, want %s", data, tt.json)
			}
			var got Value
			if err := json.Unmarshal(data, &got); err != nil {
				t.Fatalf("Unmarshal() error: %v", err)
			}
			if got != tt.v {
				t.Errorf("round trip = %v (%v), want %v (%v)", got, got.Kind(), tt.v, tt.v.Kind())
			}
		})
	}
}

func TestValueAccessors(t *testing.T) {
	if f, ok := Int(2).AsFloat(); !ok || f != 2 {
		t.Errorf("Int(2).AsFloat() = %v, %v", f, ok)
	}
	if _, ok := Float(2).AsInt(); ok {
		t.Error("Float(2).AsInt() ok")
	}
	if _, ok := Absent.AsString(); ok {
		t.Error("Absent.AsString() ok")
	}
	if Absent.Any() != nil {
		t.Error("Absent.Any() != nil")
	}
}

func TestValueOf(t *testing.T) {
	if v, err := ValueOf(json.Number("7")); err != nil || v != Int(7) {
		t.Errorf("ValueOf(7) = %v, %v", v, err)
	}
	if v, err := ValueOf(json.Number("7e2")); err != nil || v != Float(700) {
		t.Errorf("ValueOf(7e2) = %v, %v", v, err)
	}
	if _, err := ValueOf([]any{1}); !errors.Is(err, ErrUnsupportedValue) {
		t.Errorf("ValueOf(slice) error = %v", err)
	}
}
