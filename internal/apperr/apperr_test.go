package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{name: "validation", err: Validation("bad input"), want: KindValidation},
		{name: "configuration", err: Configuration("no store"), want: KindConfiguration},
		{name: "store query", err: StoreQuery(errors.New("boom"), "page failed"), want: KindStoreQuery},
		{name: "wrapped", err: fmt.Errorf("handler: %w", Validation("bad input")), want: KindValidation},
		{name: "plain error", err: errors.New("boom"), want: ""},
		{name: "nil", err: nil, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestErrorMessage(t *testing.T) {
	err := StoreQuery(errors.New("connection refused"), "range query failed for station %d", 1001)
	want := "range query failed for station 1001: connection refused"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if !errors.Is(err, errors.Unwrap(err)) {
		t.Error("wrapped cause not reachable via Unwrap")
	}

	plain := Validation("missing 'date' parameter")
	if plain.Error() != "missing 'date' parameter" {
		t.Errorf("Error() = %q, want message only", plain.Error())
	}
}
