package cube

import (
	"errors"
	"testing"
)

func TestWindowValidate(t *testing.T) {
	tests := []struct {
		name string
		w    Window
		ok   bool
	}{
		{"full", Window{0, 10}, true},
		{"single", Window{9, 10}, true},
		{"empty", Window{3, 3}, false},
		{"reversed", Window{5, 2}, false},
		{"negative", Window{-1, 4}, false},
		{"past end", Window{2, 11}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.w.Validate(10)
			if tt.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrInvalidWindow) {
				t.Fatalf("err = %v, want ErrInvalidWindow", err)
			}
		})
	}
}

func TestWindowHelpers(t *testing.T) {
	w := Window{Start: 2, End: 6}
	if w.Len() != 4 || w.Last() != 5 {
		t.Fatalf("len %d last %d", w.Len(), w.Last())
	}
	if !w.Contains(2) || w.Contains(6) {
		t.Fatal("Contains is not half-open")
	}
	if !w.Overlaps(Window{5, 9}) || w.Overlaps(Window{6, 9}) {
		t.Fatal("Overlaps is not half-open")
	}
	if w.String() != "[2,6)" {
		t.Fatalf("String = %q", w.String())
	}
}
