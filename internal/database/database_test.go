package database

import (
	"errors"
	"fmt"
	"testing"

	"baristalog/internal/models"
)

func TestRKeyGenerator(t *testing.T) {
	gen := NewRKeyGenerator(0)

	seen := make(map[string]bool)
	prev := ""
	for i := 0; i < 100; i++ {
		rkey := gen.Next()
		if err := ValidateRKey(rkey); err != nil {
			t.Fatalf("Next() produced invalid rkey: %v", err)
		}
		if seen[rkey] {
			t.Fatalf("Next() repeated rkey %q", rkey)
		}
		if rkey <= prev {
			t.Errorf("Next() = %q, not after %q", rkey, prev)
		}
		seen[rkey] = true
		prev = rkey
	}
}

func TestValidateRKey(t *testing.T) {
	tests := []struct {
		name    string
		rkey    string
		wantErr bool
	}{
		{"valid tid", "3kfk4slgu6s2h", false},
		{"empty", "", true},
		{"integer id", "123", true},
		{"too long", "3kfk4slgu6s2hh", true},
		{"path traversal", "../beans", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRKey(tt.rkey)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateRKey(%q) error = %v, wantErr %v", tt.rkey, err, tt.wantErr)
			}
		})
	}
}

func TestNotifier(t *testing.T) {
	var n Notifier
	calls := 0
	unsubscribe := n.Subscribe(func() { calls++ })

	n.Notify()
	n.Notify()
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}

	unsubscribe()
	n.Notify()
	if calls != 2 {
		t.Errorf("calls after unsubscribe = %d, want 2", calls)
	}
}

func TestPersistence(t *testing.T) {
	base := errors.New("disk full")

	t.Run("nil stays nil", func(t *testing.T) {
		if err := Persistence("create bean", nil); err != nil {
			t.Errorf("Persistence(nil) = %v", err)
		}
	})

	t.Run("wraps storage errors", func(t *testing.T) {
		err := Persistence("create bean", base)
		var perr *PersistenceError
		if !errors.As(err, &perr) {
			t.Fatalf("Persistence() = %T, want *PersistenceError", err)
		}
		if perr.Op != "create bean" || !errors.Is(err, base) {
			t.Errorf("Persistence() = %v", err)
		}
	})

	t.Run("keeps validation errors", func(t *testing.T) {
		verr := &models.ValidationError{Field: "name", Message: "name is required"}
		err := Persistence("create bean", fmt.Errorf("wrapped: %w", verr))
		if !IsValidation(err) {
			t.Errorf("Persistence() lost the validation error: %v", err)
		}
		var perr *PersistenceError
		if errors.As(err, &perr) {
			t.Error("validation error should not become a PersistenceError")
		}
	})

	t.Run("keeps not found", func(t *testing.T) {
		err := Persistence("get bean", ErrNotFound)
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("Persistence() = %v, want ErrNotFound", err)
		}
	})
}
