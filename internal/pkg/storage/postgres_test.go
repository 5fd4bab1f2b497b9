package storage

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
)

func TestIsCodeCollision(t *testing.T) {
	dup := &pq.Error{Code: "23505", Constraint: "betslips_code_key"}
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"duplicate code", dup, true},
		{"duplicate code, wrapped", fmt.Errorf("insert betslip: %w", dup), true},
		{"unique violation elsewhere", &pq.Error{Code: "23505", Constraint: "scheduled_messages_short_id_key"}, false},
		{"other postgres error", &pq.Error{Code: "42601", Constraint: ""}, false},
		{"plain error", errors.New("connection reset"), false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		if got := isCodeCollision(tt.err); got != tt.want {
			t.Errorf("%s: isCodeCollision = %v, want %v", tt.name, got, tt.want)
		}
	}
}
