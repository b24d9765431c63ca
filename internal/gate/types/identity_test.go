package types_test

import (
	"testing"

	"github.com/edgegate/checkpoint-agent/internal/gate/types"
)

func TestAuthorizedFor(t *testing.T) {
	cases := []struct {
		name     string
		sessions []string
		current  string
		want     bool
	}{
		{"matching session", []string{"7"}, "7", true},
		{"other session", []string{"7"}, "9", false},
		{"one of several", []string{"3", "7", "9"}, "7", true},
		{"sentinel id authorizes everywhere", []string{types.AllSessionsID}, "9", true},
		{"sentinel among others", []string{"3", types.AllSessionsID}, "9", true},
		{"empty list is the same sentinel", nil, "9", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := types.IdentityRecord{SessionIDs: tc.sessions}
			if got := rec.AuthorizedFor(tc.current); got != tc.want {
				t.Errorf("AuthorizedFor(%q) with %v: got %v want %v",
					tc.current, tc.sessions, got, tc.want)
			}
		})
	}
}
