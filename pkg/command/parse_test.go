package command

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParse(t *testing.T) {
	type tcase struct {
		line      string
		want      Command
		wantUsage bool
	}

	tcases := map[string]tcase{
		"plain chat": {
			line: "hello everyone",
			want: Chat{Text: "hello everyone"},
		},
		"chat with inner slash": {
			line: "look at a/b",
			want: Chat{Text: "look at a/b"},
		},
		"auth": {
			line: "/auth bob pw123",
			want: Auth{Login: "bob", Password: "pw123"},
		},
		"auth missing password": {
			line:      "/auth bob",
			wantUsage: true,
		},
		"auth extra args": {
			line:      "/auth bob pw123 extra",
			wantUsage: true,
		},
		"register": {
			line: "/reg bob pw123 Bobby",
			want: Register{Login: "bob", Password: "pw123", Username: "Bobby"},
		},
		"register missing username": {
			line:      "/reg bob pw123",
			wantUsage: true,
		},
		"exit": {
			line: "/exit",
			want: Exit{},
		},
		"kick with multi-word reason": {
			line: "/kick Alice spamming the channel",
			want: Kick{Target: "Alice", Reason: "spamming the channel"},
		},
		"kick without reason": {
			line:      "/kick Alice",
			wantUsage: true,
		},
		"ban permanent": {
			line: "/ban Alice 0 being rude",
			want: Ban{Target: "Alice", Minutes: 0, Reason: "being rude"},
		},
		"ban timed": {
			line: "/ban Alice 30 spam",
			want: Ban{Target: "Alice", Minutes: 30, Reason: "spam"},
		},
		"ban non-numeric minutes": {
			line:      "/ban Alice soon spam",
			wantUsage: true,
		},
		"ban negative minutes": {
			line:      "/ban Alice -5 spam",
			wantUsage: true,
		},
		"shutdown": {
			line: "/shutdown",
			want: Shutdown{},
		},
		"activelist": {
			line: "/activelist",
			want: ActiveList{},
		},
		"whisper": {
			line: "/w Bob hello there",
			want: Whisper{Target: "Bob", Text: "hello there"},
		},
		"whisper without text": {
			line:      "/w Bob",
			wantUsage: true,
		},
		"rename": {
			line: "/changenick Charlie",
			want: Rename{NewName: "Charlie"},
		},
		"rename with spaces": {
			line:      "/changenick two words",
			wantUsage: true,
		},
		"unknown command": {
			line:      "/frobnicate",
			wantUsage: true,
		},
	}

	for name, tc := range tcases {
		t.Run(name, func(t *testing.T) {
			got, err := Parse(tc.line)
			if tc.wantUsage {
				var ue *UsageError
				if !errors.As(err, &ue) {
					t.Fatalf("Parse(%q) error = %v, want *UsageError", tc.line, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) unexpected error: %v", tc.line, err)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("Parse(%q) mismatch (-want +got):\n%s", tc.line, diff)
			}
		})
	}
}
