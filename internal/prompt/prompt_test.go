package prompt

import (
	"fmt"
	"testing"

	"github.com/bwengye/bwengye/internal/models"
)

func history(n int) []models.Message {
	msgs := make([]models.Message, n)
	for i := range msgs {
		role := models.RoleUser
		if i%2 == 1 {
			role = models.RoleAssistant
		}
		msgs[i] = models.Message{Role: role, Content: fmt.Sprintf("turn %d", i)}
	}
	return msgs
}

func TestBuild_Structure(t *testing.T) {
	tests := []struct {
		name    string
		history int
		wantLen int
	}{
		{name: "empty history", history: 0, wantLen: 2},
		{name: "short history", history: 3, wantLen: 5},
		{name: "at the cap", history: 50, wantLen: 52},
		{name: "over the cap", history: 1000, wantLen: 52},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			turns := Build(history(tt.history), "hello", "preamble", 50)
			if len(turns) != tt.wantLen {
				t.Fatalf("len(turns) = %d, want %d", len(turns), tt.wantLen)
			}
			if turns[0].Role != RoleSystem || turns[0].Content != "preamble" {
				t.Errorf("first turn = %+v, want system preamble", turns[0])
			}
			last := turns[len(turns)-1]
			if last.Role != models.RoleUser || last.Content != "hello" {
				t.Errorf("last turn = %+v, want new user message", last)
			}
		})
	}
}

func TestBuild_KeepsMostRecent(t *testing.T) {
	turns := Build(history(51), "new", "sys", 50)
	// The oldest prior turn ("turn 0") must be dropped; "turn 1" survives
	// as the first history entry.
	if got := turns[1].Content; got != "turn 1" {
		t.Errorf("first history turn = %q, want %q", got, "turn 1")
	}
	if got := turns[len(turns)-2].Content; got != "turn 50" {
		t.Errorf("last history turn = %q, want %q", got, "turn 50")
	}
}

func TestBuild_PreservesOrder(t *testing.T) {
	turns := Build(history(10), "new", "sys", 50)
	for i := 0; i < 10; i++ {
		want := fmt.Sprintf("turn %d", i)
		if turns[i+1].Content != want {
			t.Errorf("turns[%d].Content = %q, want %q", i+1, turns[i+1].Content, want)
		}
	}
}

func TestBuild_ZeroLimitUsesDefault(t *testing.T) {
	turns := Build(history(100), "new", "sys", 0)
	if len(turns) != DefaultHistoryLimit+2 {
		t.Errorf("len(turns) = %d, want %d", len(turns), DefaultHistoryLimit+2)
	}
}

func TestBuild_ExactlyOneSystemTurn(t *testing.T) {
	turns := Build(history(20), "new", "sys", 50)
	systems := 0
	for _, turn := range turns {
		if turn.Role == RoleSystem {
			systems++
		}
	}
	if systems != 1 {
		t.Errorf("system turns = %d, want exactly 1", systems)
	}
}
