package domain

import "testing"

func TestValidAgentState(t *testing.T) {
	for _, s := range []AgentState{StateOnline, StateAway, StateBreak, StateOffline} {
		if !ValidAgentState(s) {
			t.Errorf("ValidAgentState(%q) = false, want true", s)
		}
	}
	if ValidAgentState("LUNCH") {
		t.Error(`ValidAgentState("LUNCH") = true, want false`)
	}
}

func TestBreakRemainingSeconds(t *testing.T) {
	tests := []struct {
		name      string
		used      int
		allowance int
		want      int
	}{
		{"unused", 0, 3600, 3600},
		{"partially used", 1200, 3600, 2400},
		{"fully used", 3600, 3600, 0},
		{"over cap clamps to zero", 4000, 3600, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := AgentPresence{BreakUsedSeconds: tt.used, BreakAllowanceSeconds: tt.allowance}
			if got := p.BreakRemainingSeconds(); got != tt.want {
				t.Errorf("BreakRemainingSeconds() = %d, want %d", got, tt.want)
			}
		})
	}
}
