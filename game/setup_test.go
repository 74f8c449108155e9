package game

import (
	"errors"
	"testing"
)

// chainSetup is a small two-player board: corners 0..7 in a line joined by
// paths 100..106, wheat paying to the left end and ore to the right.
func chainSetup() Setup {
	sites := []SiteSetup{}
	for corner := 0; corner < 8; corner++ {
		var adjacent []SiteID
		if corner > 0 {
			adjacent = append(adjacent, SiteID(99+corner))
		}
		if corner < 7 {
			adjacent = append(adjacent, SiteID(100+corner))
		}
		sites = append(sites, SiteSetup{ID: SiteID(corner), Slot: CornerSlot, Adjacent: adjacent})
	}
	for i := 0; i < 7; i++ {
		sites = append(sites, SiteSetup{
			ID: SiteID(100 + i), Slot: PathSlot, Adjacent: []SiteID{SiteID(i), SiteID(i + 1)},
		})
	}
	return Setup{
		Players:      2,
		TargetVP:     4,
		BankRatio:    4,
		BankSupply:   19,
		StartingHand: 3,
		RobberStart:  3,
		Nodes: []NodeSetup{
			{ID: 1, Resource: Wheat, Activation: 6, Sites: []SiteID{0, 1}},
			{ID: 2, Resource: Ore, Activation: 8, Sites: []SiteID{6, 7}},
			{ID: 3, Resource: Sheep, Activation: 5, Sites: []SiteID{3, 4}},
		},
		Sites: sites,
		Starts: []StartSetup{
			{Settlement: 0, Road: 100},
			{Settlement: 7, Road: 106},
		},
	}
}

func mustState(t *testing.T, setup Setup) *State {
	t.Helper()
	s, err := NewState(setup)
	if err != nil {
		t.Fatalf("NewState: %v", err)
	}
	return s
}

func TestNewStateInitial(t *testing.T) {
	s := mustState(t, chainSetup())

	if s.Turn != 1 || s.Current != 0 || s.Phase != PhaseAction {
		t.Errorf("unexpected initial cursor: turn=%d current=%d phase=%s", s.Turn, s.Current, s.Phase)
	}
	for _, p := range s.Players {
		for _, r := range ResourceTypes() {
			if got := p.Hand.Count(r); got != 3 {
				t.Errorf("player %d starting %s = %d, want 3", p.ID, r, got)
			}
		}
	}
	if site := s.Board.Sites[0]; site.Owner != 0 || site.Built != Settlement {
		t.Errorf("site 0 = %s owned by %d, want starting settlement of player 0", site.Built, site.Owner)
	}
	if site := s.Board.Sites[106]; site.Owner != 1 || site.Built != Road {
		t.Errorf("site 106 = %s owned by %d, want starting road of player 1", site.Built, site.Owner)
	}
	if s.Board.Robber != 3 {
		t.Errorf("robber starts on node %d, want 3", s.Board.Robber)
	}
}

func TestNewStateConservation(t *testing.T) {
	s := mustState(t, chainSetup())
	for _, r := range ResourceTypes() {
		if got := s.TotalInPlay(r); got != 19 {
			t.Errorf("total %s in play = %d, want the full bank supply 19", r, got)
		}
	}
}

func TestSetupValidateRejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Setup)
	}{
		{"one player", func(s *Setup) { s.Players = 1; s.Starts = s.Starts[:1] }},
		{"zero target", func(s *Setup) { s.TargetVP = 0 }},
		{"activation out of range", func(s *Setup) { s.Nodes[0].Activation = 13 }},
		{"robber on unknown node", func(s *Setup) { s.RobberStart = 99 }},
		{"corner adjacent to corner", func(s *Setup) {
			s.Sites[0].Adjacent = append(s.Sites[0].Adjacent, 1)
		}},
		{"duplicate starting settlement", func(s *Setup) { s.Starts[1].Settlement = 0 }},
		{"starting road on a corner", func(s *Setup) { s.Starts[0].Road = 1 }},
		{"bank cannot cover starting hands", func(s *Setup) { s.BankSupply = 5 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			setup := chainSetup()
			tc.mutate(&setup)
			_, err := NewState(setup)
			var setupErr *SetupError
			if !errors.As(err, &setupErr) {
				t.Fatalf("NewState error = %v, want a SetupError", err)
			}
		})
	}
}
