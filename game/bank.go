package game

// Bank is the shared, finite resource pool. Together with the player hands
// it obeys a conservation law: for every resource type, bank supply plus the
// sum over all hands is constant for the whole match. Production is the only
// operation allowed to pay out less than asked, and only because the supply
// ran dry.
type Bank struct {
	supply Hand
}

// NewBank creates a bank holding perType units of every resource.
func NewBank(perType int) *Bank {
	b := &Bank{supply: NewHand()}
	for _, r := range ResourceTypes() {
		b.supply.Add(r, perType)
	}
	return b
}

func (b *Bank) Supply(r ResourceType) int {
	return b.supply.Count(r)
}

// Produce withdraws up to want units of r and returns how many were actually
// available. It never fails: a short or empty payout is a valid outcome.
func (b *Bank) Produce(r ResourceType, want int) int {
	if want <= 0 {
		return 0
	}
	got := want
	if have := b.supply.Count(r); have < got {
		got = have
	}
	b.supply.Remove(r, got)
	return got
}

// deposit returns resources to the supply (trades, discards).
func (b *Bank) deposit(r ResourceType, n int) {
	b.supply.Add(r, n)
}

// withdraw takes exactly n units or reports false without touching supply.
func (b *Bank) withdraw(r ResourceType, n int) bool {
	return b.supply.Remove(r, n)
}

func (b *Bank) clone() *Bank {
	return &Bank{supply: b.supply.Clone()}
}
