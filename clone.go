package hmmpool

// Atomicity strategy (spec §5, replacing the Python reference's "memo"
// TODO): every state-mutating operation runs against a deep clone of the
// pool and is adopted back into the receiver only once it has fully
// succeeded. This is the teacher's own pattern generalized — CorePool.Clone
// plus HandleSwap's isStatic staging do exactly this for a single swap; here
// it is the pool's only commit path, so every operation gets it for free.
func (p *Pool) clone() *Pool {
	c := *p
	c.ticks = p.ticks.clone()
	c.positions = p.positions.clone()
	return &c
}

// adopt replaces the receiver's mutable state with a clone's, once the
// caller has decided the clone's changes should stick.
func (p *Pool) adopt(scratch *Pool) {
	*p = *scratch
}
