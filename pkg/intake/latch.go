package intake

// EdgeLatch turns a sampled boolean into rising-edge events. It remembers
// only the previous sample, so holding the input high fires exactly once.
type EdgeLatch struct {
	prev bool
}

// Sample records v and reports whether it is a false→true transition.
func (l *EdgeLatch) Sample(v bool) bool {
	rising := v && !l.prev
	l.prev = v
	return rising
}

// Reset forgets the previous sample.
func (l *EdgeLatch) Reset() {
	l.prev = false
}
