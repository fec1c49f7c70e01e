package identifier

// WithDraw replaces the random source for tests.
func (a *Allocator) WithDraw(draw func() (int64, error)) *Allocator {
	a.draw = draw
	return a
}
