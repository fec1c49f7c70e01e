package identifier

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
)

const (
	// Min and Max bound every allocated identifier (nine decimal digits).
	Min int64 = 100000000
	Max int64 = 999999999

	DefaultMaxAttempts = 16
)

// ErrIdentifierSpaceExhausted is returned when every attempt collided.
var ErrIdentifierSpaceExhausted = errors.New("identifier space exhausted")

// Checker reports whether an identifier is already taken.
type Checker interface {
	SourceIDExists(ctx context.Context, id int64) (bool, error)
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc func(ctx context.Context, id int64) (bool, error)

func (f CheckerFunc) SourceIDExists(ctx context.Context, id int64) (bool, error) {
	return f(ctx, id)
}

// Allocator draws random nine-digit identifiers not yet in use.
type Allocator struct {
	checker     Checker
	maxAttempts int
	draw        func() (int64, error)
}

// NewAllocator creates an allocator. A non-positive maxAttempts uses the default.
func NewAllocator(checker Checker, maxAttempts int) *Allocator {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Allocator{checker: checker, maxAttempts: maxAttempts, draw: random}
}

// Allocate returns an identifier that was free when checked. The unique
// constraint on the column is the final arbiter; callers retry on a
// duplicate-key insert.
func (a *Allocator) Allocate(ctx context.Context) (int64, error) {
	for range a.maxAttempts {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		id, err := a.draw()
		if err != nil {
			return 0, fmt.Errorf("draw identifier: %w", err)
		}
		taken, err := a.checker.SourceIDExists(ctx, id)
		if err != nil {
			return 0, fmt.Errorf("check identifier %d: %w", id, err)
		}
		if !taken {
			return id, nil
		}
	}
	return 0, fmt.Errorf("%w after %d attempts", ErrIdentifierSpaceExhausted, a.maxAttempts)
}

var span = big.NewInt(Max - Min + 1)

func random() (int64, error) {
	n, err := rand.Int(rand.Reader, span)
	if err != nil {
		return 0, err
	}
	return Min + n.Int64(), nil
}
