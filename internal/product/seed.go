package product

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/shopspring/decimal"
)

// SeedInputs returns n demo products: "Product i", a price between 1.00 and
// 100.00 and a stock between 1 and 100.
func SeedInputs(n int, rng *rand.Rand) []Input {
	out := make([]Input, 0, n)
	for i := 0; i < n; i++ {
		desc := fmt.Sprintf("Description of product %d", i)
		out = append(out, Input{
			Name:        fmt.Sprintf("Product %d", i),
			Description: &desc,
			Price:       decimal.New(100+rng.Int63n(9901), -2),
			Stock:       1 + rng.Intn(100),
		})
	}
	return out
}

// Seed writes every input through create and stops at the first failure.
func Seed(ctx context.Context, inputs []Input, create func(context.Context, Input) error) (int, error) {
	for i, in := range inputs {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		if err := create(ctx, in); err != nil {
			return i, fmt.Errorf("seed %q: %w", in.Name, err)
		}
	}
	return len(inputs), nil
}
