package optimize

import "context"

// Optimizer shrinks an encoded GIF. Gifsicle implements this interface.
// Tests can provide mock implementations.
type Optimizer interface {
	Optimize(ctx context.Context, data []byte) ([]byte, error)
}

// Nop returns its input unchanged.
type Nop struct{}

func (Nop) Optimize(_ context.Context, data []byte) ([]byte, error) {
	return data, nil
}
