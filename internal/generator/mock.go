package generator

import "context"

// Mock is a configurable in-process backend. The CLI registers it for dry
// runs; tests drive it through the func fields.
type Mock struct {
	GenerateFunc  func(ctx context.Context, req Request) (string, error)
	AvailableFunc func(ctx context.Context) error
}

// NewMock creates a Mock that echoes the input text unchanged.
func NewMock() *Mock {
	return &Mock{}
}

func (m *Mock) Name() string { return "mock" }

func (m *Mock) Generate(ctx context.Context, req Request) (string, error) {
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, req)
	}
	return req.Text, nil
}

func (m *Mock) IsAvailable(ctx context.Context) error {
	if m.AvailableFunc != nil {
		return m.AvailableFunc(ctx)
	}
	return nil
}
