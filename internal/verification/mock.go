package verification

import "context"

// MockVerifier is a hand-written test double. Result is returned verbatim
// from Verify; Err, if set, is returned instead.
type MockVerifier struct {
	Result bool
	Err    error
}

func (m *MockVerifier) Verify(_ context.Context, _ string) (bool, error) {
	if m.Err != nil {
		return false, m.Err
	}
	return m.Result, nil
}

var _ Verifier = (*MockVerifier)(nil)
