package ffmpeg

import (
	"context"
	"io"
	"sync"
)

// mockRunner implements CommandRunner for testing
type mockRunner struct {
	mu sync.Mutex

	calls     [][]string
	dirs      []string
	stdin     [][]byte
	outputErr error
	streamErr error
	stdout    []byte
	stderr    string
	onStream  func(ctx context.Context, inv Invocation, args []string) error
}

func (m *mockRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	m.record(name, args, "")
	if m.outputErr != nil {
		return nil, m.outputErr
	}
	return []byte("ffmpeg version 6.1"), nil
}

func (m *mockRunner) Stream(ctx context.Context, inv Invocation, name string, args ...string) error {
	m.record(name, args, inv.Dir)
	if inv.Stdin != nil {
		data, _ := io.ReadAll(inv.Stdin)
		m.mu.Lock()
		m.stdin = append(m.stdin, data)
		m.mu.Unlock()
	}
	if m.stderr != "" && inv.Stderr != nil {
		_, _ = io.WriteString(inv.Stderr, m.stderr)
	}
	if m.stdout != nil && inv.Stdout != nil {
		_, _ = inv.Stdout.Write(m.stdout)
	}
	if m.onStream != nil {
		if err := m.onStream(ctx, inv, args); err != nil {
			return err
		}
	}
	return m.streamErr
}

func (m *mockRunner) record(name string, args []string, dir string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, append([]string{name}, args...))
	m.dirs = append(m.dirs, dir)
}

func (m *mockRunner) lastCall() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return nil
	}
	return m.calls[len(m.calls)-1]
}

// contains checks if a string contains a substring
func contains(s, substr string) bool {
	for i := 0; i <= len(s)-len(substr); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
