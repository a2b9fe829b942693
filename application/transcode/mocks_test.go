package transcode

import (
	"context"
	"errors"
	"sync"

	"video-to-audio/domain/media"
)

// --- Mock implementations for testing ---

// mockDecodeContext implements media.DecodeContext for testing
type mockDecodeContext struct {
	mu      sync.Mutex
	results []decodeResult // consumed in order; the last one repeats
	calls   int
	inputs  [][]byte
	closed  int
}

type decodeResult struct {
	buf *media.PCMBuffer
	err error
}

func (m *mockDecodeContext) Decode(ctx context.Context, data []byte) (*media.PCMBuffer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inputs = append(m.inputs, data)
	i := min(m.calls, len(m.results)-1)
	m.calls++
	if i < 0 {
		return nil, errors.New("no result configured")
	}
	r := m.results[i]
	return r.buf, r.err
}

func (m *mockDecodeContext) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed++
	return nil
}

// mockFactory implements media.ContextFactory for testing
type mockFactory struct {
	ctx     *mockDecodeContext
	openErr error
	opened  int
}

func (m *mockFactory) Open(ctx context.Context) (media.DecodeContext, error) {
	m.opened++
	if m.openErr != nil {
		return nil, m.openErr
	}
	return m.ctx, nil
}

// mockEncoder implements media.PCMEncoder for testing
type mockEncoder struct {
	out   []byte
	err   error
	calls int
}

func (m *mockEncoder) Encode(ctx context.Context, buf *media.PCMBuffer) ([]byte, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.out, nil
}

// mockDelegate implements media.CodecDelegate for testing
type mockDelegate struct {
	mu sync.Mutex

	loadErr   error
	writeErr  error
	execErr   error
	readErr   error
	output    []byte
	fractions []float64
	execHook  func(ctx context.Context)

	loads   int
	files   map[string][]byte
	deleted []string
	args    [][]string
	handler func(media.ProgressEvent)
	closed  bool
}

func newMockDelegate() *mockDelegate {
	return &mockDelegate{files: make(map[string][]byte), output: []byte("ID3 mp3 bytes")}
}

func (m *mockDelegate) Load(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loads++
	return m.loadErr
}

func (m *mockDelegate) WriteFile(ctx context.Context, name string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return m.writeErr
	}
	m.files[name] = data
	return nil
}

func (m *mockDelegate) Exec(ctx context.Context, args []string) error {
	m.mu.Lock()
	m.args = append(m.args, args)
	handler := m.handler
	fractions := m.fractions
	hook := m.execHook
	m.mu.Unlock()

	if hook != nil {
		hook(ctx)
	}
	for _, f := range fractions {
		if handler != nil {
			handler(media.ProgressEvent{Progress: f})
		}
	}
	if m.execErr != nil {
		return m.execErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[args[len(args)-1]] = m.output
	return nil
}

func (m *mockDelegate) ReadFile(ctx context.Context, name string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return nil, m.readErr
	}
	data, ok := m.files[name]
	if !ok {
		return nil, errors.New("file not found: " + name)
	}
	return data, nil
}

func (m *mockDelegate) DeleteFile(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, name)
	if _, ok := m.files[name]; !ok {
		return errors.New("file not found: " + name)
	}
	delete(m.files, name)
	return nil
}

func (m *mockDelegate) OnProgress(handler func(media.ProgressEvent)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handler = handler
}

func (m *mockDelegate) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// stereoTone builds a 2-channel buffer of n frames
func stereoTone(rate, n int) *media.PCMBuffer {
	buf := media.NewPCMBuffer(rate, 2, n)
	for i := 0; i < n; i++ {
		v := float32(i%200)/100 - 1
		buf.Channels[0][i] = v
		buf.Channels[1][i] = -v
	}
	return buf
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
