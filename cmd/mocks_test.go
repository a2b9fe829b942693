package cmd

import (
	"context"
	"fmt"

	"video-to-audio/application/transcode"
	"video-to-audio/domain/media"
)

type mockPrompter struct {
	inputs   []string
	confirms []bool
	selects  []string
	messages []string
	options  [][]string
	err      error
}

func (m *mockPrompter) Input(message string, defaultValue string) (string, error) {
	m.messages = append(m.messages, message)
	if m.err != nil {
		return "", m.err
	}
	if len(m.inputs) == 0 {
		return defaultValue, nil
	}
	v := m.inputs[0]
	m.inputs = m.inputs[1:]
	return v, nil
}

func (m *mockPrompter) Confirm(message string, defaultValue bool) (bool, error) {
	m.messages = append(m.messages, message)
	if m.err != nil {
		return false, m.err
	}
	if len(m.confirms) == 0 {
		return defaultValue, nil
	}
	v := m.confirms[0]
	m.confirms = m.confirms[1:]
	return v, nil
}

func (m *mockPrompter) Select(message string, options []string, defaultValue string) (string, error) {
	m.messages = append(m.messages, message)
	m.options = append(m.options, options)
	if m.err != nil {
		return "", m.err
	}
	if len(m.selects) == 0 {
		return defaultValue, nil
	}
	v := m.selects[0]
	m.selects = m.selects[1:]
	return v, nil
}

type mockConverter struct {
	blob    *media.OutputBlob
	err     error
	states  []media.ConversionState
	format  media.OutputFormat
	input   media.InputMedia
	closed  bool
	listen  transcode.StateListener
	convert int
}

func (m *mockConverter) Convert(ctx context.Context, in media.InputMedia, format media.OutputFormat) (*media.OutputBlob, error) {
	m.convert++
	m.input = in
	m.format = format
	if m.listen != nil {
		for _, st := range m.states {
			m.listen(st)
		}
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.blob, nil
}

func (m *mockConverter) Close(ctx context.Context) error {
	m.closed = true
	return nil
}

type mockFiles struct {
	inputs   map[string]media.InputMedia
	existing map[string]bool
	written  map[string][]byte
	writeErr error
}

func newMockFiles() *mockFiles {
	return &mockFiles{
		inputs:   make(map[string]media.InputMedia),
		existing: make(map[string]bool),
		written:  make(map[string][]byte),
	}
}

func (m *mockFiles) Exists(path string) bool {
	return m.existing[path]
}

func (m *mockFiles) ReadInput(path string) (media.InputMedia, error) {
	in, ok := m.inputs[path]
	if !ok {
		return media.InputMedia{}, fmt.Errorf("input file not found: %s", path)
	}
	return in, nil
}

func (m *mockFiles) WriteOutput(path string, data []byte, overwrite bool) error {
	if m.writeErr != nil {
		return m.writeErr
	}
	if !overwrite && m.existing[path] {
		return fmt.Errorf("output file already exists: %s", path)
	}
	m.written[path] = data
	m.existing[path] = true
	return nil
}

var _ media.FileChecker = (*mockFiles)(nil)

func contains(s, substr string) bool {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
