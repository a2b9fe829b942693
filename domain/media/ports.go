package media

import "context"

// Decoder turns an encoded byte buffer into PCM.
// This is a port that can be implemented by different infrastructure adapters.
type Decoder interface {
	Decode(ctx context.Context, data []byte) (*PCMBuffer, error)
}

// DecodeContext is a decoder bound to resources that must be released
type DecodeContext interface {
	Decoder
	Close() error
}

// ContextFactory opens a decode context for a single request
type ContextFactory interface {
	Open(ctx context.Context) (DecodeContext, error)
}

// ContextFactoryFunc adapts a function to ContextFactory
type ContextFactoryFunc func(ctx context.Context) (DecodeContext, error)

// Open implements ContextFactory
func (f ContextFactoryFunc) Open(ctx context.Context) (DecodeContext, error) {
	return f(ctx)
}

// ProgressEvent is emitted by a codec delegate while Exec runs
type ProgressEvent struct {
	Progress float64 // fraction in [0, 1]
}

// CodecDelegate is an embedded transcoding engine with a private file store.
// Args passed to Exec use ffmpeg syntax.
type CodecDelegate interface {
	// Load initializes the engine. Implementations cache the result.
	Load(ctx context.Context) error
	WriteFile(ctx context.Context, name string, data []byte) error
	Exec(ctx context.Context, args []string) error
	ReadFile(ctx context.Context, name string) ([]byte, error)
	DeleteFile(ctx context.Context, name string) error
	// OnProgress registers the handler for progress events during Exec.
	OnProgress(handler func(ProgressEvent))
}

// PCMEncoder serializes decoded audio into a container
type PCMEncoder interface {
	Encode(ctx context.Context, buf *PCMBuffer) ([]byte, error)
}

// FileChecker reads conversion inputs and writes outputs on behalf of a caller
type FileChecker interface {
	// Exists returns true if the file exists
	Exists(path string) bool
	ReadInput(path string) (InputMedia, error)
	// WriteOutput refuses to replace an existing file unless overwrite is set
	WriteOutput(path string, data []byte, overwrite bool) error
}
