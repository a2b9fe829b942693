package cmd

import (
	"context"
	"testing"

	"video-to-audio/infrastructure/config"
	"video-to-audio/infrastructure/ffmpeg"
	"video-to-audio/infrastructure/wasm"

	"go.uber.org/zap"
)

func TestNewDelegate_Backend(t *testing.T) {
	cfg := config.Default()
	if _, ok := newDelegate(cfg, zap.NewNop()).(*ffmpeg.Delegate); !ok {
		t.Error("exec backend should build an ffmpeg delegate")
	}

	cfg.Delegate.Backend = config.BackendWASM
	cfg.Delegate.WASMModule = "/opt/ffmpeg.wasm"
	if _, ok := newDelegate(cfg, zap.NewNop()).(*wasm.Delegate); !ok {
		t.Error("wasm backend should build a wasm delegate")
	}
}

func TestNewService_FromDefaults(t *testing.T) {
	svc, err := newService(config.Default(), zap.NewNop(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer func() { _ = svc.Close(context.Background()) }()

	if svc.IsReady() {
		t.Error("delegate should not be ready before the first load")
	}
	if st := svc.State(); st.IsConverting || st.IsLoading || st.Progress != 0 {
		t.Errorf("unexpected initial state %+v", st)
	}
}

func TestNewService_InvalidRoute(t *testing.T) {
	cfg := config.Default()
	cfg.Encode.WAVRoute = "cloud"
	if _, err := newService(cfg, zap.NewNop(), nil); err == nil {
		t.Error("expected error for an unknown wav route")
	}
}
