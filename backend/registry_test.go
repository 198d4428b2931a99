package backend

import (
	"errors"
	"testing"

	"github.com/gogpu/hwvg/gpucore"
)

// stubContext is a minimal gpucore.Context for registry tests.
type stubContext struct {
	name string
}

func (s *stubContext) CreateTexture(gpucore.TextureFormat, int, int, []byte) (gpucore.TextureID, error) {
	return gpucore.InvalidID, nil
}
func (s *stubContext) WriteTexture(gpucore.TextureID, int, int, int, int, []byte) error { return nil }
func (s *stubContext) DestroyTexture(gpucore.TextureID) error                           { return nil }
func (s *stubContext) Draw(gpucore.DrawState, []gpucore.Vertex, []uint32) error         { return nil }
func (s *stubContext) BeginFrame(int, int) error                                        { return nil }
func (s *stubContext) EndFrame() error                                                  { return nil }

func stubFactory(name string) Factory {
	return func() (gpucore.Context, error) {
		return &stubContext{name: name}, nil
	}
}

func failingFactory() (gpucore.Context, error) {
	return nil, errors.New("no device")
}

// cleanup removes every registered backend so tests do not leak state
// into each other (software registers itself from init in other builds).
func resetRegistry(t *testing.T) {
	t.Helper()
	prior := Available()
	for _, name := range prior {
		Unregister(name)
	}
	t.Cleanup(func() {
		for _, name := range Available() {
			Unregister(name)
		}
	})
}

func TestRegisterAndGet(t *testing.T) {
	resetRegistry(t)

	Register("test", stubFactory("test"))

	if !IsRegistered("test") {
		t.Error("IsRegistered(test) = false, want true")
	}

	ctx, err := Get("test")
	if err != nil {
		t.Fatalf("Get(test) error = %v", err)
	}
	if ctx == nil {
		t.Fatal("Get(test) returned nil context")
	}
}

func TestGetUnknown(t *testing.T) {
	resetRegistry(t)

	if _, err := Get("nonexistent"); !errors.Is(err, ErrBackendNotAvailable) {
		t.Errorf("Get(nonexistent) error = %v, want ErrBackendNotAvailable", err)
	}
}

func TestUnregister(t *testing.T) {
	resetRegistry(t)

	Register("temp", stubFactory("temp"))
	Unregister("temp")

	if IsRegistered("temp") {
		t.Error("backend still registered after Unregister")
	}
}

func TestAvailable(t *testing.T) {
	resetRegistry(t)

	Register("a", stubFactory("a"))
	Register("b", stubFactory("b"))

	names := Available()
	if len(names) != 2 {
		t.Fatalf("Available() = %v, want 2 entries", names)
	}
}

func TestDefaultPriority(t *testing.T) {
	resetRegistry(t)

	Register(BackendSoftware, stubFactory(BackendSoftware))
	Register(BackendWGPU, stubFactory(BackendWGPU))

	ctx, err := Default()
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}
	sc, ok := ctx.(*stubContext)
	if !ok {
		t.Fatalf("Default() returned %T, want *stubContext", ctx)
	}
	if sc.name != BackendWGPU {
		t.Errorf("Default() picked %q, want %q", sc.name, BackendWGPU)
	}
}

func TestDefaultFallsThroughFailedFactory(t *testing.T) {
	resetRegistry(t)

	Register(BackendWGPU, failingFactory)
	Register(BackendSoftware, stubFactory(BackendSoftware))

	ctx, err := Default()
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}
	sc := ctx.(*stubContext)
	if sc.name != BackendSoftware {
		t.Errorf("Default() picked %q, want %q", sc.name, BackendSoftware)
	}
}

func TestDefaultEmpty(t *testing.T) {
	resetRegistry(t)

	if _, err := Default(); !errors.Is(err, ErrBackendNotAvailable) {
		t.Errorf("Default() error = %v, want ErrBackendNotAvailable", err)
	}
}

func TestDefaultUsesUnprioritizedFallback(t *testing.T) {
	resetRegistry(t)

	Register("custom", stubFactory("custom"))

	ctx, err := Default()
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}
	if ctx.(*stubContext).name != "custom" {
		t.Error("Default() did not fall back to unprioritized backend")
	}
}

func TestMustDefaultPanics(t *testing.T) {
	resetRegistry(t)

	defer func() {
		if recover() == nil {
			t.Error("MustDefault() did not panic with empty registry")
		}
	}()
	MustDefault()
}
