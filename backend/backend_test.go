package backend

import (
	"errors"
	"testing"

	"github.com/gogpu/shaderscript"
)

// stubEnv satisfies shaderscript.Environment for registry tests without
// touching a GPU.
type stubEnv struct {
	shaderscript.Environment
	name string
}

func stubFactory(name string, err error) Factory {
	return func(width, height int) (shaderscript.Environment, error) {
		if err != nil {
			return nil, err
		}
		return &stubEnv{name: name}, nil
	}
}

func TestRegisterAndNew(t *testing.T) {
	Register("stub", stubFactory("stub", nil))
	defer Unregister("stub")

	if !IsRegistered("stub") {
		t.Fatal("stub not registered")
	}
	env, err := New("stub", 4, 4)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if env.(*stubEnv).name != "stub" {
		t.Errorf("wrong environment: %+v", env)
	}

	found := false
	for _, name := range Available() {
		if name == "stub" {
			found = true
		}
	}
	if !found {
		t.Errorf("Available() = %v, missing stub", Available())
	}
}

func TestNewUnregistered(t *testing.T) {
	_, err := New("no-such-backend", 4, 4)
	if !errors.Is(err, ErrNotRegistered) {
		t.Errorf("err = %v, want ErrNotRegistered", err)
	}
}

func TestUnregister(t *testing.T) {
	Register("stub", stubFactory("stub", nil))
	Unregister("stub")
	if IsRegistered("stub") {
		t.Error("stub still registered after Unregister")
	}
}

func TestDefaultFallsThroughFailedFactory(t *testing.T) {
	// A priority environment that fails to initialize must fall through to
	// the next one rather than aborting default selection.
	saved := map[string]Factory{}
	for _, name := range Available() {
		registryMu.RLock()
		saved[name] = factories[name]
		registryMu.RUnlock()
		Unregister(name)
	}
	defer func() {
		for name, f := range saved {
			Register(name, f)
		}
	}()

	Register(NameWGPU, stubFactory(NameWGPU, errors.New("no adapter")))
	Register(NameSoftware, stubFactory(NameSoftware, nil))
	defer Unregister(NameWGPU)
	defer Unregister(NameSoftware)

	env, err := Default(4, 4)
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	if env.(*stubEnv).name != NameSoftware {
		t.Errorf("Default picked %q, want %q", env.(*stubEnv).name, NameSoftware)
	}
}

func TestDefaultWithNothingRegistered(t *testing.T) {
	saved := map[string]Factory{}
	for _, name := range Available() {
		registryMu.RLock()
		saved[name] = factories[name]
		registryMu.RUnlock()
		Unregister(name)
	}
	defer func() {
		for name, f := range saved {
			Register(name, f)
		}
	}()

	if _, err := Default(4, 4); !errors.Is(err, ErrNoneAvailable) {
		t.Errorf("err = %v, want ErrNoneAvailable", err)
	}
}
