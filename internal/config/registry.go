package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/lexiread/lexiread/pkg/asr"
	"github.com/lexiread/lexiread/pkg/vad"
)

// ErrProviderNotRegistered is returned by Create* methods when no factory has
// been registered under the requested provider name.
var ErrProviderNotRegistered = errors.New("config: provider not registered")

// Registry maps provider names to their constructor functions for the ASR and
// VAD backends. It is safe for concurrent use.
type Registry struct {
	mu  sync.RWMutex
	asr map[ASRProvider]func(ASRConfig) (asr.Transcriber, error)
	vad map[string]func(VADConfig) (vad.Engine, error)
}

// NewRegistry returns an empty, ready-to-use [Registry].
func NewRegistry() *Registry {
	return &Registry{
		asr: make(map[ASRProvider]func(ASRConfig) (asr.Transcriber, error)),
		vad: make(map[string]func(VADConfig) (vad.Engine, error)),
	}
}

// RegisterASR registers an ASR backend factory under name.
// Subsequent calls with the same name overwrite the previous registration.
func (r *Registry) RegisterASR(name ASRProvider, factory func(ASRConfig) (asr.Transcriber, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.asr[name] = factory
}

// RegisterVAD registers a VAD engine factory under name.
func (r *Registry) RegisterVAD(name string, factory func(VADConfig) (vad.Engine, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.vad[name] = factory
}

// CreateASR constructs the ASR backend selected by cfg.Provider.
// Providers "" and "off" yield a nil Transcriber without error.
func (r *Registry) CreateASR(cfg ASRConfig) (asr.Transcriber, error) {
	if cfg.Provider == "" || cfg.Provider == ASROff {
		return nil, nil
	}

	r.mu.RLock()
	factory, ok := r.asr[cfg.Provider]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: asr %q", ErrProviderNotRegistered, cfg.Provider)
	}
	return factory(cfg)
}

// CreateVAD constructs the VAD engine registered under name.
func (r *Registry) CreateVAD(name string, cfg VADConfig) (vad.Engine, error) {
	r.mu.RLock()
	factory, ok := r.vad[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: vad %q", ErrProviderNotRegistered, name)
	}
	return factory(cfg)
}
