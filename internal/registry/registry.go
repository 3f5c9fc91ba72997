package registry

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/codariq/codariq-api/internal/config"
)

// Model roles understood by the orchestrator.
const (
	RoleChat = "chat"
	RoleCode = "code"
)

// ErrUnknownModel indicates the requested logical model name is not registered.
var ErrUnknownModel = errors.New("unknown model")

// ErrDuplicateModel indicates a registration conflict in strict mode.
var ErrDuplicateModel = errors.New("model already registered")

// Descriptor identifies one backend model and how to reach it.
type Descriptor struct {
	Name     string `json:"name" validate:"required"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
	BaseURL  string `json:"base_url,omitempty"`
	Role     string `json:"role" validate:"omitempty,oneof=chat code"`
}

// Registry maps logical model names to backend descriptors. It is built once
// at startup from configuration and handed to services explicitly; after that
// the only mutation path is Register.
type Registry struct {
	mu     sync.RWMutex
	strict bool
	models map[string]Descriptor
}

// New creates an empty registry. In strict mode re-registering a name fails
// with ErrDuplicateModel; otherwise overwrite is the update mechanism.
func New(strict bool) *Registry {
	return &Registry{
		strict: strict,
		models: make(map[string]Descriptor),
	}
}

// FromConfig builds the registry from the configured chat and code model
// lists. Every configured model targets the OpenAI-compatible endpoint of the
// local runtime unless a descriptor overrides it later.
func FromConfig(cfg config.Config) (*Registry, error) {
	r := New(cfg.RegistryStrict)

	for _, name := range cfg.ChatModels {
		if err := r.Register(Descriptor{Name: name, Provider: "ollama", Model: name, BaseURL: cfg.InferenceBaseURL, Role: RoleChat}); err != nil {
			return nil, fmt.Errorf("register chat model %q: %w", name, err)
		}
	}

	for _, name := range cfg.CodeModels {
		if err := r.Register(Descriptor{Name: name, Provider: "ollama", Model: name, BaseURL: cfg.InferenceBaseURL, Role: RoleCode}); err != nil {
			return nil, fmt.Errorf("register code model %q: %w", name, err)
		}
	}

	return r, nil
}

// Register stores the descriptor under its logical name.
func (r *Registry) Register(d Descriptor) error {
	name := strings.TrimSpace(d.Name)
	if name == "" {
		return fmt.Errorf("model name must not be empty")
	}
	d.Name = name
	if d.Model == "" {
		d.Model = name
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.models[name]; exists && r.strict {
		return fmt.Errorf("%w: %s", ErrDuplicateModel, name)
	}

	r.models[name] = d
	return nil
}

// Resolve returns the descriptor registered under name.
func (r *Registry) Resolve(name string) (Descriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.models[strings.TrimSpace(name)]
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: %s", ErrUnknownModel, name)
	}

	return d, nil
}

// Names returns the registered logical names in sorted order. The slice is a
// copy; callers may iterate it as often as they like.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.models))
	for name := range r.models {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// ByRole returns the descriptors carrying the given role tag, sorted by name.
func (r *Registry) ByRole(role string) []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	descriptors := make([]Descriptor, 0, len(r.models))
	for _, d := range r.models {
		if d.Role == role {
			descriptors = append(descriptors, d)
		}
	}
	sort.Slice(descriptors, func(i, j int) bool { return descriptors[i].Name < descriptors[j].Name })

	return descriptors
}
