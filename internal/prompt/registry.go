package prompt

import "github.com/utafrali/PromptEnhancerPro/internal/domain"

// Registry is an immutable lookup of known target models.
type Registry struct {
	order []domain.ModelDescriptor
	byID  map[string]domain.ModelDescriptor
}

// NewRegistry builds a registry from models, keeping their order. Later
// duplicates of an id are ignored.
func NewRegistry(models ...domain.ModelDescriptor) *Registry {
	r := &Registry{byID: make(map[string]domain.ModelDescriptor, len(models))}
	for _, m := range models {
		if _, dup := r.byID[m.ID]; dup {
			continue
		}
		r.byID[m.ID] = m
		r.order = append(r.order, m)
	}
	return r
}

// DefaultRegistry returns the models offered by the frontend.
func DefaultRegistry() *Registry {
	return NewRegistry(
		domain.ModelDescriptor{ID: "chatgpt-4", Label: "ChatGPT-4 / GPT-4o (Text)", Provider: "openai"},
		domain.ModelDescriptor{ID: "claude-3-opus", Label: "Claude 3 Opus (Text)", Provider: "anthropic"},
		domain.ModelDescriptor{ID: "gemini-advanced", Label: "Gemini Advanced (Text)", Provider: "gemini"},
		domain.ModelDescriptor{ID: "midjourney", Label: "Midjourney (Image)", Provider: "midjourney", IsImageModel: true},
		domain.ModelDescriptor{ID: "dall-e-3", Label: "DALL-E 3 (Image)", Provider: "openai", IsImageModel: true},
		domain.ModelDescriptor{ID: "stable-diffusion-xl", Label: "Stable Diffusion XL (Image)", Provider: "stability-ai", IsImageModel: true},
		domain.ModelDescriptor{ID: "imagen-3", Label: "Imagen 3 (Image)", Provider: "google", IsImageModel: true},
	)
}

// Lookup returns the descriptor for id and whether it is known.
func (r *Registry) Lookup(id string) (domain.ModelDescriptor, bool) {
	m, ok := r.byID[id]
	return m, ok
}

// Resolve returns the descriptor for id. Unknown ids get a text-model
// descriptor labelled with the raw id.
func (r *Registry) Resolve(id string) domain.ModelDescriptor {
	if m, ok := r.byID[id]; ok {
		return m
	}
	return domain.ModelDescriptor{ID: id, Label: id}
}

// All returns a copy of the registry in declaration order.
func (r *Registry) All() []domain.ModelDescriptor {
	out := make([]domain.ModelDescriptor, len(r.order))
	copy(out, r.order)
	return out
}
