package advisor

// Engine binds a built rule catalog, its profile catalog, and a selection
// policy into one evaluator. Engines are immutable after construction and
// safe for concurrent use; each Evaluate call works on freshly allocated
// state only.
type Engine struct {
	catalog  *Catalog
	profiles *ProfileCatalog
	policy   SelectionPolicy
}

// Option configures engine construction.
type Option func(*engineConfig)

type engineConfig struct {
	profiles []Profile
	policy   SelectionPolicy
}

// WithProfiles replaces the built-in species profiles.
func WithProfiles(profiles []Profile) Option {
	return func(cfg *engineConfig) {
		cfg.profiles = profiles
	}
}

// WithPolicy sets the selection policy. The default keeps all issues.
func WithPolicy(policy SelectionPolicy) Option {
	return func(cfg *engineConfig) {
		cfg.policy = policy
	}
}

// NewEngine builds the profile catalog and rule catalog and validates both.
// Construction errors are startup failures; a returned engine is fully
// usable.
func NewEngine(opts ...Option) (*Engine, error) {
	cfg := engineConfig{
		profiles: DefaultProfiles(),
		policy:   AllIssues(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	profiles, err := NewProfileCatalog(cfg.profiles)
	if err != nil {
		return nil, err
	}
	catalog, err := BuildCatalog(profiles)
	if err != nil {
		return nil, err
	}
	return &Engine{
		catalog:  catalog,
		profiles: profiles,
		policy:   cfg.policy,
	}, nil
}

// Evaluate runs the full pipeline for one observation: rule evaluation,
// deduplication, sorting, and selection.
func (e *Engine) Evaluate(obs Observation) Advisory {
	return Aggregate(e.catalog.Evaluate(obs), e.policy)
}

// Policy returns the engine's configured selection policy.
func (e *Engine) Policy() SelectionPolicy {
	return e.policy
}

// Profiles returns the engine's profile catalog.
func (e *Engine) Profiles() *ProfileCatalog {
	return e.profiles
}

// CatalogSize returns the number of rules the engine evaluates per
// observation.
func (e *Engine) CatalogSize() int {
	return e.catalog.Size()
}
