// Package router dispatches review requests to agents. A Router owns the
// process-wide state a request needs: the memoized config, default
// overrides, the response cache, and the availability memo.
package router

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/richhaase/interpeer/internal/agent"
	"github.com/richhaase/interpeer/internal/cache"
	"github.com/richhaase/interpeer/internal/config"
	"github.com/richhaase/interpeer/internal/domain"
	"github.com/richhaase/interpeer/internal/logging"
	"github.com/richhaase/interpeer/internal/observability"
	"github.com/richhaase/interpeer/internal/prompt"
	"github.com/richhaase/interpeer/internal/retry"
)

// Options configures a Router.
type Options struct {
	// ProjectRoot is where the config file and resource paths are resolved.
	ProjectRoot string
	// Lookup reads environment variables; defaults to the process env.
	Lookup config.LookupFunc
	// Logger overrides the logger built from the logging config.
	Logger *zap.Logger
	// Metrics is optional.
	Metrics *observability.Metrics
	// Adapters replaces the adapters of matching agent ids.
	Adapters map[string]agent.Adapter
	// Now is the cache clock; defaults to time.Now.
	Now func() time.Time
	// Available checks that an agent can run before it is invoked;
	// defaults to a version probe of the agent's command.
	Available func(ctx context.Context, ac config.AgentConfig) error
}

// state is everything derived from one config load.
type state struct {
	cfg      config.ResolvedConfig
	registry *agent.Registry
	logger   *zap.Logger
}

// Router routes review requests. It is safe for concurrent use.
type Router struct {
	root     string
	lookup   config.LookupFunc
	baseLog  *zap.Logger
	metrics  *observability.Metrics
	adapters map[string]agent.Adapter

	mu        sync.Mutex
	overrides config.Overrides
	state     *state

	cache     *cache.Cache
	prober    *agent.Prober
	available func(ctx context.Context, ac config.AgentConfig) error
}

// New creates a Router. Config is loaded lazily on first use.
func New(opts Options) *Router {
	lookup := opts.Lookup
	if lookup == nil {
		lookup = config.OSLookup
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	r := &Router{
		root:      opts.ProjectRoot,
		lookup:    lookup,
		baseLog:   opts.Logger,
		metrics:   opts.Metrics,
		adapters:  opts.Adapters,
		cache:     cache.NewWithClock(now),
		prober:    agent.NewProber(),
		available: opts.Available,
	}
	if r.available == nil {
		r.available = r.prober.Ensure
	}
	return r
}

// SetDefaults sets the process-wide default agent and model applied after
// every config layer. Empty values clear the override. The memoized config
// is dropped so the next request sees the change.
func (r *Router) SetDefaults(agentID, model string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.overrides = config.Overrides{Agent: agentID, Model: model}
	r.state = nil
}

// Reset drops the memoized config, the response cache, and availability
// results. Not safe while requests are in flight.
func (r *Router) Reset() {
	r.mu.Lock()
	r.state = nil
	r.mu.Unlock()
	r.cache.Clear()
	r.prober.Reset()
}

// Config returns the resolved config, loading it on first call.
func (r *Router) Config() (config.ResolvedConfig, error) {
	st, err := r.load()
	if err != nil {
		return config.ResolvedConfig{}, err
	}
	return st.cfg, nil
}

// AgentIDs returns the ids requests may target.
func (r *Router) AgentIDs() ([]string, error) {
	st, err := r.load()
	if err != nil {
		return nil, err
	}
	return st.registry.IDs(), nil
}

// CacheLen reports the number of cached responses.
func (r *Router) CacheLen() int {
	return r.cache.Len()
}

// fallbackAgent names the agent a request would have gone to when the
// config cannot be loaded: the target, then the process override, then the
// environment default, then the built-in default.
func (r *Router) fallbackAgent(req domain.ReviewRequest) string {
	if req.TargetAgent != "" {
		return config.NormalizeAgentID(req.TargetAgent)
	}
	r.mu.Lock()
	override := r.overrides.Agent
	r.mu.Unlock()
	if override != "" {
		return config.NormalizeAgentID(override)
	}
	if v, ok := r.lookup(config.EnvPrefix + "DEFAULT_AGENT"); ok && strings.TrimSpace(v) != "" {
		return config.NormalizeAgentID(strings.TrimSpace(v))
	}
	return config.AgentClaude
}

func (r *Router) load() (*state, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != nil {
		return r.state, nil
	}

	res, err := config.Load(r.root, r.lookup, r.overrides)
	if err != nil {
		return nil, err
	}

	logger := r.baseLog
	if logger == nil {
		logger, err = logging.FromConfig(res.Config.Logging)
		if err != nil {
			return nil, &domain.ConfigError{Path: res.Path, Err: err}
		}
	}
	for _, w := range res.Warnings {
		logger.Warn("config warning", zap.String("warning", w))
	}
	if res.Path != "" {
		logger.Debug("config loaded", zap.String("path", res.Path))
	}

	registry := agent.NewRegistry(res.Config)
	for id, a := range r.adapters {
		if ac, ok := res.Config.Agents[id]; ok {
			registry.Register(ac, a)
		}
	}

	r.state = &state{cfg: res.Config, registry: registry, logger: logger}
	return r.state, nil
}

// Route runs one review request end to end. Errors carry the agent id of the
// target agent whenever it is known.
func (r *Router) Route(ctx context.Context, req domain.ReviewRequest) (*domain.ReviewResult, error) {
	start := time.Now()
	requestID := uuid.NewString()

	ctx, span := observability.StartSpan(ctx, "interpeer.route",
		trace.WithAttributes(observability.AttrRequestID.String(requestID)))
	defer span.End()

	st, err := r.load()
	if err != nil {
		err = domain.WithAgent(err, r.fallbackAgent(req))
		span.RecordError(err)
		span.SetStatus(codes.Error, "config")
		r.metrics.RecordFailure(domain.AgentOf(err), err)
		return nil, err
	}
	log := st.logger.With(zap.String("request_id", requestID))

	result, agentID, err := r.route(ctx, st, req, log, span)
	if err != nil {
		err = domain.WithAgent(err, agentID)
		span.RecordError(err)
		span.SetStatus(codes.Error, observability.ErrorKind(err))
		r.metrics.RecordFailure(agentID, err)
		log.Error("review failed",
			zap.String("agent", agentID),
			zap.String("kind", observability.ErrorKind(err)),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		return nil, err
	}

	duration := time.Since(start)
	span.SetAttributes(
		observability.AttrAgent.String(result.Agent),
		observability.AttrModel.String(result.Model),
		observability.AttrCache.String(string(result.Cache)),
	)
	r.metrics.RecordReview(result.Agent, result.Cache, duration, result.Usage)

	fields := []zap.Field{
		zap.String("agent", result.Agent),
		zap.String("model", result.Model),
		zap.String("cache", string(result.Cache)),
		zap.Duration("duration", duration),
	}
	if !st.cfg.Logging.RedactContent && result.Usage != nil {
		fields = append(fields, zap.Any("usage", result.Usage))
	}
	log.Info("review completed", fields...)
	return result, nil
}

func (r *Router) route(ctx context.Context, st *state, req domain.ReviewRequest, log *zap.Logger, span trace.Span) (*domain.ReviewResult, string, error) {
	// (1) target agent
	explicit := strings.TrimSpace(req.TargetAgent) != ""
	agentID := st.cfg.Defaults.Agent
	if explicit {
		agentID = config.NormalizeAgentID(strings.TrimSpace(req.TargetAgent))
	}
	if err := req.Validate(); err != nil {
		return nil, agentID, err
	}
	ac, err := st.registry.Config(agentID)
	if err != nil {
		return nil, agentID, &domain.ValidationError{
			Agent:   agentID,
			Field:   "target_agent",
			Message: fmt.Sprintf("unknown agent %q, registered: %s", agentID, strings.Join(st.registry.IDs(), ", ")),
		}
	}
	adapter, err := st.registry.Adapter(agentID)
	if err != nil {
		return nil, agentID, err
	}

	// (2) resource expansion
	prepared := req.WithDefaults()
	prepared.TargetAgent = agentID
	prepared.Content, err = expandResources(ctx, r.root, prepared.Content, prepared.ResourcePaths)
	if err != nil {
		return nil, agentID, err
	}

	// (3) model
	model := r.chooseModel(st.cfg, ac, prepared, explicit)

	// (4) cache key
	key := cache.Key(prepared, agentID, model)

	// (5) cache read
	if st.cfg.Cache.Enabled {
		if entry, ok := r.cache.Get(key, st.cfg.Cache.TTL()); ok {
			res := entry.Result
			res.Cache = domain.CacheHit
			return &res, agentID, nil
		}
	}

	// (6) probe, prompt, invoke with retries
	if err := r.available(ctx, ac); err != nil {
		return nil, agentID, err
	}
	bundle := prompt.Build(prepared)
	inv := agent.Invocation{
		Model:   model,
		Prompt:  bundle,
		WorkDir: r.root,
		Stderr: func(line string) {
			log.Info("agent stderr", zap.String("agent", agentID), zap.String("line", line))
		},
	}
	notify := func(attempt int, delay time.Duration, err error) {
		log.Warn("agent attempt failed, retrying",
			zap.String("agent", agentID),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
	}
	res, err := retry.Do(ctx, ac.Retry, notify, func(ctx context.Context, attempt int) (*domain.ReviewResult, error) {
		r.metrics.RecordAttempt(agentID)
		ctx, attemptSpan := observability.StartSpan(ctx, "interpeer.agent.review", trace.WithAttributes(
			observability.AttrAgent.String(agentID),
			observability.AttrModel.String(model),
			observability.AttrAttempt.Int(attempt),
		))
		defer attemptSpan.End()

		out, err := adapter.Review(ctx, inv)
		if err == nil && out == nil {
			err = errors.New("adapter returned no result")
		}
		if err != nil {
			attemptSpan.RecordError(err)
			attemptSpan.SetStatus(codes.Error, "attempt failed")
		}
		return out, err
	})
	if err != nil {
		return nil, agentID, err
	}
	span.AddEvent("agent responded")

	// (7) tag, store
	out := res.Clone()
	out.Agent = agentID
	if out.Model == "" {
		out.Model = model
	}
	if strings.TrimSpace(out.Text) == "" {
		out.Text = domain.EmptyResponseText(agentID)
	}
	out.Cache = domain.CacheMiss
	if st.cfg.Cache.Enabled {
		r.cache.Put(key, out, st.cfg.Cache.MaxEntries)
	}
	return &out, agentID, nil
}

// chooseModel picks target_model, else the default-model override when no
// agent was named explicitly, else the agent's configured model.
func (r *Router) chooseModel(cfg config.ResolvedConfig, ac config.AgentConfig, req domain.ReviewRequest, explicitAgent bool) string {
	if m := strings.TrimSpace(req.TargetModel); m != "" {
		return m
	}
	if !explicitAgent && cfg.Defaults.Model != "" {
		return cfg.Defaults.Model
	}
	return ac.Model
}
