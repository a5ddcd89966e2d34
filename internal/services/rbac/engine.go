package rbac

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/polisgate/polisgate/internal/entities"
	"github.com/polisgate/polisgate/internal/infrastructure/metrics"
	"github.com/polisgate/polisgate/internal/services/audit"
)

// defaultBulkConcurrency bounds parallel evaluations inside EvaluateBulk.
const defaultBulkConcurrency = 4

// Engine is the core decision engine: it resolves the actor's effective
// permission set, filters by resource/action, evaluates conditions,
// resolves scope, aggregates risk, applies the domain validation overlay
// and records the outcome. It holds no persistent state of its own and is
// safe for concurrent use.
type Engine struct {
	assignments *AssignmentService
	conditions  *ConditionEvaluator
	scopes      *ScopeResolver
	scopePolicy ScopeAggregationPolicy
	overlay     *DomainValidator
	auditLog    audit.Log
	risk        RiskScoreProvider
	metrics     *metrics.Metrics
	logger      *logrus.Logger

	bulkConcurrency int
}

// EngineOption customizes an Engine.
type EngineOption func(*Engine)

// WithScopePolicy replaces the default WidestWins scope aggregation.
func WithScopePolicy(policy ScopeAggregationPolicy) EngineOption {
	return func(e *Engine) { e.scopePolicy = policy }
}

// WithRiskProvider wires an injectable behavioral risk score provider.
func WithRiskProvider(provider RiskScoreProvider) EngineOption {
	return func(e *Engine) { e.risk = provider }
}

// WithMetrics wires Prometheus instrumentation.
func WithMetrics(m *metrics.Metrics) EngineOption {
	return func(e *Engine) { e.metrics = m }
}

// WithBulkConcurrency bounds parallelism inside EvaluateBulk.
func WithBulkConcurrency(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.bulkConcurrency = n
		}
	}
}

// NewEngine creates a decision engine.
func NewEngine(
	assignments *AssignmentService,
	conditions *ConditionEvaluator,
	scopes *ScopeResolver,
	overlay *DomainValidator,
	auditLog audit.Log,
	logger *logrus.Logger,
	opts ...EngineOption,
) *Engine {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	e := &Engine{
		assignments:     assignments,
		conditions:      conditions,
		scopes:          scopes,
		scopePolicy:     WidestWins,
		overlay:         overlay,
		auditLog:        auditLog,
		logger:          logger,
		bulkConcurrency: defaultBulkConcurrency,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate decides whether the actor may perform action on resource in the
// given context. Every call, whatever its outcome, appends exactly one
// audit entry before returning; a failed append fails the evaluation
// (deny), never the other way around. Internal faults fail closed with an
// audit entry noting the fault.
func (e *Engine) Evaluate(
	ctx context.Context,
	actorID, resource, action string,
	ec *entities.EvaluationContext,
) (*entities.Decision, error) {
	start := time.Now()

	// Work on a copy: the caller may reuse one context across actors, so
	// the actor id and request time stamped here must not leak back.
	scoped := entities.EvaluationContext{}
	if ec != nil {
		scoped = *ec
	}
	ec = &scoped
	ec.ActorID = actorID
	if ec.RequestTime.IsZero() {
		ec.RequestTime = time.Now().UTC()
	}

	decision, evalErr := e.evaluate(ctx, actorID, resource, action, ec)
	if evalErr != nil {
		e.logger.WithError(evalErr).WithFields(logrus.Fields{
			"actor_id": actorID,
			"resource": resource,
			"action":   action,
		}).Error("evaluation fault, failing closed")
		decision = &entities.Decision{
			Granted: false,
			Reason:  entities.ReasonInternalError,
			Outcome: entities.OutcomeError,
		}
	}

	entry := &entities.AuditEntry{
		ActorID:        actorID,
		Resource:       resource,
		Action:         action,
		Granted:        decision.Granted,
		Reason:         decision.Reason,
		EffectiveScope: decision.EffectiveScope,
		RiskLevel:      decision.RiskLevel,
		Fault:          evalErr != nil,
		Context:        ec.AsMap(),
	}
	if auditErr := e.auditLog.Append(ctx, entry); auditErr != nil {
		// Decision and audit entry are one logical operation: a decision
		// the audit log never saw must not reach the caller as a grant.
		if evalErr == nil {
			evalErr = fmt.Errorf("audit append failed: %w", auditErr)
			decision = &entities.Decision{
				Granted: false,
				Reason:  entities.ReasonInternalError,
				Outcome: entities.OutcomeError,
			}
		}
	} else if e.metrics != nil {
		e.metrics.ObserveAuditAppend()
	}

	if e.metrics != nil {
		e.metrics.ObserveDecision(decision.Granted, time.Since(start))
	}
	return decision, evalErr
}

// evaluate runs the base RBAC state machine plus the domain overlay.
func (e *Engine) evaluate(
	ctx context.Context,
	actorID, resource, action string,
	ec *entities.EvaluationContext,
) (*entities.Decision, error) {
	permissions, err := e.assignments.EffectivePermissionsForActor(ctx, actorID)
	if err != nil {
		return nil, err
	}

	// Filter to permissions targeting this resource/action.
	var matching []*entities.Permission
	for _, p := range permissions {
		if p.Matches(resource, action) {
			matching = append(matching, p)
		}
	}
	if len(matching) == 0 {
		return &entities.Decision{
			Granted: false,
			Reason:  entities.ReasonNoMatch,
			Outcome: entities.OutcomeNoMatch,
		}, nil
	}

	// Conditions: a permission with a failing condition does not
	// contribute; missing context fields fail closed inside the evaluator.
	var surviving []*entities.Permission
	for _, p := range matching {
		if !p.Conditional() || e.conditions.EvaluateAll(p.Conditions, ec) {
			surviving = append(surviving, p)
		}
	}
	if len(surviving) == 0 {
		return &entities.Decision{
			Granted: false,
			Reason:  entities.ReasonConditionsNotMet,
			Outcome: entities.OutcomeConditionsFailed,
		}, nil
	}

	// Scope: contributing permissions are those whose scope is satisfiable
	// in this context.
	var (
		satisfiable []entities.Scope
		contributed []*entities.Permission
	)
	for _, p := range surviving {
		ok, err := e.scopes.Satisfiable(ctx, p.Scope, ec)
		if err != nil {
			return nil, fmt.Errorf("scope resolution failed: %w", err)
		}
		if ok {
			satisfiable = append(satisfiable, p.Scope)
			contributed = append(contributed, p)
		}
	}
	if len(contributed) == 0 {
		return &entities.Decision{
			Granted: false,
			Reason:  entities.ReasonConditionsNotMet,
			Outcome: entities.OutcomeScopeDenied,
		}, nil
	}

	risk := entities.RiskLow
	ids := make([]string, len(contributed))
	for i, p := range contributed {
		risk = entities.MaxRiskLevel(risk, p.RiskLevel)
		ids[i] = p.ID
	}

	decision := &entities.Decision{
		Granted:              true,
		ConditionsMet:        true,
		EffectiveScope:       e.scopePolicy(satisfiable),
		RiskLevel:            risk,
		MatchedPermissionIDs: ids,
		Outcome:              entities.OutcomeGranted,
	}
	if risk == entities.RiskCritical {
		decision.RequiresAdditionalAuth = true
	}

	if e.risk != nil {
		score, err := e.risk.Score(ctx, actorID, ec)
		if err != nil {
			// The provider is advisory; its failure must not flip a
			// decision, but it is worth a warning.
			e.logger.WithError(err).WithField("actor_id", actorID).Warn("risk score provider failed")
		} else {
			decision.RiskScore = &score
			if score >= AdditionalAuthScoreThreshold {
				decision.RequiresAdditionalAuth = true
			}
		}
	}

	if failed := e.overlay.Validate(ctx, resource, action, ec, decision); failed != "" && e.metrics != nil {
		e.metrics.ObserveOverlayDenial(string(failed))
	}
	return decision, nil
}

// ResourceAction identifies one check in a bulk request.
type ResourceAction struct {
	Resource string `json:"resource"`
	Action   string `json:"action"`
}

// Key returns the map key bulk results are reported under.
func (ra ResourceAction) Key() string {
	return ra.Resource + ":" + ra.Action
}

// EvaluateBulk checks several (resource, action) pairs against one context,
// semantically equivalent to calling Evaluate once per pair: every pair
// gets its own audit entry and full overlay run. Pairs are evaluated
// concurrently under a bounded errgroup.
func (e *Engine) EvaluateBulk(
	ctx context.Context,
	actorID string,
	checks []ResourceAction,
	ec *entities.EvaluationContext,
) (map[string]*entities.Decision, error) {
	results := make(map[string]*entities.Decision, len(checks))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.bulkConcurrency)
	for _, check := range checks {
		check := check
		g.Go(func() error {
			decision, err := e.Evaluate(gctx, actorID, check.Resource, check.Action, ec)
			if err != nil {
				return err
			}
			mu.Lock()
			results[check.Key()] = decision
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
