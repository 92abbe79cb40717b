package routing

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/lucsky/cuid"

	"payment-router/internal/common/logging"
	"payment-router/internal/providers"
)

// Engine runs the provider selection pipeline. One engine serves all
// routing calls concurrently; per-call state lives on the stack of Route.
//
// Every call walks the same strictly sequential pipeline:
//
//	start -> eligibility_checked -> health_checked -> profile_resolved
//	      -> scored -> ranked -> decided
//
// The two filter stages can terminate the pipeline early with a no-provider
// decision. Scoring failures never terminate it: a strategy that errors or
// panics contributes the neutral score for that provider and the call goes
// on.
type Engine struct {
	registry   *providers.Registry
	source     SnapshotSource
	strategies map[StrategyType]Strategy

	eligibility *EligibilityFilter
	health      *HealthFilter
	logger      logging.Logger
}

// NewEngine creates a routing engine over the given provider registry and
// configuration source. A nil source falls back to builtin defaults.
func NewEngine(registry *providers.Registry, source SnapshotSource, logger logging.Logger) *Engine {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	if source == nil {
		source = &StaticSnapshotSource{}
	}
	return &Engine{
		registry:    registry,
		source:      source,
		strategies:  newStrategyRegistry(),
		eligibility: NewEligibilityFilter(logger),
		health:      NewHealthFilter(logger),
		logger:      logger,
	}
}

// Route selects a provider for the transaction using the snapshot's active
// profile. The returned decision is always non-nil when the error is nil;
// "no provider available" is a decision with an empty SelectedProvider, not
// an error.
func (e *Engine) Route(ctx context.Context, rctx *RoutingContext) (*RouteDecision, error) {
	return e.route(ctx, rctx, "")
}

// RouteWithProfile is Route with an explicit profile name overriding the
// snapshot's active profile for this one call.
func (e *Engine) RouteWithProfile(ctx context.Context, rctx *RoutingContext, profile string) (*RouteDecision, error) {
	return e.route(ctx, rctx, profile)
}

func (e *Engine) route(ctx context.Context, rctx *RoutingContext, profileOverride string) (*RouteDecision, error) {
	started := time.Now()
	if rctx == nil {
		return nil, ErrNilContext
	}
	if e.registry == nil || e.registry.Len() == 0 {
		return nil, ErrEmptyRegistry
	}

	// One snapshot pointer for the whole call; concurrent refreshes never
	// mix configurations inside a single decision.
	snapshot := e.source.Snapshot()
	state := stateStart
	log := e.logger.WithFields(
		logging.String("merchant_id", rctx.MerchantID),
		logging.String("currency", rctx.Currency),
		logging.String("country", rctx.Country),
		logging.String("network", rctx.Network),
	)

	candidates := e.registry.All()
	eligible := e.eligibility.Filter(rctx, candidates)
	state = e.advance(log, state, stateEligibilityChecked)
	if len(eligible) == 0 {
		return e.terminalDecision(rctx, started, ReasonNoEligibleProviders, []string{"Eligibility Filter"}), nil
	}

	health := e.collectHealth(ctx, eligible, log)
	survivors := e.health.Filter(eligible, health, snapshot.Health)
	state = e.advance(log, state, stateHealthChecked)
	if len(survivors) == 0 {
		return e.terminalDecision(rctx, started, ReasonNoHealthyProviders, []string{"Eligibility Filter", "Health Gate"}), nil
	}

	profileName := profileOverride
	if profileName == "" {
		profileName = snapshot.ActiveProfile
	}
	profile, profileErr := ResolveProfile(profileName, snapshot)
	if profileErr != nil {
		log.Warn("Profile resolution failed, falling back to balanced",
			logging.String("requested", profileName),
			logging.Err(profileErr),
		)
	}
	state = e.advance(log, state, stateProfileResolved)

	input := ScoreInput{
		Context:   rctx,
		Survivors: survivors,
		Snapshot:  snapshot,
		Fees:      e.collectFees(ctx, survivors, rctx, log),
		Health:    health,
	}

	evaluations, explanations := e.score(ctx, profile, input, log)
	state = e.advance(log, state, stateScored)

	ranked := e.rank(evaluations)
	state = e.advance(log, state, stateRanked)

	decision := e.buildDecision(rctx, started, profile, profileErr != nil, ranked, explanations)
	state = e.advance(log, state, stateDecided)
	_ = state

	log.Info("Routing decision",
		logging.String("decision_id", decision.ID),
		logging.String("selected", decision.SelectedProvider),
		logging.String("profile", profile.Name),
		logging.Duration("elapsed", decision.ProcessingTime),
	)
	return decision, nil
}

// advance logs one pipeline transition and returns the new state.
func (e *Engine) advance(log logging.Logger, from, to engineState) engineState {
	log.Debug("Pipeline transition",
		logging.String("from", from.String()),
		logging.String("to", to.String()),
	)
	return to
}

// collectHealth fetches the health snapshot of every eligible provider
// once. Providers whose lookup fails are left out of the map, which the
// health gate treats as unhealthy.
func (e *Engine) collectHealth(ctx context.Context, eligible []providers.Provider, log logging.Logger) map[string]providers.HealthSnapshot {
	out := make(map[string]providers.HealthSnapshot, len(eligible))
	for _, p := range eligible {
		snapshot, err := p.HealthSnapshot(ctx)
		if err != nil {
			log.Warn("Health lookup failed",
				logging.String("provider", p.Name()),
				logging.Err(err),
			)
			continue
		}
		out[p.Name()] = snapshot
	}
	return out
}

// collectFees quotes every surviving provider once. Failed quotes keep the
// error so the cost strategy can zero out exactly that provider.
func (e *Engine) collectFees(ctx context.Context, survivors []providers.Provider, rctx *RoutingContext, log logging.Logger) map[string]FeeResult {
	out := make(map[string]FeeResult, len(survivors))
	for _, p := range survivors {
		fee, err := p.FeeFor(ctx, rctx.Currency, rctx.Amount)
		if err != nil {
			log.Warn("Fee lookup failed",
				logging.String("provider", p.Name()),
				logging.Err(err),
			)
		}
		out[p.Name()] = FeeResult{Fee: fee, Err: err}
	}
	return out
}

// score runs every enabled strategy over every survivor and folds the
// weighted results into one evaluation per provider.
func (e *Engine) score(ctx context.Context, profile *RoutingProfile, input ScoreInput, log logging.Logger) ([]ProviderEvaluation, map[string]map[string]any) {
	explanations := make(map[string]map[string]any)
	evaluations := make([]ProviderEvaluation, 0, len(input.Survivors))

	for _, p := range input.Survivors {
		in := input
		in.Provider = p

		eval := ProviderEvaluation{
			Provider:       p.Name(),
			Eligible:       true,
			Healthy:        true,
			StrategyScores: make(map[StrategyType]float64, len(profile.Strategies)),
		}
		for _, st := range profile.EnabledStrategies() {
			strategy, ok := e.strategies[st]
			if !ok {
				// Validated profiles only reference registered strategies;
				// treat a gap as a neutral contribution anyway.
				eval.StrategyScores[st] = NeutralScore
				eval.CompositeScore += profile.Strategies[st] * NeutralScore
				continue
			}
			score, detail := e.scoreSafely(ctx, strategy, in, log)
			eval.StrategyScores[st] = score
			eval.CompositeScore += profile.Strategies[st] * score

			if explanations[string(st)] == nil {
				explanations[string(st)] = make(map[string]any)
			}
			explanations[string(st)][p.Name()] = detail
		}
		evaluations = append(evaluations, eval)
	}
	return evaluations, explanations
}

// scoreSafely isolates one strategy invocation. Errors and panics both
// degrade to the neutral score so a single broken strategy cannot take a
// routing call down or skew its ranking.
func (e *Engine) scoreSafely(ctx context.Context, strategy Strategy, input ScoreInput, log logging.Logger) (score float64, detail map[string]any) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("Strategy panicked, using neutral score",
				fmt.Errorf("panic: %v", r),
				logging.String("strategy", string(strategy.Type())),
				logging.String("provider", input.Provider.Name()),
			)
			score = NeutralScore
			detail = map[string]any{"degraded": true, "score": NeutralScore}
		}
	}()

	score, err := strategy.Score(ctx, input)
	if err != nil {
		log.Warn("Strategy failed, using neutral score",
			logging.String("strategy", string(strategy.Type())),
			logging.String("provider", input.Provider.Name()),
			logging.Err(err),
		)
		return NeutralScore, map[string]any{"degraded": true, "score": NeutralScore}
	}
	return score, strategy.Explain(ctx, input, score)
}

// rank orders evaluations by composite score descending. The input arrives
// in registration order and the sort is stable, so equal composites keep
// that order, which makes ranking fully deterministic.
func (e *Engine) rank(evaluations []ProviderEvaluation) []ProviderEvaluation {
	ranked := make([]ProviderEvaluation, len(evaluations))
	copy(ranked, evaluations)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].CompositeScore > ranked[j].CompositeScore
	})
	return ranked
}

// terminalDecision builds the early-exit decision for an empty filter
// stage.
func (e *Engine) terminalDecision(rctx *RoutingContext, started time.Time, reason string, steps []string) *RouteDecision {
	return &RouteDecision{
		ID:             cuid.New(),
		Candidates:     []string{},
		StrategiesUsed: steps,
		Reason:         reason,
		Context:        *rctx,
		CreatedAt:      time.Now().UTC(),
		ProcessingTime: time.Since(started),
	}
}

// buildDecision assembles the final decision and its audit metadata from
// the ranked evaluations.
func (e *Engine) buildDecision(rctx *RoutingContext, started time.Time, profile *RoutingProfile, fallback bool, ranked []ProviderEvaluation, explanations map[string]map[string]any) *RouteDecision {
	candidates := make([]string, len(ranked))
	composites := make(map[string]float64, len(ranked))
	for i, eval := range ranked {
		candidates[i] = eval.Provider
		composites[eval.Provider] = eval.CompositeScore
	}

	enabled := profile.EnabledStrategies()
	weights := make(map[string]float64, len(enabled))
	strategyScores := make(map[string]map[string]float64, len(enabled))
	strategyRankings := make(map[string][]string, len(enabled))
	strategyStats := make(map[string]ScoreStats, len(enabled))
	strategyNames := make([]string, 0, len(enabled))

	for _, st := range enabled {
		key := string(st)
		weights[key] = profile.Strategies[st]
		strategyNames = append(strategyNames, st.DisplayName())

		scores := make(map[string]float64, len(ranked))
		for _, eval := range ranked {
			scores[eval.Provider] = eval.StrategyScores[st]
		}
		strategyScores[key] = scores
		strategyRankings[key] = rankProviders(ranked, func(eval ProviderEvaluation) float64 {
			return eval.StrategyScores[st]
		})
		strategyStats[key] = statsOf(scores)
	}

	profileInfo := ProfileInfo{
		Name:        profile.Name,
		Description: profile.Description,
		Strategies:  strategyNames,
		Fallback:    fallback,
	}

	winner := ranked[0]
	reason := fmt.Sprintf("Selected %s with composite score %.4f using profile %q",
		winner.Provider, winner.CompositeScore, profile.Name)

	return &RouteDecision{
		ID:               cuid.New(),
		Candidates:       candidates,
		StrategiesUsed:   append([]string{"Eligibility Filter", "Health Gate"}, strategyNames...),
		SelectedProvider: winner.Provider,
		Reason:           reason,
		Metadata: DecisionMetadata{
			Profile:          profileInfo,
			CompositeScores:  composites,
			CompositeStats:   statsOf(composites),
			Weights:          weights,
			StrategyScores:   strategyScores,
			StrategyRankings: strategyRankings,
			StrategyStats:    strategyStats,
			Explanations:     explanations,
		},
		Context:        *rctx,
		CreatedAt:      time.Now().UTC(),
		ProcessingTime: time.Since(started),
	}
}

// rankProviders orders the already composite-ranked evaluations by one
// strategy's score, descending, keeping composite order on ties.
func rankProviders(ranked []ProviderEvaluation, score func(ProviderEvaluation) float64) []string {
	idx := make([]int, len(ranked))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return score(ranked[idx[a]]) > score(ranked[idx[b]])
	})
	out := make([]string, len(ranked))
	for i, j := range idx {
		out[i] = ranked[j].Provider
	}
	return out
}

// statsOf summarizes a provider score map.
func statsOf(scores map[string]float64) ScoreStats {
	if len(scores) == 0 {
		return ScoreStats{}
	}
	first := true
	var stats ScoreStats
	sum := 0.0
	for _, s := range scores {
		if first {
			stats.Min, stats.Max = s, s
			first = false
		}
		if s < stats.Min {
			stats.Min = s
		}
		if s > stats.Max {
			stats.Max = s
		}
		sum += s
	}
	stats.Avg = sum / float64(len(scores))
	stats.Spread = stats.Max - stats.Min
	return stats
}
