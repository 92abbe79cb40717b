// Package routing implements the multi-criteria provider selection engine
// for payment transactions. Given a transaction context (amount, currency,
// country, card network, BIN prefix) it chooses which downstream payment
// processor should handle the transaction and explains why.
//
// The selection pipeline consists of several key components:
//
//  1. EligibilityFilter: binary capability filter (network/currency/country)
//  2. HealthFilter: binary reliability gate (success rate, latency, volume)
//  3. Scoring strategies: Rules, Cost, Reliability and LoadBalancing, each
//     producing a normalized score in [0,1] per provider
//  4. Profile catalog: named bundles of enabled strategies and weights
//  5. Engine: orchestrates filters, scoring, ranking and decision building
//
// Key properties:
//
//   - Binary filters run before any scoring; an empty survivor set produces
//     a terminal decision with no selected provider, never an error
//   - Strategy failures degrade to a neutral 0.5 score for the affected
//     provider and never abort the routing call
//   - Ranking is fully deterministic: descending composite score with ties
//     broken by provider registration order
//   - Every call reads one immutable configuration Snapshot, so concurrent
//     routing calls need no locking
//
// Example usage:
//
//	registry := providers.NewRegistry()
//	registry.Register(mock.NewStripeMock())
//	registry.Register(mock.NewAdyenMock())
//
//	engine := routing.NewEngine(registry, snapshotSource, nil)
//
//	decision, err := engine.Route(ctx, &routing.RoutingContext{
//		Amount:   decimal.NewFromFloat(120.50),
//		Currency: "USD",
//		Country:  "US",
//		Network:  "VISA",
//	})
//	if err != nil {
//		log.Printf("routing failed: %v", err)
//	} else if decision.SelectedProvider == "" {
//		log.Printf("no provider available: %s", decision.Reason)
//	} else {
//		log.Printf("routed to %s: %s", decision.SelectedProvider, decision.Reason)
//	}
package routing
