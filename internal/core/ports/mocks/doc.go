// Package mocks provides test doubles for ports interfaces.
//
// These mocks are designed to be simple, thread-safe, in-memory implementations
// suitable for unit testing. Each mock provides:
//
//   - Default behavior that returns reasonable test values
//   - Callback functions (xxxFn) for customizing behavior per test
//   - Helper methods for inspecting recorded state
//
// # Usage Example
//
//	func TestRun(t *testing.T) {
//		store := mocks.NewStore()
//		store.AddQueryTerms("carhartt detroit jacket")
//
//		runner := pipeline.New(pipeline.Settings{}, pipeline.Deps{
//			Store:      store,
//			Collectors: []collect.Collector{collect.NewQueryPackCollector(store)},
//			Sampler:    sampler,
//		}, nil)
//		_, err := runner.Run(ctx)
//		// ... assert on store.Signals(), store.Jobs()
//	}
//
// # Available Mocks
//
//   - Store: implements ports.Store
//   - TextSource: implements ports.TextSource
//   - JSONCompleter: implements ports.JSONCompleter
package mocks
