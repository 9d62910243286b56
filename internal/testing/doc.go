// Package testing provides test utilities, builders, and fixtures for unit and integration tests.
//
// This package centralizes common testing patterns to avoid duplication across test files:
//   - ConfigBuilder: Fluent builder for creating topology configurations
//   - MockMaterializer: testify mock of the materializer interface
//   - Fixture: an in-memory materializer and state store wired together
//
// Usage:
//
//	cfg := testing.NewConfigBuilder().
//	    WithRegions("us-east-1", "us-west-2").
//	    WithAccessRegion("us-east-2").
//	    Build()
//
//	fx := testing.NewFixture(cfg)
package testing
