// Package sections implements the per-section configuration lifecycle:
// parse the raw block into typed options, cross-validate them against other
// sections' published attributes, and render the dependent on-disk
// artifacts. There is one Section type; per-section behavior is injected as
// a declarative option table plus a small set of behavior functions rather
// than a type hierarchy.
package sections
