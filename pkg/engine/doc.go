// Package engine orchestrates a configuration run over the section catalog.
// It computes a total section order from the declared dependencies, then
// drives the three passes: parse, cross-validate, render.
package engine
