// Package options implements the typed option model used by configuration
// sections: declaration, coercion of raw string values into typed values,
// and default/requiredness resolution.
package options
