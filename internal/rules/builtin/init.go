// Package builtin registers the built-in upload schemas with the rules
// registry. Import it for its side effects.
package builtin
