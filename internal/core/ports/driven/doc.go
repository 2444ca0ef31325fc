// Package driven provides interfaces for infrastructure adapters
// (secondary/outbound ports): embedding generation, corpus loading, and
// index persistence.
package driven
