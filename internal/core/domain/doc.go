// Package domain contains the core business entities for the document
// index: documents, chunks, search results, the index manifest, and the
// error taxonomy shared across services and adapters.
package domain
