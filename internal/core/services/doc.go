// Package services implements the driving ports on top of the driven
// ports: the index service orchestrates corpus loading, chunking,
// embedding, snapshot publication and persistence.
package services
