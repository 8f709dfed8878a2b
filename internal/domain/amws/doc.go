// Package amws contains the domain model for the Amazon MWS marketplace
// integration: configured stores, remote order snapshots and their line
// items, order fetch filter criteria, bulk-data feeds, and the port
// interfaces implemented by the infrastructure adapters.
package amws
