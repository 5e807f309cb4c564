// Package listing contains the core domain model for cross-marketplace
// listing synchronization: the SKU codec shared by every component, the
// aspect validation gate, the listing mapping ledger, and the port
// interfaces for the source exchange, the destination auction
// marketplace, and catalog enrichment.
package listing
