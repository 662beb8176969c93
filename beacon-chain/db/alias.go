package db

import "github.com/prysmaticlabs/beacon-ingest/beacon-chain/db/iface"

// ReadOnlyDatabase exposes the beacon-ingest database for read only operations.
type ReadOnlyDatabase = iface.ReadOnlyDatabase

// NoHeadAccessDatabase exposes the beacon-ingest database for operations that do not
// touch the chain head.
type NoHeadAccessDatabase = iface.NoHeadAccessDatabase

// HeadAccessDatabase exposes the beacon-ingest database for read and write operations.
type HeadAccessDatabase = iface.HeadAccessDatabase

// Database defines the necessary methods for beacon-ingest's storage.
type Database = iface.Database
