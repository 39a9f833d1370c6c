package configstore

import "context"

// Cursor paginates a Find result the way the teacher's storage layer paginated
// batch lookups: skip/limit with a ToList terminal call.
type Cursor interface {
	ToList(ctx context.Context, limit int) ([]map[string]interface{}, error)
}

// Store is the dual-backend entity store every configstore collection implements
// against. Collection names are plain strings so that admin-defined crud_data_*
// collections (spec §4.1) need no schema change to be persisted.
type Store interface {
	FindOne(ctx context.Context, collection string, filter map[string]interface{}) (map[string]interface{}, error)
	Find(ctx context.Context, collection string, filter map[string]interface{}, skip, limit int) (Cursor, error)
	InsertOne(ctx context.Context, collection string, doc map[string]interface{}) error
	UpdateOne(ctx context.Context, collection string, filter map[string]interface{}, update map[string]interface{}) error
	DeleteOne(ctx context.Context, collection string, filter map[string]interface{}) error

	// Dump serializes the entire store for encrypted snapshotting (MEM backend only;
	// EXTERNAL already persists durably and returns ErrDumpUnsupported).
	Dump(ctx context.Context) (map[string][]map[string]interface{}, error)
	// Restore replaces the entire store's contents (MEM backend only).
	Restore(ctx context.Context, data map[string][]map[string]interface{}) error

	Close() error
}

// Collection names used by the gateway's own administrative entities. Any
// other string is treated as an admin-registered crud_data_* collection.
const (
	CollectionAPIs          = "apis"
	CollectionEndpoints     = "endpoints"
	CollectionUsers         = "users"
	CollectionRoles         = "roles"
	CollectionGroups        = "groups"
	CollectionSubscriptions = "subscriptions"
	CollectionCreditDefs    = "credit_definitions"
	CollectionUserCredits   = "user_credits"
	CollectionRouting       = "routing"
	CollectionSecurity      = "security_settings"
)
