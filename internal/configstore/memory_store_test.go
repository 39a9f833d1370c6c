package configstore

import (
	"context"
	"testing"
)

func TestMemoryStore_CRUD(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	doc := map[string]interface{}{"api_id": "api-1", "api_name": "orders"}
	if err := store.InsertOne(ctx, CollectionAPIs, doc); err != nil {
		t.Fatalf("insert: %v", err)
	}

	got, err := store.FindOne(ctx, CollectionAPIs, map[string]interface{}{"api_id": "api-1"})
	if err != nil {
		t.Fatalf("find one: %v", err)
	}
	if got["api_name"] != "orders" {
		t.Errorf("expected api_name orders, got %v", got["api_name"])
	}

	if err := store.UpdateOne(ctx, CollectionAPIs, map[string]interface{}{"api_id": "api-1"}, map[string]interface{}{"api_name": "orders-v2"}); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ = store.FindOne(ctx, CollectionAPIs, map[string]interface{}{"api_id": "api-1"})
	if got["api_name"] != "orders-v2" {
		t.Errorf("expected updated name, got %v", got["api_name"])
	}

	if err := store.DeleteOne(ctx, CollectionAPIs, map[string]interface{}{"api_id": "api-1"}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.FindOne(ctx, CollectionAPIs, map[string]interface{}{"api_id": "api-1"}); err != ErrNotFound {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestMemoryStore_FindPagination(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	for i := 0; i < 5; i++ {
		store.InsertOne(ctx, CollectionEndpoints, map[string]interface{}{
			"endpoint_id": string(rune('a' + i)),
			"api_name":    "orders",
		})
	}

	cur, err := store.Find(ctx, CollectionEndpoints, map[string]interface{}{"api_name": "orders"}, 1, 2)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	list, err := cur.ToList(ctx, 2)
	if err != nil {
		t.Fatalf("to_list: %v", err)
	}
	if len(list) != 2 {
		t.Errorf("expected 2 results after skip/limit, got %d", len(list))
	}
}

func TestMemoryStore_DumpRestoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	store.InsertOne(ctx, CollectionUsers, map[string]interface{}{"user_id": "u1", "email": "a@example.com"})

	dump, err := store.Dump(ctx)
	if err != nil {
		t.Fatalf("dump: %v", err)
	}

	fresh := NewMemoryStore()
	if err := fresh.Restore(ctx, dump); err != nil {
		t.Fatalf("restore: %v", err)
	}
	got, err := fresh.FindOne(ctx, CollectionUsers, map[string]interface{}{"user_id": "u1"})
	if err != nil {
		t.Fatalf("find after restore: %v", err)
	}
	if got["email"] != "a@example.com" {
		t.Errorf("expected restored email, got %v", got["email"])
	}
}
