// Generic platform admin CRUD (spec §6): every administrative entity
// (users, APIs, endpoints, roles, groups, subscriptions, credit
// definitions, routing policy) is a document in internal/configstore behind
// the same Store interface, so one parameterized handler set serves all of
// them rather than fifteen hand-written near-duplicates — the admin role
// flag and id field are the only things that vary per resource.
package gatewayhttp

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/apidoorman/doorman-go/internal/authn"
	"github.com/apidoorman/doorman-go/internal/configstore"
	apierrors "github.com/apidoorman/doorman-go/internal/errors"
	"github.com/apidoorman/doorman-go/internal/permission"
)

// resource describes one admin-managed collection.
type resource struct {
	path       string
	collection string
	idField    string
	action     permission.Action
}

var adminResources = []resource{
	{"users", configstore.CollectionUsers, "user_id", permission.ActionManageUsers},
	{"apis", configstore.CollectionAPIs, "api_id", permission.ActionManageAPIs},
	{"endpoints", configstore.CollectionEndpoints, "endpoint_id", permission.ActionManageEndpoints},
	{"roles", configstore.CollectionRoles, "role_name", permission.ActionManageRoles},
	{"groups", configstore.CollectionGroups, "group_name", permission.ActionManageGroups},
	{"subscriptions", configstore.CollectionSubscriptions, "user_id", permission.ActionManageUsers},
	{"credit", configstore.CollectionCreditDefs, "credit_group", permission.ActionManageCredits},
	{"routing", configstore.CollectionRouting, "api_name", permission.ActionManageAPIs},
	{"security", configstore.CollectionSecurity, "", permission.ActionManageSecurity},
}

func principalRole(ctx context.Context) (string, bool) {
	p, ok := authn.FromContext(ctx)
	return p.Role, ok
}

// mountAdminRoutes registers CRUD routes for every admin resource under router.
func (h *handlers) mountAdminRoutes(router chi.Router) {
	for _, res := range adminResources {
		res := res
		router.Route("/"+res.path, func(sub chi.Router) {
			sub.Use(permission.Require(res.action, h.roleLookup, principalRole))
			sub.Post("/", h.createResource(res))
			sub.Get("/", h.listResource(res))
			sub.Get("/{id}", h.getResource(res))
			sub.Put("/{id}", h.updateResource(res))
			sub.Delete("/{id}", h.deleteResource(res))
		})
	}
}

func (h *handlers) createResource(res resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, ok := readBody(w, r)
		if !ok {
			return
		}
		var doc map[string]interface{}
		if err := json.Unmarshal(body, &doc); err != nil {
			apierrors.WriteSimpleError(w, apierrors.ErrCodeMalformedBody, "malformed request body")
			return
		}
		if res.collection == configstore.CollectionRoles {
			if err := h.guardRoleMutation(r, doc); err != nil {
				apierrors.WriteSimpleError(w, apierrors.ErrCodeAdminRoleProtected, err.Error())
				return
			}
		}
		if err := h.store.InsertOne(r.Context(), res.collection, doc); err != nil {
			apierrors.WriteSimpleError(w, apierrors.ErrCodeUnexpected, err.Error())
			return
		}
		w.WriteHeader(http.StatusCreated)
	}
}

func (h *handlers) listResource(res resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		skip, _ := strconv.Atoi(r.URL.Query().Get("skip"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		if limit <= 0 {
			limit = h.cfg.Server.MaxPageSize
		}
		if limit <= 0 {
			limit = 100
		}
		cursor, err := h.store.Find(r.Context(), res.collection, nil, skip, limit)
		if err != nil {
			apierrors.WriteSimpleError(w, apierrors.ErrCodeUnexpected, err.Error())
			return
		}
		items, err := cursor.ToList(r.Context(), limit)
		if err != nil {
			apierrors.WriteSimpleError(w, apierrors.ErrCodeUnexpected, err.Error())
			return
		}
		if res.collection == configstore.CollectionCreditDefs {
			for _, item := range items {
				maskCreditDoc(item)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(items)
	}
}

func (h *handlers) getResource(res resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		doc, err := h.store.FindOne(r.Context(), res.collection, map[string]interface{}{res.idField: id})
		if err != nil || doc == nil {
			apierrors.WriteSimpleError(w, apierrors.ErrCodeEndpointNotFound, "resource not found")
			return
		}
		if res.collection == configstore.CollectionCreditDefs {
			maskCreditDoc(doc)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(doc)
	}
}

// maskCreditDoc enforces spec §4.6's credit definition masking invariant: an
// admin read never returns api_key/api_key_new, only whether a key is
// present and which header it's forwarded under.
func maskCreditDoc(doc map[string]interface{}) {
	key, _ := doc["api_key"].(string)
	delete(doc, "api_key")
	delete(doc, "api_key_new")
	doc["api_key_present"] = key != ""
}

func (h *handlers) updateResource(res resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		body, ok := readBody(w, r)
		if !ok {
			return
		}
		var update map[string]interface{}
		if err := json.Unmarshal(body, &update); err != nil {
			apierrors.WriteSimpleError(w, apierrors.ErrCodeMalformedBody, "malformed request body")
			return
		}
		if res.collection == configstore.CollectionRoles {
			if err := h.guardRoleMutation(r, map[string]interface{}{res.idField: id, "is_admin": update["is_admin"]}); err != nil {
				apierrors.WriteSimpleError(w, apierrors.ErrCodeAdminRoleProtected, err.Error())
				return
			}
		}
		if err := h.store.UpdateOne(r.Context(), res.collection, map[string]interface{}{res.idField: id}, update); err != nil {
			apierrors.WriteSimpleError(w, apierrors.ErrCodeUnexpected, err.Error())
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *handlers) deleteResource(res resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if res.collection == configstore.CollectionRoles {
			if err := h.guardRoleMutation(r, map[string]interface{}{res.idField: id}); err != nil {
				apierrors.WriteSimpleError(w, apierrors.ErrCodeAdminRoleProtected, err.Error())
				return
			}
		}
		if err := h.store.DeleteOne(r.Context(), res.collection, map[string]interface{}{res.idField: id}); err != nil {
			apierrors.WriteSimpleError(w, apierrors.ErrCodeUnexpected, err.Error())
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// guardRoleMutation enforces permission.GuardAdminRoleMutation: only an
// admin caller may create, modify, or delete the admin role.
func (h *handlers) guardRoleMutation(r *http.Request, doc map[string]interface{}) error {
	principal, _ := authn.FromContext(r.Context())
	callerRole, err := h.roleLookup(r.Context(), principal.Role)
	callerIsAdmin := err == nil && callerRole.IsAdmin

	targetName, _ := doc["role_name"].(string)
	targetIsAdmin, _ := doc["is_admin"].(bool)
	return permission.GuardAdminRoleMutation(callerIsAdmin, targetName, targetIsAdmin)
}
