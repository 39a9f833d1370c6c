// gRPC dispatch (spec §4.7's gRPC supplement): operators upload a compiled
// descriptor set per API via /platform/proto/{api}/{ver}, after which POST
// /api/grpc/{api}/{ver} resolves X-API-Version from the header, decodes a
// {method, message} JSON call, and invokes it dynamically against the
// upstream's gRPC endpoint.
package gatewayhttp

import (
	"encoding/json"
	"net/http"
	"path/filepath"
	"sync"

	"github.com/go-chi/chi/v5"
	"google.golang.org/grpc"

	apierrors "github.com/apidoorman/doorman-go/internal/errors"
	grpcgateway "github.com/apidoorman/doorman-go/internal/gateway/grpc"
	"github.com/apidoorman/doorman-go/internal/resolver"
)

// grpcRegistry holds the compiled descriptor-set dispatcher and open
// connection per (api, version), populated at proto-upload time.
type grpcRegistry struct {
	mu          sync.Mutex
	dispatchers map[string]*grpcgateway.Dispatcher
	conns       map[string]*grpc.ClientConn
	descriptorDir string
}

func newGRPCRegistry(descriptorDir string) *grpcRegistry {
	return &grpcRegistry{
		dispatchers:   make(map[string]*grpcgateway.Dispatcher),
		conns:         make(map[string]*grpc.ClientConn),
		descriptorDir: descriptorDir,
	}
}

func grpcKey(api, version string) string { return api + ":" + version }

func (g *grpcRegistry) dispatcherFor(api, version string) (*grpcgateway.Dispatcher, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	d, ok := g.dispatchers[grpcKey(api, version)]
	return d, ok
}

func (g *grpcRegistry) connFor(api, version, target string) (*grpc.ClientConn, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	key := grpcKey(api, version)
	if conn, ok := g.conns[key]; ok {
		return conn, nil
	}
	conn, err := grpcgateway.Dial(target)
	if err != nil {
		return nil, err
	}
	g.conns[key] = conn
	return conn, nil
}

// uploadProto compiles an uploaded .proto file into a descriptor set and
// registers it for api/version, rejecting path-traversal filenames per
// grpcgateway.ValidateFilename/ValidatePath.
func (g *grpcRegistry) uploadProto(api, version, filename string, source []byte) error {
	if err := grpcgateway.ValidateFilename(filename); err != nil {
		return err
	}
	destPath := filepath.Join(g.descriptorDir, grpcKey(api, version)+".descpb")
	if err := grpcgateway.ValidatePath(g.descriptorDir, destPath); err != nil {
		return err
	}
	descPath, err := grpcgateway.CompileDescriptor(g.descriptorDir, filename, source)
	if err != nil {
		return err
	}
	dispatcher, err := grpcgateway.LoadDescriptorSet(descPath)
	if err != nil {
		return err
	}
	g.mu.Lock()
	g.dispatchers[grpcKey(api, version)] = dispatcher
	g.mu.Unlock()
	return nil
}

// handleGRPC forwards POST /api/grpc/{api}/{ver}.
func (h *handlers) handleGRPC(w http.ResponseWriter, r *http.Request) {
	apiName := chi.URLParam(r, "api")
	version, errDetail := resolver.VersionFromRequest(r, "", true)
	if errDetail != nil {
		apierrors.WriteDetail(w, errDetail)
		return
	}

	body, ok := readBody(w, r)
	if !ok {
		return
	}
	var call grpcgateway.CallRequest
	if err := json.Unmarshal(body, &call); err != nil {
		apierrors.WriteSimpleError(w, apierrors.ErrCodeMalformedBody, "malformed gRPC call request")
		return
	}

	dc, ok := h.prepare(w, r, apiName, version, http.MethodPost, "/grpc")
	if !ok {
		return
	}

	dispatcher, found := h.grpcRegistry.dispatcherFor(apiName, version)
	if !found {
		apierrors.WriteSimpleError(w, apierrors.ErrCodeRoutingMisconfig, "no gRPC descriptor set registered for this API")
		return
	}
	if len(dc.api.APIServers) == 0 {
		apierrors.WriteSimpleError(w, apierrors.ErrCodeRoutingMisconfig, "no gRPC servers configured for this API")
		return
	}
	conn, err := h.grpcRegistry.connFor(apiName, version, dc.api.APIServers[0])
	if err != nil {
		apierrors.WriteSimpleError(w, apierrors.ErrCodeUpstreamTimeout, "unable to reach gRPC upstream")
		return
	}

	result, err := dispatcher.Call(r.Context(), conn, call)
	if err != nil {
		if grpcgateway.IsNotFound(err) {
			apierrors.WriteSimpleError(w, apierrors.ErrCodeEndpointNotFound, "gRPC method not found")
			return
		}
		apierrors.WriteSimpleError(w, apierrors.ErrCodeUpstreamTimeout, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(result)
}

// handleProtoUpload accepts a raw .proto file body at
// /platform/proto/{api}/{ver}/{filename} and compiles it into the gRPC registry.
func (h *handlers) handleProtoUpload(w http.ResponseWriter, r *http.Request) {
	apiName := chi.URLParam(r, "api")
	version := chi.URLParam(r, "ver")
	filename := chi.URLParam(r, "filename")

	source, ok := readBody(w, r)
	if !ok {
		return
	}
	if err := h.grpcRegistry.uploadProto(apiName, version, filename, source); err != nil {
		apierrors.WriteSimpleError(w, apierrors.ErrCodeWrongFileType, err.Error())
		return
	}
	w.WriteHeader(http.StatusCreated)
}
