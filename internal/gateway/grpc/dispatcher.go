package grpcgateway

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/dynamicpb"
)

// ErrMethodNotFound is returned when the requested method is not declared in
// the API's compiled descriptor set.
var ErrMethodNotFound = fmt.Errorf("grpc: method not found")

// CallRequest is the {method, message} JSON body a client posts.
type CallRequest struct {
	Method  string          `json:"method"`
	Message json.RawMessage `json:"message"`
}

// Dispatcher dynamically constructs and invokes gRPC unary calls against a
// descriptor compiled at proto-upload time.
type Dispatcher struct {
	files *protoregistry.Files
}

// LoadDescriptorSet reads a FileDescriptorSet produced by CompileDescriptor
// and builds a Dispatcher that can resolve methods declared within it.
func LoadDescriptorSet(path string) (*Dispatcher, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("grpc: reading descriptor set: %w", err)
	}
	var fdSet descriptorpb.FileDescriptorSet
	if err := proto.Unmarshal(data, &fdSet); err != nil {
		return nil, fmt.Errorf("grpc: parsing descriptor set: %w", err)
	}
	files, err := protodesc.NewFiles(&fdSet)
	if err != nil {
		return nil, fmt.Errorf("grpc: building file registry: %w", err)
	}
	return &Dispatcher{files: files}, nil
}

// findMethod searches every service in the registry for a method named
// methodName, matching either the bare name or "Service.Method".
func (d *Dispatcher) findMethod(methodName string) (protoreflect.MethodDescriptor, error) {
	var found protoreflect.MethodDescriptor
	d.files.RangeFiles(func(fd protoreflect.FileDescriptor) bool {
		services := fd.Services()
		for i := 0; i < services.Len(); i++ {
			svc := services.Get(i)
			methods := svc.Methods()
			for j := 0; j < methods.Len(); j++ {
				m := methods.Get(j)
				if string(m.Name()) == methodName || string(svc.FullName())+"."+string(m.Name()) == methodName {
					found = m
					return false
				}
			}
		}
		return true
	})
	if found == nil {
		return nil, ErrMethodNotFound
	}
	return found, nil
}

// Call performs a dynamic unary gRPC call: it decodes req.Message against
// the method's input descriptor, invokes it over conn, and returns the
// response encoded as JSON.
func (d *Dispatcher) Call(ctx context.Context, conn *grpc.ClientConn, req CallRequest) (json.RawMessage, error) {
	method, err := d.findMethod(req.Method)
	if err != nil {
		return nil, err
	}

	input := dynamicpb.NewMessage(method.Input())
	if len(req.Message) > 0 {
		if err := protojson.Unmarshal(req.Message, input); err != nil {
			return nil, fmt.Errorf("grpc: malformed message for %s: %w", req.Method, err)
		}
	}

	output := dynamicpb.NewMessage(method.Output())
	fullMethod := fmt.Sprintf("/%s/%s", method.Parent().FullName(), method.Name())
	if err := conn.Invoke(ctx, fullMethod, input, output); err != nil {
		return nil, err
	}

	return protojson.Marshal(output)
}

// Dial opens an insecure gRPC client connection to target — upstream gRPC
// backends in this gateway's deployment model terminate TLS at the edge, so
// the hop from gateway to upstream runs over the cluster-internal network.
func Dial(target string) (*grpc.ClientConn, error) {
	return grpc.NewClient(target, grpc.WithTransportCredentials(insecure.NewCredentials()))
}

// IsNotFound reports whether err represents an unresolvable method, mapping
// to the dispatcher's 404 case per spec.md §4.7's gRPC supplement.
func IsNotFound(err error) bool {
	return err == ErrMethodNotFound
}

// StatusCode extracts the gRPC status code from an invocation error, for
// translating upstream failures into the gateway's HTTP status mapping.
func StatusCode(err error) codes.Code {
	if err == nil {
		return codes.OK
	}
	if s, ok := status.FromError(err); ok {
		return s.Code()
	}
	return codes.Unknown
}
