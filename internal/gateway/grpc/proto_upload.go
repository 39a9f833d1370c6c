// Package grpcgateway implements the gRPC protocol dispatcher (spec §4.7):
// an uploaded .proto descriptor is compiled at onboarding time
// (POST /platform/proto/{api}/{ver}), then client JSON {method, message}
// calls are dynamically dispatched against the declared service using
// google.golang.org/protobuf's dynamicpb, grounded on cuemby-warren's use of
// google.golang.org/grpc for its own API surface (generalized here from a
// statically generated service to a descriptor compiled at runtime).
package grpcgateway

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ErrPathTraversal is returned when an uploaded proto's target path would
// escape both the project root and the system temp directory.
var ErrPathTraversal = fmt.Errorf("grpc: proto target path escapes the permitted roots")

// ValidatePath enforces spec.md §4.7's proto path validation: the resolved
// target must lie within either root or os.TempDir(), checked via
// filepath.Rel + a commonpath-style prefix test so that a sibling directory
// sharing a path prefix (e.g. "/root" vs "/root_extra") is rejected.
func ValidatePath(root, target string) error {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return err
	}
	absTarget, err := filepath.Abs(target)
	if err != nil {
		return err
	}
	tempRoot, err := filepath.Abs(os.TempDir())
	if err != nil {
		return err
	}

	if isWithin(absRoot, absTarget) || isWithin(tempRoot, absTarget) {
		return nil
	}
	return ErrPathTraversal
}

// isWithin reports whether target lies within root, using filepath.Rel so a
// merely-prefixed sibling directory does not falsely match.
func isWithin(root, target string) bool {
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	return !strings.HasPrefix(rel, "..") && !filepath.IsAbs(rel)
}

// ValidateFilename rejects anything but a bare ".proto" filename — no path
// separators, no traversal segments.
func ValidateFilename(name string) error {
	if filepath.Base(name) != name {
		return fmt.Errorf("grpc: proto filename must not contain path separators")
	}
	if filepath.Ext(name) != ".proto" {
		return fmt.Errorf("grpc: proto filename must have a .proto extension")
	}
	return nil
}

// CompileDescriptor writes protoSource to destDir/filename and invokes protoc
// to produce a FileDescriptorSet at the returned path, for a later dispatcher
// load via LoadDescriptorSet.
func CompileDescriptor(destDir, filename string, protoSource []byte) (string, error) {
	if err := ValidateFilename(filename); err != nil {
		return "", err
	}

	protoPath := filepath.Join(destDir, filename)
	if err := os.WriteFile(protoPath, protoSource, 0o644); err != nil {
		return "", fmt.Errorf("grpc: writing proto source: %w", err)
	}

	descriptorPath := strings.TrimSuffix(protoPath, ".proto") + ".descpb"
	cmd := exec.Command("protoc",
		"--descriptor_set_out="+descriptorPath,
		"--include_imports",
		"-I", destDir,
		protoPath,
	)
	if output, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("grpc: protoc compilation failed: %w: %s", err, string(output))
	}
	return descriptorPath, nil
}
