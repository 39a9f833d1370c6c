package grpcgateway

import (
	"os"
	"path/filepath"
	"testing"
)

func TestValidatePath_WithinRootAllowed(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "sub", "file.proto")
	if err := ValidatePath(root, target); err != nil {
		t.Fatalf("expected path within root to be allowed, got %v", err)
	}
}

func TestValidatePath_WithinTempDirAllowed(t *testing.T) {
	target := filepath.Join(os.TempDir(), "doorman-upload", "file.proto")
	if err := ValidatePath(t.TempDir(), target); err != nil {
		t.Fatalf("expected path within temp dir to be allowed, got %v", err)
	}
}

func TestValidatePath_SiblingPrefixRejected(t *testing.T) {
	root := "/root"
	target := "/root_extra/file.proto"
	if err := ValidatePath(root, target); err == nil {
		t.Fatal("expected sibling directory sharing a path prefix to be rejected")
	}
}

func TestValidatePath_TraversalRejected(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "..", "..", "etc", "passwd")
	if err := ValidatePath(root, target); err == nil {
		t.Fatal("expected traversal outside root and temp dir to be rejected")
	}
}

func TestValidateFilename_RejectsPathSeparators(t *testing.T) {
	if err := ValidateFilename("../evil.proto"); err == nil {
		t.Fatal("expected traversal filename to be rejected")
	}
	if err := ValidateFilename("sub/dir/file.proto"); err == nil {
		t.Fatal("expected nested path to be rejected")
	}
}

func TestValidateFilename_RequiresProtoExtension(t *testing.T) {
	if err := ValidateFilename("service.txt"); err == nil {
		t.Fatal("expected non-.proto extension to be rejected")
	}
	if err := ValidateFilename("service.proto"); err != nil {
		t.Fatalf("expected valid .proto filename to pass, got %v", err)
	}
}
