package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTemp(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "node.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoadParsesDocument(t *testing.T) {
	path := writeTemp(t, "node_id: 2\nparent_of: 1\nmetrics_enabled: true\n")
	doc, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if doc.NodeID != 2 {
		t.Fatalf("NodeID = %d, want 2", doc.NodeID)
	}
	if doc.ParentOf == nil || *doc.ParentOf != 1 {
		t.Fatalf("ParentOf = %v, want 1", doc.ParentOf)
	}
	if !doc.MetricsEnabled {
		t.Fatalf("MetricsEnabled = false, want true")
	}
}

func TestLoadParentOfIsOptional(t *testing.T) {
	path := writeTemp(t, "node_id: 1\n")
	doc, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if doc.ParentOf != nil {
		t.Fatalf("ParentOf = %v, want nil", doc.ParentOf)
	}
}

func TestLoadRejectsMissingNodeID(t *testing.T) {
	path := writeTemp(t, "metrics_enabled: true\n")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected an error for a missing node_id")
	}
}

func TestLoadRejectsSelfReferentialParent(t *testing.T) {
	path := writeTemp(t, "node_id: 1\nparent_of: 1\n")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected an error for parent_of == node_id")
	}
}

func TestLoadRejectsMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected an error for a missing file")
	}
}
