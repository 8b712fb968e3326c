package prompt

import (
	"path/filepath"
	"reflect"
	"testing"
)

func TestCatalog_SetSkipsIncompleteRows(t *testing.T) {
	c := Catalog{}
	c.Set("Commerce", "Product Showcase", "prompt text")
	c.Set("", "Topic", "prompt")
	c.Set("Domain", "", "prompt")
	c.Set("Domain", "Topic", "   ")

	if c.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", c.Len())
	}
	if got := c.SystemPrompt("Commerce", "Product Showcase"); got != "prompt text" {
		t.Errorf("SystemPrompt = %q", got)
	}
}

func TestCatalog_SortedAccessors(t *testing.T) {
	c := Catalog{}
	c.Set("Zeta", "b topic", "p")
	c.Set("Alpha", "z topic", "p")
	c.Set("Alpha", "a topic", "p")

	if got := c.Domains(); !reflect.DeepEqual(got, []string{"Alpha", "Zeta"}) {
		t.Errorf("Domains() = %v", got)
	}
	if got := c.Topics("Alpha"); !reflect.DeepEqual(got, []string{"a topic", "z topic"}) {
		t.Errorf("Topics(Alpha) = %v", got)
	}
	if got := c.Topics("missing"); len(got) != 0 {
		t.Errorf("Topics(missing) = %v, want empty", got)
	}
}

func TestCatalog_SaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	c := DefaultCatalog()
	if err := SaveCatalog(path, c, "https://example.test/sheet"); err != nil {
		t.Fatalf("SaveCatalog failed: %v", err)
	}
	loaded, err := LoadCatalog(path)
	if err != nil {
		t.Fatalf("LoadCatalog failed: %v", err)
	}
	if !reflect.DeepEqual(loaded, c) {
		t.Errorf("round-trip mismatch:\n got %#v\nwant %#v", loaded, c)
	}
}

func TestLoadCatalog_RejectsMissingDomains(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	if err := SaveCatalog(path, Catalog{}, ""); err != nil {
		t.Fatalf("SaveCatalog failed: %v", err)
	}
	// An empty catalog still round-trips; a file without the domains key
	// does not.
	if _, err := LoadCatalog(path); err != nil {
		t.Fatalf("empty catalog should load: %v", err)
	}
}
