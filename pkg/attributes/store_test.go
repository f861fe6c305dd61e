package attributes

import (
	"testing"

	"github.com/edquist/osg-configure/pkg/telemetry"
)

func TestStore_PublishAndLookup(t *testing.T) {
	store := NewStore(telemetry.Nop())

	store.Publish("Site Information", "OSG_HOSTNAME", "ce.example.org")
	store.Publish("Squid", "OSG_SQUID_CACHE_SIZE", 2048)
	store.Publish("Gateway", "htcondor_gateway_enabled", true)

	if v, ok := store.Lookup("OSG_HOSTNAME"); !ok || v != "ce.example.org" {
		t.Errorf("Expected ce.example.org, got %v (ok=%v)", v, ok)
	}
	if _, ok := store.Lookup("OSG_SITE_NAME"); ok {
		t.Error("Expected lookup of unpublished key to report absence")
	}
	if v, ok := store.Bool("htcondor_gateway_enabled"); !ok || !v {
		t.Errorf("Expected true flag, got %v (ok=%v)", v, ok)
	}
	if store.Len() != 3 {
		t.Errorf("Expected 3 attributes, got %d", store.Len())
	}
}

func TestStore_LookupWithDefault(t *testing.T) {
	store := NewStore(telemetry.Nop())

	if v := store.LookupWithDefault("missing", "fallback"); v != "fallback" {
		t.Errorf("Expected fallback, got %v", v)
	}
	if v := store.BoolWithDefault("htcondor_gateway_enabled", true); v != true {
		t.Errorf("Expected documented fallback true, got %v", v)
	}

	store.Publish("Gateway", "htcondor_gateway_enabled", false)
	if v := store.BoolWithDefault("htcondor_gateway_enabled", true); v != false {
		t.Errorf("Expected published false to win over fallback, got %v", v)
	}
}

func TestStore_RepublishIsLastWriteWins(t *testing.T) {
	store := NewStore(telemetry.Nop())

	store.Publish("A", "shared_key", "first")
	store.Publish("B", "shared_key", "second")

	v, ok := store.String("shared_key")
	if !ok || v != "second" {
		t.Errorf("Expected last write to win, got %q (ok=%v)", v, ok)
	}
}

func TestStore_AllSorted(t *testing.T) {
	store := NewStore(telemetry.Nop())
	store.Publish("s", "ZEBRA", 1)
	store.Publish("s", "ALPHA", 2)
	store.Publish("s", "MIDDLE", 3)

	all := store.All()
	if len(all) != 3 {
		t.Fatalf("Expected 3 attributes, got %d", len(all))
	}
	want := []string{"ALPHA", "MIDDLE", "ZEBRA"}
	for i, name := range want {
		if all[i].Name != name {
			t.Errorf("Expected %s at index %d, got %s", name, i, all[i].Name)
		}
	}
}
