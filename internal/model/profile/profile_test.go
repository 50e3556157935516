package profile

import "testing"

func TestWithOverrides(t *testing.T) {
	p := Default().WithOverrides("Sunrise Bay Resorts", "https://sunrise.example")

	if p.Name != "Sunrise Bay Resorts" {
		t.Fatalf("unexpected name %s", p.Name)
	}
	if p.Title != "Discover Sunrise: Virtual Assistant" {
		t.Fatalf("unexpected title %s", p.Title)
	}
	if p.Website != "https://sunrise.example" {
		t.Fatalf("unexpected website %s", p.Website)
	}
}

func TestWithOverridesKeepsDefaults(t *testing.T) {
	p := Default().WithOverrides("  ", "")
	if p != Default() {
		t.Fatalf("expected defaults, got %+v", p)
	}
}
