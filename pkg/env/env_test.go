package env

import "testing"

func TestGetAndFirst(t *testing.T) {
	t.Setenv("STOREFRONT_TEST_A", "")
	t.Setenv("STOREFRONT_TEST_B", " b ")

	if got := Get("STOREFRONT_TEST_A", "fallback"); got != "fallback" {
		t.Fatalf("expected fallback, got %q", got)
	}
	if got := Get("STOREFRONT_TEST_B", "fallback"); got != "b" {
		t.Fatalf("expected trimmed value, got %q", got)
	}
	if got := First("none", "STOREFRONT_TEST_A", "STOREFRONT_TEST_B"); got != "b" {
		t.Fatalf("expected first non-empty value, got %q", got)
	}
	if got := First("none", "STOREFRONT_TEST_A"); got != "none" {
		t.Fatalf("expected fallback, got %q", got)
	}
}
