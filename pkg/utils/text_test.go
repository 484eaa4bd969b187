package utils

import (
	"testing"
)

func TestTruncate(t *testing.T) {
	if Truncate("hello", 10) != "hello" {
		t.Error("short string unchanged")
	}
	if Truncate("hello world", 5) != "hello..." {
		t.Errorf("got %s", Truncate("hello world", 5))
	}
	if Truncate("x", 0) != "x" {
		t.Error("maxLen 0 returns as-is")
	}
	if Truncate("déjà vu", 4) != "déjà..." {
		t.Errorf("got %s", Truncate("déjà vu", 4))
	}
}

func TestCollapseSpace(t *testing.T) {
	if got := CollapseSpace("  Order \n\t Form  "); got != "Order Form" {
		t.Errorf("got %q", got)
	}
}

func TestContainsFold(t *testing.T) {
	if !ContainsFold("Master Services AGREEMENT", "agreement") {
		t.Error("expected case-insensitive match")
	}
	if ContainsFold("invoice", "agreement") {
		t.Error("unexpected match")
	}
}
