package repository

import (
	"strings"
	"testing"
)

func TestJSONArrayTextExprByDialect(t *testing.T) {
	if got := jsonArrayTextExprByDialect("sqlite", "options"); got != "COALESCE(options, '')" {
		t.Fatalf("sqlite json array expr mismatch, got %s", got)
	}
	if got := jsonArrayTextExprByDialect("postgres", "options"); got != "CAST(options AS TEXT)" {
		t.Fatalf("postgres json array expr mismatch, got %s", got)
	}
}

func TestBuildLikeCondition(t *testing.T) {
	condition, argCount := buildLikeCondition(nil, []string{"name", "sku", " "}, []string{"options"})
	if argCount != 3 {
		t.Fatalf("arg count want 3 got %d", argCount)
	}
	if !strings.Contains(condition, "name LIKE ?") || !strings.Contains(condition, "sku LIKE ?") {
		t.Fatalf("condition should contain plain LIKE columns, got %s", condition)
	}
	if !strings.Contains(condition, "COALESCE(options, '') LIKE ?") {
		t.Fatalf("condition should contain options LIKE, got %s", condition)
	}
}

func TestBuildLikeConditionPostgresUsesILike(t *testing.T) {
	condition, argCount := buildLikeConditionByDialect("postgres", []string{"order_no"}, nil)
	if argCount != 1 || condition != "order_no ILIKE ?" {
		t.Fatalf("postgres condition mismatch, got %s (%d)", condition, argCount)
	}
}

func TestRepeatLikeArgs(t *testing.T) {
	args := repeatLikeArgs("%test%", 3)
	if len(args) != 3 {
		t.Fatalf("args len want 3 got %d", len(args))
	}
	for idx, arg := range args {
		if arg != "%test%" {
			t.Fatalf("args[%d] want %%test%% got %v", idx, arg)
		}
	}
}
