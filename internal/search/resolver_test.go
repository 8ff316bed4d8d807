package search

import (
	"errors"
	"reflect"
	"testing"

	"github.com/opsshop/jiratrack/internal/apperr"
)

func TestResolve_ExactMatch(t *testing.T) {
	keys, err := Resolve("7", "MOCIS", 20)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	want := []string{"MOCIS-7"}
	if !reflect.DeepEqual(keys, want) {
		t.Errorf("keys = %v, want %v", keys, want)
	}
}

func TestResolve_ExactMatchStopsAtFirstHit(t *testing.T) {
	// "1" matches key 1 exactly; keys 10..19 also start with 1 but an
	// exact pattern must not pick them up.
	keys, err := Resolve("1", "MOCIS", 20)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(keys) != 1 || keys[0] != "MOCIS-1" {
		t.Errorf("keys = %v, want [MOCIS-1]", keys)
	}
}

func TestResolve_PrefixWildcard(t *testing.T) {
	keys, err := Resolve("1*", "MOCIS", 25)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	// 1, 10..19 all start with "1".
	want := []string{
		"MOCIS-1", "MOCIS-10", "MOCIS-11", "MOCIS-12", "MOCIS-13",
		"MOCIS-14", "MOCIS-15", "MOCIS-16", "MOCIS-17", "MOCIS-18", "MOCIS-19",
	}
	if !reflect.DeepEqual(keys, want) {
		t.Errorf("keys = %v, want %v", keys, want)
	}
}

func TestResolve_SuffixWildcard(t *testing.T) {
	keys, err := Resolve("*3", "MOCIS", 25)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	want := []string{"MOCIS-3", "MOCIS-13", "MOCIS-23"}
	if !reflect.DeepEqual(keys, want) {
		t.Errorf("keys = %v, want %v", keys, want)
	}
}

func TestResolve_MisplacedWildcardActsAsPrefix(t *testing.T) {
	mid, err := Resolve("1*2", "MOCIS", 150)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	prefix, err := Resolve("12*", "MOCIS", 150)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !reflect.DeepEqual(mid, prefix) {
		t.Errorf("mid-token wildcard = %v, want prefix behavior %v", mid, prefix)
	}
}

func TestResolve_ContainsWildcard(t *testing.T) {
	keys, err := Resolve("*2*", "MOCIS", 130)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	for _, k := range []string{"MOCIS-2", "MOCIS-12", "MOCIS-20", "MOCIS-125"} {
		if !contains(keys, k) {
			t.Errorf("keys missing %s: %v", k, keys)
		}
	}
	if contains(keys, "MOCIS-13") {
		t.Errorf("keys should not include MOCIS-13: %v", keys)
	}
}

func TestResolve_DoubleWildcardNotAtEdgesActsAsContains(t *testing.T) {
	odd, err := Resolve("*2*3", "MOCIS", 300)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	want, err := Resolve("*23*", "MOCIS", 300)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !reflect.DeepEqual(odd, want) {
		t.Errorf("stripped pattern = %v, want contains behavior %v", odd, want)
	}
}

func TestResolve_OnlyWildcardsIsEmptySearch(t *testing.T) {
	for _, pattern := range []string{"*", "**", "  *  "} {
		_, err := Resolve(pattern, "MOCIS", 10)
		if !errors.Is(err, apperr.ErrEmptySearch) {
			t.Errorf("Resolve(%q) err = %v, want ErrEmptySearch", pattern, err)
		}
	}
}

func TestResolve_NoMatchesIsEmptyNotError(t *testing.T) {
	keys, err := Resolve("999", "MOCIS", 20)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(keys) != 0 {
		t.Errorf("keys = %v, want none", keys)
	}
}

func TestJoinKeys(t *testing.T) {
	got := JoinKeys([]string{"MOCIS-1", "MOCIS-2"})
	if got != "MOCIS-1,MOCIS-2" {
		t.Errorf("JoinKeys = %q", got)
	}
}

func contains(keys []string, want string) bool {
	for _, k := range keys {
		if k == want {
			return true
		}
	}
	return false
}
