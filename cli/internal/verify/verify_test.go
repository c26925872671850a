package verify

import (
	"reflect"
	"testing"

	"github.com/zyzyva/summarizer/cli/internal/facts"
)

const movedTTLDiff = `diff --git a/dev.exs b/dev.exs
--- a/dev.exs
+++ b/dev.exs
@@ -1,3 +1,2 @@
-four_hours = 4*60*60*1000
-config :blog, cache_ttl: four_hours
diff --git a/config.exs b/config.exs
--- a/config.exs
+++ b/config.exs
@@ -1,2 +1,4 @@
+one_day = 24*60*60*1000
+config :blog, cache_ttl: one_day
`

func TestBullets_factDrivenMove(t *testing.T) {
	set := facts.Extract(movedTTLDiff)
	got := Bullets([]string{"* Move blog.cache_ttl from config.exs to dev.exs"}, movedTTLDiff, set)
	want := []string{"* Move blog.cache_ttl from dev.exs to config.exs, changing value from four_hours (4 hours) to one_day (24 hours)"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v\nwant %v", got, want)
	}
}

func TestBullets_factsDiscardModelBullets(t *testing.T) {
	set := facts.Extract(movedTTLDiff)
	raw := []string{"* Delete the whole config", "* Completely invented claim"}
	got := Bullets(raw, movedTTLDiff, set)
	if len(got) != 1 {
		t.Fatalf("got %v, want exactly the one fact bullet", got)
	}
}

func TestFromFacts_removeOnly(t *testing.T) {
	set := facts.Set{Facts: []facts.ConfigFact{{Key: "blog.debug", RemovedFrom: "prod.exs", OldValueExpr: "true"}}}
	got := FromFacts(set)
	want := []string{"* Remove blog.debug from prod.exs"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestFromFacts_addOnly(t *testing.T) {
	set := facts.Set{Facts: []facts.ConfigFact{{Key: "blog.pool_size", AddedTo: "prod.exs", NewValueExpr: "10"}}}
	got := FromFacts(set)
	want := []string{"* Add blog.pool_size to prod.exs with value 10"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestFromFacts_moveWithoutValues(t *testing.T) {
	set := facts.Set{Facts: []facts.ConfigFact{{Key: "blog.x", RemovedFrom: "a.exs", AddedTo: "b.exs"}}}
	got := FromFacts(set)
	want := []string{"* Move blog.x from a.exs to b.exs"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestBullets_noFactsFallsBackToFreeText(t *testing.T) {
	diff := `diff --git a/a.txt b/a.txt
--- a/a.txt
+++ b/a.txt
-timeout 30
+timeout 60
`
	raw := []string{"* Change timeout from 30 to 60"}
	got := Bullets(raw, diff, facts.Extract(diff))
	if !reflect.DeepEqual(got, raw) {
		t.Errorf("confirmed direction should pass through, got %v", got)
	}
}

func TestCheckFreeText_reversedDirectionSwapped(t *testing.T) {
	diff := `diff --git a/a.txt b/a.txt
-timeout 30
+timeout 60
`
	got := checkFreeText([]string{"* Change timeout from 60 to 30"}, diff)
	want := []string{"* Change timeout from 30 to 60"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestCheckFreeText_unverifiableKept(t *testing.T) {
	diff := "-x\n+y\n"
	raw := []string{"* Change port from 4000 to 5000"}
	got := checkFreeText(raw, diff)
	if !reflect.DeepEqual(got, raw) {
		t.Errorf("unverifiable claims must not be suppressed, got %v", got)
	}
}

func TestCheckFreeText_linesWithoutPatternUntouched(t *testing.T) {
	raw := []string{"* Add login endpoint", "* Tidy imports"}
	got := checkFreeText(raw, "-a\n+b\n")
	if !reflect.DeepEqual(got, raw) {
		t.Errorf("got %v", got)
	}
}

func TestCheckFreeText_idempotent(t *testing.T) {
	diff := `diff --git a/a.txt b/a.txt
-timeout 30
+timeout 60
`
	once := checkFreeText([]string{"* Change timeout from 60 to 30"}, diff)
	twice := checkFreeText(once, diff)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("not idempotent: %v then %v", once, twice)
	}
}

func TestDescribeValue(t *testing.T) {
	set := facts.Set{
		Bindings:    map[string]facts.Binding{"one_day": {Name: "one_day", Expr: "24*60*60*1000"}},
		OldBindings: map[string]facts.Binding{"four_hours": {Name: "four_hours", Expr: "4*60*60*1000"}},
	}
	cases := []struct {
		expr string
		old  bool
		want string
	}{
		{"one_day", false, "one_day (24 hours)"},
		{"four_hours", true, "four_hours (4 hours)"},
		{"unbound_name", false, "unbound_name"},
		{"10", false, "10"},
		{"30*60*1000", false, "30*60*1000 (30 minutes)"},
		{":infinity", false, ":infinity"},
		{"", false, ""},
	}
	for _, c := range cases {
		if got := describeValue(c.expr, set, c.old); got != c.want {
			t.Errorf("describeValue(%q) = %q, want %q", c.expr, got, c.want)
		}
	}
}

func TestEvalExpr(t *testing.T) {
	cases := []struct {
		expr string
		want int64
		ok   bool
	}{
		{"4*60*60*1000", 14400000, true},
		{"24*60*60*1000", 86400000, true},
		{"500 + 100", 600, true},
		{"2*3+4", 10, true},
		{"42", 42, true},
		{"(4*60)", 0, false},
		{"abc", 0, false},
		{"", 0, false},
	}
	for _, c := range cases {
		got, ok := evalExpr(c.expr)
		if got != c.want || ok != c.ok {
			t.Errorf("evalExpr(%q) = %d, %v; want %d, %v", c.expr, got, ok, c.want, c.ok)
		}
	}
}

func TestHumanizeMillis(t *testing.T) {
	cases := []struct {
		ms   int64
		want string
	}{
		{4 * 60 * 60 * 1000, "4 hours"},
		{24 * 60 * 60 * 1000, "24 hours"},
		{60 * 60 * 1000, "1 hour"},
		{30 * 60 * 1000, "30 minutes"},
		{5 * 1000, "5 seconds"},
		{250, "250 milliseconds"},
		{0, ""},
	}
	for _, c := range cases {
		if got := humanizeMillis(c.ms); got != c.want {
			t.Errorf("humanizeMillis(%d) = %q, want %q", c.ms, got, c.want)
		}
	}
}
