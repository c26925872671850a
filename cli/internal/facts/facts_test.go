package facts

import (
	"regexp"
	"testing"
)

const movedConfigDiff = `diff --git a/config/dev.exs b/config/dev.exs
--- a/config/dev.exs
+++ b/config/dev.exs
@@ -1,4 +1,3 @@
 use Mix.Config
-four_hours = 4*60*60*1000
-config :blog, cache_ttl: four_hours
 config :blog, port: 4000
diff --git a/config/config.exs b/config/config.exs
--- a/config/config.exs
+++ b/config/config.exs
@@ -1,2 +1,4 @@
 use Mix.Config
+one_day = 24*60*60*1000
+config :blog, cache_ttl: one_day
`

func TestExtract_movedKeyMergesIntoOneFact(t *testing.T) {
	set := Extract(movedConfigDiff)
	if len(set.Facts) != 1 {
		t.Fatalf("got %d facts, want 1: %+v", len(set.Facts), set.Facts)
	}
	f := set.Facts[0]
	if f.Key != "blog.cache_ttl" {
		t.Errorf("Key = %q", f.Key)
	}
	if f.RemovedFrom != "config/dev.exs" {
		t.Errorf("RemovedFrom = %q", f.RemovedFrom)
	}
	if f.AddedTo != "config/config.exs" {
		t.Errorf("AddedTo = %q", f.AddedTo)
	}
	if f.OldValueExpr != "four_hours" {
		t.Errorf("OldValueExpr = %q", f.OldValueExpr)
	}
	if f.NewValueExpr != "one_day" {
		t.Errorf("NewValueExpr = %q", f.NewValueExpr)
	}
}

func TestExtract_bindings(t *testing.T) {
	set := Extract(movedConfigDiff)
	if b, ok := set.Bindings["one_day"]; !ok || b.Expr != "24*60*60*1000" {
		t.Errorf("Bindings[one_day] = %+v, ok=%v", b, ok)
	}
	if b, ok := set.OldBindings["four_hours"]; !ok || b.Expr != "4*60*60*1000" {
		t.Errorf("OldBindings[four_hours] = %+v, ok=%v", b, ok)
	}
}

func TestExtract_additionsWinBindingTies(t *testing.T) {
	text := `diff --git a/config/dev.exs b/config/dev.exs
--- a/config/dev.exs
+++ b/config/dev.exs
@@ -1,2 +1,2 @@
-ttl = 5*60*1000
+ttl = 10*60*1000
`
	set := Extract(text)
	if b := set.Bindings["ttl"]; b.Expr != "10*60*1000" {
		t.Errorf("Bindings[ttl] = %+v", b)
	}
	if _, ok := set.OldBindings["ttl"]; ok {
		t.Error("removed binding should be dropped when an addition redefines the name")
	}
}

func TestExtract_pureAdditionAndRemoval(t *testing.T) {
	text := `diff --git a/config/prod.exs b/config/prod.exs
--- a/config/prod.exs
+++ b/config/prod.exs
@@ -1,3 +1,3 @@
-config :blog, debug: true
+config :blog, pool_size: 10
`
	set := Extract(text)
	if len(set.Facts) != 2 {
		t.Fatalf("got %d facts, want 2: %+v", len(set.Facts), set.Facts)
	}
	removal := set.Facts[0]
	if removal.Key != "blog.debug" || removal.RemovedFrom != "config/prod.exs" || removal.AddedTo != "" {
		t.Errorf("removal fact = %+v", removal)
	}
	addition := set.Facts[1]
	if addition.Key != "blog.pool_size" || addition.AddedTo != "config/prod.exs" || addition.RemovedFrom != "" {
		t.Errorf("addition fact = %+v", addition)
	}
	if addition.NewValueExpr != "10" {
		t.Errorf("NewValueExpr = %q", addition.NewValueExpr)
	}
}

func TestExtract_noMatches(t *testing.T) {
	text := `diff --git a/lib/blog.ex b/lib/blog.ex
--- a/lib/blog.ex
+++ b/lib/blog.ex
@@ -1,2 +1,2 @@
-  def hello, do: :world
+  def hello, do: :universe
`
	set := Extract(text)
	if !set.Empty() {
		t.Errorf("expected empty set, got %+v", set)
	}
}

func TestExtract_fileHeadersNotTreatedAsChanges(t *testing.T) {
	// "---"/"+++" header lines start with the change markers and must be skipped.
	text := "diff --git a/config/a.exs b/config/a.exs\n" +
		"--- a/config/a.exs\n" +
		"+++ b/config/a.exs\n"
	set := Extract(text)
	if !set.Empty() {
		t.Errorf("expected empty set, got %+v", set)
	}
}

func TestExtract_neverErrorsOnGarbage(t *testing.T) {
	for _, text := range []string{"", "not a diff at all", "+config :broken", "-x =", "+ = 5"} {
		set := Extract(text)
		if set.Bindings == nil || set.OldBindings == nil {
			t.Errorf("%q: maps must be non-nil", text)
		}
	}
}

func TestResolve(t *testing.T) {
	set := Extract(movedConfigDiff)
	if expr, ok := set.Resolve("one_day", false); !ok || expr != "24*60*60*1000" {
		t.Errorf("Resolve(one_day) = %q, %v", expr, ok)
	}
	if expr, ok := set.Resolve("four_hours", true); !ok || expr != "4*60*60*1000" {
		t.Errorf("Resolve(four_hours, old) = %q, %v", expr, ok)
	}
	if _, ok := set.Resolve("missing", false); ok {
		t.Error("Resolve(missing) should report not found")
	}
}

func TestGrammar_customPattern(t *testing.T) {
	// A YAML-ish shape: "app.key: value".
	g := DefaultGrammar()
	g.ConfigAssignment = regexp.MustCompile(`^(\w+)\.(\w+):\s*([^,#]+)`)
	text := `diff --git a/settings.yml b/settings.yml
--- a/settings.yml
+++ b/settings.yml
@@ -1,1 +1,1 @@
+blog.cache_ttl: 3600
`
	set := g.Extract(text)
	if len(set.Facts) != 1 || set.Facts[0].Key != "blog.cache_ttl" {
		t.Errorf("custom grammar facts = %+v", set.Facts)
	}
}
