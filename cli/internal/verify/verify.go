// Package verify reconciles model-written bullets against what the diff
// actually contains. Structured facts beat free text: when the extractor
// found config facts, bullets are synthesized from them and the model's own
// bullets are discarded. Without facts, each model bullet's "from X to Y"
// claim is checked against the diff's removed and added lines and flipped
// when the direction is backwards.
package verify

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/zyzyva/summarizer/cli/internal/facts"
)

// Bullets returns the verified detail bullets for the commit body.
func Bullets(raw []string, diffText string, set facts.Set) []string {
	if synthesized := FromFacts(set); len(synthesized) > 0 {
		return synthesized
	}
	return checkFreeText(raw, diffText)
}

// FromFacts builds one deterministic bullet per config fact.
func FromFacts(set facts.Set) []string {
	var out []string
	for _, f := range set.Facts {
		switch {
		case f.RemovedFrom != "" && f.AddedTo != "":
			line := fmt.Sprintf("* Move %s from %s to %s", f.Key, f.RemovedFrom, f.AddedTo)
			oldDesc := describeValue(f.OldValueExpr, set, true)
			newDesc := describeValue(f.NewValueExpr, set, false)
			if oldDesc != "" || newDesc != "" {
				line += fmt.Sprintf(", changing value from %s to %s", oldDesc, newDesc)
			}
			out = append(out, line)
		case f.RemovedFrom != "":
			out = append(out, fmt.Sprintf("* Remove %s from %s", f.Key, f.RemovedFrom))
		case f.AddedTo != "":
			out = append(out, fmt.Sprintf("* Add %s to %s with value %s", f.Key, f.AddedTo, describeValue(f.NewValueExpr, set, false)))
		}
	}
	return out
}

var identRe = regexp.MustCompile(`^[A-Za-z_]\w*$`)

// describeValue renders a value expression for a bullet. An identifier with
// a known binding gets the binding's evaluated duration appended, e.g.
// "four_hours (4 hours)"; inline arithmetic is evaluated the same way; plain
// literals and unknown names are used verbatim.
func describeValue(expr string, set facts.Set, old bool) string {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return ""
	}
	target := ""
	if identRe.MatchString(expr) {
		bound, ok := set.Resolve(expr, old)
		if !ok {
			return expr
		}
		target = bound
	} else if strings.ContainsAny(expr, "*+") {
		target = expr
	} else {
		return expr
	}
	ms, ok := evalExpr(target)
	if !ok {
		return expr
	}
	human := humanizeMillis(ms)
	if human == "" {
		return expr
	}
	return fmt.Sprintf("%s (%s)", expr, human)
}

// evalExpr evaluates a sum of products over decimal literals ("4*60*60*1000",
// "500 + 100"). Anything outside that grammar reports false.
func evalExpr(expr string) (int64, bool) {
	expr = strings.ReplaceAll(expr, " ", "")
	if expr == "" || strings.ContainsAny(expr, "()") {
		return 0, false
	}
	var total int64
	for _, term := range strings.Split(expr, "+") {
		product := int64(1)
		for _, factor := range strings.Split(term, "*") {
			n, err := strconv.ParseInt(factor, 10, 64)
			if err != nil {
				return 0, false
			}
			product *= n
		}
		total += product
	}
	return total, true
}

// humanizeMillis formats a millisecond count at the coarsest unit that
// divides it evenly, topping out at hours ("24 hours", not "1 day") so the
// wording tracks how these constants are written in source.
func humanizeMillis(ms int64) string {
	if ms <= 0 {
		return ""
	}
	const (
		second = 1000
		minute = 60 * second
		hour   = 60 * minute
	)
	switch {
	case ms%hour == 0:
		return plural(ms/hour, "hour")
	case ms%minute == 0:
		return plural(ms/minute, "minute")
	case ms%second == 0:
		return plural(ms/second, "second")
	}
	return plural(ms, "millisecond")
}

func plural(n int64, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

var fromToRe = regexp.MustCompile(`\bfrom\s+(\S+)\s+to\s+(\S+)`)

// checkFreeText confirms each "from X to Y" claim against the diff. X must
// appear on a removed line and Y on an added line; when only the reverse
// holds, the direction is flipped. Claims the diff cannot confirm either way
// pass through unmodified, and lines without the pattern are untouched.
func checkFreeText(lines []string, diffText string) []string {
	removed, added := changeLines(diffText)
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		m := fromToRe.FindStringSubmatch(line)
		if m == nil {
			out = append(out, line)
			continue
		}
		a := strings.Trim(m[1], ".,;:")
		b := strings.Trim(m[2], ".,;:")
		aRemoved, aAdded := contains(removed, a), contains(added, a)
		bRemoved, bAdded := contains(removed, b), contains(added, b)
		if !aRemoved && !bAdded && aAdded && bRemoved {
			// Model stated the move backwards.
			swapped := fromToRe.ReplaceAllString(line, "from "+b+" to "+a)
			out = append(out, swapped)
			continue
		}
		out = append(out, line)
	}
	return out
}

// changeLines splits diff text into removed and added line content, skipping
// the ---/+++ file headers.
func changeLines(diffText string) (removed, added []string) {
	for _, line := range strings.Split(diffText, "\n") {
		switch {
		case strings.HasPrefix(line, "---"), strings.HasPrefix(line, "+++"):
		case strings.HasPrefix(line, "-"):
			removed = append(removed, line[1:])
		case strings.HasPrefix(line, "+"):
			added = append(added, line[1:])
		}
	}
	return removed, added
}

func contains(lines []string, needle string) bool {
	for _, l := range lines {
		if strings.Contains(l, needle) {
			return true
		}
	}
	return false
}
