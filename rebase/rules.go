package rebase

import (
	"crypto/md5"
	"fmt"

	"github.com/dlclark/regexp2"
)

// Rule is one global pattern replacement. Patterns are compiled by regexp2
// in ECMAScript mode: lookbehind and lookahead are available, and \w, \d
// and \s match ASCII only.
type Rule struct {
	Pattern     *regexp2.Regexp
	Replacement string
}

// NewRule compiles pattern.
func NewRule(pattern, replacement string) (Rule, error) {
	re, err := regexp2.Compile(pattern, regexp2.ECMAScript)
	if err != nil {
		return Rule{}, fmt.Errorf("compiling rule %q: %w", pattern, err)
	}
	return Rule{Pattern: re, Replacement: replacement}, nil
}

// MustRule is like NewRule but panics on an invalid pattern.
func MustRule(pattern, replacement string) Rule {
	r, err := NewRule(pattern, replacement)
	if err != nil {
		panic(err)
	}
	return r
}

// Apply replaces every match of the rule in text.
func (r Rule) Apply(text string) (string, error) {
	out, err := r.Pattern.Replace(text, r.Replacement, -1, -1)
	if err != nil {
		return "", fmt.Errorf("applying rule %q: %w", r.Pattern.String(), err)
	}
	return out, nil
}

func (r Rule) String() string {
	return fmt.Sprintf("%s -> %s", r.Pattern.String(), r.Replacement)
}

// Ruleset is an ordered list of rules applied one after another, each to the
// output of the previous one.
//
// Rule order matters: narrow phrases must come before the broad brand-name
// rules that would otherwise rewrite part of them first. Do not reorder
// without re-verifying the result. Every rule must be idempotent on its own
// (replace A with AX is not allowed).
type Ruleset []Rule

// Apply runs every rule in order over text.
func (rs Ruleset) Apply(text string) (string, error) {
	var err error
	for _, r := range rs {
		if text, err = r.Apply(text); err != nil {
			return "", err
		}
	}
	return text, nil
}

// Fingerprint identifies the ruleset contents. It changes whenever a rule is
// added, removed, edited or moved.
func (rs Ruleset) Fingerprint() string {
	h := md5.New()
	for _, r := range rs {
		fmt.Fprintf(h, "%s\x00%s\x00", r.Pattern.String(), r.Replacement)
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}

// DefaultRules returns the branding replacements applied to Chromium strings.
//
// Prefer mapping a Chromium resource ID to a new Brave resource ID for
// whole-message replacements instead of growing this list.
func DefaultRules() Ruleset {
	return Ruleset{
		MustRule(`Automatically send usage statistics and crash reports to Google`, `Automatically send crash reports to Google`),
		MustRule(`Automatically sends usage statistics and crash reports to Google`, `Automatically sends crash reports to Google`),
		MustRule(`Chrome Web Store`, `Web Store`),
		MustRule(`The Chromium Authors`, `Brave Software Inc`),
		MustRule(`Google Chrome`, `Brave`),
		MustRule(`Chromium`, `Brave`),
		MustRule(`Chrome`, `Brave`),
		MustRule(`Google`, `Brave`),
		MustRule(`You're incognito`, `This is a private window`),
		MustRule(`an incognito`, `a private`),
		MustRule(`an Incognito`, `a Private`),
		MustRule(`incognito`, `private`),
		MustRule(`Incognito`, `Private`),
		MustRule(`inco&amp;gnito`, `&amp;private`),
		MustRule(`Inco&amp;gnito`, `&amp;Private`),
		MustRule(`People`, `Profiles`),
		// "people" only where it means profiles, not humans.
		MustRule(`(?<!authenticate )people(?! with slow connections?)`, `profiles`),
		MustRule(`Person(?!\w)`, `Profile`),
		MustRule(`person(?!\w)`, `profile`),
		MustRule(`Bookmarks Bar\n`, "Bookmarks\n"),
		MustRule(`Bookmarks bar\n`, "Bookmarks\n"),
		MustRule(`bookmarks bar\n`, "bookmarks\n"),
	}
}
