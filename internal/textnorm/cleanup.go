// Package textnorm turns raw report text into normalized token sequences.
//
// The pipeline runs a fixed chain of domain cleanup rules (quoted replies,
// hex ids, library names, file references, URLs, synonyms, crash-stats
// references) before tokenizing, removing stopwords, and stemming. Every rule
// is a pure text-to-text transform.
package textnorm

import (
	"regexp"
	"strings"
)

// Rule is a pure text cleanup transform applied before tokenization.
type Rule func(string) string

var (
	quotedReplyRe = regexp.MustCompile(`(?m)^\s*>.*$`)
	hexRe         = regexp.MustCompile(`\b(?:0[xX])?[0-9a-fA-F]{8,}\b`)
	dllRe         = regexp.MustCompile(`\b\S+\.(?:dll|so|dylib)\b`)
	fileRefRe     = regexp.MustCompile(`\b\S+\.(?:c|cc|cpp|h|hpp|rs|go|py|js|ts|java|html|css|xml|ini|txt|log)\b`)
	urlRe         = regexp.MustCompile(`\b(?:https?://|www\.)\S+`)
	crashRefRe    = regexp.MustCompile(`\bbp-[0-9a-f][0-9a-f-]+\b`)
)

// synonymRules canonicalizes multiword phrases and spelling variants so that
// equivalent reports tokenize identically.
var synonymRules = []struct {
	re        *regexp.Regexp
	canonical string
}{
	{regexp.MustCompile(`(?i)\bsteps to reproduce\b|\bstr\b`), "str"},
	{regexp.MustCompile(`(?i)\bsafe[ -]?mode\b`), "safemode"},
	{regexp.MustCompile(`(?i)\buse[ -]after[ -]free\b|\buaf\b`), "uaf"},
	{regexp.MustCompile(`(?i)\bworks for me\b|\bworksforme\b|\bwfm\b`), "worksforme"},
	{regexp.MustCompile(`(?i)\bnull[ -]?pointer\b|\bnullptr\b`), "null pointer"},
}

// StripQuotedReplies removes lines quoted from earlier comments.
func StripQuotedReplies(text string) string {
	return quotedReplyRe.ReplaceAllString(text, " ")
}

// CollapseHex replaces long hexadecimal identifiers with a single marker.
func CollapseHex(text string) string {
	return hexRe.ReplaceAllString(text, " __HEX__ ")
}

// CollapseLibraryNames replaces shared-library file names with a marker.
func CollapseLibraryNames(text string) string {
	return dllRe.ReplaceAllString(text, " __LIB_NAME__ ")
}

// CollapseFileRefs replaces source and data file references with a marker.
func CollapseFileRefs(text string) string {
	return fileRefRe.ReplaceAllString(text, " __FILE_REF__ ")
}

// CollapseURLs replaces URLs with a marker.
func CollapseURLs(text string) string {
	return urlRe.ReplaceAllString(text, " __URL__ ")
}

// ApplySynonyms rewrites known phrase variants to one canonical form.
func ApplySynonyms(text string) string {
	for _, s := range synonymRules {
		text = s.re.ReplaceAllString(text, s.canonical)
	}
	return text
}

// CollapseCrashRefs replaces crash-stats report references with a marker.
func CollapseCrashRefs(text string) string {
	return crashRefRe.ReplaceAllString(text, " __CRASH_REF__ ")
}

// DefaultRules is the cleanup chain applied by Normalize, in order.
func DefaultRules() []Rule {
	return []Rule{
		StripQuotedReplies,
		CollapseHex,
		CollapseLibraryNames,
		CollapseFileRefs,
		CollapseURLs,
		ApplySynonyms,
		CollapseCrashRefs,
	}
}

func applyRules(text string, rules []Rule) string {
	for _, rule := range rules {
		text = rule(text)
	}
	return strings.TrimSpace(text)
}
