// Package classifier implements the layered URL classification pipeline:
// a deterministic rule engine first, with a batched model fallback for
// everything the rules cannot place.
package classifier

import (
	"net/url"
	"sort"
	"strings"

	ahocorasick "github.com/cloudflare/ahocorasick"
	"github.com/jonesrussell/linkpulse/internal/domain"
)

// domainRule is one entry of the static hostname table.
type domainRule struct {
	category   domain.Category
	confidence float64
	reason     string
}

// domainRules maps normalized hostnames to classifications. Growing this
// table is the cheapest way to cut model-classifier spend: every hit here
// is one fewer record in a paid batch.
var domainRules = map[string]domainRule{
	// video
	"youtube.com": {domain.CategoryVideo, 0.95, "domain=youtube.com"},
	"youtu.be":    {domain.CategoryVideo, 0.95, "domain=youtu.be"},
	"tiktok.com":  {domain.CategoryVideo, 0.90, "domain=tiktok.com"},

	// social
	"instagram.com": {domain.CategorySocial, 0.95, "domain=instagram.com"},
	"facebook.com":  {domain.CategorySocial, 0.90, "domain=facebook.com"},
	"x.com":         {domain.CategorySocial, 0.90, "domain=x.com"},
	"twitter.com":   {domain.CategorySocial, 0.90, "domain=twitter.com"},

	// dev/docs
	"github.com":            {domain.CategoryDev, 0.95, "domain=github.com"},
	"developer.mozilla.org": {domain.CategoryDocs, 0.95, "domain=developer.mozilla.org"},
	"docs.aws.amazon.com":   {domain.CategoryDocs, 0.95, "domain=docs.aws.amazon.com"},
	"kubernetes.io":         {domain.CategoryDocs, 0.95, "domain=kubernetes.io"},

	// news
	"news.naver.com":  {domain.CategoryNews, 0.95, "domain=news.naver.com"},
	"media.naver.com": {domain.CategoryNews, 0.90, "domain=media.naver.com"},
	"news.daum.net":   {domain.CategoryNews, 0.95, "domain=news.daum.net"},

	// shopping
	"coupang.com":          {domain.CategoryShopping, 0.95, "domain=coupang.com"},
	"smartstore.naver.com": {domain.CategoryShopping, 0.90, "domain=smartstore.naver.com"},
	"11st.co.kr":           {domain.CategoryShopping, 0.90, "domain=11st.co.kr"},
	"gmarket.co.kr":        {domain.CategoryShopping, 0.90, "domain=gmarket.co.kr"},

	// portal/search
	"naver.com":  {domain.CategorySearch, 0.85, "domain=naver.com"},
	"google.com": {domain.CategorySearch, 0.85, "domain=google.com"},
	"daum.net":   {domain.CategorySearch, 0.80, "domain=daum.net"},

	// blog platforms
	"velog.io":    {domain.CategoryBlog, 0.90, "domain=velog.io"},
	"tistory.com": {domain.CategoryBlog, 0.85, "domain=tistory.com"},
	"medium.com":  {domain.CategoryBlog, 0.85, "domain=medium.com"},
}

// pathRuleGroup is one path-heuristic bucket. Earlier groups win when
// fragments from several groups match.
type pathRuleGroup struct {
	category   domain.Category
	confidence float64
	reason     string
	fragments  []string
}

// Path heuristics carry lower confidence than domain matches: a path shape
// is a hint, a hostname is an identity.
var pathRuleGroups = []pathRuleGroup{
	{domain.CategoryBlog, 0.70, "path looks like blog", []string{"/blog", "/posts", "/post/"}},
	{domain.CategoryDocs, 0.70, "path looks like docs", []string{"/docs", "/documentation", "/guide"}},
	{domain.CategoryShopping, 0.65, "path looks like product page", []string{"/product", "/products", "/item", "/detail"}},
}

// RuleClassifier is the deterministic first classification stage. It is a
// pure function of its static tables and must stay cheap: it exists to
// keep records out of the paid model path.
type RuleClassifier struct {
	suffixes    []string
	pathMatcher *ahocorasick.Matcher
	pathGroups  []int // fragment index -> group index
}

// NewRuleClassifier builds the suffix list and the path-fragment matcher.
func NewRuleClassifier() *RuleClassifier {
	// Longest suffix first, so the most specific entry wins when hostnames
	// overlap (news.naver.com before naver.com). Length ties break
	// lexicographically to keep the scan order deterministic.
	suffixes := make([]string, 0, len(domainRules))
	for host := range domainRules {
		suffixes = append(suffixes, host)
	}
	sort.Slice(suffixes, func(i, j int) bool {
		if len(suffixes[i]) != len(suffixes[j]) {
			return len(suffixes[i]) > len(suffixes[j])
		}
		return suffixes[i] < suffixes[j]
	})

	var fragments []string
	var groups []int
	for gi, group := range pathRuleGroups {
		for _, frag := range group.fragments {
			fragments = append(fragments, frag)
			groups = append(groups, gi)
		}
	}

	return &RuleClassifier{
		suffixes:    suffixes,
		pathMatcher: ahocorasick.NewStringMatcher(fragments),
		pathGroups:  groups,
	}
}

// Classify attempts to place a URL using the static tables. The boolean is
// false when no rule applies and the caller must fall back to the model
// classifier. Malformed URLs never error; they are a plain no-match.
func (r *RuleClassifier) Classify(rawURL string) (domain.Classification, bool) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return domain.Classification{}, false
	}

	host := domain.NormalizeHost(u.Hostname())

	if host != "" {
		if rule, ok := domainRules[host]; ok {
			return rule.classification(), true
		}

		for _, d := range r.suffixes {
			if host == d || strings.HasSuffix(host, "."+d) {
				return domainRules[d].classification(), true
			}
		}
	}

	return r.classifyPath(strings.ToLower(u.Path))
}

// classifyPath runs the Aho-Corasick fragment matcher over the URL path.
// When fragments from several groups hit, the earliest group wins.
func (r *RuleClassifier) classifyPath(path string) (domain.Classification, bool) {
	if path == "" {
		return domain.Classification{}, false
	}

	hits := r.pathMatcher.Match([]byte(path))
	if len(hits) == 0 {
		return domain.Classification{}, false
	}

	best := len(pathRuleGroups)
	for _, hit := range hits {
		if hit < len(r.pathGroups) && r.pathGroups[hit] < best {
			best = r.pathGroups[hit]
		}
	}
	if best == len(pathRuleGroups) {
		return domain.Classification{}, false
	}

	group := pathRuleGroups[best]
	return domain.Classification{
		Category:   group.category,
		Confidence: group.confidence,
		Reason:     group.reason,
		Source:     domain.SourceRule,
	}, true
}

func (d domainRule) classification() domain.Classification {
	return domain.Classification{
		Category:   d.category,
		Confidence: d.confidence,
		Reason:     d.reason,
		Source:     domain.SourceRule,
	}
}
