// Package goquery reads links and metadata from rendered page HTML.
package goquery

import (
	"net/url"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/pagecheck"
)

// SkipAttribute marks anchors that page authors opt out of crawling.
const SkipAttribute = "data-cke-crawler-skip"

// IgnorePatternsMeta names the meta tag holding a page's ignore patterns.
const IgnorePatternsMeta = "x-cke-crawler-ignore-patterns"

// ExtractLinks returns the deduplicated base URLs of every crawlable anchor in
// the body of html. Anchors carrying skipAttr or a download attribute are
// skipped, as are links that do not resolve to http or https.
// Relative hrefs are resolved against pageURL, or against <base href> when
// the document declares one. The result is sorted.
func ExtractLinks(html, pageURL, skipAttr string) ([]string, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, pagecheck.Errorf(pagecheck.EINVALID, "invalid page URL: %v", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, pagecheck.Errorf(pagecheck.EINVALID, "failed to parse HTML: %v", err)
	}

	if href, ok := doc.Find("head base[href]").First().Attr("href"); ok {
		if ref, err := url.Parse(strings.TrimSpace(href)); err == nil {
			base = base.ResolveReference(ref)
		}
	}

	selector := "body a[href]:not([download])"
	if skipAttr != "" {
		selector = "body a[href]:not([download]):not([" + skipAttr + "])"
	}

	seen := make(map[string]struct{})
	doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		link, ok := resolveLink(base, href)
		if !ok {
			return
		}
		seen[link] = struct{}{}
	})

	links := make([]string, 0, len(seen))
	for link := range seen {
		links = append(links, link)
	}
	sort.Strings(links)
	return links, nil
}

// MetaContent returns the content attribute of the first <meta name="name">
// tag in html. The bool result is false when the tag is missing.
func MetaContent(html, name string) (string, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", false
	}
	var content string
	var found bool
	doc.Find("meta[name]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if n, _ := sel.Attr("name"); n != name {
			return true
		}
		content, found = sel.Attr("content")
		return false
	})
	return content, found
}

// resolveLink resolves href against base and canonicalizes it to its base URL.
func resolveLink(base *url.URL, href string) (string, bool) {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", false
	}
	resolved := base.ResolveReference(ref)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return "", false
	}
	link, err := pagecheck.BaseURL(resolved.String())
	if err != nil {
		return "", false
	}
	return link, true
}
