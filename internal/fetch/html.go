package fetch

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// stripHTML removes markup, decodes entities and collapses whitespace.
func stripHTML(raw string) string {
	if raw == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return collapseWhitespace(raw)
	}
	return collapseWhitespace(doc.Text())
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// firstImageSrc returns the src of the first <img> tag, or "".
func firstImageSrc(raw string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return ""
	}
	src, _ := doc.Find("img").First().Attr("src")
	return src
}

// imageSrcs returns the src of every <img> tag in document order.
func imageSrcs(raw string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return nil
	}
	var srcs []string
	doc.Find("img").Each(func(_ int, sel *goquery.Selection) {
		if src, ok := sel.Attr("src"); ok && src != "" {
			srcs = append(srcs, src)
		}
	})
	return srcs
}

// fixProtocolRelative normalizes //host/path URLs to https.
func fixProtocolRelative(url string) string {
	if strings.HasPrefix(url, "//") {
		return "https:" + url
	}
	return url
}

// truncateRunes cuts a string to at most n characters (not bytes).
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
