package cloudauth

import (
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// hiddenInputs returns the name/value pairs of every <input type="hidden">
// in the document. Inputs without a name are skipped; repeated names keep
// the last value.
func hiddenInputs(r io.Reader) (url.Values, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	fields := url.Values{}
	walk(doc, func(n *html.Node) {
		if n.Data != "input" || !strings.EqualFold(attr(n, "type"), "hidden") {
			return
		}
		if name := attr(n, "name"); name != "" {
			fields.Set(name, attr(n, "value"))
		}
	})
	return fields, nil
}

// softwareVersion returns the content of <meta itemprop="softwareVersion">.
func softwareVersion(r io.Reader) (string, bool) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", false
	}

	var version string
	walk(doc, func(n *html.Node) {
		if version == "" && n.Data == "meta" && attr(n, "itemprop") == "softwareVersion" {
			version = strings.TrimSpace(attr(n, "content"))
		}
	})
	return version, version != ""
}

func walk(n *html.Node, visit func(*html.Node)) {
	if n.Type == html.ElementNode {
		visit(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, visit)
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
