package blockid

import (
	"io"

	"golang.org/x/net/html"
)

// Extract scans a rendered document for elements carrying the canonical
// anchor attribute and returns the raw-to-canonical mapping.
//
// Design decision: We use the x/net/html tokenizer rather than a full DOM
// parse because extraction only needs attribute values. The tokenizer handles
// malformed HTML and never materializes the document tree, which matters for
// large script-rendered pages.
func Extract(r io.Reader) (Map, error) {
	m := make(Map)
	z := html.NewTokenizer(r)
	for {
		switch z.Next() {
		case html.ErrorToken:
			if z.Err() == io.EOF {
				return m, nil
			}
			return m, z.Err()
		case html.StartTagToken, html.SelfClosingTagToken:
			for {
				key, val, more := z.TagAttr()
				if string(key) == BlockIDAttr {
					if raw, ok := RawID(string(val)); ok {
						m[raw] = string(val)
					}
				}
				if !more {
					break
				}
			}
		}
	}
}
