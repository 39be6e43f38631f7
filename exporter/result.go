package exporter

import (
	"strings"

	iface "TFLiteExport/interface"

	"github.com/tidwall/gjson"
)

// ParseResult decodes one result document. A JSON string is a single
// artifact, an array lists candidates in order and null means nothing was
// produced. Anything else is not a result.
func ParseResult(doc string) (iface.Artifacts, bool) {
	doc = strings.TrimSpace(doc)
	if doc == "" || !gjson.Valid(doc) {
		return iface.Artifacts{}, false
	}
	r := gjson.Parse(doc)
	switch {
	case r.Type == gjson.String:
		return iface.SingleArtifact(r.Str), true
	case r.Type == gjson.Null:
		return iface.ArtifactList(), true
	case r.IsArray():
		var paths []string
		for _, item := range r.Array() {
			if item.Type != gjson.String {
				return iface.Artifacts{}, false
			}
			paths = append(paths, item.Str)
		}
		return iface.ArtifactList(paths...), true
	}
	return iface.Artifacts{}, false
}

// resultFromOutput finds the result line in the exporter's stdout. With a
// prefix, the last line carrying it wins; without one, the last non-empty
// line must itself be a result.
func resultFromOutput(out, prefix string) (iface.Artifacts, bool) {
	lines := strings.Split(strings.ReplaceAll(out, "\r\n", "\n"), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}
		if prefix == "" {
			return ParseResult(line)
		}
		if doc, ok := strings.CutPrefix(line, prefix); ok {
			return ParseResult(doc)
		}
	}
	return iface.Artifacts{}, false
}

func lastLine(b []byte) string {
	lines := strings.Split(strings.TrimRight(string(b), "\r\n\t "), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
