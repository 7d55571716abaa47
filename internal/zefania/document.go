// Package zefania assembles Bible content into Zefania XML documents and
// writes them out.
package zefania

import (
	"fmt"
	"strings"

	"github.com/openscripture/zefbible/internal/bible"
)

// Marshal renders a version and its fetched chapters as a Zefania XML
// document. Results must be in canonical order, one entry per chapter of
// the version; failed chapters render as empty CHAPTER elements. Output is
// deterministic for identical input.
func Marshal(version bible.Version, results []bible.ChapterResult) ([]byte, error) {
	if expected := version.TotalChapters(); len(results) != expected {
		return nil, fmt.Errorf("expected %d chapter results, got %d", expected, len(results))
	}

	var buf strings.Builder
	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	buf.WriteString(fmt.Sprintf(
		`<XMLBIBLE biblename="%s" revision="99" status="v" version="2.0.1.18" type="x-bible" p1:noNamespaceSchemaLocation="zef2005.xsd" xmlns:p1="http://www.w3.org/2001/XMLSchema-instance">`,
		escapeXML(version.Title),
	))
	buf.WriteString("\n")
	writeInformation(&buf, version)

	cursor := 0
	for _, book := range version.Books {
		buf.WriteString(fmt.Sprintf("  <BIBLEBOOK bnumber=\"%d\" bname=\"%s\" bsname=\"%s\">\n",
			book.Number, escapeXML(book.Name), escapeXML(book.Abbreviation)))

		for ch := 1; ch <= book.ChapterCount; ch++ {
			result := results[cursor]
			cursor++

			buf.WriteString(fmt.Sprintf("    <CHAPTER cnumber=\"%d\">\n", ch))
			if result.Status == bible.FetchStatusSuccess {
				for _, verse := range result.Chapter.Verses {
					buf.WriteString(fmt.Sprintf("      <VERS vnumber=\"%d\">%s</VERS>\n",
						verse.Number, escapeXML(verse.Text)))
				}
			}
			buf.WriteString("    </CHAPTER>\n")
		}

		buf.WriteString("  </BIBLEBOOK>\n")
	}

	buf.WriteString("</XMLBIBLE>\n")
	return []byte(buf.String()), nil
}

func writeInformation(buf *strings.Builder, version bible.Version) {
	buf.WriteString("<INFORMATION>\n")
	buf.WriteString(fmt.Sprintf("<title>%s</title>\n", escapeXML(version.Title)))
	buf.WriteString("<creator/>\n")
	buf.WriteString("<subject/>\n")
	buf.WriteString(fmt.Sprintf("<identifier>%s</identifier>\n", escapeXML(version.Abbreviation)))
	buf.WriteString(fmt.Sprintf("<description>%s</description>\n", escapeXML(version.Copyright)))
	buf.WriteString(fmt.Sprintf("<publisher>%s</publisher>\n", escapeXML(version.Publisher)))
	buf.WriteString("<date/>\n")
	buf.WriteString(fmt.Sprintf("<language>%s</language>\n", escapeXML(strings.ToUpper(version.Language))))
	buf.WriteString("<type>Bible</type>\n")
	buf.WriteString("</INFORMATION>\n")
}

func escapeXML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, `"`, "&quot;")
	return s
}
