package dataset

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
)

// readXLSX extracts the rows of one worksheet as text records. If sheetName is
// empty the 1-based sheetIndex selects the sheet (default 1).
func readXLSX(data []byte, sheetName string, sheetIndex int) ([][]string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w: %w", ErrInvalidInput, err)
	}
	sheets := parseWorkbook(zipEntry(zr, "xl/workbook.xml"))
	rels := parseRelationships(zipEntry(zr, "xl/_rels/workbook.xml.rels"))
	shared := parseSharedStrings(zipEntry(zr, "xl/sharedStrings.xml"))

	target, err := resolveSheet(sheets, rels, sheetName, sheetIndex)
	if err != nil {
		return nil, err
	}
	body := zipEntry(zr, target)
	if body == nil {
		return nil, Invalid("xlsx", "worksheet %s missing", target)
	}
	rr := &sheetRows{dec: xml.NewDecoder(bytes.NewReader(body)), shared: shared}
	var records [][]string
	for {
		row, ok := rr.next()
		if !ok {
			break
		}
		records = append(records, row)
	}
	return records, nil
}

// workbookSheet is one <sheet> entry, kept in workbook (tab) order.
type workbookSheet struct {
	Name string
	RID  string
}

func resolveSheet(sheets []workbookSheet, rels map[string]string, name string, index int) (string, error) {
	if name != "" {
		for _, s := range sheets {
			if strings.EqualFold(s.Name, name) {
				if rel, ok := rels[s.RID]; ok {
					return normalizeRelPath(rel), nil
				}
			}
		}
		names := make([]string, len(sheets))
		for i, s := range sheets {
			names[i] = s.Name
		}
		return "", Invalid("xlsx", "sheet %q not found (available: %s)", name, strings.Join(names, ", "))
	}
	if index <= 0 {
		index = 1
	}
	// sheetId survives deletes and reorders, so the index is a tab position.
	if len(sheets) > 0 {
		if index > len(sheets) {
			return "", Invalid("xlsx", "sheet index %d out of range (workbook has %d sheets)", index, len(sheets))
		}
		if rel, ok := rels[sheets[index-1].RID]; ok {
			return normalizeRelPath(rel), nil
		}
	}
	return fmt.Sprintf("xl/worksheets/sheet%d.xml", index), nil
}

func parseWorkbook(data []byte) []workbookSheet {
	var out []workbookSheet
	forEachStart(data, func(se xml.StartElement) {
		if se.Name.Local != "sheet" {
			return
		}
		var s workbookSheet
		for _, a := range se.Attr {
			switch a.Name.Local {
			case "name":
				s.Name = a.Value
			case "id":
				s.RID = a.Value
			}
		}
		out = append(out, s)
	})
	return out
}

func parseRelationships(data []byte) map[string]string {
	out := map[string]string{}
	forEachStart(data, func(se xml.StartElement) {
		if se.Name.Local != "Relationship" {
			return
		}
		var id, target string
		for _, a := range se.Attr {
			switch a.Name.Local {
			case "Id":
				id = a.Value
			case "Target":
				target = a.Value
			}
		}
		if id != "" && target != "" {
			out[id] = target
		}
	})
	return out
}

func forEachStart(data []byte, fn func(xml.StartElement)) {
	if len(data) == 0 {
		return
	}
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err != nil {
			return
		}
		if se, ok := tok.(xml.StartElement); ok {
			fn(se)
		}
	}
}

func parseSharedStrings(data []byte) []string {
	if len(data) == 0 {
		return nil
	}
	dec := xml.NewDecoder(bytes.NewReader(data))
	var out []string
	var buf strings.Builder
	inText := false
	for {
		tok, err := dec.Token()
		if err != nil {
			return out
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "si":
				buf.Reset()
			case "t":
				inText = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "si":
				out = append(out, buf.String())
			}
		case xml.CharData:
			if inText {
				buf.Write(t)
			}
		}
	}
}

func zipEntry(zr *zip.Reader, name string) []byte {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil
		}
		defer rc.Close()
		b, err := io.ReadAll(rc)
		if err != nil && !errors.Is(err, io.EOF) {
			return nil
		}
		return b
	}
	return nil
}

type sheetRows struct {
	dec    *xml.Decoder
	shared []string
}

// next returns the following <row> with cells placed by their A1 reference.
func (r *sheetRows) next() ([]string, bool) {
	var row []string
	inRow := false
	for {
		tok, err := r.dec.Token()
		if err != nil {
			return nil, false
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "row" {
				inRow = true
				row = nil
				continue
			}
			if !inRow || t.Name.Local != "c" {
				continue
			}
			var ref, typ string
			for _, a := range t.Attr {
				switch a.Name.Local {
				case "r":
					ref = a.Value
				case "t":
					typ = a.Value
				}
			}
			col := colIndexFromRef(ref)
			if col < 0 {
				col = len(row)
			}
			for len(row) <= col {
				row = append(row, "")
			}
			row[col] = r.cellValue(typ)
		case xml.EndElement:
			if t.Name.Local == "row" {
				return row, true
			}
		}
	}
}

func (r *sheetRows) cellValue(typ string) string {
	var val string
	for {
		tok, err := r.dec.Token()
		if err != nil {
			return val
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "v" || t.Name.Local == "t" {
				val = r.text(t.Name.Local)
			}
		case xml.EndElement:
			if t.Name.Local != "c" {
				continue
			}
			if typ == "s" {
				idx := atoiPrefix(val)
				if idx >= 0 && idx < len(r.shared) {
					return r.shared[idx]
				}
				return ""
			}
			return val
		}
	}
}

func (r *sheetRows) text(elem string) string {
	var sb strings.Builder
	for {
		tok, err := r.dec.Token()
		if err != nil {
			return sb.String()
		}
		switch t := tok.(type) {
		case xml.EndElement:
			if t.Name.Local == elem {
				return sb.String()
			}
		case xml.CharData:
			sb.Write(t)
		}
	}
}

// colIndexFromRef maps "C12" to 2. It returns -1 when ref has no letters.
func colIndexFromRef(ref string) int {
	idx := 0
	n := 0
	for _, c := range strings.ToUpper(ref) {
		if c < 'A' || c > 'Z' {
			break
		}
		idx = idx*26 + int(c-'A'+1)
		n++
	}
	if n == 0 {
		return -1
	}
	return idx - 1
}

func atoiPrefix(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			break
		}
		n = n*10 + int(c-'0')
	}
	return n
}

// normalizeRelPath converts relationship targets ("/xl/worksheets/sheet1.xml",
// "worksheets/sheet1.xml") to ZIP entry names.
func normalizeRelPath(rel string) string {
	rel = strings.TrimPrefix(rel, "/")
	if strings.HasPrefix(rel, "xl/") {
		return rel
	}
	return path.Join("xl", rel)
}
