package parser

import (
	"encoding/csv"
	"fmt"
	"io"

	"golang.org/x/net/html/atom"
)

// CSVParser handles CSV files. The first row becomes the table header.
type CSVParser struct{}

func (p *CSVParser) Parse(r io.Reader, filename string) (*Document, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	title := baseTitle(filename)
	root, body := skeleton(title)
	body.AppendChild(headingElement(1, title))

	if len(records) == 0 {
		return &Document{Title: title, Root: root}, nil
	}

	headRow := element(atom.Tr)
	for _, h := range records[0] {
		headRow.AppendChild(element(atom.Th, textNode(h)))
	}
	tbody := element(atom.Tbody)
	for _, rec := range records[1:] {
		tr := element(atom.Tr)
		for _, cell := range rec {
			tr.AppendChild(element(atom.Td, textNode(cell)))
		}
		tbody.AppendChild(tr)
	}
	body.AppendChild(element(atom.Table, element(atom.Thead, headRow), tbody))

	return &Document{Title: title, Root: root}, nil
}
