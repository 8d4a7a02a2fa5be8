package sheetimport

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// CSVParser reads a delimited export with the same row contract as a workbook
type CSVParser struct {
	delimiter   rune
	sniff       bool
	lazyQuotes  bool
	headers     []string
	currentLine int
	position    int
	reader      *csv.Reader
	bufReader   *bufio.Reader
}

// ParserOption is a functional option for CSVParser configuration
type ParserOption func(*CSVParser)

// WithDelimiter fixes the field delimiter and disables sniffing
func WithDelimiter(d rune) ParserOption {
	return func(p *CSVParser) {
		p.delimiter = d
		p.sniff = false
	}
}

// WithLazyQuotes enables lazy quote handling
func WithLazyQuotes(lazy bool) ParserOption {
	return func(p *CSVParser) {
		p.lazyQuotes = lazy
	}
}

// NewCSVParser creates a new CSV parser from a reader. Without WithDelimiter
// the header line decides between ',' and ';' (spreadsheet exports in the
// Turkish locale use ';').
func NewCSVParser(r io.Reader, opts ...ParserOption) (*CSVParser, error) {
	parser := &CSVParser{
		delimiter:  ',',
		sniff:      true,
		lazyQuotes: true,
	}

	for _, opt := range opts {
		opt(parser)
	}

	parser.bufReader = bufio.NewReader(r)

	// UTF-8 BOM: 0xEF, 0xBB, 0xBF
	content, err := parser.bufReader.Peek(3)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if len(content) >= 3 && content[0] == 0xEF && content[1] == 0xBB && content[2] == 0xBF {
		_, _ = parser.bufReader.Discard(3)
	}

	sample, err := peekSample(parser.bufReader)
	if err != nil {
		return nil, err
	}
	if parser.sniff {
		parser.delimiter = sniffDelimiter(sample)
	}

	parser.reader = csv.NewReader(parser.bufReader)
	parser.reader.Comma = parser.delimiter
	parser.reader.LazyQuotes = parser.lazyQuotes
	parser.reader.TrimLeadingSpace = true
	parser.reader.FieldsPerRecord = -1

	return parser, nil
}

// peekSample returns the buffered head of the input after checking it is UTF-8
func peekSample(r *bufio.Reader) ([]byte, error) {
	const checkSize = 4096
	content, err := r.Peek(checkSize)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, fmt.Errorf("failed to read file for encoding validation: %w", err)
	}

	if len(bytes.TrimSpace(content)) == 0 {
		return nil, ErrEmptyFile
	}

	// A multi-byte rune may straddle the peek boundary.
	if len(content) == checkSize {
		for i := 0; i < utf8.UTFMax && !utf8.Valid(content); i++ {
			content = content[:len(content)-1]
		}
	}
	if !utf8.Valid(content) {
		return nil, ErrInvalidEncoding
	}

	return content, nil
}

func sniffDelimiter(sample []byte) rune {
	line := sample
	if i := bytes.IndexByte(sample, '\n'); i >= 0 {
		line = sample[:i]
	}
	if bytes.Count(line, []byte{';'}) > bytes.Count(line, []byte{','}) {
		return ';'
	}
	return ','
}

// Delimiter returns the delimiter in use
func (p *CSVParser) Delimiter() rune {
	return p.delimiter
}

// ParseHeader reads the header row, skipping leading blank lines
func (p *CSVParser) ParseHeader() error {
	for {
		record, err := p.reader.Read()
		if err == io.EOF {
			return ErrMissingHeader
		}
		if err != nil {
			return fmt.Errorf("failed to read header: %w", err)
		}
		p.currentLine, _ = p.reader.FieldPos(0)

		if isBlankRecord(record) {
			continue
		}

		p.headers = make([]string, len(record))
		for i, h := range record {
			p.headers[i] = strings.TrimSpace(h)
		}
		return nil
	}
}

// Headers returns the parsed header names
func (p *CSVParser) Headers() []string {
	return p.headers
}

// ReadRow reads the next line. Blank lines are returned with IsEmpty true
// and do not consume a position.
func (p *CSVParser) ReadRow() (*Row, error) {
	record, err := p.reader.Read()
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, fmt.Errorf("error reading after line %d: %w", p.currentLine, err)
	}
	p.currentLine, _ = p.reader.FieldPos(0)

	values := make([]any, len(record))
	for i, v := range record {
		values[i] = strings.TrimSpace(v)
	}

	if isBlankRecord(record) {
		return NewRow(0, p.currentLine, p.headers, values), nil
	}

	p.position++
	return NewRow(p.position, p.currentLine, p.headers, values), nil
}

// ReadAllRows reads all remaining non-blank rows
func (p *CSVParser) ReadAllRows() ([]*Row, error) {
	var rows []*Row

	for {
		row, err := p.ReadRow()
		if err == io.EOF {
			break
		}
		if err != nil {
			return rows, err
		}
		if row.Position == 0 {
			continue
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// TotalRows returns the number of non-blank data rows read so far
func (p *CSVParser) TotalRows() int {
	return p.position
}

// ParseFromBytes creates a parser from a byte slice
func ParseFromBytes(data []byte, opts ...ParserOption) (*CSVParser, error) {
	return NewCSVParser(bytes.NewReader(data), opts...)
}

func isBlankRecord(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
