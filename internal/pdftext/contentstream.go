package pdftext

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf16"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/joseph-ayodele/payslip-tracker/constants"
	"github.com/joseph-ayodele/payslip-tracker/internal/extract"
)

var _ extract.TextExtractor = (*ContentStream)(nil)

var disableConfigDir sync.Once

// ContentStream decodes text-showing operators (Tj, TJ, ', ") from each page's
// content stream using pdfcpu.
type ContentStream struct {
	maxPages int
	logger   *slog.Logger
}

func NewContentStream(maxPages int, logger *slog.Logger) *ContentStream {
	if logger == nil {
		logger = slog.Default()
	}
	// pdfcpu otherwise writes a config dir under the user's home on first use.
	disableConfigDir.Do(api.DisableConfigDir)
	return &ContentStream{maxPages: maxPages, logger: logger}
}

func (b *ContentStream) Name() string { return constants.BackendContentStream }

func (b *ContentStream) Extract(ctx context.Context, data []byte) (res extract.TextExtractionResult, err error) {
	defer recoverPanic(b.Name(), &err)
	start := time.Now()
	res.Method = b.Name()

	pctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), model.NewDefaultConfiguration())
	if err != nil {
		return res, fmt.Errorf("pdfcpu read: %w", err)
	}

	n := pctx.PageCount
	if b.maxPages > 0 && n > b.maxPages {
		n = b.maxPages
	}
	var sb strings.Builder
	for pageNr := 1; pageNr <= n; pageNr++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		r, perr := pdfcpu.ExtractPageContent(pctx, pageNr)
		if perr != nil || r == nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("page %d: no content stream", pageNr))
			continue
		}
		content, perr := io.ReadAll(r)
		if perr != nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("page %d: %v", pageNr, perr))
			continue
		}
		txt := textFromContentStream(content)
		if txt == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(txt)
		res.Pages++
	}

	res.Text = Normalize(sb.String())
	res.Duration = time.Since(start)
	b.logger.Debug("pdftext.contentstream.done", "pages", res.Pages, "chars", len(res.Text), "duration_ms", res.Duration.Milliseconds())
	if res.Text == "" {
		return res, ErrNoText
	}
	return res, nil
}

// textFromContentStream walks content-stream tokens, collecting string
// operands and emitting them when a text-showing operator follows.
// Positioning operators start a new line.
func textFromContentStream(data []byte) string {
	var out strings.Builder
	var pending []string

	newline := func() {
		if out.Len() > 0 && !strings.HasSuffix(out.String(), "\n") {
			out.WriteByte('\n')
		}
	}
	flush := func() {
		for _, s := range pending {
			out.WriteString(s)
		}
		pending = pending[:0]
	}

	for i := 0; i < len(data); {
		c := data[i]
		switch {
		case c == '%':
			for i < len(data) && data[i] != '\n' && data[i] != '\r' {
				i++
			}
		case c == '(':
			s, n := readLiteralString(data[i:])
			pending = append(pending, s)
			i += n
		case c == '<' && i+1 < len(data) && data[i+1] == '<':
			i += 2
		case c == '<':
			s, n := readHexString(data[i:])
			pending = append(pending, s)
			i += n
		case c == '\'' || c == '"':
			newline()
			flush()
			i++
		case isDelimiter(c) || isWhite(c):
			i++
		default:
			j := i + 1
			for j < len(data) && !isDelimiter(data[j]) && !isWhite(data[j]) {
				j++
			}
			tok := string(data[i:j])
			i = j
			switch {
			case c == '/' || isNumberStart(c):
				// operand
			case tok == "Tj" || tok == "TJ":
				flush()
			case tok == "Td" || tok == "TD" || tok == "T*" || tok == "Tm" || tok == "ET":
				pending = pending[:0]
				newline()
			default:
				pending = pending[:0]
			}
		}
	}
	return out.String()
}

func readLiteralString(data []byte) (string, int) {
	var buf []byte
	depth := 0
	i := 0
	for ; i < len(data); i++ {
		c := data[i]
		switch {
		case c == '\\' && i+1 < len(data):
			i++
			switch e := data[i]; e {
			case 'n':
				buf = append(buf, '\n')
			case 'r':
				buf = append(buf, '\r')
			case 't':
				buf = append(buf, '\t')
			case 'b':
				buf = append(buf, '\b')
			case 'f':
				buf = append(buf, '\f')
			case '\r', '\n':
				// line continuation
			default:
				if e >= '0' && e <= '7' {
					v := 0
					k := 0
					for ; k < 3 && i+k < len(data) && data[i+k] >= '0' && data[i+k] <= '7'; k++ {
						v = v*8 + int(data[i+k]-'0')
					}
					buf = append(buf, byte(v))
					i += k - 1
				} else {
					buf = append(buf, e)
				}
			}
		case c == '(':
			if depth > 0 {
				buf = append(buf, c)
			}
			depth++
		case c == ')':
			depth--
			if depth == 0 {
				return decodePDFBytes(buf), i + 1
			}
			buf = append(buf, c)
		default:
			buf = append(buf, c)
		}
	}
	return decodePDFBytes(buf), i
}

func readHexString(data []byte) (string, int) {
	var digits []byte
	i := 1
	for ; i < len(data) && data[i] != '>'; i++ {
		if isHex(data[i]) {
			digits = append(digits, data[i])
		}
	}
	if len(digits)%2 == 1 {
		digits = append(digits, '0')
	}
	buf := make([]byte, len(digits)/2)
	for k := range buf {
		buf[k] = unhex(digits[2*k])<<4 | unhex(digits[2*k+1])
	}
	return decodePDFBytes(buf), i + 1
}

// decodePDFBytes handles UTF-16BE strings (with BOM) and otherwise keeps
// printable single-byte characters. Glyph-id encodings come out empty.
func decodePDFBytes(b []byte) string {
	if len(b) >= 2 && b[0] == 0xFE && b[1] == 0xFF {
		u := make([]uint16, 0, (len(b)-2)/2)
		for k := 2; k+1 < len(b); k += 2 {
			u = append(u, uint16(b[k])<<8|uint16(b[k+1]))
		}
		return string(utf16.Decode(u))
	}
	var sb strings.Builder
	for _, c := range b {
		if c == '\n' || c == '\t' || (c >= 0x20 && c < 0x7F) || c >= 0xA0 {
			sb.WriteRune(rune(c))
		}
	}
	return sb.String()
}

func isWhite(c byte) bool {
	return c == ' ' || c == '\n' || c == '\r' || c == '\t' || c == '\f' || c == 0
}

func isDelimiter(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '%':
		return true
	}
	return false
}

func isNumberStart(c byte) bool {
	return (c >= '0' && c <= '9') || c == '-' || c == '+' || c == '.'
}

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func unhex(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	default:
		return c - 'A' + 10
	}
}
