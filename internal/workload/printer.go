package workload

import (
	"bufio"
	"io"
	"strconv"

	"redis-check/internal/store"
)

// printer はコマンド結果を [1, 2]、['a', None]、True の表記で書き出す
// 複数回のコマンドは "[r1, r2, ...]" の1行、単発のコマンドは結果そのものの1行
type printer struct {
	w       *bufio.Writer
	enabled bool
	items   int
}

func newPrinter(w io.Writer, enabled bool) *printer {
	return &printer{
		w:       bufio.NewWriterSize(w, 64*1024),
		enabled: enabled && w != nil,
	}
}

func (p *printer) begin() {
	if !p.enabled {
		return
	}
	p.items = 0
	_ = p.w.WriteByte('[')
}

func (p *printer) sep() {
	if p.items > 0 {
		_, _ = p.w.WriteString(", ")
	}
	p.items++
}

func (p *printer) count(n int64) {
	if !p.enabled {
		return
	}
	p.sep()
	_, _ = p.w.WriteString(strconv.FormatInt(n, 10))
}

func (p *printer) ack() {
	if !p.enabled {
		return
	}
	p.sep()
	_, _ = p.w.WriteString("True")
}

func (p *printer) list(values []string) {
	if !p.enabled {
		return
	}
	p.sep()
	writeStrings(p.w, values)
}

func (p *printer) mget(values []store.Value) {
	if !p.enabled {
		return
	}
	p.sep()
	writeValues(p.w, values)
}

func (p *printer) end() error {
	if !p.enabled {
		return nil
	}
	_, _ = p.w.WriteString("]\n")
	return p.w.Flush()
}

// single は単発コマンドの結果を1行で書く
func (p *printer) single(values []string) error {
	if !p.enabled {
		return nil
	}
	writeStrings(p.w, values)
	_ = p.w.WriteByte('\n')
	return p.w.Flush()
}

func writeStrings(w *bufio.Writer, values []string) {
	_ = w.WriteByte('[')
	for i, v := range values {
		if i > 0 {
			_, _ = w.WriteString(", ")
		}
		writeRepr(w, v)
	}
	_ = w.WriteByte(']')
}

func writeValues(w *bufio.Writer, values []store.Value) {
	_ = w.WriteByte('[')
	for i, v := range values {
		if i > 0 {
			_, _ = w.WriteString(", ")
		}
		if !v.OK {
			_, _ = w.WriteString("None")
			continue
		}
		writeRepr(w, v.Data)
	}
	_ = w.WriteByte(']')
}

// writeRepr は文字列を単一引用符で囲んで書く
func writeRepr(w *bufio.Writer, s string) {
	const hex = "0123456789abcdef"

	_ = w.WriteByte('\'')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\'' || c == '\\':
			_ = w.WriteByte('\\')
			_ = w.WriteByte(c)
		case c == '\n':
			_, _ = w.WriteString(`\n`)
		case c == '\r':
			_, _ = w.WriteString(`\r`)
		case c == '\t':
			_, _ = w.WriteString(`\t`)
		case c < 0x20 || c >= 0x7f:
			_, _ = w.WriteString(`\x`)
			_ = w.WriteByte(hex[c>>4])
			_ = w.WriteByte(hex[c&0xf])
		default:
			_ = w.WriteByte(c)
		}
	}
	_ = w.WriteByte('\'')
}
