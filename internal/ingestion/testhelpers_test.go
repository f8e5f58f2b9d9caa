package ingestion

import (
	"archive/zip"
	"bytes"
	"crypto/md5"
	"crypto/rc4"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// pdfOptions shapes the fixture written by buildPDFWith.
type pdfOptions struct {
	brokenPage int  // 1-based page whose content stream cannot be decoded
	encrypt    bool // RC4 128-bit, blank user password
	wrongUser  bool // encrypted, but the blank password does not open it
}

// buildPDF assembles a minimal uncompressed PDF. Each page string becomes
// one page; newlines in it start a new text row 14pt lower.
func buildPDF(pages ...string) []byte {
	return buildPDFWith(pdfOptions{}, pages...)
}

func buildPDFWith(opts pdfOptions, pages ...string) []byte {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")

	kids := make([]string, 0, len(pages))
	for i := range pages {
		kids = append(kids, fmt.Sprintf("%d 0 R", 4+2*i))
	}

	var enc *pdfEncryption
	if opts.encrypt || opts.wrongUser {
		enc = newPDFEncryption(opts.wrongUser)
	}

	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	}
	for i, text := range pages {
		var rows []string
		for j, row := range strings.Split(text, "\n") {
			if j > 0 {
				rows = append(rows, "0 -14 Td")
			}
			rows = append(rows, fmt.Sprintf("(%s) Tj", row))
		}
		stream := "BT /F1 12 Tf 72 720 Td " + strings.Join(rows, " ") + " ET"

		id := 5 + 2*i
		if enc != nil {
			stream = enc.encryptObject(id, stream)
		}
		filter := ""
		if opts.brokenPage == i+1 {
			filter = " /Filter /UnknownDecode"
		}
		objects = append(objects,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", id),
			fmt.Sprintf("<< /Length %d%s >>\nstream\n%s\nendstream", len(stream), filter, stream),
		)
	}

	offsets := make([]int, 0, len(objects))
	for i, obj := range objects {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}

	trailer := fmt.Sprintf("/Size %d /Root 1 0 R", len(objects)+1)
	if enc != nil {
		trailer += enc.trailer()
	}
	fmt.Fprintf(&buf, "trailer\n<< %s >>\nstartxref\n%d\n%%%%EOF\n", trailer, xref)

	return buf.Bytes()
}

// pdfPasswordPad is the padding string of the standard security handler.
var pdfPasswordPad = []byte{
	0x28, 0xbf, 0x4e, 0x5e, 0x4e, 0x75, 0x8a, 0x41, 0x64, 0x00, 0x4e, 0x56, 0xff, 0xfa, 0x01, 0x08,
	0x2e, 0x2e, 0x00, 0xb6, 0xd0, 0x68, 0x3e, 0x80, 0x2f, 0x0c, 0xa9, 0xfe, 0x64, 0x53, 0x69, 0x7a,
}

// pdfEncryption implements revision 3 of the standard security handler
// with an empty user password.
type pdfEncryption struct {
	key []byte
	o   []byte
	u   []byte
	id  []byte
	p   int32
}

func newPDFEncryption(wrongUser bool) *pdfEncryption {
	e := &pdfEncryption{
		o:  bytes.Repeat([]byte{0x4f}, 32),
		id: []byte("screener-fixture"),
		p:  -4,
	}

	h := md5.New()
	h.Write(pdfPasswordPad)
	h.Write(e.o)
	h.Write([]byte{byte(e.p), byte(e.p >> 8), byte(e.p >> 16), byte(e.p >> 24)})
	h.Write(e.id)
	key := h.Sum(nil)
	for i := 0; i < 50; i++ {
		sum := md5.Sum(key)
		key = sum[:]
	}
	e.key = key

	h.Reset()
	h.Write(pdfPasswordPad)
	h.Write(e.id)
	u := h.Sum(nil)
	for i := 0; i <= 19; i++ {
		k := make([]byte, len(key))
		for j := range key {
			k[j] = key[j] ^ byte(i)
		}
		c, _ := rc4.NewCipher(k)
		c.XORKeyStream(u, u)
	}
	e.u = append(u, make([]byte, 16)...)
	if wrongUser {
		e.u = make([]byte, 32)
	}
	return e
}

func (e *pdfEncryption) encryptObject(id int, plain string) string {
	sum := md5.Sum(append(append([]byte{}, e.key...), byte(id), byte(id>>8), byte(id>>16), 0, 0))
	c, _ := rc4.NewCipher(sum[:])
	out := []byte(plain)
	c.XORKeyStream(out, out)
	return string(out)
}

func (e *pdfEncryption) trailer() string {
	return fmt.Sprintf(" /ID [<%x> <%x>] /Encrypt << /Filter /Standard /V 2 /R 3 /Length 128 /P %d /O <%x> /U <%x> >>",
		e.id, e.id, e.p, e.o, e.u)
}

// buildDOCX assembles a minimal word document with one paragraph per entry.
func buildDOCX(t *testing.T, paragraphs ...string) []byte {
	t.Helper()

	var body strings.Builder
	for _, p := range paragraphs {
		fmt.Fprintf(&body, "<w:p><w:r><w:t>%s</w:t></w:r></w:p>", p)
	}
	document := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		body.String() + `</w:body></w:document>`
	rels := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range map[string]string{
		"word/document.xml":            document,
		"word/_rels/document.xml.rels": rels,
	} {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}
