// Package pdftest builds small, well-formed PDF documents for tests.
package pdftest

import (
	"bytes"
	"fmt"
	"strings"
)

// Build serializes objs as objects 1..n with a correct cross-reference
// table. Object 1 must be the catalog.
func Build(objs ...string) []byte {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.7\n")

	offsets := make([]int, len(objs))
	for i, obj := range objs {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objs)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, xref)
	return buf.Bytes()
}

// BlankPDF returns a document with the given number of US Letter pages and
// no form.
func BlankPDF(pages int) []byte {
	// 1 catalog, 2 pages, 3 font, 4 content, 5.. pages
	kids := make([]string, pages)
	objs := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"", // filled below
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>",
		"<< /Length 0 >>\nstream\n\nendstream",
	}
	for i := 0; i < pages; i++ {
		kids[i] = fmt.Sprintf("%d 0 R", 5+i)
		objs = append(objs, "<< /Type /Page /Parent 2 0 R /Resources << /Font << /F1 3 0 R >> >> /Contents 4 0 R >>")
	}
	objs[1] = fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d /MediaBox [0 0 612 792] >>",
		strings.Join(kids, " "), pages)
	return Build(objs...)
}

// FormPDF returns a one-page US Letter document with an AcroForm holding
// the text field "full_name", the checkbox "agree" and the text field
// "person.first" nested under a parent field.
func FormPDF() []byte {
	return Build(
		// 1 catalog
		"<< /Type /Catalog /Pages 2 0 R /AcroForm << /Fields [4 0 R 5 0 R 6 0 R] "+
			"/DA (/Helv 0 Tf 0 g) /DR << /Font << /Helv 8 0 R >> >> >> >>",
		// 2 page tree
		"<< /Type /Pages /Kids [3 0 R] /Count 1 /MediaBox [0 0 612 792] >>",
		// 3 page
		"<< /Type /Page /Parent 2 0 R /Resources << /Font << /Helv 8 0 R >> >> /Contents 9 0 R "+
			"/Annots [4 0 R 5 0 R 7 0 R] >>",
		// 4 text field with merged widget
		"<< /Type /Annot /Subtype /Widget /FT /Tx /T (full_name) /Rect [50 700 250 720] /P 3 0 R "+
			"/F 4 /DA (/Helv 12 Tf 0 g) >>",
		// 5 checkbox
		"<< /Type /Annot /Subtype /Widget /FT /Btn /T (agree) /Rect [50 650 70 670] /P 3 0 R /F 4 "+
			"/V /Off /AS /Off >>",
		// 6 parent field
		"<< /FT /Tx /T (person) /Kids [7 0 R] /DA (/Helv 12 Tf 0 g) >>",
		// 7 child field with merged widget
		"<< /Type /Annot /Subtype /Widget /T (first) /Parent 6 0 R /Rect [50 600 250 620] /P 3 0 R /F 4 >>",
		// 8 font
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>",
		// 9 empty content
		"<< /Length 0 >>\nstream\n\nendstream",
	)
}
