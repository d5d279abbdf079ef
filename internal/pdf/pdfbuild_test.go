package pdf

import (
	"fmt"
	"strings"
)

// buildTextPDF returns a minimal PDF with one page per entry. Each non-empty
// entry becomes a Helvetica text line; an empty entry yields a page with no text.
func buildTextPDF(pages ...string) []byte {
	return buildTextPDFWithCount(len(pages), pages...)
}

// buildTextPDFWithCount is buildTextPDF with an arbitrary /Count in the page tree root
func buildTextPDFWithCount(count int, pages ...string) []byte {
	// objects: 1 catalog, 2 pages, 3 font, then a page and a content stream per page
	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}

	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), count),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>",
	}
	for i, text := range pages {
		stream := "q Q"
		if text != "" {
			escaped := strings.ReplaceAll(text, `\`, `\\`)
			escaped = strings.ReplaceAll(escaped, "(", `\(`)
			escaped = strings.ReplaceAll(escaped, ")", `\)`)
			stream = "BT\n/F1 12 Tf\n72 720 Td\n(" + escaped + ") Tj\nET"
		}
		objects = append(objects,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents %d 0 R /Resources << /Font << /F1 3 0 R >> >> >>", 5+2*i),
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream),
		)
	}
	return writePDF(objects)
}

// buildNestedPagesPDF returns a PDF whose page tree is depth levels of
// /Pages nodes, each listing the next level twice, ending in a single page
// object. The file is tiny while the tree names 2^depth pages.
func buildNestedPagesPDF(depth int) []byte {
	objects := []string{"<< /Type /Catalog /Pages 2 0 R >>"}
	for level := 0; level < depth; level++ {
		next := 3 + level
		objects = append(objects, fmt.Sprintf("<< /Type /Pages /Kids [%d 0 R %d 0 R] /Count 1 >>", next, next))
	}
	objects = append(objects, "<< /Type /Page /MediaBox [0 0 612 792] >>")
	return writePDF(objects)
}

// buildCyclicTreePDF returns a PDF whose page tree lists itself as a kid
func buildCyclicTreePDF() []byte {
	return writePDF([]string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R 2 0 R] /Count 2 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] >>",
	})
}

// buildParentLoopPDF returns a single page PDF whose page is its own /Parent
// and names no /Resources anywhere.
func buildParentLoopPDF() []byte {
	return writePDF([]string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 3 0 R /MediaBox [0 0 612 792] >>",
	})
}

// writePDF serializes objects numbered from 1 with a valid xref table
func writePDF(objects []string) []byte {
	offsets := make([]int, len(objects)+1)

	var b strings.Builder
	b.WriteString("%PDF-1.4\n")
	for i, body := range objects {
		offsets[i+1] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", i+1, body)
	}

	xrefOffset := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n", len(objects)+1)
	b.WriteString("0000000000 65535 f \n")
	for i := 1; i <= len(objects); i++ {
		fmt.Fprintf(&b, "%010d 00000 n \n", offsets[i])
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xrefOffset)

	return []byte(b.String())
}
