package pdf

import (
	"context"
	"os"

	lpdf "github.com/ledongthuc/pdf"
	"github.com/rotisserie/eris"

	"github.com/docextract/text-extraction-service/internal/models"
)

// maxPageTreeDepth bounds /Kids nesting while collecting pages
const maxPageTreeDepth = 32

// Opener opens a PDF file and exposes its pages
type Opener interface {
	Open(path string) (Document, error)
}

// Document is an opened PDF
type Document interface {
	NumPages() int
	// Page returns the page at the zero-based index
	Page(index int) Page
	Close() error
}

// Page exposes the text layer of a page and a way to render it
type Page interface {
	Text() (string, error)
	Rasterize(ctx context.Context) ([]byte, error)
}

// TextLayerOpener reads text layers with ledongthuc/pdf and renders pages
// with the given rasterizer.
type TextLayerOpener struct {
	rasterizer Rasterizer
	maxPages   int
}

// NewTextLayerOpener creates an opener whose pages rasterize through r.
// Documents with more than maxPages leaf pages are refused; 0 uses models.DefaultMaxPages.
func NewTextLayerOpener(r Rasterizer, maxPages int) *TextLayerOpener {
	if maxPages <= 0 {
		maxPages = models.DefaultMaxPages
	}
	return &TextLayerOpener{rasterizer: r, maxPages: maxPages}
}

// Open parses the PDF at path and collects its leaf pages. Corrupt, encrypted
// or oversized files fail with PDFOpenFailure.
func (o *TextLayerOpener) Open(path string) (doc Document, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, models.NewError(models.KindPDFOpenFailure, err, "open pdf")
	}
	defer func() {
		if err != nil {
			f.Close()
		}
	}()
	defer func() {
		if r := recover(); r != nil {
			doc = nil
			err = models.NewError(models.KindPDFOpenFailure, eris.Errorf("%v", r), "parse pdf")
		}
	}()

	info, err := f.Stat()
	if err != nil {
		return nil, models.NewError(models.KindPDFOpenFailure, err, "stat pdf")
	}
	reader, err := lpdf.NewReader(f, info.Size())
	if err != nil {
		return nil, models.NewError(models.KindPDFOpenFailure, err, "parse pdf")
	}

	pages, err := collectPages(reader.Trailer().Key("Root").Key("Pages"), o.maxPages)
	if err != nil {
		return nil, models.NewError(models.KindPDFOpenFailure, err, "read page tree")
	}
	return &textLayerDocument{
		file:       f,
		pages:      pages,
		path:       path,
		rasterizer: o.rasterizer,
	}, nil
}

// collectPages walks the page tree and returns its leaf page dictionaries in
// document order. /Count is ignored: only pages that exist are returned.
func collectPages(root lpdf.Value, limit int) ([]lpdf.Value, error) {
	var (
		leaves []lpdf.Value
		// shared subtrees may be referenced many times, bound the whole walk
		budget = 4*limit + maxPageTreeDepth
	)

	var walk func(node lpdf.Value, depth int) error
	walk = func(node lpdf.Value, depth int) error {
		if depth > maxPageTreeDepth {
			return eris.Errorf("page tree deeper than %d levels", maxPageTreeDepth)
		}
		if budget--; budget < 0 {
			return eris.New("page tree too large")
		}
		if node.Kind() != lpdf.Dict {
			return nil
		}

		kids := node.Key("Kids")
		if kids.Kind() == lpdf.Array {
			for i := 0; i < kids.Len(); i++ {
				if err := walk(kids.Index(i), depth+1); err != nil {
					return err
				}
			}
			return nil
		}
		if node.Key("Type").Name() == "Pages" {
			return nil
		}

		if len(leaves) == limit {
			return eris.Errorf("pdf has more than %d pages", limit)
		}
		leaves = append(leaves, node)
		return nil
	}

	if err := walk(root, 0); err != nil {
		return nil, err
	}
	return leaves, nil
}

type textLayerDocument struct {
	file       *os.File
	pages      []lpdf.Value
	path       string
	rasterizer Rasterizer
}

func (d *textLayerDocument) NumPages() int {
	return len(d.pages)
}

func (d *textLayerDocument) Page(index int) Page {
	return &textLayerPage{doc: d, index: index}
}

func (d *textLayerDocument) Close() error {
	return d.file.Close()
}

type textLayerPage struct {
	doc   *textLayerDocument
	index int
}

// Text returns the embedded text of the page
func (p *textLayerPage) Text() (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = eris.Errorf("read page %d: %v", p.index, r)
		}
	}()

	page := lpdf.Page{V: p.doc.pages[p.index]}
	// font resource names are page scoped
	fontDict := inheritedResources(page.V).Key("Font")
	fonts := make(map[string]*lpdf.Font)
	for _, name := range fontDict.Keys() {
		fonts[name] = &lpdf.Font{V: fontDict.Key(name)}
	}
	return page.GetPlainText(fonts)
}

// inheritedResources finds the nearest /Resources up the /Parent chain,
// giving up after maxPageTreeDepth hops so that cyclic parents terminate.
func inheritedResources(v lpdf.Value) lpdf.Value {
	for i := 0; i <= maxPageTreeDepth && !v.IsNull(); i++ {
		if res := v.Key("Resources"); !res.IsNull() {
			return res
		}
		v = v.Key("Parent")
	}
	return lpdf.Value{}
}

func (p *textLayerPage) Rasterize(ctx context.Context) ([]byte, error) {
	return p.doc.rasterizer.Rasterize(ctx, p.doc.path, p.index)
}
