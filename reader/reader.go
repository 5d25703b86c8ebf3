package reader

import (
	"fmt"
	"io"
	"math"
	"os"
	"regexp"
	"strconv"

	"github.com/figharvest/figharvest/contentstream"
	"github.com/figharvest/figharvest/core"
	"github.com/figharvest/figharvest/graphicsstate"
	"github.com/figharvest/figharvest/model"
	"github.com/figharvest/figharvest/pages"
	"github.com/figharvest/figharvest/text"
)

// headerWindow is how far into the file the %PDF- marker is searched for
const headerWindow = 1024

var headerPattern = regexp.MustCompile(`%PDF-(\d+)\.(\d+)`)

// PDFVersion is a major.minor PDF version
type PDFVersion struct {
	Major int
	Minor int
}

// String returns the version as "major.minor"
func (v PDFVersion) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// parseVersion reads a "1.7" style version
func parseVersion(s string) (PDFVersion, bool) {
	m := headerPattern.FindStringSubmatch("%PDF-" + s)
	if m == nil {
		return PDFVersion{}, false
	}
	major, _ := strconv.Atoi(m[1])
	minor, _ := strconv.Atoi(m[2])
	return PDFVersion{Major: major, Minor: minor}, true
}

// less reports whether v is an older version than o
func (v PDFVersion) less(o PDFVersion) bool {
	return v.Major < o.Major || (v.Major == o.Major && v.Minor < o.Minor)
}

// Reader gives random access to the objects and pages of a PDF file.
// Objects are cached once loaded. A Reader is not safe for concurrent use.
type Reader struct {
	file        *os.File
	xrefTable   *core.XRefTable
	trailer     core.Dict
	version     PDFVersion
	objCache    map[int]core.Object
	objStmCache map[int]*core.ObjectStream
	loading     map[int]bool
	catalog     *pages.Catalog
	pageTree    *pages.PageTree
}

var _ pages.ObjectResolver = (*Reader)(nil)

// NewReader reads the header and cross-reference data of file
func NewReader(file *os.File) (*Reader, error) {
	r := &Reader{
		file:        file,
		objCache:    make(map[int]core.Object),
		objStmCache: make(map[int]*core.ObjectStream),
		loading:     make(map[int]bool),
	}

	version, err := r.parseHeader()
	if err != nil {
		return nil, fmt.Errorf("failed to parse header: %w", err)
	}
	r.version = version

	table, err := r.loadXRef()
	if err != nil {
		return nil, fmt.Errorf("failed to load xref: %w", err)
	}
	r.xrefTable = table
	r.trailer = table.Trailer
	return r, nil
}

// Open opens a PDF file
func Open(filename string) (*Reader, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	r, err := NewReader(file)
	if err != nil {
		file.Close()
		return nil, err
	}
	return r, nil
}

// Close closes the underlying file
func (r *Reader) Close() error {
	if r.file == nil {
		return nil
	}
	return r.file.Close()
}

// parseHeader finds the %PDF-x.y marker, tolerating junk before it
func (r *Reader) parseHeader() (PDFVersion, error) {
	buf := make([]byte, headerWindow)
	n, err := r.file.ReadAt(buf, 0)
	if err != nil && err != io.EOF {
		return PDFVersion{}, fmt.Errorf("failed to read header: %w", err)
	}
	m := headerPattern.FindSubmatch(buf[:n])
	if m == nil {
		return PDFVersion{}, fmt.Errorf("no %%PDF- header in the first %d bytes", headerWindow)
	}
	major, _ := strconv.Atoi(string(m[1]))
	minor, _ := strconv.Atoi(string(m[2]))
	return PDFVersion{Major: major, Minor: minor}, nil
}

// loadXRef merges every cross-reference section of the file, so objects
// replaced by incremental updates resolve to their newest definition.
func (r *Reader) loadXRef() (*core.XRefTable, error) {
	tables, err := core.NewXRefParser(r.file).ParseAllXRefs()
	if err != nil {
		return nil, fmt.Errorf("failed to parse xref: %w", err)
	}
	return core.MergeXRefTables(tables...), nil
}

// Version returns the document version: the header version, raised by the
// catalog's /Version entry when that is newer.
func (r *Reader) Version() PDFVersion {
	v := r.version
	if cat, err := r.Catalog(); err == nil {
		if cv, ok := parseVersion(cat.Version()); ok && v.less(cv) {
			v = cv
		}
	}
	return v
}

// GetObject loads object objNum, from the cache when possible
func (r *Reader) GetObject(objNum int) (core.Object, error) {
	if obj, ok := r.objCache[objNum]; ok {
		return obj, nil
	}

	entry, ok := r.xrefTable.Get(objNum)
	if !ok {
		return nil, fmt.Errorf("object %d not found in xref table", objNum)
	}
	if !entry.InUse {
		return nil, fmt.Errorf("object %d is not in use", objNum)
	}

	var obj core.Object
	if entry.Type == core.XRefEntryCompressed {
		var err error
		if obj, err = r.getCompressedObject(objNum, int(entry.Offset)); err != nil {
			return nil, err
		}
	} else {
		if r.loading[objNum] {
			return nil, fmt.Errorf("object %d refers to itself while loading", objNum)
		}
		r.loading[objNum] = true
		defer delete(r.loading, objNum)

		// a section reader keeps the parser's position independent of the
		// loads an indirect stream /Length triggers
		parser := core.NewParser(io.NewSectionReader(r.file, entry.Offset, math.MaxInt64-entry.Offset))
		parser.SetReferenceResolver(r)
		ind, err := parser.ParseIndirectObject()
		if err != nil {
			return nil, fmt.Errorf("failed to parse object %d: %w", objNum, err)
		}
		if ind.Ref.Number != objNum {
			return nil, fmt.Errorf("object number mismatch: expected %d, got %d", objNum, ind.Ref.Number)
		}
		obj = ind.Object
	}

	r.objCache[objNum] = obj
	return obj, nil
}

// getCompressedObject loads an object stored inside an object stream
func (r *Reader) getCompressedObject(objNum, streamNum int) (core.Object, error) {
	objStm, ok := r.objStmCache[streamNum]
	if !ok {
		streamObj, err := r.GetObject(streamNum)
		if err != nil {
			return nil, fmt.Errorf("failed to load object stream %d: %w", streamNum, err)
		}
		stream, isStream := streamObj.(*core.Stream)
		if !isStream {
			return nil, fmt.Errorf("object stream %d is %T, not a stream", streamNum, streamObj)
		}
		if objStm, err = core.NewObjectStream(stream); err != nil {
			return nil, fmt.Errorf("failed to open object stream %d: %w", streamNum, err)
		}
		r.objStmCache[streamNum] = objStm
	}

	obj, _, err := objStm.GetObjectByNumber(objNum)
	if err != nil {
		return nil, fmt.Errorf("object %d in stream %d: %w", objNum, streamNum, err)
	}
	return obj, nil
}

// ResolveReference loads the object ref points to
func (r *Reader) ResolveReference(ref core.IndirectRef) (core.Object, error) {
	return r.GetObject(ref.Number)
}

// Resolve returns obj, or the object it points to when it is a reference
func (r *Reader) Resolve(obj core.Object) (core.Object, error) {
	if ref, ok := obj.(core.IndirectRef); ok {
		return r.ResolveReference(ref)
	}
	return obj, nil
}

// trailerDict resolves a dictionary entry of the trailer. It returns nil
// without error when the entry is absent.
func (r *Reader) trailerDict(key string) (core.Dict, error) {
	obj := r.trailer.Get(key)
	if obj == nil {
		return nil, nil
	}
	resolved, err := r.Resolve(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve /%s: %w", key, err)
	}
	dict, ok := resolved.(core.Dict)
	if !ok {
		return nil, fmt.Errorf("/%s is %T, not a dictionary", key, resolved)
	}
	return dict, nil
}

// Catalog returns the document catalog
func (r *Reader) Catalog() (*pages.Catalog, error) {
	if r.catalog != nil {
		return r.catalog, nil
	}
	dict, err := r.trailerDict("Root")
	if err != nil {
		return nil, err
	}
	if dict == nil {
		return nil, fmt.Errorf("trailer missing /Root entry")
	}
	r.catalog = pages.NewCatalog(dict, r)
	return r.catalog, nil
}

// GetInfo returns the document information dictionary, or nil when the
// document has none.
func (r *Reader) GetInfo() (core.Dict, error) {
	return r.trailerDict("Info")
}

// IsEncrypted reports whether the trailer carries an /Encrypt dictionary.
// Encrypted documents are not decrypted.
func (r *Reader) IsEncrypted() bool {
	return r.trailer.Get("Encrypt") != nil
}

// PageCount returns the number of pages
func (r *Reader) PageCount() (int, error) {
	if err := r.ensurePageTree(); err != nil {
		return 0, err
	}
	return r.pageTree.Count()
}

// GetPage returns the page at index (0-based)
func (r *Reader) GetPage(index int) (*pages.Page, error) {
	if err := r.ensurePageTree(); err != nil {
		return nil, err
	}
	return r.pageTree.GetPage(index)
}

func (r *Reader) ensurePageTree() error {
	if r.pageTree != nil {
		return nil
	}
	cat, err := r.Catalog()
	if err != nil {
		return fmt.Errorf("failed to get catalog: %w", err)
	}
	root, err := cat.Pages()
	if err != nil {
		return err
	}
	r.pageTree = pages.NewPageTree(root, r)
	return nil
}

// PageFrame returns the displayed area of a page: its crop box turned by
// its /Rotate.
func (r *Reader) PageFrame(page *pages.Page) (model.PageFrame, error) {
	box, err := page.CropBox()
	if err != nil {
		return model.PageFrame{}, err
	}
	return model.NewPageFrame(box, page.Rotate())
}

// PageContent is what a page paints, in content-stream order and in the
// display space of Frame.
type PageContent struct {
	Frame     model.PageFrame
	Fragments []text.TextFragment
	Drawings  []graphicsstate.Drawing
	Images    []graphicsstate.ImagePlacement

	// FallbackFonts describes fonts measured with standard metrics
	FallbackFonts []string
}

// contentOps joins the decoded content streams of a page and parses them
// into one operation list. A newline goes between streams so no token
// spans two of them.
func (r *Reader) contentOps(page *pages.Page) ([]contentstream.Operation, error) {
	contents, err := page.Contents()
	if err != nil {
		return nil, fmt.Errorf("page contents: %w", err)
	}
	var joined []byte
	for i, obj := range contents {
		stream, ok := obj.(*core.Stream)
		if !ok {
			continue
		}
		data, err := stream.Decode()
		if err != nil {
			return nil, fmt.Errorf("decode content stream %d: %w", i, err)
		}
		joined = append(append(joined, data...), '\n')
	}
	if len(joined) == 0 {
		return nil, nil
	}
	ops, err := contentstream.NewParser(joined).Parse()
	if err != nil {
		return nil, fmt.Errorf("parse content stream: %w", err)
	}
	return ops, nil
}

// pageScope is what both extractors need to replay a page
type pageScope struct {
	frame     model.PageFrame
	ops       []contentstream.Operation
	resources core.Dict
}

func (r *Reader) scope(page *pages.Page) (pageScope, error) {
	frame, err := r.PageFrame(page)
	if err != nil {
		return pageScope{}, err
	}
	ops, err := r.contentOps(page)
	if err != nil {
		return pageScope{frame: frame}, err
	}
	// a page without usable resources still has drawings and text
	resources, _ := page.Resources()
	return pageScope{frame: frame, ops: ops, resources: resources}, nil
}

func (r *Reader) runText(sc pageScope) (*text.Extractor, []text.TextFragment, error) {
	ex := text.NewExtractor(sc.resources, r.ResolveReference)
	ex.GraphicsState().Transform(sc.frame.Matrix())
	frags, err := ex.Extract(sc.ops)
	if err != nil {
		return nil, nil, fmt.Errorf("extract text: %w", err)
	}
	return ex, frags, nil
}

// ExtractPageContent runs the text and graphics extractors over one parse of
// the page's content. Seq values on fragments, drawings and images index the
// same operation list, so they order all three kinds against each other.
func (r *Reader) ExtractPageContent(page *pages.Page) (*PageContent, error) {
	sc, err := r.scope(page)
	if err != nil {
		return nil, err
	}
	content := &PageContent{Frame: sc.frame}
	if len(sc.ops) == 0 {
		return content, nil
	}

	ex, frags, err := r.runText(sc)
	if err != nil {
		return nil, err
	}
	content.Fragments, content.FallbackFonts = frags, ex.FallbackFonts()

	gx := graphicsstate.NewContentExtractor(sc.resources, r.ResolveReference)
	gx.GraphicsState().Transform(sc.frame.Matrix())
	if err := gx.Extract(sc.ops); err != nil {
		return nil, fmt.Errorf("extract graphics: %w", err)
	}
	content.Drawings, content.Images = gx.Drawings(), gx.Images()
	return content, nil
}

// ExtractTextFragments returns the text of a page in display space without
// its graphics.
func (r *Reader) ExtractTextFragments(page *pages.Page) ([]text.TextFragment, model.PageFrame, error) {
	sc, err := r.scope(page)
	if err != nil || len(sc.ops) == 0 {
		return nil, sc.frame, err
	}
	_, frags, err := r.runText(sc)
	return frags, sc.frame, err
}
