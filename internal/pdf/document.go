package pdf

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf16"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/a3tai/pdf-template-filler/internal/geometry"
)

// DefaultFontName is the standard font painted text is set in.
const DefaultFontName = "Helvetica"

// PDFCPUEngine opens documents for filling using pdfcpu.
type PDFCPUEngine struct {
	fontName string
	logger   *slog.Logger
}

// NewPDFCPUEngine creates a document engine backed by pdfcpu.
func NewPDFCPUEngine(logger *slog.Logger) *PDFCPUEngine {
	if logger == nil {
		logger = slog.Default()
	}
	return &PDFCPUEngine{fontName: DefaultFontName, logger: logger}
}

var _ Engine = (*PDFCPUEngine)(nil)

// Open parses data into a fresh document. The caller's bytes are never
// modified.
func (e *PDFCPUEngine) Open(_ context.Context, data []byte) (Document, error) {
	conf := newConfiguration()
	ctx, err := readContext(data, conf)
	if err != nil {
		return nil, err
	}

	dims, err := ctx.PageDims()
	if err != nil {
		return nil, fmt.Errorf("failed to read page dimensions: %w", err)
	}

	form, err := acroForm(ctx)
	if err != nil {
		return nil, err
	}
	fields, err := collectFields(ctx, form, e.logger)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]*formField, len(fields))
	for _, f := range fields {
		byName[f.Name] = f
	}

	return &pdfcpuDocument{
		ctx:      ctx,
		form:     form,
		fields:   byName,
		dims:     dims,
		runs:     make(map[int][]textRun),
		fontName: e.fontName,
		logger:   e.logger,
	}, nil
}

type pdfcpuDocument struct {
	ctx      *model.Context
	form     types.Dict
	fields   map[string]*formField
	dims     []types.Dim
	runs     map[int][]textRun
	filled   int
	fontName string
	fontRef  *types.IndirectRef
	logger   *slog.Logger
}

func (d *pdfcpuDocument) PageCount() int {
	return len(d.dims)
}

func (d *pdfcpuDocument) PageSize(pageIndex int) (geometry.Size, error) {
	if pageIndex < 0 || pageIndex >= len(d.dims) {
		return geometry.Size{}, &PageError{PageIndex: pageIndex, PageCount: len(d.dims)}
	}
	dim := d.dims[pageIndex]
	return geometry.Size{Width: dim.Width, Height: dim.Height}, nil
}

// SetFieldValue writes value into the field's V entry and drops stale
// appearance streams so viewers regenerate them.
func (d *pdfcpuDocument) SetFieldValue(name, value string) error {
	field, ok := d.fields[name]
	if !ok {
		return fmt.Errorf("form field not found: %s", name)
	}
	if !isTextField(field.Type) {
		return fmt.Errorf("form field %s has type %s and cannot hold text", name, describeFieldType(field.Type))
	}

	field.Dict["V"] = encodeTextString(value)
	delete(field.Dict, "AP")
	for _, widget := range field.Widgets {
		delete(widget, "AP")
	}
	d.filled++
	return nil
}

// DrawText queues a single line of text; queued text is written into the
// page content when the document is serialized. The string is painted as
// given, with line breaks folded to spaces. A positive maxWidth clips the
// text at x+maxWidth.
func (d *pdfcpuDocument) DrawText(pageIndex int, x, y float64, text string, fontSize, maxWidth float64) error {
	if pageIndex < 0 || pageIndex >= len(d.dims) {
		return &PageError{PageIndex: pageIndex, PageCount: len(d.dims)}
	}
	if text == "" {
		return nil
	}
	if fontSize < 1 {
		fontSize = 1
	}

	page := pageIndex + 1
	d.runs[page] = append(d.runs[page], textRun{
		x:        x,
		y:        y,
		text:     singleLine(text),
		fontSize: fontSize,
		maxWidth: maxWidth,
	})
	d.logger.Debug("queued text", "page", page, "x", x, "y", y, "font_size", fontSize, "max_width", maxWidth)
	return nil
}

// Bytes writes queued text into the page contents, then serializes the
// filled document.
func (d *pdfcpuDocument) Bytes() ([]byte, error) {
	if d.filled > 0 && d.form != nil {
		d.form["NeedAppearances"] = types.Boolean(true)
	}

	pages := make([]int, 0, len(d.runs))
	for page := range d.runs {
		pages = append(pages, page)
	}
	sort.Ints(pages)
	for _, page := range pages {
		if err := d.paintPage(page, d.runs[page]); err != nil {
			return nil, fmt.Errorf("failed to paint text on page %d: %w", page, err)
		}
	}
	d.runs = make(map[int][]textRun)

	var buf bytes.Buffer
	if err := api.WriteContext(d.ctx, &buf); err != nil {
		return nil, fmt.Errorf("failed to write document: %w", err)
	}
	return buf.Bytes(), nil
}

type textRun struct {
	x, y     float64
	text     string
	fontSize float64
	maxWidth float64
}

// paintPage appends one content stream holding runs to the page. Existing
// content is wrapped in q/Q so its graphics state cannot leak into ours.
func (d *pdfcpuDocument) paintPage(page int, runs []textRun) error {
	pageDict, _, inherited, err := d.ctx.PageDict(page, false)
	if err != nil {
		return err
	}
	if pageDict == nil {
		return fmt.Errorf("page dictionary not found")
	}

	res, err := d.pageResources(pageDict, inherited)
	if err != nil {
		return err
	}
	fontKey, err := d.addFont(res)
	if err != nil {
		return err
	}

	existing, err := d.pageContents(pageDict)
	if err != nil {
		return err
	}

	ours, err := d.newContentStream(textContent(fontKey, runs))
	if err != nil {
		return err
	}
	if len(existing) == 0 {
		pageDict["Contents"] = types.Array{*ours}
		return nil
	}

	save, err := d.newContentStream([]byte("q\n"))
	if err != nil {
		return err
	}
	restore, err := d.newContentStream([]byte("Q\n"))
	if err != nil {
		return err
	}
	contents := make(types.Array, 0, len(existing)+3)
	contents = append(contents, *save)
	contents = append(contents, existing...)
	contents = append(contents, *restore, *ours)
	pageDict["Contents"] = contents
	return nil
}

// pageResources returns the page's own resource dictionary, materializing
// inherited resources onto the page when it has none.
func (d *pdfcpuDocument) pageResources(pageDict types.Dict, inherited *model.InheritedPageAttrs) (types.Dict, error) {
	if obj, found := pageDict.Find("Resources"); found && obj != nil {
		res, err := d.ctx.DereferenceDict(obj)
		if err != nil {
			return nil, err
		}
		if res != nil {
			return res, nil
		}
	}

	res := types.NewDict()
	if inherited != nil {
		for k, v := range inherited.Resources {
			res[k] = v
		}
	}
	pageDict["Resources"] = res
	return res, nil
}

// addFont registers the painting font in res under a fresh key. The font
// dictionary is copied so shared font resources of other pages stay intact.
func (d *pdfcpuDocument) addFont(res types.Dict) (string, error) {
	fonts := types.NewDict()
	if obj, found := res.Find("Font"); found && obj != nil {
		existing, err := d.ctx.DereferenceDict(obj)
		if err != nil {
			return "", err
		}
		for k, v := range existing {
			fonts[k] = v
		}
	}

	if d.fontRef == nil {
		ref, err := d.ctx.IndRefForNewObject(types.Dict{
			"Type":     types.Name("Font"),
			"Subtype":  types.Name("Type1"),
			"BaseFont": types.Name(d.fontName),
			"Encoding": types.Name("WinAnsiEncoding"),
		})
		if err != nil {
			return "", err
		}
		d.fontRef = ref
	}

	key := fonts.NewIDForPrefix("TF", 0)
	fonts[key] = *d.fontRef
	res["Font"] = fonts
	return key, nil
}

// pageContents returns the page's content streams as indirect references.
func (d *pdfcpuDocument) pageContents(pageDict types.Dict) (types.Array, error) {
	obj, found := pageDict.Find("Contents")
	if !found || obj == nil {
		return nil, nil
	}
	deref, err := d.ctx.Dereference(obj)
	if err != nil {
		return nil, err
	}

	switch v := deref.(type) {
	case types.Array:
		return v, nil
	case types.StreamDict:
		if ref, ok := obj.(types.IndirectRef); ok {
			return types.Array{ref}, nil
		}
		ref, err := d.ctx.IndRefForNewObject(v)
		if err != nil {
			return nil, err
		}
		return types.Array{*ref}, nil
	case nil:
		return nil, nil
	default:
		return nil, fmt.Errorf("unexpected page contents of type %T", deref)
	}
}

func (d *pdfcpuDocument) newContentStream(content []byte) (*types.IndirectRef, error) {
	sd, err := d.ctx.NewStreamDictForBuf(content)
	if err != nil {
		return nil, err
	}
	if err := sd.Encode(); err != nil {
		return nil, err
	}
	return d.ctx.IndRefForNewObject(*sd)
}

// textContent renders runs as content stream operators. Each run starts a
// text object at its baseline origin.
func textContent(fontKey string, runs []textRun) []byte {
	var buf bytes.Buffer
	for _, r := range runs {
		buf.WriteString("q\n")
		if r.maxWidth > 0 {
			fmt.Fprintf(&buf, "%s %s %s %s re W n\n",
				formatNumber(r.x), formatNumber(r.y-r.fontSize), formatNumber(r.maxWidth), formatNumber(3*r.fontSize))
		}
		s, _ := types.Escape(model.DecodeUTF8ToByte(r.text))
		fmt.Fprintf(&buf, "BT\n0 g\n/%s %s Tf\n%s %s Td\n(%s) Tj\nET\nQ\n",
			fontKey, formatNumber(r.fontSize), formatNumber(r.x), formatNumber(r.y), *s)
	}
	return buf.Bytes()
}

// singleLine folds line breaks and other control characters to spaces.
func singleLine(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, s)
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(math.Round(v*1000)/1000, 'f', -1, 64)
}

// encodeTextString encodes s as a PDF text string: plain bytes for ASCII,
// UTF-16BE with a byte order mark otherwise.
func encodeTextString(s string) types.HexLiteral {
	ascii := true
	for _, r := range s {
		if r > 0x7E {
			ascii = false
			break
		}
	}
	if ascii {
		return types.HexLiteral(hex.EncodeToString([]byte(s)))
	}

	units := utf16.Encode([]rune(s))
	b := make([]byte, 2+2*len(units))
	b[0], b[1] = 0xFE, 0xFF
	for i, u := range units {
		binary.BigEndian.PutUint16(b[2+2*i:], u)
	}
	return types.HexLiteral(hex.EncodeToString(b))
}

func describeFieldType(fieldType string) string {
	switch fieldType {
	case fieldTypeText:
		return "text"
	case fieldTypeButton:
		return "button"
	case fieldTypeChoice:
		return "choice"
	case fieldTypeSignature:
		return "signature"
	case "":
		return "unknown"
	default:
		return fieldType
	}
}
