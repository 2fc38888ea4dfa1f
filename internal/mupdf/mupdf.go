//go:build mupdf && cgo

// Package mupdf binds the MuPDF library for the native document
// engine: true content-stream redaction, text box painting, and
// grafted side-by-side documents.
//
// Build with: go build -tags mupdf
//
// Requires MuPDF development libraries to be installed.
package mupdf

/*
#cgo LDFLAGS: -lmupdf -lfreetype -lharfbuzz -lgumbo -lopenjp2 -ljbig2dec -ljpeg -lz

#include <stdlib.h>
#include <string.h>
#include <mupdf/fitz.h>
#include <mupdf/pdf.h>

static fz_context* new_context() {
    fz_context *ctx = fz_new_context(NULL, NULL, FZ_STORE_DEFAULT);
    if (ctx) {
        fz_try(ctx) {
            fz_register_document_handlers(ctx);
        }
        fz_catch(ctx) {
        }
    }
    return ctx;
}

static pdf_document* open_pdf_document(fz_context *ctx, const char *filename) {
    pdf_document *doc = NULL;
    fz_try(ctx) {
        doc = pdf_open_document(ctx, filename);
    }
    fz_catch(ctx) {
        return NULL;
    }
    return doc;
}

static int page_count(fz_context *ctx, pdf_document *doc) {
    int count = -1;
    fz_try(ctx) {
        count = pdf_count_pages(ctx, doc);
    }
    fz_catch(ctx) {
        return -1;
    }
    return count;
}

static fz_rect page_bounds(fz_context *ctx, pdf_document *doc, int page_num) {
    fz_rect bounds = fz_empty_rect;
    fz_try(ctx) {
        pdf_page *page = pdf_load_page(ctx, doc, page_num);
        bounds = pdf_bound_page(ctx, page);
        fz_drop_page(ctx, (fz_page*)page);
    }
    fz_catch(ctx) {
    }
    return bounds;
}

// Queue a redaction annotation over the rect, page space coordinates.
static int add_redact_rect(fz_context *ctx, pdf_document *doc, int page_num,
                           float x0, float y0, float x1, float y1) {
    int ok = -1;
    fz_try(ctx) {
        pdf_page *page = pdf_load_page(ctx, doc, page_num);
        pdf_annot *annot = pdf_create_annot(ctx, page, PDF_ANNOT_REDACT);
        fz_rect rect = fz_make_rect(x0, y0, x1, y1);
        pdf_set_annot_rect(ctx, annot, rect);
        pdf_update_annot(ctx, annot);
        pdf_drop_annot(ctx, annot);
        fz_drop_page(ctx, (fz_page*)page);
        ok = 0;
    }
    fz_catch(ctx) {
        return -1;
    }
    return ok;
}

// Apply all queued redactions on the page, removing the covered text
// from the content stream. Images are left alone.
static int apply_redactions(fz_context *ctx, pdf_document *doc, int page_num) {
    int ok = -1;
    fz_try(ctx) {
        pdf_page *page = pdf_load_page(ctx, doc, page_num);
        pdf_redact_options opts = { 0 };
        opts.black_boxes = 0;
        opts.image_method = PDF_REDACT_IMAGE_NONE;
        pdf_redact_page(ctx, doc, page, &opts);
        fz_drop_page(ctx, (fz_page*)page);
        ok = 0;
    }
    fz_catch(ctx) {
        return -1;
    }
    return ok;
}

// Append a content stream to the page that paints the prebuilt text
// operators using the font registered as /FT0 in the page resources.
static int append_text_content(fz_context *ctx, pdf_document *doc, int page_num,
                               const char *stream, const char *font_path) {
    int ok = -1;
    fz_try(ctx) {
        pdf_page *page = pdf_load_page(ctx, doc, page_num);

        fz_font *font = fz_new_font_from_file(ctx, NULL, font_path, 0, 0);
        pdf_obj *font_obj = pdf_add_simple_font(ctx, doc, font, PDF_SIMPLE_ENCODING_LATIN);

        pdf_obj *resources = pdf_dict_get(ctx, page->obj, PDF_NAME(Resources));
        if (!resources) {
            resources = pdf_new_dict(ctx, doc, 1);
            pdf_dict_put_drop(ctx, page->obj, PDF_NAME(Resources), resources);
        }
        pdf_obj *fonts = pdf_dict_get(ctx, resources, PDF_NAME(Font));
        if (!fonts) {
            fonts = pdf_new_dict(ctx, doc, 1);
            pdf_dict_put_drop(ctx, resources, PDF_NAME(Font), fonts);
        }
        pdf_dict_puts(ctx, fonts, "FT0", font_obj);

        fz_buffer *buf = fz_new_buffer_from_copied_data(ctx,
            (const unsigned char*)stream, strlen(stream));
        pdf_obj *contents = pdf_add_stream(ctx, doc, buf, NULL, 0);

        pdf_obj *old_contents = pdf_dict_get(ctx, page->obj, PDF_NAME(Contents));
        if (old_contents) {
            pdf_obj *arr = pdf_new_array(ctx, doc, 2);
            if (pdf_is_array(ctx, old_contents)) {
                int n = pdf_array_len(ctx, old_contents);
                for (int i = 0; i < n; i++) {
                    pdf_array_push(ctx, arr, pdf_array_get(ctx, old_contents, i));
                }
            } else {
                pdf_array_push(ctx, arr, old_contents);
            }
            pdf_array_push(ctx, arr, contents);
            pdf_dict_put_drop(ctx, page->obj, PDF_NAME(Contents), arr);
        } else {
            pdf_dict_put(ctx, page->obj, PDF_NAME(Contents), contents);
        }

        fz_drop_buffer(ctx, buf);
        fz_drop_font(ctx, font);
        fz_drop_page(ctx, (fz_page*)page);
        ok = 0;
    }
    fz_catch(ctx) {
        return -1;
    }
    return ok;
}

static int save_document(fz_context *ctx, pdf_document *doc, const char *filename) {
    int ok = -1;
    fz_try(ctx) {
        pdf_write_options opts = pdf_default_write_options;
        opts.do_garbage = 1;
        pdf_save_document(ctx, doc, filename, &opts);
        ok = 0;
    }
    fz_catch(ctx) {
        return -1;
    }
    return ok;
}

// Graft every page pair (original i, translated i) into a fresh
// document and mark it for two-page viewing.
static int build_spread(fz_context *ctx, const char *orig_path,
                        const char *trans_path, const char *out_path) {
    int ok = -1;
    fz_try(ctx) {
        pdf_document *orig = pdf_open_document(ctx, orig_path);
        pdf_document *trans = pdf_open_document(ctx, trans_path);
        pdf_document *out = pdf_create_document(ctx);

        int n = pdf_count_pages(ctx, orig);
        pdf_graft_map *orig_map = pdf_new_graft_map(ctx, out);
        pdf_graft_map *trans_map = pdf_new_graft_map(ctx, out);
        for (int i = 0; i < n; i++) {
            pdf_graft_mapped_page(ctx, orig_map, -1, orig, i);
            pdf_graft_mapped_page(ctx, trans_map, -1, trans, i);
        }
        pdf_drop_graft_map(ctx, orig_map);
        pdf_drop_graft_map(ctx, trans_map);

        pdf_obj *root = pdf_dict_get(ctx, pdf_trailer(ctx, out), PDF_NAME(Root));
        pdf_dict_put_name(ctx, root, PDF_NAME(PageLayout), "TwoPageLeft");

        pdf_write_options opts = pdf_default_write_options;
        opts.do_garbage = 1;
        pdf_save_document(ctx, out, out_path, &opts);

        pdf_drop_document(ctx, out);
        pdf_drop_document(ctx, trans);
        pdf_drop_document(ctx, orig);
        ok = 0;
    }
    fz_catch(ctx) {
        return -1;
    }
    return ok;
}
*/
import "C"

import (
	"fmt"
	"strings"
	"unsafe"
)

// IsAvailable reports whether the binding was compiled in.
func IsAvailable() bool { return true }

// Context wraps an fz_context. Not safe for concurrent use; create one
// per goroutine.
type Context struct {
	ctx *C.fz_context
}

// NewContext creates a MuPDF context with document handlers registered.
func NewContext() (*Context, error) {
	ctx := C.new_context()
	if ctx == nil {
		return nil, ErrContextCreate
	}
	return &Context{ctx: ctx}, nil
}

// Close releases the context.
func (c *Context) Close() {
	if c.ctx != nil {
		C.fz_drop_context(c.ctx)
		c.ctx = nil
	}
}

// Document is an open PDF document.
type Document struct {
	ctx *Context
	doc *C.pdf_document
}

// OpenPDF opens the PDF at path for reading and modification.
func (c *Context) OpenPDF(path string) (*Document, error) {
	cpath := C.CString(path)
	defer C.free(unsafe.Pointer(cpath))

	doc := C.open_pdf_document(c.ctx, cpath)
	if doc == nil {
		return nil, ErrOpenDocument
	}
	return &Document{ctx: c, doc: doc}, nil
}

// Close releases the document.
func (d *Document) Close() {
	if d.doc != nil {
		C.pdf_drop_document(d.ctx.ctx, d.doc)
		d.doc = nil
	}
}

// PageCount returns the number of pages.
func (d *Document) PageCount() (int, error) {
	n := int(C.page_count(d.ctx.ctx, d.doc))
	if n < 0 {
		return 0, ErrInvalidPage
	}
	return n, nil
}

// PageBounds returns the page size in points.
func (d *Document) PageBounds(page int) (width, height float64, err error) {
	bounds := C.page_bounds(d.ctx.ctx, d.doc, C.int(page))
	w := float64(bounds.x1 - bounds.x0)
	h := float64(bounds.y1 - bounds.y0)
	if w <= 0 || h <= 0 {
		return 0, 0, ErrInvalidPage
	}
	return w, h, nil
}

// AddRedactRect queues a redaction over the rect, top-left origin.
func (d *Document) AddRedactRect(page int, x0, y0, x1, y1 float64) error {
	if C.add_redact_rect(d.ctx.ctx, d.doc, C.int(page),
		C.float(x0), C.float(y0), C.float(x1), C.float(y1)) != 0 {
		return ErrRedact
	}
	return nil
}

// ApplyRedactions removes all queued regions from the page content.
func (d *Document) ApplyRedactions(page int) error {
	if C.apply_redactions(d.ctx.ctx, d.doc, C.int(page)) != 0 {
		return ErrRedact
	}
	return nil
}

// FillTextBox paints text line by line inside the box. Coordinates are
// top-left origin with y growing down; they are converted to the
// content stream's bottom-up space using the page height.
func (d *Document) FillTextBox(page int, x0, y0, x1, y1 float64, text string, fontPath string, fontSize, lineHeight float64) error {
	_, pageH, err := d.PageBounds(page)
	if err != nil {
		return err
	}

	lines := strings.Split(text, "\n")
	leading := fontSize * lineHeight

	var sb strings.Builder
	sb.WriteString("BT\n")
	fmt.Fprintf(&sb, "/FT0 %.2f Tf\n", fontSize)
	fmt.Fprintf(&sb, "%.2f TL\n", leading)
	// First baseline sits one line below the box top.
	fmt.Fprintf(&sb, "%.2f %.2f Td\n", x0, pageH-y0-fontSize)
	for i, line := range lines {
		if i > 0 {
			sb.WriteString("T*\n")
		}
		fmt.Fprintf(&sb, "(%s) Tj\n", escapePDFString(line))
	}
	sb.WriteString("ET\n")

	cstream := C.CString(sb.String())
	defer C.free(unsafe.Pointer(cstream))
	cfont := C.CString(fontPath)
	defer C.free(unsafe.Pointer(cfont))

	if C.append_text_content(d.ctx.ctx, d.doc, C.int(page), cstream, cfont) != 0 {
		return ErrAddText
	}
	return nil
}

// Save writes the document to path with garbage collection.
func (d *Document) Save(path string) error {
	cpath := C.CString(path)
	defer C.free(unsafe.Pointer(cpath))
	if C.save_document(d.ctx.ctx, d.doc, cpath) != 0 {
		return ErrSaveDocument
	}
	return nil
}

// BuildSpread grafts page pairs from the two documents into outPath,
// original left, translated right, viewer layout TwoPageLeft.
func (c *Context) BuildSpread(origPath, transPath, outPath string) error {
	corig := C.CString(origPath)
	defer C.free(unsafe.Pointer(corig))
	ctrans := C.CString(transPath)
	defer C.free(unsafe.Pointer(ctrans))
	cout := C.CString(outPath)
	defer C.free(unsafe.Pointer(cout))

	if C.build_spread(c.ctx, corig, ctrans, cout) != 0 {
		return ErrSpread
	}
	return nil
}

// escapePDFString escapes characters that terminate or nest PDF
// literal strings.
func escapePDFString(s string) string {
	r := strings.NewReplacer("\\", "\\\\", "(", "\\(", ")", "\\)")
	return r.Replace(s)
}
