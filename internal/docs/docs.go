// Package docs renders the wiki pages describing a schema: a global index
// that every run appends to, one page per database and one per table.
package docs

import (
	"path"
	"strings"

	"github.com/koustreak/dbgen/internal/errs"
	"github.com/koustreak/dbgen/internal/naming"
	"github.com/koustreak/dbgen/internal/schema"
)

const (
	indexPage = "index"
	ext       = ".md"
)

// Mode says how a page is written to the sink.
type Mode int

const (
	Overwrite Mode = iota
	Append
)

func (m Mode) String() string {
	if m == Append {
		return "append"
	}
	return "overwrite"
}

// Page is one rendered documentation page. Path is slash separated.
type Page struct {
	Path    string
	Content []byte
	Mode    Mode
}

// Options controls page rendering.
type Options struct {
	// WikiDir is the root of the documentation tree.
	WikiDir string

	// DisplayName replaces the database name in link text. Paths and link
	// targets always use the real database name.
	DisplayName string
}

// Emit renders every page for m in write order: the index entry, the
// database page, then one page per table in model order.
func Emit(m *schema.Model, dbName string, opts Options) ([]Page, error) {
	if dbName == "" {
		return nil, errs.New(errs.ErrKindEmptyIdentifier, "database name is empty")
	}
	display := opts.DisplayName
	if display == "" {
		display = dbName
	}
	dbLink := naming.LinkSlug(dbName) + "/" + naming.LinkSlug(dbName)

	pages := make([]Page, 0, m.Len()+2)

	pages = append(pages, Page{
		Path:    path.Join(opts.WikiDir, indexPage+ext),
		Content: []byte("* " + wikiLink(display, dbLink) + "\n"),
		Mode:    Append,
	})

	var db strings.Builder
	db.WriteString(wikiLink("Home", indexPage) + " / " + display + "\n\n")
	for _, t := range m.Tables() {
		db.WriteString("* " + wikiLink(naming.MustNormalize(t.Name), tableLink(dbName, t.Name)) + "\n")
	}
	pages = append(pages, Page{
		Path:    path.Join(opts.WikiDir, dbName, dbName+ext),
		Content: []byte(db.String()),
		Mode:    Overwrite,
	})

	for _, t := range m.Tables() {
		pages = append(pages, Page{
			Path:    path.Join(opts.WikiDir, dbName, "tables", t.Name+ext),
			Content: tablePage(t, display, dbLink),
			Mode:    Overwrite,
		})
	}
	return pages, nil
}

func tablePage(t *schema.Table, display, dbLink string) []byte {
	var sb strings.Builder
	sb.WriteString(wikiLink("Home", indexPage) + " / " + wikiLink(display, dbLink) + " / " + naming.MustNormalize(t.Name) + "\n\n")
	sb.WriteString("Column | Type | Description\n")
	sb.WriteString("--- | --- | ---\n")
	for _, c := range t.Columns {
		sb.WriteString(cell(c.NormalizedName) + " | " + cell(c.RawType) + " | \n")
	}
	return []byte(sb.String())
}

func tableLink(dbName, table string) string {
	return naming.LinkSlug(dbName) + "/tables/" + naming.LinkSlug(table)
}

func wikiLink(text, target string) string {
	return "[[" + text + "|" + target + "]]"
}

// cell escapes pipes so enum and set type lists stay inside their cell.
func cell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
