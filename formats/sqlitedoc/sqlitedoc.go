// Package sqlitedoc reads and writes documents stored as SQLite
// databases. The tree is relational: one row per node with parent and
// position columns, metadata and resources in their own tables, so
// the file is queryable with any SQLite client.
//
// The byte-oriented Parse/Emit contract is bridged over a temp file,
// since SQLite works on files rather than streams.
package sqlitedoc

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"

	"github.com/FocuswithJustin/Vellum/core/errors"
	"github.com/FocuswithJustin/Vellum/core/format"
	"github.com/FocuswithJustin/Vellum/core/ir"
	"github.com/FocuswithJustin/Vellum/core/sqlite"
)

// schemaVersion is written to PRAGMA user_version and checked on read.
const schemaVersion = 1

var sqliteMagic = []byte("SQLite format 3\x00")

const schema = `
CREATE TABLE meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
CREATE TABLE nodes (
	id       INTEGER PRIMARY KEY,
	parent   INTEGER REFERENCES nodes(id),
	position INTEGER NOT NULL,
	kind     TEXT NOT NULL,
	props    TEXT
);
CREATE TABLE resources (
	id        TEXT PRIMARY KEY,
	position  INTEGER NOT NULL,
	mime_type TEXT NOT NULL,
	data      BLOB
);
CREATE INDEX nodes_parent ON nodes(parent, position);
`

// Format reads and writes SQLite document databases.
type Format struct{}

// New creates the sqlitedoc format module.
func New() *Format {
	return &Format{}
}

// Name returns the registry name.
func (f *Format) Name() string {
	return "sqlitedoc"
}

// Extensions returns the file extensions this format claims.
func (f *Format) Extensions() []string {
	return []string{".sqlite", ".db"}
}

// Detect reports whether the input carries the SQLite file magic.
func (f *Format) Detect(data []byte) bool {
	return bytes.HasPrefix(data, sqliteMagic)
}

var _ format.Reader = (*Format)(nil)
var _ format.Writer = (*Format)(nil)

// Parse loads a document database.
func (f *Format) Parse(data []byte, opts format.ParseOptions) (ir.ConversionResult[*ir.Document], error) {
	if !bytes.HasPrefix(data, sqliteMagic) {
		return ir.ConversionResult[*ir.Document]{}, errors.NewParse("sqlitedoc", "input is not a SQLite database")
	}

	path, cleanup, err := tempFile(data)
	if err != nil {
		return ir.ConversionResult[*ir.Document]{}, &errors.ParseError{Format: "sqlitedoc", Message: "staging database file", Err: err}
	}
	defer cleanup()

	db, err := sqlite.OpenReadOnly(path)
	if err != nil {
		return ir.ConversionResult[*ir.Document]{}, &errors.ParseError{Format: "sqlitedoc", Message: "opening database", Err: err}
	}
	defer db.Close()

	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return ir.ConversionResult[*ir.Document]{}, &errors.ParseError{Format: "sqlitedoc", Message: "reading schema version", Err: err}
	}
	if version != schemaVersion {
		return ir.ConversionResult[*ir.Document]{}, errors.NewParse("sqlitedoc",
			fmt.Sprintf("unsupported schema version %d", version))
	}

	doc := &ir.Document{Source: "sqlitedoc"}
	result := ir.OK(doc)

	if err := loadMeta(db, doc); err != nil {
		return ir.ConversionResult[*ir.Document]{}, err
	}
	if err := loadNodes(db, doc); err != nil {
		return ir.ConversionResult[*ir.Document]{}, err
	}
	if err := loadResources(db, doc); err != nil {
		return ir.ConversionResult[*ir.Document]{}, err
	}
	return result, nil
}

func loadMeta(db *sql.DB, doc *ir.Document) error {
	rows, err := db.Query("SELECT key, value FROM meta ORDER BY rowid")
	if err != nil {
		return &errors.ParseError{Format: "sqlitedoc", Message: "querying meta", Err: err}
	}
	defer rows.Close()

	for rows.Next() {
		var key, raw string
		if err := rows.Scan(&key, &raw); err != nil {
			return &errors.ParseError{Format: "sqlitedoc", Message: "scanning meta row", Err: err}
		}
		var v ir.Value
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return &errors.ParseError{Format: "sqlitedoc",
				Message: fmt.Sprintf("meta value for %q is not valid JSON", key), Err: err}
		}
		doc.Meta.Set(key, v)
	}
	return rows.Err()
}

func loadNodes(db *sql.DB, doc *ir.Document) error {
	rows, err := db.Query("SELECT id, parent, position, kind, props FROM nodes ORDER BY parent NULLS FIRST, position")
	if err != nil {
		return &errors.ParseError{Format: "sqlitedoc", Message: "querying nodes", Err: err}
	}
	defer rows.Close()

	byID := make(map[int64]*ir.Node)
	type row struct {
		id     int64
		parent sql.NullInt64
	}
	var order []row

	for rows.Next() {
		var (
			id, position int64
			parent       sql.NullInt64
			kind         string
			props        sql.NullString
		)
		if err := rows.Scan(&id, &parent, &position, &kind, &props); err != nil {
			return &errors.ParseError{Format: "sqlitedoc", Message: "scanning node row", Err: err}
		}
		n := ir.NewNode(kind)
		if props.Valid && props.String != "" {
			if err := json.Unmarshal([]byte(props.String), &n.Props); err != nil {
				return &errors.ParseError{Format: "sqlitedoc",
					Message: fmt.Sprintf("props for node %d are not valid JSON", id), Err: err}
			}
		}
		byID[id] = n
		order = append(order, row{id: id, parent: parent})
	}
	if err := rows.Err(); err != nil {
		return &errors.ParseError{Format: "sqlitedoc", Message: "iterating nodes", Err: err}
	}

	for _, r := range order {
		n := byID[r.id]
		if !r.parent.Valid {
			if doc.Content != nil {
				return errors.NewParse("sqlitedoc", "database has more than one root node")
			}
			doc.Content = n
			continue
		}
		parent, ok := byID[r.parent.Int64]
		if !ok {
			return errors.NewParse("sqlitedoc",
				fmt.Sprintf("node %d references missing parent %d", r.id, r.parent.Int64))
		}
		parent.AppendChild(n)
	}
	if doc.Content == nil {
		return errors.NewParse("sqlitedoc", "database has no root node")
	}
	return nil
}

func loadResources(db *sql.DB, doc *ir.Document) error {
	rows, err := db.Query("SELECT id, mime_type, data FROM resources ORDER BY position")
	if err != nil {
		return &errors.ParseError{Format: "sqlitedoc", Message: "querying resources", Err: err}
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id, mime string
			data     []byte
		)
		if err := rows.Scan(&id, &mime, &data); err != nil {
			return &errors.ParseError{Format: "sqlitedoc", Message: "scanning resource row", Err: err}
		}
		doc.Resources.Insert(ir.ResourceID(id), ir.Resource{MIMEType: mime, Data: data})
	}
	return rows.Err()
}

// Emit writes the document out as a SQLite database.
func (f *Format) Emit(doc *ir.Document, opts format.EmitOptions) (ir.ConversionResult[[]byte], error) {
	if doc == nil || doc.Content == nil {
		return ir.ConversionResult[[]byte]{}, errors.NewEmit("sqlitedoc", "document has no content root")
	}

	path, cleanup, err := tempFile(nil)
	if err != nil {
		return ir.ConversionResult[[]byte]{}, &errors.EmitError{Format: "sqlitedoc", Message: "staging database file", Err: err}
	}
	defer cleanup()

	db, err := sqlite.Open(path)
	if err != nil {
		return ir.ConversionResult[[]byte]{}, &errors.EmitError{Format: "sqlitedoc", Message: "opening database", Err: err}
	}

	if err := writeDatabase(db, doc); err != nil {
		db.Close()
		return ir.ConversionResult[[]byte]{}, err
	}
	if err := db.Close(); err != nil {
		return ir.ConversionResult[[]byte]{}, &errors.EmitError{Format: "sqlitedoc", Message: "closing database", Err: err}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return ir.ConversionResult[[]byte]{}, &errors.EmitError{Format: "sqlitedoc", Message: "reading database file", Err: err}
	}
	return ir.OK(data), nil
}

func writeDatabase(db *sql.DB, doc *ir.Document) error {
	if _, err := db.Exec(schema); err != nil {
		return &errors.EmitError{Format: "sqlitedoc", Message: "creating schema", Err: err}
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return &errors.EmitError{Format: "sqlitedoc", Message: "setting schema version", Err: err}
	}

	tx, err := db.Begin()
	if err != nil {
		return &errors.EmitError{Format: "sqlitedoc", Message: "starting transaction", Err: err}
	}
	defer tx.Rollback()

	var metaErr error
	doc.Meta.Iterate(func(key string, v ir.Value) bool {
		raw, err := json.Marshal(v)
		if err != nil {
			metaErr = err
			return false
		}
		_, metaErr = tx.Exec("INSERT INTO meta (key, value) VALUES (?, ?)", key, string(raw))
		return metaErr == nil
	})
	if metaErr != nil {
		return &errors.EmitError{Format: "sqlitedoc", Message: "writing meta", Err: metaErr}
	}

	nextID := int64(1)
	var insert func(n *ir.Node, parent sql.NullInt64, position int) error
	insert = func(n *ir.Node, parent sql.NullInt64, position int) error {
		id := nextID
		nextID++

		var props sql.NullString
		if n.Props.Len() > 0 {
			raw, err := json.Marshal(n.Props)
			if err != nil {
				return err
			}
			props = sql.NullString{String: string(raw), Valid: true}
		}
		if _, err := tx.Exec("INSERT INTO nodes (id, parent, position, kind, props) VALUES (?, ?, ?, ?, ?)",
			id, parent, position, n.Kind, props); err != nil {
			return err
		}
		childParent := sql.NullInt64{Int64: id, Valid: true}
		for i, child := range n.Children {
			if err := insert(child, childParent, i); err != nil {
				return err
			}
		}
		return nil
	}
	if err := insert(doc.Content, sql.NullInt64{}, 0); err != nil {
		return &errors.EmitError{Format: "sqlitedoc", Message: "writing nodes", Err: err}
	}

	for i, id := range doc.Resources.IDs() {
		res, _ := doc.Resources.Get(id)
		if _, err := tx.Exec("INSERT INTO resources (id, position, mime_type, data) VALUES (?, ?, ?, ?)",
			string(id), i, res.MIMEType, res.Data); err != nil {
			return &errors.EmitError{Format: "sqlitedoc", Message: "writing resources", Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return &errors.EmitError{Format: "sqlitedoc", Message: "committing transaction", Err: err}
	}
	return nil
}

// tempFile stages bytes in a temp file and returns its path with a
// cleanup function. With nil data the file exists but is empty.
func tempFile(data []byte) (string, func(), error) {
	f, err := os.CreateTemp("", "vellum-sqlitedoc-*.db")
	if err != nil {
		return "", nil, err
	}
	path := f.Name()
	cleanup := func() { os.Remove(path) }

	if len(data) > 0 {
		if _, err := f.Write(data); err != nil {
			f.Close()
			cleanup()
			return "", nil, err
		}
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, err
	}
	return path, cleanup, nil
}
