// Package mongodb reads collections into tables and inserts table rows as
// documents.
package mongodb

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/admariner/wrangles/pkg/connectors/file"
	"github.com/admariner/wrangles/pkg/registry"
	w "github.com/admariner/wrangles/pkg/wrangles"
)

// Conn locates a collection.
type Conn struct {
	Host       string `mapstructure:"host" validate:"required"`
	User       string `mapstructure:"user"`
	Password   string `mapstructure:"password"`
	Database   string `mapstructure:"database" validate:"required"`
	Collection string `mapstructure:"collection" validate:"required"`
}

// URI builds a connection string. A host that is already a mongodb:// or
// mongodb+srv:// URI is used as is, with <password> filled in.
func (c Conn) URI() string {
	if strings.HasPrefix(c.Host, "mongodb://") || strings.HasPrefix(c.Host, "mongodb+srv://") {
		return strings.ReplaceAll(c.Host, "<password>", c.Password)
	}
	if c.User != "" {
		return fmt.Sprintf("mongodb+srv://%s:%s@%s", c.User, c.Password, c.Host)
	}
	return "mongodb://" + c.Host
}

type readOptions struct {
	Conn       `mapstructure:",squash"`
	Query      string `mapstructure:"query"`
	Projection string `mapstructure:"projection"`
}

type writeOptions struct {
	Conn    `mapstructure:",squash"`
	Columns []string `mapstructure:"columns"`
}

// Tree is the `mongodb` connector.
func Tree() registry.Map {
	return registry.Map{
		"read":  registry.Reader{Fn: Read},
		"write": registry.Writer{Fn: Write},
	}
}

func collection(ctx context.Context, c Conn) (*mongo.Collection, func(), error) {
	client, err := mongo.Connect(options.Client().ApplyURI(c.URI()))
	if err != nil {
		return nil, nil, fmt.Errorf("connect mongo: %w", err)
	}
	closeFn := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = client.Disconnect(ctx)
	}
	return client.Database(c.Database).Collection(c.Collection), closeFn, nil
}

// ParseDocument reads an Extended JSON object; empty text is the empty
// document.
func ParseDocument(s string) (bson.D, error) {
	if strings.TrimSpace(s) == "" {
		return bson.D{}, nil
	}
	var doc bson.D
	if err := bson.UnmarshalExtJSON([]byte(s), false, &doc); err != nil {
		return nil, w.Configf("invalid mongodb document %q: %s", s, err)
	}
	return doc, nil
}

// Read runs a find with `query` and `projection`.
func Read(ctx context.Context, p registry.Params) (*w.Frame, error) {
	var opts readOptions
	if err := p.Decode(&opts); err != nil {
		return nil, err
	}
	filter, err := ParseDocument(opts.Query)
	if err != nil {
		return nil, err
	}
	findOpts := options.Find()
	if opts.Projection != "" {
		proj, err := ParseDocument(opts.Projection)
		if err != nil {
			return nil, err
		}
		findOpts.SetProjection(proj)
	}

	coll, closeFn, err := collection(ctx, opts.Conn)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	cursor, err := coll.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("find: %w", err)
	}
	defer cursor.Close(ctx)

	f := w.NewFrame()
	for cursor.Next(ctx) {
		var doc bson.D
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode: %w", err)
		}
		AppendDocument(f, doc)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	zerolog.Ctx(ctx).Debug().Str("collection", opts.Collection).Int("rows", f.Rows()).Msg("documents read")
	return f, nil
}

// AppendDocument adds doc as a row, keeping its field order for new
// columns.
func AppendDocument(f *w.Frame, doc bson.D) {
	for _, e := range doc {
		if !f.Has(e.Key) {
			f.Fill(e.Key, nil)
		}
	}
	rec := make(map[string]any, len(doc))
	for _, e := range doc {
		rec[e.Key] = cell(e.Value)
	}
	f.AppendRow(rec)
}

func cell(v any) any {
	switch t := v.(type) {
	case int32:
		return int64(t)
	case bson.ObjectID:
		return t.Hex()
	case bson.DateTime:
		return t.Time().UTC()
	case bson.D:
		m := make(map[string]any, len(t))
		for _, e := range t {
			m[e.Key] = cell(e.Value)
		}
		return m
	case bson.A:
		out := make([]any, len(t))
		for i, x := range t {
			out[i] = cell(x)
		}
		return out
	case bson.Decimal128:
		return t.String()
	case bson.Null, bson.Undefined:
		return nil
	}
	return v
}

// Document turns row r into a document with columns in table order.
func Document(f *w.Frame, r int) bson.D {
	cols := f.Columns()
	doc := make(bson.D, 0, len(cols))
	for _, c := range cols {
		doc = append(doc, bson.E{Key: c, Value: f.Cell(r, c)})
	}
	return doc
}

// Write inserts each row as a document.
func Write(ctx context.Context, f *w.Frame, p registry.Params) error {
	var opts writeOptions
	if err := p.Decode(&opts); err != nil {
		return err
	}
	out, err := file.Columns(f, opts.Columns)
	if err != nil {
		return err
	}
	if out.Rows() == 0 {
		return nil
	}
	docs := make([]any, out.Rows())
	for r := range docs {
		docs[r] = Document(out, r)
	}

	coll, closeFn, err := collection(ctx, opts.Conn)
	if err != nil {
		return err
	}
	defer closeFn()
	res, err := coll.InsertMany(ctx, docs)
	if err != nil {
		return fmt.Errorf("insertMany: %w", err)
	}
	zerolog.Ctx(ctx).Debug().Str("collection", opts.Collection).Int("inserted", len(res.InsertedIDs)).Msg("documents written")
	return nil
}
