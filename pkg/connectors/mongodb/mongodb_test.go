package mongodb

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	w "github.com/admariner/wrangles/pkg/wrangles"
)

func TestParseDocument(t *testing.T) {
	doc, err := ParseDocument(`{"qty": {"$gt": 5}, "name": "bolt"}`)
	require.NoError(t, err)
	require.Len(t, doc, 2)
	require.Equal(t, "qty", doc[0].Key)

	doc, err = ParseDocument("")
	require.NoError(t, err)
	require.Empty(t, doc)

	_, err = ParseDocument("{nope")
	require.True(t, w.IsConfiguration(err))
}

func TestAppendDocument(t *testing.T) {
	id := bson.NewObjectID()
	when := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	f := w.NewFrame()
	AppendDocument(f, bson.D{{Key: "_id", Value: id}, {Key: "name", Value: "bolt"}})
	AppendDocument(f, bson.D{
		{Key: "name", Value: "nut"},
		{Key: "sizes", Value: bson.A{int32(1), int32(2)}},
		{Key: "at", Value: bson.NewDateTimeFromTime(when)},
	})
	require.Equal(t, []string{"_id", "name", "sizes", "at"}, f.Columns())
	require.Equal(t, id.Hex(), f.Cell(0, "_id"))
	require.Nil(t, f.Cell(0, "sizes"))
	require.Equal(t, []any{int64(1), int64(2)}, f.Cell(1, "sizes"))
	require.True(t, when.Equal(f.Cell(1, "at").(time.Time)))
}

func TestDocumentAndURI(t *testing.T) {
	f, err := w.FromColumns([]string{"b", "a"}, [][]any{{1}, {"x"}})
	require.NoError(t, err)
	doc := Document(f, 0)
	require.Equal(t, "b", doc[0].Key)
	require.Equal(t, int64(1), doc[0].Value)

	require.Equal(t, "mongodb://localhost:27017", Conn{Host: "localhost:27017"}.URI())
	require.Equal(t, "mongodb+srv://u:p@cluster.example.net", Conn{Host: "cluster.example.net", User: "u", Password: "p"}.URI())
	require.Equal(t, "mongodb://u:p@h", Conn{Host: "mongodb://u:<password>@h", Password: "p"}.URI())
}
