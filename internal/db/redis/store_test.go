package redis

import (
	"context"
	"errors"
	"testing"

	"github.com/redis/rueidis/mock"
	"go.uber.org/mock/gomock"

	"github.com/kailas-cloud/docindex/internal/db"
)

// --- store.go tests ---

func TestPing_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.Result(mock.RedisString("PONG")))

	s := NewStoreForTest(c)
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPing_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreForTest(c)
	if err := s.Ping(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestGet_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("GET", "missing")).
		Return(mock.Result(mock.RedisNil()))

	s := NewStoreForTest(c)
	_, err := s.Get(context.Background(), "missing")
	if !errors.Is(err, db.ErrKeyNotFound) {
		t.Errorf("err = %v, want ErrKeyNotFound", err)
	}
}

func TestSet_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("SET", "blob:raw-input/test.txt", "content")).
		Return(mock.Result(mock.RedisString("OK")))

	s := NewStoreForTest(c)
	if err := s.Set(context.Background(), "blob:raw-input/test.txt", []byte("content")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestHSet_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "HSET"
		})).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreForTest(c)
	err := s.HSet(context.Background(), "mykey", map[string]string{"f": "v"})
	if err == nil {
		t.Fatal("expected error")
	}
	var dbErr *db.Error
	if !errors.As(err, &dbErr) || dbErr.Op != db.OpHSet {
		t.Errorf("expected db.Error with op HSET, got %v", err)
	}
}

func TestJSONGet_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("JSON.GET", "doc:missing", "$")).
		Return(mock.Result(mock.RedisNil()))

	s := NewStoreForTest(c)
	_, err := s.JSONGet(context.Background(), "doc:missing", "$")
	if !errors.Is(err, db.ErrKeyNotFound) {
		t.Errorf("err = %v, want ErrKeyNotFound", err)
	}
}

// --- index.go tests ---

func TestCreateIndex_AlreadyExists(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "FT.CREATE"
		})).
		Return(mock.Result(mock.RedisError("Index already exists")))

	s := NewStoreForTest(c)
	err := s.CreateIndex(context.Background(), minimalIndexDef())
	if !errors.Is(err, db.ErrIndexExists) {
		t.Errorf("expected ErrIndexExists, got %v", err)
	}
}

func TestIndexExists_False(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("FT.INFO", "documents-index")).
		Return(mock.Result(mock.RedisError("Unknown Index name")))

	s := NewStoreForTest(c)
	ok, err := s.IndexExists(context.Background(), "documents-index")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected index to be absent")
	}
}

func TestIndexExists_True(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("FT.INFO", "documents-index")).
		Return(mock.Result(mock.RedisArray(mock.RedisString("index_name"), mock.RedisString("documents-index"))))

	s := NewStoreForTest(c)
	ok, err := s.IndexExists(context.Background(), "documents-index")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Error("expected index to exist")
	}
}

func minimalIndexDef() *db.IndexDefinition {
	return &db.IndexDefinition{
		Name:        "documents-index",
		StorageType: db.StorageHash,
		Prefixes:    []string{"doc:"},
		Fields: []db.IndexField{
			{Name: "title", Type: db.IndexFieldText},
			{Name: "vector", Type: db.IndexFieldVector, VectorDim: 4},
		},
	}
}

func TestBuildCreateArgs(t *testing.T) {
	def := &db.IndexDefinition{
		Name:        "documents-index",
		StorageType: db.StorageHash,
		Prefixes:    []string{"idx:doc:"},
		Fields: []db.IndexField{
			{Name: "docId", Type: db.IndexFieldTag},
			{Name: "title", Type: db.IndexFieldText},
			{Name: "tags", Type: db.IndexFieldTag, TagSeparator: ","},
			{
				Name: "vector", Type: db.IndexFieldVector,
				VectorDim: 1536, VectorDistance: db.DistanceCosine,
				VectorM: 32, VectorEFConstruct: 400,
			},
		},
	}

	args, err := buildCreateArgs(def)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{
		"documents-index", "ON", "HASH", "PREFIX", "1", "idx:doc:", "SCHEMA",
		"docId", "TAG",
		"title", "TEXT",
		"tags", "TAG", "SEPARATOR", ",",
		"vector", "VECTOR", "HNSW", "10",
		"TYPE", "FLOAT32", "DIM", "1536", "DISTANCE_METRIC", "COSINE",
		"M", "32", "EF_CONSTRUCTION", "400",
	}
	if len(args) != len(want) {
		t.Fatalf("args length = %d, want %d\ngot: %v", len(args), len(want), args)
	}
	for i := range want {
		if args[i] != want[i] {
			t.Errorf("args[%d] = %q, want %q", i, args[i], want[i])
		}
	}
}

func TestBuildCreateArgs_Invalid(t *testing.T) {
	_, err := buildCreateArgs(&db.IndexDefinition{Name: ""})
	if err == nil {
		t.Fatal("expected error for missing name")
	}

	_, err = buildCreateArgs(&db.IndexDefinition{
		Name:   "x",
		Fields: []db.IndexField{{Name: "v", Type: db.IndexFieldVector}},
	})
	if err == nil {
		t.Fatal("expected error for vector field without DIM")
	}
}

// --- search.go tests ---

func TestSearchKNN_ParsesEntriesInOrder(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	reply := mock.RedisArray(
		mock.RedisInt64(2),
		mock.RedisString("idx:doc:raw-input/a.txt"),
		mock.RedisArray(
			mock.RedisString("title"), mock.RedisString("Doc A"),
			mock.RedisString("__vector_score"), mock.RedisString("0.1"),
		),
		mock.RedisString("idx:doc:raw-input/b.txt"),
		mock.RedisArray(
			mock.RedisString("title"), mock.RedisString("Doc B"),
			mock.RedisString("__vector_score"), mock.RedisString("0.4"),
		),
	)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "FT.SEARCH" && cmd[1] == "documents-index"
		})).
		Return(mock.Result(reply))

	s := NewStoreForTest(c)
	res, err := s.SearchKNN(context.Background(), &db.KNNQuery{
		IndexName:    "documents-index",
		Vector:       []float32{0.1, 0.2, 0.3},
		K:            5,
		ReturnFields: []string{"title"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Total != 2 || len(res.Entries) != 2 {
		t.Fatalf("got total=%d entries=%d", res.Total, len(res.Entries))
	}
	first := res.Entries[0]
	if first.Key != "idx:doc:raw-input/a.txt" {
		t.Errorf("first key = %q", first.Key)
	}
	if first.Fields["title"] != "Doc A" {
		t.Errorf("first title = %q", first.Fields["title"])
	}
	// distance 0.1 -> similarity 0.9
	if first.Score < 0.89 || first.Score > 0.91 {
		t.Errorf("first score = %f, want ~0.9", first.Score)
	}
	if res.Entries[1].Score >= first.Score {
		t.Error("entries should be in descending similarity order")
	}
	if _, ok := first.Fields["__vector_score"]; ok {
		t.Error("__vector_score should be stripped from fields")
	}
}

func TestSearchKNN_EmptyResult(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "FT.SEARCH"
		})).
		Return(mock.Result(mock.RedisArray(mock.RedisInt64(0))))

	s := NewStoreForTest(c)
	res, err := s.SearchKNN(context.Background(), &db.KNNQuery{
		IndexName: "documents-index",
		Vector:    []float32{0.1},
		K:         5,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Total != 0 || len(res.Entries) != 0 {
		t.Errorf("expected empty result, got %+v", res)
	}
}

func TestSearchKNN_InvalidInput(t *testing.T) {
	s := NewStoreForTest(nil)

	if _, err := s.SearchKNN(context.Background(), &db.KNNQuery{Vector: []float32{1}, K: 5}); err == nil {
		t.Error("expected error for missing index name")
	}
	if _, err := s.SearchKNN(context.Background(), &db.KNNQuery{IndexName: "i", K: 5}); err == nil {
		t.Error("expected error for missing vector")
	}
	if _, err := s.SearchKNN(context.Background(), &db.KNNQuery{IndexName: "i", Vector: []float32{1}}); err == nil {
		t.Error("expected error for non-positive k")
	}
}

func TestVectorToBytes_RoundTrip(t *testing.T) {
	v := []float32{0.1, -2.5, 3.75}
	b := []byte(vectorToBytes(v))
	if len(b) != 12 {
		t.Fatalf("len = %d, want 12", len(b))
	}
}
