package mongodb

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/address"
	"go.mongodb.org/mongo-driver/mongo/description"

	"github.com/magabrotheeeer/techblog/internal/storage"
)

func TestPostFilter(t *testing.T) {
	assert.Equal(t, bson.D{}, postFilter(storage.PostFilter{}))

	f := postFilter(storage.PostFilter{Status: "published", Category: "Go", Query: "c++"})
	require.Len(t, f, 3)
	assert.Equal(t, bson.E{Key: "status", Value: "published"}, f[0])
	assert.Equal(t, bson.E{Key: "category", Value: "Go"}, f[1])
	assert.Equal(t, "$or", f[2].Key)

	or, ok := f[2].Value.(bson.A)
	require.True(t, ok)
	require.Len(t, or, 3)
	assert.Equal(t, bson.D{{Key: "title", Value: primitive.Regex{Pattern: `c\+\+`, Options: "i"}}}, or[0])
}

func TestSearchPipeline(t *testing.T) {
	p := searchPipeline(storage.PostFilter{Query: "go"}, storage.ListOptions{Limit: 5, Offset: 10})
	require.Len(t, p, 6)

	stages := make([]string, 0, len(p))
	for _, stage := range p {
		d, ok := stage.(bson.D)
		require.True(t, ok)
		stages = append(stages, d[0].Key)
	}
	assert.Equal(t, []string{"$match", "$addFields", "$sort", "$skip", "$limit", "$project"}, stages)

	sort := p[2].(bson.D)[0].Value.(bson.D)
	assert.Equal(t, "titleMatch", sort[0].Key)
	assert.Equal(t, canonicalSort, sort[1:])
}

func TestSearchPipeline_NoPagination(t *testing.T) {
	p := searchPipeline(storage.PostFilter{Query: "go"}, storage.ListOptions{})
	assert.Len(t, p, 4)
}

func TestDatabaseName(t *testing.T) {
	assert.Equal(t, "custom", databaseName(Config{URI: "mongodb://localhost/blog", Database: "custom"}))
	assert.Equal(t, "blog", databaseName(Config{URI: "mongodb://localhost:27017/blog"}))
	assert.Equal(t, DefaultDatabase, databaseName(Config{URI: "mongodb://localhost:27017"}))
}

func TestWrapErr(t *testing.T) {
	assert.ErrorIs(t, wrapErr("op", mongo.ErrNoDocuments), storage.ErrNotFound)

	dup := mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000, Message: "E11000 duplicate key"}}}
	assert.ErrorIs(t, wrapErr("op", dup), storage.ErrConflict)

	assert.NotErrorIs(t, wrapErr("op", context.Canceled), storage.ErrUnavailable)
	assert.ErrorIs(t, wrapErr("op", mongo.ErrClientDisconnected), storage.ErrUnavailable)
	assert.NoError(t, wrapErr("op", nil))
}

type recordingListener struct {
	disconnects int
	reconnects  int
}

func (l *recordingListener) Disconnected(error) { l.disconnects++ }
func (l *recordingListener) Reconnected()       { l.reconnects++ }

func replicaSet(servers ...description.Server) description.Topology {
	return description.Topology{Kind: description.ReplicaSetWithPrimary, Servers: servers}
}

func server(addr string, kind description.ServerKind, err error) description.Server {
	return description.Server{Addr: address.Address(addr), Kind: kind, LastError: err}
}

func newObservedStorage(l *recordingListener) *Storage {
	s := &Storage{
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		listener: l,
		changed:  make(chan struct{}, 1),
	}
	s.ready.Store(true)
	s.reported = true
	return s
}

func TestObserve_IgnoredBeforeStart(t *testing.T) {
	l := &recordingListener{}
	s := newObservedStorage(l)

	s.observe(replicaSet(server("a:27017", description.Unknown, errors.New("down"))))
	s.dispatch()
	assert.True(t, s.Ready())
	assert.Zero(t, l.disconnects)
}

func TestObserve_SecondaryFailureKeepsPrimary(t *testing.T) {
	l := &recordingListener{}
	s := newObservedStorage(l)
	s.started.Store(true)

	downErr := errors.New("connection refused")
	for range 3 {
		s.observe(replicaSet(
			server("a:27017", description.RSPrimary, nil),
			server("b:27017", description.RSSecondary, nil),
			server("c:27017", description.RSSecondary, nil),
		))
		s.dispatch()
		s.observe(replicaSet(
			server("a:27017", description.RSPrimary, nil),
			server("b:27017", description.RSSecondary, nil),
			server("c:27017", description.Unknown, downErr),
		))
		s.dispatch()
	}

	assert.True(t, s.Ready())
	assert.Zero(t, l.disconnects)
	assert.Zero(t, l.reconnects)
}

func TestObserve_PrimaryLossAndRecovery(t *testing.T) {
	l := &recordingListener{}
	s := newObservedStorage(l)
	s.started.Store(true)

	noPrimary := replicaSet(
		server("a:27017", description.Unknown, errors.New("connection refused")),
		server("b:27017", description.RSSecondary, nil),
	)
	s.observe(noPrimary)
	s.dispatch()
	s.observe(noPrimary)
	s.dispatch()
	assert.False(t, s.Ready())
	assert.Equal(t, 1, l.disconnects)

	s.observe(replicaSet(
		server("a:27017", description.Unknown, errors.New("connection refused")),
		server("b:27017", description.RSPrimary, nil),
	))
	s.dispatch()
	assert.True(t, s.Ready())
	assert.Equal(t, 1, l.disconnects)
	assert.Equal(t, 1, l.reconnects)
}

func TestWritable(t *testing.T) {
	ok, err := writable(description.Topology{Servers: []description.Server{server("a:27017", description.Standalone, nil)}})
	assert.True(t, ok)
	assert.NoError(t, err)

	ok, err = writable(description.Topology{Servers: []description.Server{server("m:27017", description.Mongos, nil)}})
	assert.True(t, ok)
	assert.NoError(t, err)

	ok, err = writable(replicaSet(server("a:27017", description.Unknown, errors.New("refused"))))
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrNoWritableServer)
	assert.Contains(t, err.Error(), "a:27017")

	ok, err = writable(description.Topology{})
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrNoWritableServer)
}
