package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/clubhouse/internal/storage/document"
)

type BucketSuite struct {
	suite.Suite
	bucket *Bucket
	ctx    context.Context
}

func TestBucketSuite(t *testing.T) {
	suite.Run(t, new(BucketSuite))
}

func (s *BucketSuite) SetupTest() {
	s.bucket = New()
	s.ctx = context.Background()
}

func (s *BucketSuite) TestCreateAndRead() {
	rev, err := s.bucket.Create(s.ctx, "app::club::1", []byte(`{"a":1}`))
	s.Require().NoError(err)
	s.NotZero(rev)

	doc, got, err := s.bucket.Read(s.ctx, "app::club::1")
	s.Require().NoError(err)
	s.Equal(rev, got)
	s.JSONEq(`{"a":1}`, string(doc))
}

func (s *BucketSuite) TestCreateExisting() {
	_, err := s.bucket.Create(s.ctx, "k", []byte("1"))
	s.Require().NoError(err)

	_, err = s.bucket.Create(s.ctx, "k", []byte("2"))
	s.ErrorIs(err, document.ErrKeyExists)
}

func (s *BucketSuite) TestReadMissing() {
	_, _, err := s.bucket.Read(s.ctx, "missing")
	s.ErrorIs(err, document.ErrKeyNotFound)
}

func (s *BucketSuite) TestReplaceChecksRevision() {
	rev, err := s.bucket.Create(s.ctx, "k", []byte("1"))
	s.Require().NoError(err)

	next, err := s.bucket.Replace(s.ctx, "k", []byte("2"), rev)
	s.Require().NoError(err)
	s.Greater(next, rev)

	_, err = s.bucket.Replace(s.ctx, "k", []byte("3"), rev)
	s.ErrorIs(err, document.ErrRevisionMismatch)

	doc, _, err := s.bucket.Read(s.ctx, "k")
	s.Require().NoError(err)
	s.Equal("2", string(doc))
}

func (s *BucketSuite) TestReplaceMissing() {
	_, err := s.bucket.Replace(s.ctx, "k", []byte("1"), 1)
	s.ErrorIs(err, document.ErrKeyNotFound)
}

func (s *BucketSuite) TestRemove() {
	rev, err := s.bucket.Create(s.ctx, "k", []byte("1"))
	s.Require().NoError(err)

	s.ErrorIs(s.bucket.Remove(s.ctx, "k", rev+1), document.ErrRevisionMismatch)
	s.Require().NoError(s.bucket.Remove(s.ctx, "k", rev))
	s.ErrorIs(s.bucket.Remove(s.ctx, "k", rev), document.ErrKeyNotFound)
}

func (s *BucketSuite) TestKeysAndReadMany() {
	for _, k := range []string{"app::player::b", "app::player::a", "app::club::c"} {
		_, err := s.bucket.Create(s.ctx, k, []byte(k))
		s.Require().NoError(err)
	}

	keys, err := s.bucket.Keys(s.ctx, "app::player::")
	s.Require().NoError(err)
	s.Equal([]string{"app::player::a", "app::player::b"}, keys)

	docs, err := s.bucket.ReadMany(s.ctx, []string{"app::player::a", "gone"})
	s.Require().NoError(err)
	s.Equal("app::player::a", string(docs[0]))
	s.Nil(docs[1])
}

func (s *BucketSuite) TestReadReturnsCopy() {
	_, err := s.bucket.Create(s.ctx, "k", []byte("abc"))
	s.Require().NoError(err)

	doc, _, err := s.bucket.Read(s.ctx, "k")
	s.Require().NoError(err)
	doc[0] = 'z'

	again, _, err := s.bucket.Read(s.ctx, "k")
	s.Require().NoError(err)
	s.Equal("abc", string(again))
}

func (s *BucketSuite) TestClosedAndCancelled() {
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()
	s.ErrorIs(s.bucket.Ping(ctx), document.ErrUnavailable)
	s.ErrorIs(s.bucket.Ping(ctx), context.Canceled)

	s.Require().NoError(s.bucket.Close())
	_, _, err := s.bucket.Read(s.ctx, "k")
	s.ErrorIs(err, document.ErrUnavailable)
}
