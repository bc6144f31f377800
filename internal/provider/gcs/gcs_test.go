package gcs

import (
	"context"
	"io"
	"sort"
	"strings"
	"testing"

	"github.com/cshum/drive-sync/providerapi"
	"github.com/fsouza/fake-gcs-server/fakestorage"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/suite"
)

const bucket = "drivesync-test"

type Objects []fakestorage.Object

func object(name, content string) fakestorage.Object {
	return fakestorage.Object{
		ObjectAttrs: fakestorage.ObjectAttrs{
			BucketName:  bucket,
			Name:        name,
			ContentType: "text/plain",
		},
		Content: []byte(content),
	}
}

type gcsTestSuite struct {
	suite.Suite
	server *fakestorage.Server
	gcs    *GCS
}

func (s *gcsTestSuite) SetupTest() {
	s.server = fakestorage.NewServer(Objects{
		object("readme.txt", "hello"),
		object("docs/", ""),
		object("docs/a.txt", "aaa"),
		object("docs/img/b.png", "bbb"),
	})
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	s.gcs = NewWithClient(s.server.Client(), bucket, logger)
}

func (s *gcsTestSuite) TearDownTest() {
	s.server.Stop()
}

func (s *gcsTestSuite) names(parentID string) []string {
	nodes, err := s.gcs.ListChildren(context.Background(), parentID)
	s.Require().NoError(err)
	var names []string
	for _, n := range nodes {
		names = append(names, n.Name+":"+n.Kind.String())
	}
	sort.Strings(names)
	return names
}

func (s *gcsTestSuite) TestListRoot() {
	s.Equal([]string{"docs:Folder", "readme.txt:File"}, s.names(providerapi.RootID))
}

func (s *gcsTestSuite) TestListFolderSkipsPlaceholder() {
	nodes, err := s.gcs.ListChildren(context.Background(), "docs/")
	s.Require().NoError(err)
	s.Len(nodes, 2)
	byName := map[string]providerapi.Node{}
	for _, n := range nodes {
		byName[n.Name] = n
	}
	s.Equal("docs/a.txt", byName["a.txt"].ID)
	s.Equal(int64(3), byName["a.txt"].Size)
	s.Equal("docs/img/", byName["img"].ID)
	s.True(byName["img"].IsFolder())
}

func (s *gcsTestSuite) TestDownload() {
	r, err := s.gcs.Download(context.Background(), "docs/a.txt")
	s.Require().NoError(err)
	defer r.Close()
	data, err := io.ReadAll(r)
	s.Require().NoError(err)
	s.Equal("aaa", string(data))

	_, err = s.gcs.Download(context.Background(), "docs/")
	s.Error(err)
}

func (s *gcsTestSuite) TestCreate() {
	ctx := context.Background()
	id, err := s.gcs.Create(ctx, "new", "docs/", providerapi.KindFolder, nil)
	s.Require().NoError(err)
	s.Equal("docs/new/", id)

	fileID, err := s.gcs.Create(ctx, "c.txt", id, providerapi.KindFile, strings.NewReader("ccc"))
	s.Require().NoError(err)
	s.Equal("docs/new/c.txt", fileID)

	s.Equal([]string{"c.txt:File"}, s.names(id))
	s.Contains(s.names("docs/"), "new:Folder")

	_, err = s.gcs.Create(ctx, "a/b", "", providerapi.KindFile, strings.NewReader(""))
	s.Error(err)
}

func (s *gcsTestSuite) TestDeleteFile() {
	s.Require().NoError(s.gcs.Delete(context.Background(), "readme.txt"))
	s.Equal([]string{"docs:Folder"}, s.names(providerapi.RootID))
}

func (s *gcsTestSuite) TestDeleteFolderRemovesTree() {
	s.Require().NoError(s.gcs.Delete(context.Background(), "docs/"))
	s.Equal([]string{"readme.txt:File"}, s.names(providerapi.RootID))
	s.Error(s.gcs.Delete(context.Background(), providerapi.RootID))
}

func TestGCS(t *testing.T) {
	suite.Run(t, new(gcsTestSuite))
}
