package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rajivgeraev/puzzleswap-api/internal/config"
)

func TestObjectPath(t *testing.T) {
	owner, listing := uuid.New(), uuid.New()

	p := ObjectPath(owner, listing, "box top.jpg")
	parts := strings.Split(p, "/")
	require.Len(t, parts, 3)
	assert.Equal(t, owner.String(), parts[0])
	assert.Equal(t, listing.String(), parts[1])
	assert.True(t, strings.HasSuffix(parts[2], "-box_top.jpg"))

	_, err := uuid.Parse(strings.TrimSuffix(parts[2], "-box_top.jpg"))
	assert.NoError(t, err)

	assert.NotEqual(t, p, ObjectPath(owner, listing, "box top.jpg"))
}

func TestCleanFilename(t *testing.T) {
	cases := map[string]string{
		"photo.png":            "photo.png",
		"../../etc/passwd":     "passwd",
		`C:\Users\me\pic.jpeg`: "pic.jpeg",
		"":                     "photo",
		"a b\tc.jpg":           "a_bc.jpg",
	}
	for in, want := range cases {
		assert.Equal(t, want, cleanFilename(in), in)
	}
}

func TestCloudinaryPublicID(t *testing.T) {
	s := &CloudinaryStore{folder: "puzzle-photos"}
	assert.Equal(t, "puzzle-photos/o/l/x-box", s.publicID("o/l/x-box.jpg"))

	s.folder = ""
	assert.Equal(t, "o/l/x-box", s.publicID("o/l/x-box.jpg"))
}

func TestNew_UnknownDriver(t *testing.T) {
	cfg := &config.Config{StorageConfig: config.StorageConfig{Driver: "ftp"}}
	_, err := New(context.Background(), cfg, zap.NewNop())
	assert.Error(t, err)
}
