package listing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rajivgeraev/puzzleswap-api/internal/db/memdb"
	"github.com/rajivgeraev/puzzleswap-api/internal/metrics"
	"github.com/rajivgeraev/puzzleswap-api/internal/middleware"
	"github.com/rajivgeraev/puzzleswap-api/internal/models"
	"github.com/rajivgeraev/puzzleswap-api/internal/session"
	"github.com/rajivgeraev/puzzleswap-api/internal/utils"
)

type mockObjects struct {
	mock.Mock
}

func (m *mockObjects) Upload(ctx context.Context, path string, r io.Reader, size int64, contentType string) (string, error) {
	body, _ := io.ReadAll(r)
	args := m.Called(path, string(body))
	return args.String(0), args.Error(1)
}

func (m *mockObjects) Delete(ctx context.Context, path string) error {
	return m.Called(path).Error(0)
}

func file(name, body string) Upload {
	return Upload{
		Filename:    name,
		ContentType: "image/jpeg",
		Size:        int64(len(body)),
		Open:        func() (io.ReadCloser, error) { return io.NopCloser(strings.NewReader(body)), nil },
	}
}

func newService(t *testing.T) (*ListingService, *memdb.Store, *mockObjects) {
	t.Helper()
	store := memdb.New()
	objects := &mockObjects{}
	return NewListingService(store, objects, metrics.New(), zap.NewNop()), store, objects
}

func caller() *models.Identity {
	return &models.Identity{UserID: uuid.New()}
}

func TestCreate_RequiresCallerAndTitle(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, nil, CreateInput{Title: "Forest"}, nil)
	assert.ErrorIs(t, err, ErrNotAuthenticated)
	assert.Equal(t, "Please log in first.", err.Error())

	_, err = svc.Create(ctx, caller(), CreateInput{Title: "   "}, nil)
	assert.ErrorIs(t, err, ErrTitleRequired)

	_, err = svc.Create(ctx, caller(), CreateInput{Title: "Forest", Pieces: ptr(0)}, nil)
	assert.ErrorIs(t, err, ErrInvalidPieces)
}

func TestCreate_WithoutPhotosHasNoCover(t *testing.T) {
	svc, store, _ := newService(t)
	ctx := context.Background()
	me := caller()

	d, err := svc.Create(ctx, me, CreateInput{Title: "Forest", Brand: "  ", Pieces: ptr(500)}, nil)
	require.NoError(t, err)
	assert.Nil(t, d.Listing.CoverURL)
	assert.Nil(t, d.Listing.Brand)
	assert.Empty(t, d.Photos)

	saved, err := store.GetListing(ctx, d.Listing.ID)
	require.NoError(t, err)
	assert.Equal(t, me.UserID, saved.OwnerID)
	assert.Equal(t, 500, *saved.Pieces)
}

func TestCreate_SkipsFailedUploadsAndUsesFirstSuccessAsCover(t *testing.T) {
	svc, store, objects := newService(t)
	ctx := context.Background()
	me := caller()

	objects.On("Upload", mock.Anything, "a").Return("", errors.New("timeout"))
	objects.On("Upload", mock.Anything, "b").Return("https://cdn/b.jpg", nil)
	objects.On("Upload", mock.Anything, "c").Return("https://cdn/c.jpg", nil)

	d, err := svc.Create(ctx, me, CreateInput{Title: "Forest"},
		[]Upload{file("a.jpg", "a"), file("b.jpg", "b"), file("c.jpg", "c")})
	require.NoError(t, err)

	require.Len(t, d.Photos, 2)
	require.NotNil(t, d.Listing.CoverURL)
	assert.Equal(t, "https://cdn/b.jpg", *d.Listing.CoverURL)

	prefix := me.UserID.String() + "/" + d.Listing.ID.String() + "/"
	for _, p := range d.Photos {
		assert.True(t, strings.HasPrefix(p.Path, prefix), p.Path)
	}

	saved, photos, err := svc.Get(ctx, d.Listing.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn/b.jpg", *saved.CoverURL)
	assert.Equal(t, []string{"https://cdn/b.jpg", "https://cdn/c.jpg"}, []string{photos[0].URL, photos[1].URL})
	assert.Equal(t, []int{0, 1}, []int{photos[0].Position, photos[1].Position})
	assert.Equal(t, *saved.CoverURL, photos[0].URL)

	stored, _ := store.ListPhotos(ctx, d.Listing.ID)
	assert.Len(t, stored, 2)
}

func TestCreate_AllUploadsFail(t *testing.T) {
	svc, _, objects := newService(t)
	objects.On("Upload", mock.Anything, mock.Anything).Return("", errors.New("denied"))

	d, err := svc.Create(context.Background(), caller(), CreateInput{Title: "Forest"},
		[]Upload{file("a.jpg", "a"), file("b.jpg", "b")})
	require.NoError(t, err)
	assert.Nil(t, d.Listing.CoverURL)
	assert.Empty(t, d.Photos)
}

func TestCreate_UploadsAtMostEight(t *testing.T) {
	svc, _, objects := newService(t)
	objects.On("Upload", mock.Anything, mock.Anything).Return("https://cdn/x.jpg", nil)

	var files []Upload
	for i := 0; i < 10; i++ {
		files = append(files, file("p.jpg", "x"))
	}

	d, err := svc.Create(context.Background(), caller(), CreateInput{Title: "Forest"}, files)
	require.NoError(t, err)
	assert.Len(t, d.Photos, models.MaxPhotosPerListing)
	objects.AssertNumberOfCalls(t, "Upload", models.MaxPhotosPerListing)
}

func TestCreate_InsertFailureSkipsUploads(t *testing.T) {
	svc, store, objects := newService(t)
	store.FailOn("InsertListing", errors.New("check constraint"))

	_, err := svc.Create(context.Background(), caller(), CreateInput{Title: "Forest"}, []Upload{file("a.jpg", "a")})
	assert.Error(t, err)
	objects.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything)
}

func TestCreate_TxFailureRemovesUploadedObjects(t *testing.T) {
	svc, store, objects := newService(t)
	ctx := context.Background()
	objects.On("Upload", mock.Anything, "a").Return("https://cdn/a.jpg", nil)
	objects.On("Delete", mock.Anything).Return(nil)
	store.FailOn("commit", errors.New("connection lost"))

	_, err := svc.Create(ctx, caller(), CreateInput{Title: "Forest"}, []Upload{file("a.jpg", "a")})
	assert.Error(t, err)
	objects.AssertNumberOfCalls(t, "Delete", 1)

	all, _ := store.ListListings(ctx)
	assert.Empty(t, all)
}

func TestBrowse_FiltersNewestFirst(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()
	me := caller()

	_, err := svc.Create(ctx, me, CreateInput{Title: "Village", Brand: "Ravensburger", Pieces: ptr(1000)}, nil)
	require.NoError(t, err)
	_, err = svc.Create(ctx, me, CreateInput{Title: "Candy", Brand: "Buffalo", Pieces: ptr(500)}, nil)
	require.NoError(t, err)

	all, err := svc.Browse(ctx, Filter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Candy", "Village"}, titles(all))

	got, err := svc.Browse(ctx, Filter{Pieces: "500"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Candy"}, titles(got))

	got, err = svc.Browse(ctx, Filter{Brand: "raven"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Village"}, titles(got))
}

func TestDetail_CanPropose(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()
	owner, guest, newcomer := caller(), caller(), caller()

	theirs, err := svc.Create(ctx, owner, CreateInput{Title: "Lighthouse"}, nil)
	require.NoError(t, err)
	_, err = svc.Create(ctx, guest, CreateInput{Title: "Cats"}, nil)
	require.NoError(t, err)

	anon, err := svc.Detail(ctx, nil, theirs.Listing.ID)
	require.NoError(t, err)
	assert.False(t, anon.CanPropose)

	asOwner, err := svc.Detail(ctx, owner, theirs.Listing.ID)
	require.NoError(t, err)
	assert.True(t, asOwner.IsOwner)
	assert.False(t, asOwner.CanPropose)

	asGuest, err := svc.Detail(ctx, guest, theirs.Listing.ID)
	require.NoError(t, err)
	assert.True(t, asGuest.CanPropose)
	assert.Equal(t, []string{"Cats"}, titles(asGuest.Offerable))

	empty, err := svc.Detail(ctx, newcomer, theirs.Listing.ID)
	require.NoError(t, err)
	assert.False(t, empty.CanPropose)
	assert.Empty(t, empty.Offerable)

	_, err = svc.Detail(ctx, guest, uuid.New())
	assert.ErrorIs(t, err, ErrListingNotFound)
}

func TestDelete_OwnerOnly(t *testing.T) {
	svc, store, objects := newService(t)
	ctx := context.Background()
	owner := caller()
	objects.On("Upload", mock.Anything, mock.Anything).Return("https://cdn/a.jpg", nil)
	objects.On("Delete", mock.Anything).Return(nil)

	d, err := svc.Create(ctx, owner, CreateInput{Title: "Forest"}, []Upload{file("a.jpg", "a")})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, caller(), d.Listing.ID), ErrNotOwner)
	assert.ErrorIs(t, svc.Delete(ctx, nil, d.Listing.ID), ErrNotAuthenticated)

	require.NoError(t, svc.Delete(ctx, owner, d.Listing.ID))
	objects.AssertCalled(t, "Delete", d.Photos[0].Path)

	photos, _ := store.ListPhotos(ctx, d.Listing.ID)
	assert.Empty(t, photos)
	assert.ErrorIs(t, svc.Delete(ctx, owner, d.Listing.ID), ErrListingNotFound)
}

func TestHandlers_CreateBrowseDelete(t *testing.T) {
	svc, _, objects := newService(t)
	objects.On("Upload", mock.Anything, "box").Return("https://cdn/box.jpg", nil)
	objects.On("Delete", mock.Anything).Return(nil)

	jwtService := utils.NewJWTService("secret", time.Hour)
	app := fiber.New()
	svc.SetupRoutes(app, middleware.NewAuth(jwtService, session.NewMemoryRevoker(), zap.NewNop()))

	token, _, err := jwtService.GenerateToken(uuid.New(), "")
	require.NoError(t, err)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("title", "Harbor at Dusk"))
	require.NoError(t, w.WriteField("brand", "Ravensburger"))
	require.NoError(t, w.WriteField("pieces", "1000"))
	part, err := w.CreateFormFile("photos", "box.jpg")
	require.NoError(t, err)
	_, _ = part.Write([]byte("box"))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/listings", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var created Detail
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	assert.Equal(t, "https://cdn/box.jpg", *created.Listing.CoverURL)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/listings?brand=raven&pieces=1000", nil))
	require.NoError(t, err)
	var browse struct {
		Listings []models.Listing `json:"listings"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&browse))
	require.Len(t, browse.Listings, 1)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/listings?pieces=500", nil))
	require.NoError(t, err)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&browse))
	assert.Empty(t, browse.Listings)

	// без токена создать нельзя
	anon := httptest.NewRequest(http.MethodPost, "/api/listings", strings.NewReader("title=x"))
	anon.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err = app.Test(anon)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	del := httptest.NewRequest(http.MethodDelete, "/api/listings/"+created.Listing.ID.String(), nil)
	del.Header.Set("Authorization", "Bearer "+token)
	resp, err = app.Test(del)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/listings/"+created.Listing.ID.String(), nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
