package rating

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rajivgeraev/puzzleswap-api/internal/db/memdb"
	"github.com/rajivgeraev/puzzleswap-api/internal/metrics"
	"github.com/rajivgeraev/puzzleswap-api/internal/models"
)

func setup(t *testing.T) (*RatingService, *models.Trade, *models.Identity, *models.Identity) {
	t.Helper()
	store := memdb.New()
	requester := &models.Identity{UserID: uuid.New()}
	responder := &models.Identity{UserID: uuid.New()}

	tr := &models.Trade{
		RequesterID:        requester.UserID,
		ResponderID:        responder.UserID,
		RequestedListingID: uuid.New(),
		OfferedListingID:   uuid.New(),
		Status:             models.StatusPending,
	}
	require.NoError(t, store.InsertTrade(context.Background(), tr))

	return NewRatingService(store, metrics.New(), zap.NewNop()), tr, requester, responder
}

func good() Input {
	return Input{Cleanliness: 5, PuzzleReady: 4, PiecesIncluded: models.PiecesYes, ShipSpeed: 5}
}

func TestSubmit_RateeIsCounterparty(t *testing.T) {
	svc, tr, requester, responder := setup(t)
	ctx := context.Background()

	r, err := svc.Submit(ctx, requester, tr.ID, good())
	require.NoError(t, err)
	assert.Equal(t, responder.UserID, r.RateeID)
	assert.Nil(t, r.Comment)

	in := good()
	in.Comment = "  Bagged by color, lovely  "
	r, err = svc.Submit(ctx, responder, tr.ID, in)
	require.NoError(t, err)
	assert.Equal(t, requester.UserID, r.RateeID)
	assert.Equal(t, "Bagged by color, lovely", *r.Comment)
}

func TestSubmit_StatusNotChecked(t *testing.T) {
	svc, tr, requester, _ := setup(t)
	require.Equal(t, models.StatusPending, tr.Status)

	_, err := svc.Submit(context.Background(), requester, tr.ID, good())
	assert.NoError(t, err)
}

func TestSubmit_Rejections(t *testing.T) {
	svc, tr, requester, _ := setup(t)
	ctx := context.Background()

	_, err := svc.Submit(ctx, nil, tr.ID, good())
	require.ErrorIs(t, err, ErrNotAuthenticated)
	assert.Equal(t, "Please log in.", err.Error())

	_, err = svc.Submit(ctx, requester, uuid.New(), good())
	require.ErrorIs(t, err, ErrTradeNotFound)
	assert.Equal(t, "Trade not found.", err.Error())

	_, err = svc.Submit(ctx, &models.Identity{UserID: uuid.New()}, tr.ID, good())
	assert.ErrorIs(t, err, ErrNotParty)

	bad := good()
	bad.ShipSpeed = 6
	_, err = svc.Submit(ctx, requester, tr.ID, bad)
	assert.ErrorIs(t, err, ErrInvalidRating)

	bad = good()
	bad.PiecesIncluded = "most"
	_, err = svc.Submit(ctx, requester, tr.ID, bad)
	assert.ErrorIs(t, err, ErrInvalidRating)

	_, err = svc.Submit(ctx, requester, tr.ID, good())
	require.NoError(t, err)
	_, err = svc.Submit(ctx, requester, tr.ID, good())
	assert.ErrorIs(t, err, ErrAlreadyRated)
}

func TestListings(t *testing.T) {
	svc, tr, requester, responder := setup(t)
	ctx := context.Background()

	_, err := svc.Submit(ctx, requester, tr.ID, good())
	require.NoError(t, err)

	forTrade, err := svc.ListForTrade(ctx, responder, tr.ID)
	require.NoError(t, err)
	assert.Len(t, forTrade, 1)

	_, err = svc.ListForTrade(ctx, &models.Identity{UserID: uuid.New()}, tr.ID)
	assert.ErrorIs(t, err, ErrNotParty)

	received, err := svc.ListForUser(ctx, responder.UserID)
	require.NoError(t, err)
	require.Len(t, received, 1)
	assert.Equal(t, requester.UserID, received[0].RaterID)

	none, err := svc.ListForUser(ctx, requester.UserID)
	require.NoError(t, err)
	assert.Empty(t, none)
}
