package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mwkdckd93-sudo/maz/internal/domain/auction"
	"github.com/mwkdckd93-sudo/maz/internal/domain/shared"
	"github.com/mwkdckd93-sudo/maz/internal/ports/inbound"
	"github.com/mwkdckd93-sudo/maz/internal/ports/outbound"
	"github.com/mwkdckd93-sudo/maz/internal/ports/outbound/mocks"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/sourcegraph/conc"
	"github.com/stretchr/testify/require"
)

func TestCreateAuction_Validation(t *testing.T) {
	env := newTestEnv(t)
	seller := env.newUser(t, "seller")
	now := env.clock.Now()

	valid := inbound.CreateAuctionRequest{
		SellerID:        seller,
		Title:           "Bike",
		StartingPrice:   decimal.NewFromInt(100),
		MinBidIncrement: decimal.NewFromInt(5),
		EndTime:         now.Add(time.Hour),
	}

	tests := []struct {
		name    string
		mutate  func(req *inbound.CreateAuctionRequest)
		wantErr error
	}{
		{"blank title", func(req *inbound.CreateAuctionRequest) { req.Title = "  " }, shared.ErrTitleRequired},
		{"zero starting price", func(req *inbound.CreateAuctionRequest) { req.StartingPrice = decimal.Zero }, shared.ErrInvalidStartingPrice},
		{"negative increment", func(req *inbound.CreateAuctionRequest) { req.MinBidIncrement = decimal.NewFromInt(-1) }, shared.ErrInvalidIncrement},
		{"sub-cent increment", func(req *inbound.CreateAuctionRequest) { req.MinBidIncrement = decimal.RequireFromString("0.001") }, shared.ErrInvalidIncrement},
		{"sub-cent starting price", func(req *inbound.CreateAuctionRequest) { req.StartingPrice = decimal.RequireFromString("100.005") }, shared.ErrInvalidStartingPrice},
		{"sub-cent buy now", func(req *inbound.CreateAuctionRequest) {
			buyNow := decimal.RequireFromString("500.125")
			req.BuyNowPrice = &buyNow
		}, shared.ErrInvalidAmount},
		{"end in the past", func(req *inbound.CreateAuctionRequest) { req.EndTime = now.Add(-time.Minute) }, shared.ErrInvalidEndTime},
		{"end before start", func(req *inbound.CreateAuctionRequest) {
			req.StartTime = now.Add(2 * time.Hour)
		}, shared.ErrInvalidEndTime},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)
			_, err := env.auctions.CreateAuction(context.Background(), req)
			require.ErrorIs(t, err, tt.wantErr)
			require.Equal(t, tt.wantErr.Error(), err.Error())
		})
	}

	trailingZeros := valid
	trailingZeros.MinBidIncrement = decimal.RequireFromString("5.000")
	_, err := env.auctions.CreateAuction(context.Background(), trailingZeros)
	require.NoError(t, err)

	a, err := env.auctions.CreateAuction(context.Background(), valid)
	require.NoError(t, err)
	require.Equal(t, auction.StatusActive, a.Status)
	require.True(t, a.CurrentPrice.Equal(a.StartingPrice))
	require.Equal(t, now, a.StartTime)
	require.Zero(t, a.BidCount)
}

func TestAuctionLifecycle_Transitions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seller := env.newUser(t, "seller")
	stranger := env.newUser(t, "stranger")

	draft, err := env.auctions.CreateAuction(ctx, inbound.CreateAuctionRequest{
		SellerID:        seller,
		Title:           "Lamp",
		StartingPrice:   decimal.NewFromInt(50),
		MinBidIncrement: decimal.NewFromInt(5),
		EndTime:         env.clock.Now().Add(time.Hour),
		Draft:           true,
	})
	require.NoError(t, err)
	require.Equal(t, auction.StatusDraft, draft.Status)

	_, err = env.auctions.ApproveAuction(ctx, draft.ID)
	require.ErrorIs(t, err, shared.ErrInvalidTransition)

	_, err = env.auctions.SubmitAuction(ctx, draft.ID, stranger)
	require.ErrorIs(t, err, shared.ErrNotSeller)

	pending, err := env.auctions.SubmitAuction(ctx, draft.ID, seller)
	require.NoError(t, err)
	require.Equal(t, auction.StatusPending, pending.Status)

	active, err := env.auctions.ApproveAuction(ctx, draft.ID)
	require.NoError(t, err)
	require.Equal(t, auction.StatusActive, active.Status)

	bidder := env.newUser(t, "bidder")
	_, err = env.placeBid(bidder, draft.ID, 60)
	require.NoError(t, err)

	_, err = env.auctions.CancelAuction(ctx, draft.ID, seller)
	require.ErrorIs(t, err, shared.ErrInvalidTransition)

	stored, err := env.auctions.GetAuction(ctx, draft.ID)
	require.NoError(t, err)
	require.Equal(t, auction.StatusActive, stored.Status)
}

func TestApproveAuction_RejectsExpired(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seller := env.newUser(t, "seller")

	draft, err := env.auctions.CreateAuction(ctx, inbound.CreateAuctionRequest{
		SellerID:        seller,
		Title:           "Lamp",
		StartingPrice:   decimal.NewFromInt(50),
		MinBidIncrement: decimal.NewFromInt(5),
		EndTime:         env.clock.Now().Add(time.Hour),
		Draft:           true,
	})
	require.NoError(t, err)
	_, err = env.auctions.SubmitAuction(ctx, draft.ID, seller)
	require.NoError(t, err)

	env.clock.Advance(2 * time.Hour)
	_, err = env.auctions.ApproveAuction(ctx, draft.ID)
	require.ErrorIs(t, err, shared.ErrInvalidEndTime)
}

func TestListAuctions_FiltersAndRejectsUnknownStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seller := env.newUser(t, "seller")
	other := env.newUser(t, "other")

	env.newAuction(t, seller, time.Hour)
	env.newAuction(t, seller, time.Hour)
	env.newAuction(t, other, time.Hour)

	mine, err := env.auctions.ListAuctions(ctx, inbound.ListAuctionsRequest{SellerID: &seller})
	require.NoError(t, err)
	require.Len(t, mine, 2)

	bogus := auction.Status("archived")
	_, err = env.auctions.ListAuctions(ctx, inbound.ListAuctionsRequest{Status: &bogus})
	require.ErrorIs(t, err, shared.ErrInvalidRequest)
}

func TestCloseAuction_SoldAndIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seller := env.newUser(t, "seller")
	alice := env.newUser(t, "alice")
	a := env.newAuction(t, seller, time.Hour)

	aliceInbox := env.subscribe(t, outbound.UserAudience(alice))
	room := env.subscribe(t, outbound.AuctionAudience(a.ID))

	_, err := env.placeBid(alice, a.ID, 105000)
	require.NoError(t, err)

	result, err := env.auctions.CloseAuction(ctx, a.ID)
	require.NoError(t, err)
	require.False(t, result.Closed, "auction is not due yet")

	env.clock.Advance(time.Hour)
	result, err = env.auctions.CloseAuction(ctx, a.ID)
	require.NoError(t, err)
	require.True(t, result.Closed)
	require.Equal(t, string(auction.StatusSold), result.Status)
	require.Equal(t, alice, *result.WinnerID)
	require.Equal(t, "105000", result.FinalPrice.String())

	ended := awaitEvent(t, room, outbound.EventTypeAuctionEnded)
	require.Equal(t, "sold", ended.Data["status"])
	require.Equal(t, alice.String(), ended.Data["winnerId"])
	won := awaitEvent(t, aliceInbox, outbound.EventTypeAuctionWon)
	require.Equal(t, "105000", won.Data["finalPrice"])

	again, err := env.auctions.CloseAuction(ctx, a.ID)
	require.NoError(t, err)
	require.False(t, again.Closed)
	require.Equal(t, string(auction.StatusSold), again.Status)

	stored, err := env.auctions.GetAuction(ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, auction.StatusSold, stored.Status)
	require.Equal(t, alice, *stored.WinnerID)
}

func TestCloseAuction_EndedWithoutBids(t *testing.T) {
	env := newTestEnv(t)
	seller := env.newUser(t, "seller")
	a := env.newAuction(t, seller, time.Hour)

	env.clock.Advance(time.Hour)
	result, err := env.auctions.CloseAuction(context.Background(), a.ID)
	require.NoError(t, err)
	require.True(t, result.Closed)
	require.Equal(t, string(auction.StatusEnded), result.Status)
	require.Nil(t, result.WinnerID)
}

func TestCloseAuction_LateBidExtensionKeepsAuctionOpen(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seller := env.newUser(t, "seller")
	alice := env.newUser(t, "alice")
	a := env.newAuction(t, seller, time.Hour)
	originalEnd := a.EndTime

	env.clock.Set(originalEnd.Add(-time.Minute))
	result, err := env.placeBid(alice, a.ID, 105000)
	require.NoError(t, err)
	require.True(t, result.EndTimeExtended)

	// The sweep saw the original end time but the lock re-read sees the extension
	env.clock.Set(originalEnd.Add(time.Second))
	closed, err := env.auctions.CloseAuction(ctx, a.ID)
	require.NoError(t, err)
	require.False(t, closed.Closed)

	stored, err := env.auctions.GetAuction(ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, auction.StatusActive, stored.Status)
}

func TestCloseAuction_ConcurrentClosersCloseOnce(t *testing.T) {
	env := newTestEnv(t)
	seller := env.newUser(t, "seller")
	alice := env.newUser(t, "alice")
	a := env.newAuction(t, seller, time.Hour)

	_, err := env.placeBid(alice, a.ID, 105000)
	require.NoError(t, err)
	env.clock.Advance(time.Hour)

	closed := make(chan bool, 4)
	var wg conc.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Go(func() {
			result, err := env.auctions.CloseAuction(context.Background(), a.ID)
			closed <- err == nil && result.Closed
		})
	}
	wg.Wait()
	close(closed)

	count := 0
	for c := range closed {
		if c {
			count++
		}
	}
	require.Equal(t, 1, count)
}

func closeSold(t *testing.T, env *testEnv) (a *auction.Auction, seller, winner uuid.UUID) {
	t.Helper()
	seller = env.newUser(t, "seller")
	winner = env.newUser(t, "winner")
	loser := env.newUser(t, "loser")
	a = env.newAuction(t, seller, time.Hour)

	_, err := env.placeBid(loser, a.ID, 105000)
	require.NoError(t, err)
	_, err = env.placeBid(winner, a.ID, 110000)
	require.NoError(t, err)

	env.clock.Advance(time.Hour)
	result, err := env.auctions.CloseAuction(context.Background(), a.ID)
	require.NoError(t, err)
	require.True(t, result.Closed)
	return a, seller, winner
}

func TestSettleAuction_SoldCreatesConversationOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a, seller, winner := closeSold(t, env)

	require.NoError(t, env.auctions.SettleAuction(ctx, a.ID))
	require.NoError(t, env.auctions.SettleAuction(ctx, a.ID))

	conversations := env.conversations.ForAuction(a.ID)
	require.Len(t, conversations, 1)
	require.Equal(t, seller, conversations[0].SellerID)
	require.Equal(t, winner, conversations[0].BuyerID)
	require.Len(t, env.conversations.Messages(conversations[0].ID), 1)

	require.Equal(t, 1, countNotifications(env.notifications.ForUser(winner), shared.NotificationAuctionWon))
	require.Equal(t, 1, countNotifications(env.notifications.ForUser(seller), shared.NotificationSold))

	stored, err := env.auctions.GetAuction(ctx, a.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.SettledAt)
}

func TestSettleAuction_ConcurrentSettlersNotifyOnce(t *testing.T) {
	env := newTestEnv(t)
	a, seller, winner := closeSold(t, env)

	var wg conc.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Go(func() {
			_ = env.auctions.SettleAuction(context.Background(), a.ID)
		})
	}
	wg.Wait()

	conversations := env.conversations.ForAuction(a.ID)
	require.Len(t, conversations, 1)
	require.Len(t, env.conversations.Messages(conversations[0].ID), 1)
	require.Equal(t, 1, countNotifications(env.notifications.ForUser(winner), shared.NotificationAuctionWon))
	require.Equal(t, 1, countNotifications(env.notifications.ForUser(seller), shared.NotificationSold))
}

func TestSettleAuction_UnsoldNotifiesSeller(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seller := env.newUser(t, "seller")
	a := env.newAuction(t, seller, time.Hour)

	env.clock.Advance(time.Hour)
	_, err := env.auctions.CloseAuction(ctx, a.ID)
	require.NoError(t, err)

	require.NoError(t, env.auctions.SettleAuction(ctx, a.ID))
	require.Empty(t, env.conversations.ForAuction(a.ID))
	require.Equal(t, 1, countNotifications(env.notifications.ForUser(seller), shared.NotificationUnsold))
}

func TestSettleAuction_SkipsActiveAuction(t *testing.T) {
	env := newTestEnv(t)
	seller := env.newUser(t, "seller")
	a := env.newAuction(t, seller, time.Hour)

	require.NoError(t, env.auctions.SettleAuction(context.Background(), a.ID))
	require.Empty(t, env.notifications.All())
}

func TestSettleAuction_MediaFailureIsNotFatal(t *testing.T) {
	ctrl := gomock.NewController(t)
	media := mocks.NewMockMediaCleaner(ctrl)

	env := newTestEnv(t, withMedia(media))
	ctx := context.Background()
	a, _, _ := closeSold(t, env)

	media.EXPECT().DeleteMediaForAuction(gomock.Any(), a.ID).Return(errors.New("media service unavailable"))

	require.NoError(t, env.auctions.SettleAuction(ctx, a.ID))

	stored, err := env.auctions.GetAuction(ctx, a.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.SettledAt)
}

func TestSettleAuction_ConversationFailureIsRetried(t *testing.T) {
	ctrl := gomock.NewController(t)
	conversations := mocks.NewMockConversationService(ctrl)

	env := newTestEnv(t, withConversations(conversations))
	ctx := context.Background()
	a, seller, winner := closeSold(t, env)
	conversationID := uuid.New()

	gomock.InOrder(
		conversations.EXPECT().
			CreateConversationIfAbsent(gomock.Any(), a.ID, seller, winner).
			Return(uuid.Nil, false, errors.New("connection reset")),
		conversations.EXPECT().
			CreateConversationIfAbsent(gomock.Any(), a.ID, seller, winner).
			Return(conversationID, true, nil),
		conversations.EXPECT().
			PostSystemMessage(gomock.Any(), conversationID, gomock.Any()).
			Return(nil),
	)

	require.Error(t, env.auctions.SettleAuction(ctx, a.ID))
	stored, err := env.auctions.GetAuction(ctx, a.ID)
	require.NoError(t, err)
	require.Nil(t, stored.SettledAt)
	require.Zero(t, countNotifications(env.notifications.ForUser(winner), shared.NotificationAuctionWon))

	require.NoError(t, env.auctions.SettleAuction(ctx, a.ID))
	stored, err = env.auctions.GetAuction(ctx, a.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.SettledAt)
	require.Equal(t, 1, countNotifications(env.notifications.ForUser(winner), shared.NotificationAuctionWon))
}

func TestNotifyOnce_SendsWhenDedupUnavailable(t *testing.T) {
	ctrl := gomock.NewController(t)
	dedup := mocks.NewMockDeduplicator(ctrl)
	notifier := mocks.NewMockNotificationSink(ctrl)

	userID, auctionID := uuid.New(), uuid.New()
	dedup.EXPECT().Claim(gomock.Any(), gomock.Any(), notificationDedupTTL).Return(false, errors.New("redis down"))
	notifier.EXPECT().Notify(gomock.Any(), userID, shared.NotificationSold, "title", "body", gomock.Nil()).Return(nil)

	service := NewAuctionService(AuctionServiceParams{Notifier: notifier, Dedup: dedup, Logger: zerolog.Nop()})
	service.notifyOnce(context.Background(), auctionID, userID, shared.NotificationSold, "title", "body", nil)
}
