package services

import (
	"testing"
	"time"

	"surplushub/internal/core/domain"

	"github.com/stretchr/testify/require"
)

func TestCreatePost(t *testing.T) {
	env := newTestEnv(t, DefaultTolerance)
	donor := env.createUser(t, "donor", "DONOR")

	post, err := env.postSvc.Create(donor.ID, &CreatePostInput{
		Categories:     []string{"BAKERY", "DAIRY"},
		Quantity:       20,
		Unit:           "kg",
		PickupLocation: "Central kitchen, rear entrance",
		Description:    "Unsold sandwiches, refrigerated",
		ExpiryDate:     baseTime.Add(24 * time.Hour),
		Slots: []SlotInput{
			{Date: baseTime, StartTime: "16:00", EndTime: "18:00"},
			{Date: baseTime.Add(24 * time.Hour), StartTime: "09:00", EndTime: "10:00"},
		},
	})
	require.NoError(t, err)
	require.Equal(t, domain.PostAvailable, post.Status)
	require.Equal(t, "BAKERY,DAIRY", post.Categories)
	require.NotEmpty(t, post.Reference)
	require.Len(t, post.Slots, 2)

	listed, err := env.postSvc.ListAvailable()
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.Equal(t, post.ID, listed[0].ID)
}

func TestCreatePostValidation(t *testing.T) {
	env := newTestEnv(t, DefaultTolerance)
	donor := env.createUser(t, "donor", "DONOR")

	valid := func() *CreatePostInput {
		return &CreatePostInput{
			Quantity:       10,
			Unit:           "kg",
			PickupLocation: "Dock B",
			ExpiryDate:     baseTime.Add(24 * time.Hour),
			Slots:          []SlotInput{{Date: baseTime, StartTime: "16:00", EndTime: "18:00"}},
		}
	}

	in := valid()
	in.Quantity = 0
	_, err := env.postSvc.Create(donor.ID, in)
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	in = valid()
	in.PickupLocation = ""
	_, err = env.postSvc.Create(donor.ID, in)
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	in = valid()
	in.ExpiryDate = baseTime.Add(-time.Hour)
	_, err = env.postSvc.Create(donor.ID, in)
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	in = valid()
	in.Slots = nil
	_, err = env.postSvc.Create(donor.ID, in)
	require.ErrorIs(t, err, domain.ErrInvalidPickupSlot)

	// Slot entirely in the past
	in = valid()
	in.Slots = []SlotInput{{Date: baseTime.Add(-24 * time.Hour), StartTime: "16:00", EndTime: "18:00"}}
	_, err = env.postSvc.Create(donor.ID, in)
	require.ErrorIs(t, err, domain.ErrInvalidPickupSlot)

	// Malformed slot window
	in = valid()
	in.Slots = []SlotInput{{Date: baseTime, StartTime: "18:00", EndTime: "16:00"}}
	_, err = env.postSvc.Create(donor.ID, in)
	require.ErrorIs(t, err, domain.ErrInvalidPickupSlot)
}

func TestGetByIDIncludesActiveClaim(t *testing.T) {
	env := newTestEnv(t, DefaultTolerance)
	donor := env.createUser(t, "donor", "DONOR")
	receiver := env.createUser(t, "receiver", "RECEIVER")
	post := env.seedPost(t, donor.ID)

	got, active, err := env.postSvc.GetByID(post.ID)
	require.NoError(t, err)
	require.Equal(t, post.ID, got.ID)
	require.Nil(t, active)

	claim := env.claim(t, post, receiver.ID)
	_, active, err = env.postSvc.GetByID(post.ID)
	require.NoError(t, err)
	require.NotNil(t, active)
	require.Equal(t, claim.ID, active.ID)

	_, _, err = env.postSvc.GetByID(9999)
	require.ErrorIs(t, err, domain.ErrPostNotFound)
}

func TestTimelineVisibility(t *testing.T) {
	env := newTestEnv(t, DefaultTolerance)
	donor := env.createUser(t, "donor", "DONOR")
	receiver := env.createUser(t, "receiver", "RECEIVER")
	post := env.seedPost(t, donor.ID)
	claim := env.claim(t, post, receiver.ID)

	// OTP issuance is internal; the claim itself is public
	_, err := env.claimSvc.GeneratePickupCode(claim.ID, receiver.ID)
	require.NoError(t, err)

	userView, err := env.postSvc.Timeline(post.ID, false)
	require.NoError(t, err)
	require.Len(t, userView, 1)
	require.Equal(t, domain.EventClaimed, userView[0].EventType)

	adminView, err := env.postSvc.Timeline(post.ID, true)
	require.NoError(t, err)
	require.Len(t, adminView, 2)
	require.Equal(t, domain.EventClaimed, adminView[0].EventType)
	require.Equal(t, domain.EventOTPGenerated, adminView[1].EventType)

	// Entries come back in the order things happened
	require.True(t, !adminView[1].OccurredAt.Before(adminView[0].OccurredAt))

	_, err = env.postSvc.Timeline(9999, false)
	require.ErrorIs(t, err, domain.ErrPostNotFound)
}
