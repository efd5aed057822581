package services

import (
	"testing"
	"time"

	"surplushub/internal/adapters/persistence/models"
	"surplushub/internal/core/domain"

	"github.com/stretchr/testify/require"
)

func newSweepService(env *testEnv) *SweepService {
	return NewSweepService(env.db, env.posts, env.claims, env.timeline, nil, env.clk, DefaultTolerance)
}

func TestSweepExpiresPosts(t *testing.T) {
	env := newTestEnv(t, DefaultTolerance)
	sweep := newSweepService(env)
	donor := env.createUser(t, "donor", "DONOR")

	stale := env.seedPost(t, donor.ID)
	fresh := &models.SurplusPost{
		Reference:      "fresh-post",
		DonorID:        donor.ID,
		Quantity:       5,
		Unit:           "kg",
		PickupLocation: "Dock A",
		ExpiryDate:     baseTime.Add(96 * time.Hour),
		Status:         domain.PostAvailable,
	}
	require.NoError(t, env.posts.Create(fresh))

	// Before expiry nothing happens
	sweep.RunOnce()
	require.Equal(t, domain.PostAvailable, env.postStatus(t, stale.ID))

	// Past the stale post's expiry, only it is swept
	env.clk.Set(baseTime.Add(72 * time.Hour))
	sweep.RunOnce()
	require.Equal(t, domain.PostExpired, env.postStatus(t, stale.ID))
	require.Equal(t, domain.PostAvailable, env.postStatus(t, fresh.ID))

	entries, err := env.timeline.ListByPost(stale.ID, true)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, domain.EventExpired, entries[0].EventType)
	require.Equal(t, domain.SystemActorID, entries[0].ActorID)

	// Idempotent: a second pass writes nothing new
	sweep.RunOnce()
	entries, err = env.timeline.ListByPost(stale.ID, false)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestSweepAutoCancelsOverdueClaim(t *testing.T) {
	env := newTestEnv(t, DefaultTolerance)
	sweep := newSweepService(env)
	donor := env.createUser(t, "donor", "DONOR")
	receiver := env.createUser(t, "receiver", "RECEIVER")
	post := env.seedPost(t, donor.ID) // slot 14:00-15:00, late tolerance 30m
	claim := env.claim(t, post, receiver.ID)
	_, err := env.claimSvc.GeneratePickupCode(claim.ID, receiver.ID)
	require.NoError(t, err)

	// 15:29 is still inside the late tolerance
	env.clk.Set(time.Date(2025, 3, 10, 15, 29, 0, 0, time.UTC))
	sweep.RunOnce()
	require.Equal(t, domain.ClaimActive, env.claimStatus(t, claim.ID))
	require.Equal(t, domain.PostClaimed, env.postStatus(t, post.ID))

	// 15:31 is past the deadline; the post is not yet expired so it reopens
	env.clk.Set(time.Date(2025, 3, 10, 15, 31, 0, 0, time.UTC))
	sweep.RunOnce()
	require.Equal(t, domain.ClaimCancelled, env.claimStatus(t, claim.ID))
	require.Equal(t, domain.PostAvailable, env.postStatus(t, post.ID))

	entries, err := env.timeline.ListByPost(post.ID, true)
	require.NoError(t, err)
	last := entries[len(entries)-1]
	require.Equal(t, domain.EventCancelled, last.EventType)
	require.Equal(t, domain.SystemActorID, last.ActorID)
	require.Equal(t, "pickup not confirmed within tolerance, auto-cancelled", last.Details)

	// The stale code was wiped with the cancellation
	var stored models.Claim
	require.NoError(t, env.db.First(&stored, claim.ID).Error)
	require.Nil(t, stored.PickupCode)
}

func TestSweepAutoCancelAfterPostExpiry(t *testing.T) {
	env := newTestEnv(t, DefaultTolerance)
	sweep := newSweepService(env)
	donor := env.createUser(t, "donor", "DONOR")
	receiver := env.createUser(t, "receiver", "RECEIVER")
	post := env.seedPost(t, donor.ID)
	claim := env.claim(t, post, receiver.ID)

	// Well past both the pickup deadline and the post's expiry date
	env.clk.Set(baseTime.Add(72 * time.Hour))
	sweep.RunOnce()

	require.Equal(t, domain.ClaimCancelled, env.claimStatus(t, claim.ID))
	require.Equal(t, domain.PostExpired, env.postStatus(t, post.ID))
}

func TestSweepSkipsCompletedClaims(t *testing.T) {
	env := newTestEnv(t, DefaultTolerance)
	sweep := newSweepService(env)
	donor := env.createUser(t, "donor", "DONOR")
	receiver := env.createUser(t, "receiver", "RECEIVER")
	post := env.seedPost(t, donor.ID)
	claim := env.claim(t, post, receiver.ID)

	env.clk.Set(time.Date(2025, 3, 10, 14, 30, 0, 0, time.UTC))
	code, err := env.claimSvc.GeneratePickupCode(claim.ID, receiver.ID)
	require.NoError(t, err)
	_, err = env.claimSvc.ConfirmPickup(claim.ID, code.Code, donor.ID, PickupEvidence{})
	require.NoError(t, err)

	// Long after the window; the completed claim must be left alone
	env.clk.Set(baseTime.Add(72 * time.Hour))
	sweep.RunOnce()

	require.Equal(t, domain.ClaimCompleted, env.claimStatus(t, claim.ID))
	require.Equal(t, domain.PostCompleted, env.postStatus(t, post.ID))
}
