package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unclebandit/linkreach-backend/internal/model"
	"github.com/unclebandit/linkreach-backend/internal/repository"
)

func TestFollowupSweepEnqueuesClaimedSequences(t *testing.T) {
	sequences := &fakeSequenceRepo{
		sequences: map[int]*model.Sequence{},
		dueIDs:    []int{4, 9},
	}
	q := &fakeQueue{}
	sweeps := &Sweeps{
		Sequences: sequences,
		Emails:    &fakeEmailRepo{emails: map[int]*model.Email{}},
		Queue:     q,
		Logger:    testLogger(),
	}

	n, err := sweeps.EnqueueDueFollowups(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.Len(t, q.enqueued, 2)
	assert.Equal(t, QueueFollowup, q.enqueued[0].queue)
	assert.Equal(t, FollowupJob{SequenceID: 4}, q.enqueued[0].payload)
	assert.Equal(t, FollowupJob{SequenceID: 9}, q.enqueued[1].payload)

	// The claim consumed the due set; a second sweep finds nothing.
	n, err = sweeps.EnqueueDueFollowups(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Len(t, q.enqueued, 2)
}

func TestFollowupSweepReleasesClaimsOnEnqueueFailure(t *testing.T) {
	sequences := &fakeSequenceRepo{
		sequences: map[int]*model.Sequence{},
		dueIDs:    []int{4},
	}
	q := &fakeQueue{enqueueErr: errors.New("broker unavailable")}
	sweeps := &Sweeps{
		Sequences: sequences,
		Emails:    &fakeEmailRepo{emails: map[int]*model.Email{}},
		Queue:     q,
		Logger:    testLogger(),
	}

	n, err := sweeps.EnqueueDueFollowups(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, q.enqueued)

	// The broker comes back; the released claim must be picked up again.
	q.enqueueErr = nil
	n, err = sweeps.EnqueueDueFollowups(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, q.enqueued, 1)
	assert.Equal(t, FollowupJob{SequenceID: 4}, q.enqueued[0].payload)
}

func TestLinkCheckSweepEnqueuesClaimedCandidates(t *testing.T) {
	emails := &fakeEmailRepo{
		emails: map[int]*model.Email{},
		candidates: []repository.LinkCheckCandidate{
			{EmailID: 5, ProspectID: 10, ProspectURL: "https://acme.dev/post", TargetURL: "https://example.io/guide"},
		},
	}
	q := &fakeQueue{}
	sweeps := &Sweeps{
		Sequences:        &fakeSequenceRepo{sequences: map[int]*model.Sequence{}},
		Emails:           emails,
		Queue:            q,
		Logger:           testLogger(),
		LinkCheckMinAge:  7 * 24 * time.Hour,
		LinkCheckRecheck: 3 * 24 * time.Hour,
	}

	n, err := sweeps.EnqueueDueLinkChecks(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.Len(t, q.enqueued, 1)
	assert.Equal(t, QueueLinkChecker, q.enqueued[0].queue)
	job := q.enqueued[0].payload.(LinkCheckerJob)
	assert.Equal(t, 5, job.EmailID)
	assert.Equal(t, "https://acme.dev/post", job.ProspectURL)
	assert.Equal(t, "https://example.io/guide", job.TargetURL)

	n, err = sweeps.EnqueueDueLinkChecks(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}
