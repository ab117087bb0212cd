package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unclebandit/linkreach-backend/internal/model"
)

type followupFixture struct {
	worker    *FollowupWorker
	sequences *fakeSequenceRepo
	emails    *fakeEmailRepo
	contacts  *fakeContactRepo
	blocklist *fakeBlocklistRepo
	generator *fakeGenerator
	transport *fakeTransport
	auditRepo *fakeAuditRepo
}

func newFollowupFixture() *followupFixture {
	due := time.Now().Add(-time.Hour)
	f := &followupFixture{
		sequences: &fakeSequenceRepo{sequences: map[int]*model.Sequence{
			1: {ID: 1, EmailID: 5, ProspectID: 10, ContactID: 20, CurrentStep: 0, MaxSteps: 3,
				NextDueAt: &due, Status: model.SequenceActive},
		}},
		emails: &fakeEmailRepo{emails: map[int]*model.Email{
			5: {ID: 5, ProspectID: 10, ContactID: 20, Subject: "Hello", Body: "Body", Status: model.EmailSent},
		}},
		contacts: &fakeContactRepo{contacts: map[int]*model.Contact{
			20: {ID: 20, ProspectID: 10, Email: "jo@acme.dev", Name: "Jo"},
		}},
		blocklist: &fakeBlocklistRepo{},
		generator: &fakeGenerator{draft: Draft{Subject: "Hello", Body: "Nudge"}},
		transport: &fakeTransport{},
		auditRepo: &fakeAuditRepo{},
	}
	f.worker = &FollowupWorker{
		Sequences: f.sequences,
		Emails:    f.emails,
		Contacts:  f.contacts,
		Blocklist: f.blocklist,
		Generator: f.generator,
		Transport: f.transport,
		Audit:     testTrail(f.auditRepo),
		Logger:    testLogger(),
		Interval:  72 * time.Hour,
	}
	return f
}

func TestFollowupSendsAndAdvances(t *testing.T) {
	f := newFollowupFixture()

	err := f.worker.Handle(context.Background(), FollowupJob{SequenceID: 1})
	require.NoError(t, err)

	assert.Equal(t, []string{"jo@acme.dev"}, f.transport.sends)
	seq := f.sequences.sequences[1]
	assert.Equal(t, 1, seq.CurrentStep)
	assert.Equal(t, model.SequenceActive, seq.Status)

	followups, err := f.sequences.ListFollowups(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, followups, 1)
	assert.Equal(t, 1, followups[0].Step)
	assert.Contains(t, f.auditRepo.actions, "followup_sent")
}

func TestFollowupFinalStepCompletesSequence(t *testing.T) {
	f := newFollowupFixture()
	f.sequences.sequences[1].CurrentStep = 2

	err := f.worker.Handle(context.Background(), FollowupJob{SequenceID: 1})
	require.NoError(t, err)

	seq := f.sequences.sequences[1]
	assert.Equal(t, 3, seq.CurrentStep)
	assert.Equal(t, model.SequenceCompleted, seq.Status)
	assert.Len(t, f.transport.sends, 1)
}

func TestFollowupStaleStoppedSequenceIsNoOp(t *testing.T) {
	f := newFollowupFixture()
	f.sequences.sequences[1].Status = model.SequenceStopped

	err := f.worker.Handle(context.Background(), FollowupJob{SequenceID: 1})
	require.NoError(t, err)

	assert.Empty(t, f.transport.sends)
	assert.Zero(t, f.generator.followupCalls)
	assert.Equal(t, model.SequenceStopped, f.sequences.sequences[1].Status)
}

func TestFollowupExhaustedSequenceCompletesWithoutSending(t *testing.T) {
	f := newFollowupFixture()
	f.sequences.sequences[1].CurrentStep = 3

	err := f.worker.Handle(context.Background(), FollowupJob{SequenceID: 1})
	require.NoError(t, err)

	assert.Empty(t, f.transport.sends)
	assert.Equal(t, model.SequenceCompleted, f.sequences.sequences[1].Status)
}

func TestFollowupStopsWhenRecipientBlocklisted(t *testing.T) {
	f := newFollowupFixture()
	require.NoError(t, f.blocklist.Add(context.Background(), "jo@acme.dev", "hostile reply", ""))

	err := f.worker.Handle(context.Background(), FollowupJob{SequenceID: 1})
	require.NoError(t, err)

	assert.Empty(t, f.transport.sends)
	seq := f.sequences.sequences[1]
	assert.Equal(t, model.SequenceStopped, seq.Status)
	require.NotNil(t, seq.StopReason)
	assert.Equal(t, "recipient blocklisted", *seq.StopReason)
	assert.Contains(t, f.auditRepo.actions, "sequence_stopped")
}
