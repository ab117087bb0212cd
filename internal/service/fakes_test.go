package service

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/unclebandit/linkreach-backend/internal/audit"
	"github.com/unclebandit/linkreach-backend/internal/model"
	"github.com/unclebandit/linkreach-backend/internal/queue"
	"github.com/unclebandit/linkreach-backend/internal/repository"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeAuditRepo struct {
	actions []string
}

func (r *fakeAuditRepo) Insert(_ context.Context, entry *model.AuditEntry) error {
	r.actions = append(r.actions, entry.Action)
	return nil
}

func testTrail(repo *fakeAuditRepo) *audit.Trail {
	return audit.NewTrail(repo, testLogger())
}

type enqueuedJob struct {
	queue   string
	payload any
}

type fakeQueue struct {
	enqueued []enqueuedJob
}

func (q *fakeQueue) Enqueue(_ context.Context, name string, payload any, _ ...queue.EnqueueOption) error {
	q.enqueued = append(q.enqueued, enqueuedJob{queue: name, payload: payload})
	return nil
}

func (q *fakeQueue) Subscribe(string, queue.SubscribeConfig, queue.Handler) error { return nil }
func (q *fakeQueue) Depths(context.Context) ([]queue.Depth, error)                { return nil, nil }
func (q *fakeQueue) Close() error                                                 { return nil }

type fakeProspectRepo struct {
	prospects map[int]*model.Prospect
}

func (r *fakeProspectRepo) Create(_ context.Context, p *model.Prospect) error {
	p.ID = len(r.prospects) + 1
	r.prospects[p.ID] = p
	return nil
}

func (r *fakeProspectRepo) GetByID(_ context.Context, id int) (*model.Prospect, error) {
	p, ok := r.prospects[id]
	if !ok || p.DeletedAt != nil {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *fakeProspectRepo) List(context.Context, int, int, int, string) ([]model.Prospect, int, error) {
	return nil, 0, nil
}

func (r *fakeProspectRepo) TransitionStatus(_ context.Context, id int, from []model.ProspectStatus, to model.ProspectStatus) (bool, error) {
	p, ok := r.prospects[id]
	if !ok {
		return false, nil
	}
	for _, f := range from {
		if p.Status == f {
			p.Status = to
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeProspectRepo) MarkConverted(context.Context, int) error { return nil }

func (r *fakeProspectRepo) SoftDelete(_ context.Context, id int) error {
	if p, ok := r.prospects[id]; ok {
		now := time.Now()
		p.DeletedAt = &now
	}
	return nil
}

func (r *fakeProspectRepo) Restore(_ context.Context, id int) error {
	if p, ok := r.prospects[id]; ok {
		p.DeletedAt = nil
	}
	return nil
}

func (r *fakeProspectRepo) PurgeTrashedBefore(context.Context, time.Time) (int64, error) {
	return 0, nil
}

func (r *fakeProspectRepo) CountByStatus(context.Context, int) (map[string]int, error) {
	return map[string]int{"total": 0}, nil
}

type fakeEmailRepo struct {
	emails map[int]*model.Email
}

func (r *fakeEmailRepo) Create(_ context.Context, e *model.Email) error {
	e.ID = len(r.emails) + 1
	r.emails[e.ID] = e
	return nil
}

func (r *fakeEmailRepo) GetByID(_ context.Context, id int) (*model.Email, error) {
	e, ok := r.emails[id]
	if !ok {
		return nil, nil
	}
	cp := *e
	return &cp, nil
}

func (r *fakeEmailRepo) ListPendingReview(context.Context, int, int) ([]model.Email, int, error) {
	var out []model.Email
	for _, e := range r.emails {
		if e.Status == model.EmailPendingReview {
			out = append(out, *e)
		}
	}
	return out, len(out), nil
}

func (r *fakeEmailRepo) Approve(_ context.Context, id int, subj, body *string, reviewer, note string) (bool, error) {
	e, ok := r.emails[id]
	if !ok || e.Status != model.EmailPendingReview {
		return false, nil
	}
	e.Status = model.EmailApproved
	e.EditedSubject = subj
	e.EditedBody = body
	e.ReviewedBy = &reviewer
	return true, nil
}

func (r *fakeEmailRepo) Reject(_ context.Context, id int, reviewer, note string) (bool, error) {
	e, ok := r.emails[id]
	if !ok || e.Status != model.EmailPendingReview {
		return false, nil
	}
	e.Status = model.EmailRejected
	e.ReviewedBy = &reviewer
	return true, nil
}

func (r *fakeEmailRepo) MarkSent(context.Context, int, string) (bool, error) { return false, nil }
func (r *fakeEmailRepo) CountSentSince(context.Context, time.Time) (int, error) {
	return 0, nil
}
func (r *fakeEmailRepo) ClaimDueForLinkChecks(context.Context, time.Time, time.Duration, time.Duration) ([]repository.LinkCheckCandidate, error) {
	return nil, nil
}

type fakeResponseRepo struct {
	responses map[int]*model.Response
}

func (r *fakeResponseRepo) Create(_ context.Context, resp *model.Response) error {
	resp.ID = len(r.responses) + 1
	r.responses[resp.ID] = resp
	return nil
}

func (r *fakeResponseRepo) GetByID(_ context.Context, id int) (*model.Response, error) {
	resp, ok := r.responses[id]
	if !ok {
		return nil, nil
	}
	cp := *resp
	return &cp, nil
}

func (r *fakeResponseRepo) SetClassification(context.Context, int, model.Classification, string, float64, string) error {
	return nil
}

func (r *fakeResponseRepo) MarkHandled(_ context.Context, id int) error {
	if resp, ok := r.responses[id]; ok {
		resp.Handled = true
	}
	return nil
}

func (r *fakeResponseRepo) ClearHandled(_ context.Context, id int) error {
	if resp, ok := r.responses[id]; ok {
		resp.Handled = false
	}
	return nil
}

type fakeCampaignRepo struct {
	campaigns map[int]*model.Campaign
}

func (r *fakeCampaignRepo) Create(_ context.Context, c *model.Campaign) error {
	c.ID = len(r.campaigns) + 1
	r.campaigns[c.ID] = c
	return nil
}

func (r *fakeCampaignRepo) GetByID(_ context.Context, id int) (*model.Campaign, error) {
	c, ok := r.campaigns[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (r *fakeCampaignRepo) List(context.Context, int, int, string) ([]model.Campaign, int, error) {
	return nil, 0, nil
}

func (r *fakeCampaignRepo) UpdateStatus(_ context.Context, id int, status string) error {
	if c, ok := r.campaigns[id]; ok {
		c.Status = status
	}
	return nil
}

type fakeContactRepo struct {
	contacts map[int]*model.Contact
}

func (r *fakeContactRepo) Create(_ context.Context, c *model.Contact) error {
	c.ID = len(r.contacts) + 1
	r.contacts[c.ID] = c
	return nil
}

func (r *fakeContactRepo) GetByID(_ context.Context, id int) (*model.Contact, error) {
	c, ok := r.contacts[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (r *fakeContactRepo) GetPrimaryByProspect(_ context.Context, prospectID int) (*model.Contact, error) {
	var best *model.Contact
	for _, c := range r.contacts {
		if c.ProspectID != prospectID {
			continue
		}
		if best == nil || (c.IsPrimary && !best.IsPrimary) || (c.IsPrimary == best.IsPrimary && c.ID < best.ID) {
			best = c
		}
	}
	if best == nil {
		return nil, nil
	}
	cp := *best
	return &cp, nil
}

func (r *fakeContactRepo) ListByProspect(_ context.Context, prospectID int) ([]model.Contact, error) {
	var out []model.Contact
	for _, c := range r.contacts {
		if c.ProspectID == prospectID {
			out = append(out, *c)
		}
	}
	return out, nil
}

type fakeSequenceRepo struct {
	sequences map[int]*model.Sequence
	followups []model.Followup
}

func (r *fakeSequenceRepo) Create(_ context.Context, s *model.Sequence) (bool, error) {
	s.ID = len(r.sequences) + 1
	r.sequences[s.ID] = s
	return true, nil
}

func (r *fakeSequenceRepo) GetByID(_ context.Context, id int) (*model.Sequence, error) {
	s, ok := r.sequences[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (r *fakeSequenceRepo) GetByEmail(_ context.Context, emailID int) (*model.Sequence, error) {
	for _, s := range r.sequences {
		if s.EmailID == emailID {
			cp := *s
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeSequenceRepo) Advance(context.Context, int, time.Time) (int, int, bool, error) {
	return 0, 0, false, nil
}

func (r *fakeSequenceRepo) Complete(context.Context, int) (bool, error) { return false, nil }

func (r *fakeSequenceRepo) Stop(context.Context, int, model.SequenceStatus, string) (bool, error) {
	return false, nil
}

func (r *fakeSequenceRepo) StopActiveByProspect(context.Context, int, model.SequenceStatus, string) (int64, error) {
	return 0, nil
}

func (r *fakeSequenceRepo) ClaimDueFollowups(context.Context, time.Time) ([]int, error) {
	return nil, nil
}

func (r *fakeSequenceRepo) ReleaseFollowupClaims(context.Context, []int) error { return nil }

func (r *fakeSequenceRepo) CreateFollowup(_ context.Context, f *model.Followup) error {
	f.ID = len(r.followups) + 1
	r.followups = append(r.followups, *f)
	return nil
}

func (r *fakeSequenceRepo) ListFollowups(_ context.Context, sequenceID int) ([]model.Followup, error) {
	var out []model.Followup
	for _, f := range r.followups {
		if f.SequenceID == sequenceID {
			out = append(out, f)
		}
	}
	return out, nil
}

type fakeLinkCheckRepo struct {
	checks []model.LinkCheck
}

func (r *fakeLinkCheckRepo) Create(_ context.Context, lc *model.LinkCheck) error {
	lc.ID = len(r.checks) + 1
	r.checks = append(r.checks, *lc)
	return nil
}

func (r *fakeLinkCheckRepo) ListByEmail(_ context.Context, emailID int) ([]model.LinkCheck, error) {
	var out []model.LinkCheck
	for _, lc := range r.checks {
		if lc.EmailID == emailID {
			out = append(out, lc)
		}
	}
	return out, nil
}
