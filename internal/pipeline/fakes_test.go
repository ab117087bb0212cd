package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/unclebandit/linkreach-backend/internal/audit"
	"github.com/unclebandit/linkreach-backend/internal/model"
	"github.com/unclebandit/linkreach-backend/internal/queue"
	"github.com/unclebandit/linkreach-backend/internal/repository"
	"github.com/unclebandit/linkreach-backend/internal/sending"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeAuditRepo records audit actions for assertions.
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
	enqueued   []enqueuedJob
	enqueueErr error
}

func (q *fakeQueue) Enqueue(_ context.Context, name string, payload any, _ ...queue.EnqueueOption) error {
	if q.enqueueErr != nil {
		return q.enqueueErr
	}
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
	if !ok {
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

func (r *fakeProspectRepo) MarkConverted(_ context.Context, id int) error {
	if p, ok := r.prospects[id]; ok && p.Status != model.ProspectConverted {
		p.Status = model.ProspectConverted
	}
	return nil
}

func (r *fakeProspectRepo) SoftDelete(context.Context, int) error  { return nil }
func (r *fakeProspectRepo) Restore(context.Context, int) error     { return nil }
func (r *fakeProspectRepo) PurgeTrashedBefore(context.Context, time.Time) (int64, error) {
	return 0, nil
}
func (r *fakeProspectRepo) CountByStatus(context.Context, int) (map[string]int, error) {
	return nil, nil
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
	for _, c := range r.contacts {
		if c.ProspectID == prospectID && c.IsPrimary {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
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

type fakeEmailRepo struct {
	emails     map[int]*model.Email
	candidates []repository.LinkCheckCandidate
}

func (r *fakeEmailRepo) Create(_ context.Context, e *model.Email) error {
	e.ID = len(r.emails) + 1
	if e.Status == "" {
		e.Status = model.EmailPendingReview
	}
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
	return nil, 0, nil
}

func (r *fakeEmailRepo) Approve(_ context.Context, id int, subj, body *string, reviewer, note string) (bool, error) {
	e, ok := r.emails[id]
	if !ok || e.Status != model.EmailPendingReview {
		return false, nil
	}
	e.Status = model.EmailApproved
	e.EditedSubject = subj
	e.EditedBody = body
	return true, nil
}

func (r *fakeEmailRepo) Reject(_ context.Context, id int, reviewer, note string) (bool, error) {
	e, ok := r.emails[id]
	if !ok || e.Status != model.EmailPendingReview {
		return false, nil
	}
	e.Status = model.EmailRejected
	return true, nil
}

func (r *fakeEmailRepo) MarkSent(_ context.Context, id int, providerMessageID string) (bool, error) {
	e, ok := r.emails[id]
	if !ok || e.Status != model.EmailApproved {
		return false, nil
	}
	e.Status = model.EmailSent
	e.ProviderMessageID = &providerMessageID
	now := time.Now()
	e.SentAt = &now
	return true, nil
}

func (r *fakeEmailRepo) CountSentSince(_ context.Context, since time.Time) (int, error) {
	n := 0
	for _, e := range r.emails {
		if e.Status == model.EmailSent && e.SentAt != nil && e.SentAt.After(since) {
			n++
		}
	}
	return n, nil
}

func (r *fakeEmailRepo) ClaimDueForLinkChecks(context.Context, time.Time, time.Duration, time.Duration) ([]repository.LinkCheckCandidate, error) {
	claimed := r.candidates
	r.candidates = nil
	return claimed, nil
}

type fakeSequenceRepo struct {
	sequences map[int]*model.Sequence
	followups []model.Followup
	dueIDs    []int
}

func (r *fakeSequenceRepo) Create(_ context.Context, s *model.Sequence) (bool, error) {
	for _, existing := range r.sequences {
		if existing.EmailID == s.EmailID {
			return false, nil
		}
	}
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

func (r *fakeSequenceRepo) Advance(_ context.Context, id int, nextDue time.Time) (int, int, bool, error) {
	s, ok := r.sequences[id]
	if !ok || s.Status != model.SequenceActive {
		return 0, 0, false, nil
	}
	s.CurrentStep++
	s.NextDueAt = &nextDue
	return s.CurrentStep, s.MaxSteps, true, nil
}

func (r *fakeSequenceRepo) Complete(_ context.Context, id int) (bool, error) {
	s, ok := r.sequences[id]
	if !ok || s.Status != model.SequenceActive {
		return false, nil
	}
	s.Status = model.SequenceCompleted
	return true, nil
}

func (r *fakeSequenceRepo) Stop(_ context.Context, id int, status model.SequenceStatus, reason string) (bool, error) {
	s, ok := r.sequences[id]
	if !ok || s.Status != model.SequenceActive {
		return false, nil
	}
	s.Status = status
	s.StopReason = &reason
	return true, nil
}

func (r *fakeSequenceRepo) StopActiveByProspect(_ context.Context, prospectID int, status model.SequenceStatus, reason string) (int64, error) {
	var stopped int64
	for _, s := range r.sequences {
		if s.ProspectID == prospectID && s.Status == model.SequenceActive {
			s.Status = status
			s.StopReason = &reason
			stopped++
		}
	}
	return stopped, nil
}

func (r *fakeSequenceRepo) ClaimDueFollowups(context.Context, time.Time) ([]int, error) {
	claimed := r.dueIDs
	r.dueIDs = nil
	return claimed, nil
}

func (r *fakeSequenceRepo) ReleaseFollowupClaims(_ context.Context, ids []int) error {
	r.dueIDs = append(r.dueIDs, ids...)
	return nil
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

func (r *fakeResponseRepo) SetClassification(_ context.Context, id int, category model.Classification, sentiment string, confidence float64, summary string) error {
	resp, ok := r.responses[id]
	if !ok {
		return errors.New("response not found")
	}
	resp.Category = category
	resp.Sentiment = sentiment
	resp.Confidence = confidence
	resp.Summary = summary
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

type fakeBlocklistRepo struct {
	blocked map[string]bool
}

func (r *fakeBlocklistRepo) Add(_ context.Context, email, reason, details string) error {
	if r.blocked == nil {
		r.blocked = map[string]bool{}
	}
	r.blocked[email] = true
	return nil
}

func (r *fakeBlocklistRepo) Contains(_ context.Context, email string) (bool, error) {
	return r.blocked[email], nil
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
	for _, c := range r.checks {
		if c.EmailID == emailID {
			out = append(out, c)
		}
	}
	return out, nil
}

// fakeRateRepo backs the governor in sender tests. full simulates an
// exhausted daily counter.
type fakeRateRepo struct {
	cfg      model.RateConfig
	full     bool
	reserved int
	released int
}

func (r *fakeRateRepo) EnsureExists(context.Context, int, bool) error { return nil }

func (r *fakeRateRepo) Get(context.Context) (*model.RateConfig, error) {
	cp := r.cfg
	return &cp, nil
}

func (r *fakeRateRepo) Update(_ context.Context, dailyLimit int, warmupEnabled bool) error {
	r.cfg.DailyLimit = dailyLimit
	r.cfg.WarmupEnabled = warmupEnabled
	return nil
}

func (r *fakeRateRepo) AdvanceWarmupWeek(context.Context) (int, error) {
	if r.cfg.WarmupWeek < 7 {
		r.cfg.WarmupWeek++
	}
	return r.cfg.WarmupWeek, nil
}

func (r *fakeRateRepo) ReserveSendSlot(_ context.Context, _ time.Time, cap int) (bool, error) {
	if r.full || r.reserved >= cap {
		return false, nil
	}
	r.reserved++
	return true, nil
}

func (r *fakeRateRepo) ReleaseSendSlot(context.Context, time.Time) error {
	r.released++
	if r.reserved > 0 {
		r.reserved--
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

type fakeDiscoverer struct {
	contacts []DiscoveredContact
	err      error
	calls    int
}

func (d *fakeDiscoverer) Discover(context.Context, string, string) ([]DiscoveredContact, error) {
	d.calls++
	return d.contacts, d.err
}

type fakeGenerator struct {
	draft          Draft
	classification ClassificationResult
	err            error
	followupCalls  int
}

func (g *fakeGenerator) GenerateOutreachEmail(context.Context, ProspectContext) (Draft, error) {
	return g.draft, g.err
}

func (g *fakeGenerator) GenerateFollowup(_ context.Context, _, _, _ string, step int) (Draft, error) {
	g.followupCalls++
	if g.err != nil {
		return Draft{}, g.err
	}
	return Draft{
		Subject: fmt.Sprintf("Re: %s (%d)", g.draft.Subject, step),
		Body:    g.draft.Body,
	}, nil
}

func (g *fakeGenerator) Classify(context.Context, string, Draft) (ClassificationResult, error) {
	return g.classification, g.err
}

type fakeTransport struct {
	sends    []string
	subjects []string
	err      error
}

func (t *fakeTransport) Send(_ context.Context, to, subject, body string) (sending.SendResult, error) {
	if t.err != nil {
		return sending.SendResult{}, t.err
	}
	t.sends = append(t.sends, to)
	t.subjects = append(t.subjects, subject)
	return sending.SendResult{ProviderMessageID: fmt.Sprintf("msg-%d", len(t.sends))}, nil
}

type fakeFetcher struct {
	html   string
	status int
	err    error
}

func (f *fakeFetcher) Fetch(context.Context, string) (string, int, error) {
	return f.html, f.status, f.err
}
