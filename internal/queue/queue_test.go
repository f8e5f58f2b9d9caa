package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-screener/internal/narrative"
	"github.com/jonathan/resume-screener/internal/parsing"
	"github.com/jonathan/resume-screener/internal/screening"
	"github.com/jonathan/resume-screener/internal/storage"
	"github.com/jonathan/resume-screener/internal/types"
)

const strongResume = `Jane Doe
jane.doe@example.com
4 years of experience building REST APIs and microservices
Skills: Python, Django, AWS, Docker`

type fakeJobs struct {
	job *types.Job
	err error
}

func (f *fakeJobs) GetJob(_ context.Context, id uuid.UUID) (*types.Job, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.job == nil || f.job.ID != id {
		return nil, nil
	}
	return f.job, nil
}

type fakeFetcher struct {
	objects map[string][]byte
	err     error
}

func (f *fakeFetcher) Download(_ context.Context, key string) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	data, ok := f.objects[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrObjectNotFound, key)
	}
	return data, nil
}

type fakeSubmitter struct {
	err  error
	reqs []types.CreateApplicationRequest
}

func (f *fakeSubmitter) Submit(_ context.Context, job *types.Job, req types.CreateApplicationRequest, _ []byte) (*types.Application, error) {
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return nil, f.err
	}
	return &types.Application{ID: uuid.New(), JobID: job.ID, MatchScore: 87.5, FitCategory: narrative.FitStrong}, nil
}

type fakeEvents struct {
	mu     sync.Mutex
	events []ScreenedEvent
	err    error
}

func (f *fakeEvents) Publish(_ context.Context, ev ScreenedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, ev)
	return nil
}

type memStore struct {
	mu   sync.Mutex
	apps []*types.Application
}

func (m *memStore) ApplicationExists(_ context.Context, jobID uuid.UUID, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, app := range m.apps {
		if app.JobID == jobID && app.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) CreateApplication(_ context.Context, app *types.Application) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.apps = append(m.apps, app)
	return nil
}

func testJob() *types.Job {
	minExp, maxExp := 2.0, 5.0
	return &types.Job{
		ID:             uuid.New(),
		Title:          "Backend Developer",
		RequiredSkills: []string{"python", "django", "aws", "kubernetes"},
		JDKeywords:     []string{"rest apis", "microservices"},
		MinExperience:  &minExp,
		MaxExperience:  &maxExp,
	}
}

func submissionBody(t *testing.T, jobID uuid.UUID, key string) []byte {
	t.Helper()
	body, err := json.Marshal(Submission{
		JobID:     jobID,
		FullName:  "Jane Doe",
		Email:     "Jane.Doe@example.com",
		Phone:     "+1 555 0100",
		ObjectKey: key,
	})
	require.NoError(t, err)
	return body
}

func TestDecodeSubmission(t *testing.T) {
	jobID := uuid.New()

	sub, err := DecodeSubmission([]byte(fmt.Sprintf(
		`{"job_id":%q,"full_name":" Jane Doe ","email":"jane@example.com","object_key":"uploads/2026/jane.pdf"}`, jobID)))
	require.NoError(t, err)
	assert.Equal(t, jobID, sub.JobID)
	assert.Equal(t, "Jane Doe", sub.FullName)
	assert.Equal(t, "jane.pdf", sub.Filename)

	req := sub.Request()
	assert.Equal(t, jobID, req.JobID)
	assert.Equal(t, "jane.pdf", req.Filename)

	invalid := []struct {
		name string
		body string
	}{
		{name: "not json", body: `not json`},
		{name: "bad uuid", body: `{"job_id":"nope","full_name":"J","email":"j@example.com","object_key":"k"}`},
		{name: "missing job", body: `{"full_name":"J","email":"j@example.com","object_key":"k"}`},
		{name: "missing name", body: fmt.Sprintf(`{"job_id":%q,"full_name":"  ","email":"j@example.com","object_key":"k"}`, jobID)},
		{name: "bad email", body: fmt.Sprintf(`{"job_id":%q,"full_name":"J","email":"nope","object_key":"k"}`, jobID)},
		{name: "missing key", body: fmt.Sprintf(`{"job_id":%q,"full_name":"J","email":"j@example.com"}`, jobID)},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeSubmission([]byte(tt.body))
			assert.Error(t, err)
		})
	}
}

func TestProcessor_EndToEnd(t *testing.T) {
	parser, err := parsing.NewDefaultParser()
	require.NoError(t, err)
	store := &memStore{}
	svc := screening.NewService(parser, store, screening.Options{TempDir: t.TempDir()})

	job := testJob()
	events := &fakeEvents{}
	fixed := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	p := NewProcessor(&fakeJobs{job: job},
		&fakeFetcher{objects: map[string][]byte{"uploads/jane.txt": []byte(strongResume)}}, svc, events)
	p.now = func() time.Time { return fixed }

	outcome := p.Process(context.Background(), submissionBody(t, job.ID, "uploads/jane.txt"), false)
	require.Equal(t, Ack, outcome)

	require.Len(t, store.apps, 1)
	app := store.apps[0]
	assert.Equal(t, "jane@example.com", app.Email)
	assert.Equal(t, "jane.txt", app.ResumeFilename)
	assert.Equal(t, 87.5, app.MatchScore)

	require.Len(t, events.events, 1)
	assert.Equal(t, ScreenedEvent{
		Type:          EventScreened,
		ApplicationID: app.ID,
		JobID:         job.ID,
		MatchScore:    87.5,
		FitCategory:   narrative.FitStrong,
		Timestamp:     fixed,
	}, events.events[0])

	// The same candidate again is a duplicate and is dropped.
	outcome = p.Process(context.Background(), submissionBody(t, job.ID, "uploads/jane.txt"), false)
	assert.Equal(t, Reject, outcome)
	assert.Len(t, store.apps, 1)
	assert.Len(t, events.events, 1)
}

func TestProcessor_Outcomes(t *testing.T) {
	job := testJob()
	transient := errors.New("connection refused")

	tests := []struct {
		name        string
		body        func(t *testing.T) []byte
		jobs        *fakeJobs
		fetcher     *fakeFetcher
		submitErr   error
		redelivered bool
		want        Outcome
	}{
		{
			name: "malformed body",
			body: func(*testing.T) []byte { return []byte("{") },
			want: Reject,
		},
		{
			name: "unknown job",
			body: func(t *testing.T) []byte { return submissionBody(t, uuid.New(), "k") },
			want: Reject,
		},
		{
			name: "job lookup fails",
			jobs: &fakeJobs{err: transient},
			want: Requeue,
		},
		{
			name:        "job lookup fails again",
			jobs:        &fakeJobs{err: transient},
			redelivered: true,
			want:        Reject,
		},
		{
			name: "missing object",
			body: func(t *testing.T) []byte { return submissionBody(t, job.ID, "missing") },
			want: Reject,
		},
		{
			name:    "object too large",
			fetcher: &fakeFetcher{err: fmt.Errorf("%w: k", storage.ErrObjectTooLarge)},
			want:    Reject,
		},
		{
			name:    "storage unavailable",
			fetcher: &fakeFetcher{err: transient},
			want:    Requeue,
		},
		{
			name:      "duplicate",
			submitErr: types.ErrDuplicateApplication,
			want:      Reject,
		},
		{
			name:      "database down",
			submitErr: fmt.Errorf("failed to save application: %w", transient),
			want:      Requeue,
		},
		{
			name:        "database down after retry",
			submitErr:   transient,
			redelivered: true,
			want:        Reject,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			jobs := tt.jobs
			if jobs == nil {
				jobs = &fakeJobs{job: job}
			}
			fetcher := tt.fetcher
			if fetcher == nil {
				fetcher = &fakeFetcher{objects: map[string][]byte{"k": []byte(strongResume)}}
			}
			body := submissionBody(t, job.ID, "k")
			if tt.body != nil {
				body = tt.body(t)
			}
			events := &fakeEvents{}

			p := NewProcessor(jobs, fetcher, &fakeSubmitter{err: tt.submitErr}, events)
			assert.Equal(t, tt.want, p.Process(context.Background(), body, tt.redelivered))
			if tt.want != Ack {
				assert.Empty(t, events.events)
			}
		})
	}
}

func TestProcessor_CancelledIsRequeued(t *testing.T) {
	job := testJob()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewProcessor(&fakeJobs{job: job}, &fakeFetcher{err: context.Canceled}, &fakeSubmitter{}, nil)
	assert.Equal(t, Requeue, p.Process(ctx, submissionBody(t, job.ID, "k"), true))
}

func TestProcessor_PublishFailureStillAcks(t *testing.T) {
	job := testJob()
	submitter := &fakeSubmitter{}
	p := NewProcessor(&fakeJobs{job: job},
		&fakeFetcher{objects: map[string][]byte{"k": []byte(strongResume)}},
		submitter, &fakeEvents{err: errors.New("channel closed")})

	assert.Equal(t, Ack, p.Process(context.Background(), submissionBody(t, job.ID, "k"), false))
	assert.Len(t, submitter.reqs, 1)
}

func TestProcessor_NilPublisher(t *testing.T) {
	job := testJob()
	p := NewProcessor(&fakeJobs{job: job},
		&fakeFetcher{objects: map[string][]byte{"k": []byte(strongResume)}}, &fakeSubmitter{}, nil)
	assert.Equal(t, Ack, p.Process(context.Background(), submissionBody(t, job.ID, "k"), false))
}

func TestOutcome_String(t *testing.T) {
	assert.Equal(t, "ack", Ack.String())
	assert.Equal(t, "reject", Reject.String())
	assert.Equal(t, "requeue", Requeue.String())
	assert.Equal(t, "outcome(9)", Outcome(9).String())
}

// fakeAcknowledger records how deliveries were settled.
type fakeAcknowledger struct {
	acked    []uint64
	nacked   []uint64
	requeued []bool
}

func (f *fakeAcknowledger) Ack(tag uint64, _ bool) error {
	f.acked = append(f.acked, tag)
	return nil
}

func (f *fakeAcknowledger) Nack(tag uint64, _ bool, requeue bool) error {
	f.nacked = append(f.nacked, tag)
	f.requeued = append(f.requeued, requeue)
	return nil
}

func (f *fakeAcknowledger) Reject(tag uint64, requeue bool) error {
	return f.Nack(tag, false, requeue)
}

func TestConsumer_HandleSettlesDeliveries(t *testing.T) {
	job := testJob()
	fetcher := &fakeFetcher{objects: map[string][]byte{"k": []byte(strongResume)}}
	c := NewConsumer(nil, "resume_submissions", 0, NewProcessor(&fakeJobs{job: job}, fetcher, &fakeSubmitter{}, nil))
	assert.Equal(t, 1, c.workers)

	ack := &fakeAcknowledger{}
	c.handle(context.Background(), amqp.Delivery{Acknowledger: ack, DeliveryTag: 1, Body: submissionBody(t, job.ID, "k")})
	c.handle(context.Background(), amqp.Delivery{Acknowledger: ack, DeliveryTag: 2, Body: []byte("garbage")})

	fetcher.err = errors.New("timeout")
	c.handle(context.Background(), amqp.Delivery{Acknowledger: ack, DeliveryTag: 3, Body: submissionBody(t, job.ID, "k")})
	c.handle(context.Background(), amqp.Delivery{Acknowledger: ack, DeliveryTag: 4, Body: submissionBody(t, job.ID, "k"), Redelivered: true})

	assert.Equal(t, []uint64{1}, ack.acked)
	assert.Equal(t, []uint64{2, 3, 4}, ack.nacked)
	assert.Equal(t, []bool{false, true, false}, ack.requeued)
}

type fakeChannel struct {
	declared  []string
	published []amqp.Publishing
	keys      []string
	err       error
}

func (f *fakeChannel) ExchangeDeclare(name, kind string, durable, _, _, _ bool, _ amqp.Table) error {
	if f.err != nil {
		return f.err
	}
	f.declared = append(f.declared, fmt.Sprintf("%s:%s:%t", name, kind, durable))
	return nil
}

func (f *fakeChannel) Publish(exchange, key string, _, _ bool, msg amqp.Publishing) error {
	if f.err != nil {
		return f.err
	}
	f.keys = append(f.keys, exchange+"/"+key)
	f.published = append(f.published, msg)
	return nil
}

func TestPublisher(t *testing.T) {
	ch := &fakeChannel{}
	pub, err := NewPublisher(ch, "application_events")
	require.NoError(t, err)
	assert.Equal(t, []string{"application_events:topic:true"}, ch.declared)

	app := &types.Application{ID: uuid.New(), JobID: uuid.New(), MatchScore: 69.5, FitCategory: narrative.FitGood}
	ev := NewScreenedEvent(app, time.Date(2026, 5, 4, 12, 0, 0, 0, time.FixedZone("IST", 19800)))
	require.NoError(t, pub.Publish(context.Background(), ev))

	require.Len(t, ch.published, 1)
	msg := ch.published[0]
	assert.Equal(t, []string{"application_events/application.screened"}, ch.keys)
	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)
	assert.Equal(t, app.ID.String(), msg.MessageId)

	var decoded ScreenedEvent
	require.NoError(t, json.Unmarshal(msg.Body, &decoded))
	assert.Equal(t, app.ID, decoded.ApplicationID)
	assert.Equal(t, 69.5, decoded.MatchScore)
	assert.Equal(t, narrative.FitGood, decoded.FitCategory)
	assert.True(t, decoded.Timestamp.Equal(time.Date(2026, 5, 4, 6, 30, 0, 0, time.UTC)), decoded.Timestamp)
	assert.Equal(t, time.UTC, decoded.Timestamp.Location())
}

func TestPublisher_Errors(t *testing.T) {
	_, err := NewPublisher(&fakeChannel{err: errors.New("closed")}, "x")
	assert.ErrorContains(t, err, "failed to declare exchange")

	ch := &fakeChannel{}
	pub, err := NewPublisher(ch, "x")
	require.NoError(t, err)
	ch.err = errors.New("closed")
	assert.ErrorContains(t, pub.Publish(context.Background(), ScreenedEvent{Type: EventScreened}), "failed to publish")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, pub.Publish(ctx, ScreenedEvent{}), context.Canceled)
}
