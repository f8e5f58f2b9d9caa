package queue

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/jonathan/resume-screener/internal/storage"
	"github.com/jonathan/resume-screener/internal/types"
)

// Outcome tells the consumer how to settle a delivery.
type Outcome int

// Delivery outcomes
const (
	Ack     Outcome = iota // processed, or nothing more can be done
	Reject                 // permanently bad, drop without requeue
	Requeue                // transient failure, try again
)

func (o Outcome) String() string {
	switch o {
	case Ack:
		return "ack"
	case Reject:
		return "reject"
	case Requeue:
		return "requeue"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// JobGetter loads jobs. It returns nil, nil for an unknown id, like *db.DB.
type JobGetter interface {
	GetJob(ctx context.Context, id uuid.UUID) (*types.Job, error)
}

// Fetcher downloads uploaded resumes. *storage.Downloader satisfies it.
type Fetcher interface {
	Download(ctx context.Context, key string) ([]byte, error)
}

// Submitter screens and saves an application. *screening.Service satisfies it.
type Submitter interface {
	Submit(ctx context.Context, job *types.Job, req types.CreateApplicationRequest, data []byte) (*types.Application, error)
}

// EventPublisher publishes screening events.
type EventPublisher interface {
	Publish(ctx context.Context, ev ScreenedEvent) error
}

// errPermanent marks failures that retrying cannot fix.
var errPermanent = errors.New("permanent failure")

func permanent(err error) error {
	return fmt.Errorf("%w: %w", errPermanent, err)
}

// Processor turns one submission message into a saved application.
type Processor struct {
	jobs      JobGetter
	fetcher   Fetcher
	submitter Submitter
	events    EventPublisher
	now       func() time.Time
}

// NewProcessor creates a Processor. events may be nil to skip publishing.
func NewProcessor(jobs JobGetter, fetcher Fetcher, submitter Submitter, events EventPublisher) *Processor {
	return &Processor{
		jobs:      jobs,
		fetcher:   fetcher,
		submitter: submitter,
		events:    events,
		now:       time.Now,
	}
}

// Process handles a message body and decides how the delivery is settled.
// A transient failure is requeued once; when redelivered is set the message
// already had its retry and is rejected instead.
func (p *Processor) Process(ctx context.Context, body []byte, redelivered bool) Outcome {
	app, err := p.handle(ctx, body)
	switch {
	case err == nil:
		log.Printf("queue=process status=ok application_id=%s score=%.2f", app.ID, app.MatchScore)
		return Ack
	case errors.Is(err, errPermanent):
		log.Printf("queue=process status=rejected err=%v", err)
		return Reject
	case ctx.Err() != nil:
		log.Printf("queue=process status=interrupted err=%v", err)
		return Requeue
	case redelivered:
		log.Printf("queue=process status=failed retried=true err=%v", err)
		return Reject
	default:
		log.Printf("queue=process status=retry err=%v", err)
		return Requeue
	}
}

func (p *Processor) handle(ctx context.Context, body []byte) (*types.Application, error) {
	sub, err := DecodeSubmission(body)
	if err != nil {
		return nil, permanent(err)
	}

	job, err := p.jobs.GetJob(ctx, sub.JobID)
	if err != nil {
		return nil, fmt.Errorf("failed to load job %s: %w", sub.JobID, err)
	}
	if job == nil {
		return nil, permanent(fmt.Errorf("job %s not found", sub.JobID))
	}

	data, err := p.fetcher.Download(ctx, sub.ObjectKey)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) || errors.Is(err, storage.ErrObjectTooLarge) {
			return nil, permanent(err)
		}
		return nil, err
	}

	app, err := p.submitter.Submit(ctx, job, sub.Request(), data)
	if err != nil {
		if isPermanentSubmitError(err) {
			return nil, permanent(err)
		}
		return nil, err
	}

	// The application is already saved, so a failed publish is only logged.
	if p.events != nil {
		if err := p.events.Publish(ctx, NewScreenedEvent(app, p.now())); err != nil {
			log.Printf("queue=publish status=failed application_id=%s err=%v", app.ID, err)
		}
	}
	return app, nil
}

func isPermanentSubmitError(err error) bool {
	if errors.Is(err, types.ErrDuplicateApplication) {
		return true
	}
	var fieldErrs validator.ValidationErrors
	return errors.As(err, &fieldErrs)
}
