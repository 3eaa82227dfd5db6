// Package cfnresponse reports custom resource outcomes back to CloudFormation.
package cfnresponse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/aws/aws-lambda-go/cfn"

	"github.com/jrzesz33/lex_provisioner/internal/httpclient"
)

const (
	// MaxReasonLength bounds the error text copied into a failure reason
	MaxReasonLength = 255
	// TimeoutReason is sent when the invocation runs out of time
	TimeoutReason = "Execution timed out"
	// DeadlineMargin is how long before the deadline the guard fires
	DeadlineMargin = 500 * time.Millisecond
)

// ErrAlreadySent is returned when an earlier response won the race
var ErrAlreadySent = errors.New("response already sent")

// Sender performs the HTTP request carrying the response document
type Sender interface {
	Do(ctx context.Context, config httpclient.RequestConfig) (*httpclient.Response, error)
}

// Responder sends exactly one response for a CloudFormation event
type Responder struct {
	event     cfn.Event
	sender    Sender
	logStream string
	logger    *slog.Logger

	mu         sync.Mutex
	sent       bool
	sentStatus cfn.StatusType
	sentReason string
}

// NewResponder creates a responder for event
func NewResponder(event cfn.Event, sender Sender, logStream string, logger *slog.Logger) *Responder {
	return &Responder{
		event:     event,
		sender:    sender,
		logStream: logStream,
		logger:    logger,
	}
}

// PhysicalResourceID returns the id to report for event: the request id on
// create and the id CloudFormation already knows otherwise.
func PhysicalResourceID(event cfn.Event, logStream string) string {
	if event.RequestType == cfn.RequestCreate {
		if event.RequestID != "" {
			return event.RequestID
		}
		return logStream
	}
	if event.PhysicalResourceID != "" {
		return event.PhysicalResourceID
	}
	return logStream
}

// FailureReason formats err as a failure reason pointing at the log stream
func FailureReason(err error, logStream string) string {
	msg := err.Error()
	if utf8.RuneCountInString(msg) > MaxReasonLength {
		msg = string([]rune(msg)[:MaxReasonLength])
	}
	return fmt.Sprintf("%s... See details in CloudWatch Log Stream: %s", msg, logStream)
}

// SuccessReason points at the log stream
func SuccessReason(logStream string) string {
	return "See details in CloudWatch Log Stream: " + logStream
}

// Success sends a SUCCESS response with data. It returns ErrAlreadySent when
// another response went out first.
func (r *Responder) Success(ctx context.Context, data map[string]interface{}) error {
	return r.send(ctx, cfn.StatusSuccess, SuccessReason(r.logStream), data)
}

// Failure sends a FAILED response describing err
func (r *Responder) Failure(ctx context.Context, err error) error {
	return r.send(ctx, cfn.StatusFailed, FailureReason(err, r.logStream), nil)
}

// Sent reports whether a response was already sent
func (r *Responder) Sent() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sent
}

// SentResponse returns the status and reason of the response that was sent.
// The status is empty while nothing has been sent.
func (r *Responder) SentResponse() (cfn.StatusType, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sentStatus, r.sentReason
}

// GuardDeadline arms a timer that sends a FAILED response shortly before the
// deadline of ctx. The returned function disarms it.
func (r *Responder) GuardDeadline(ctx context.Context) func() {
	deadline, ok := ctx.Deadline()
	if !ok {
		return func() {}
	}

	fire := func() {
		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), DeadlineMargin)
		defer cancel()

		r.logger.ErrorContext(ctx, "invocation about to time out",
			slog.Time("deadline", deadline),
		)
		if err := r.send(sendCtx, cfn.StatusFailed, TimeoutReason, nil); err != nil && !errors.Is(err, ErrAlreadySent) {
			r.logger.ErrorContext(ctx, "failed to send timeout response",
				slog.String("error", err.Error()),
			)
		}
	}

	timer := time.AfterFunc(time.Until(deadline.Add(-DeadlineMargin)), fire)
	return func() { timer.Stop() }
}

func (r *Responder) send(ctx context.Context, status cfn.StatusType, reason string, data map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sent {
		r.logger.DebugContext(ctx, "response already sent",
			slog.String("status", string(status)),
		)
		return ErrAlreadySent
	}
	r.sent = true
	r.sentStatus = status
	r.sentReason = reason

	resp := cfn.NewResponse(&r.event)
	resp.Status = status
	resp.Reason = reason
	resp.PhysicalResourceID = PhysicalResourceID(r.event, r.logStream)
	if len(data) > 0 {
		resp.Data = data
	}

	body, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("failed to marshal response: %w", err)
	}

	r.logger.InfoContext(ctx, "sending cloudformation response",
		slog.String("status", string(status)),
		slog.String("physical_resource_id", resp.PhysicalResourceID),
		slog.String("reason", reason),
	)

	_, err = r.sender.Do(ctx, httpclient.RequestConfig{
		Method:  http.MethodPut,
		URL:     r.event.ResponseURL,
		Headers: map[string]string{"Content-Type": ""},
		Body:    body,
	})
	if err != nil {
		return fmt.Errorf("failed to send %s response: %w", status, err)
	}
	return nil
}
