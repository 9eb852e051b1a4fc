package mq

import (
	"context"
	"encoding/json"

	"github.com/shandysiswandi/twofa/internal/pkg/instrument"
	"github.com/shandysiswandi/twofa/internal/pkg/messaging"
	"github.com/shandysiswandi/twofa/internal/shared/event"
	"github.com/shandysiswandi/twofa/internal/twofactor/usecase"
	"go.opentelemetry.io/otel/codes"
)

const keyOfCorrelationID string = "cID"

type Messaging struct {
	client messaging.Publisher
	ins    instrument.Instrumentation
}

func NewMessaging(client messaging.Publisher, ins instrument.Instrumentation) *Messaging {
	return &Messaging{client: client, ins: ins}
}

func (m *Messaging) PublishEnrolled(ctx context.Context, msg usecase.SecurityEvent) error {
	return m.publish(ctx, "PublishEnrolled", event.TwoFactorEnrolledDestination, msg)
}

func (m *Messaging) PublishChallengeSucceeded(ctx context.Context, msg usecase.SecurityEvent) error {
	return m.publish(ctx, "PublishChallengeSucceeded", event.TwoFactorChallengeSucceededDestination, msg)
}

func (m *Messaging) PublishChallengeFailed(ctx context.Context, msg usecase.SecurityEvent) error {
	return m.publish(ctx, "PublishChallengeFailed", event.TwoFactorChallengeFailedDestination, msg)
}

func (m *Messaging) publish(ctx context.Context, name, destination string, msg usecase.SecurityEvent) error {
	ctx, span := m.ins.Tracer("twofactor.outbound.mq").Start(ctx, name)
	defer span.End()

	body, err := json.Marshal(event.TwoFactorMessage{
		UserID:      msg.UserID,
		OccurredAt:  msg.OccurredAt.UTC(),
		MatchedStep: msg.MatchedStep,
		Reason:      msg.Reason,
		ClientIP:    instrument.GetClientIP(ctx),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	cID := instrument.GetCorrelationID(ctx)
	if _, err := m.client.Publish(ctx, destination, messaging.Message{
		Key:     []byte(msg.UserID),
		Body:    body,
		Headers: []messaging.Header{{Key: keyOfCorrelationID, Value: []byte(cID)}},
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
