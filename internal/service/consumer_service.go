// FILE: internal/service/consumer_service.go
package service

import (
	"context"
	"encoding/json"
	"log"

	"ai-scholarmatch-be/internal/dto"
	"ai-scholarmatch-be/internal/repository/memory"
	"ai-scholarmatch-be/pkg/workflow"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	pubSub      *gochannel.GoChannel
	topicName   string
	engine      *workflow.Engine
	runRegistry *memory.RunRegistry
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	engine *workflow.Engine,
	runRegistry *memory.RunRegistry,
) IConsumerService {
	return &consumerService{
		pubSub:      pubSub,
		topicName:   topicName,
		engine:      engine,
		runRegistry: runRegistry,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.RunSessionMessage
	err := json.Unmarshal(msg.Payload, &payload)
	if err != nil {
		log.Printf("[ERROR] Failed to unmarshal run message: %v", err)
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	// A redelivery while the previous attempt is still executing must not
	// start a second concurrent execution of the same session.
	if !cs.runRegistry.TryAcquire(payload.SessionId.String()) {
		log.Printf("[INFO] Session %s already executing, skipping duplicate message", payload.SessionId)
		msg.Ack()
		return
	}
	defer cs.runRegistry.Release(payload.SessionId.String())

	log.Printf("[INFO] Executing run for session: %s", payload.SessionId)

	if err := cs.engine.Execute(ctx, payload.SessionId); err != nil {
		// The engine already persisted the failure on the session; a Nack
		// would only re-run a session that is now marked failed.
		log.Printf("[ERROR] Run execution failed for session %s: %v", payload.SessionId, err)
	}

	msg.Ack()
}
