package pubsub

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
)

const (
	ChannelIntakeProgress = "intake_progress"
	TypeIntakeProgress    = "intake_progress"
)

// ProgressMessage is one async-phase step of one application.
type ProgressMessage struct {
	Type          string `json:"type"`
	ApplicationID string `json:"application_id"`
	Status        string `json:"status"`
	Step          string `json:"step"`
	Progress      int    `json:"progress"`
	Message       string `json:"message,omitempty"`
	Error         string `json:"error,omitempty"`
}

// Steps
const (
	StepAnalyzing = "analyzing"
	StepComposing = "composing"
	StepNotifying = "notifying"
	StepDone      = "done"
	StepAborted   = "aborted"
)

// Statuses
const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

var StepProgress = map[string]int{
	StepAnalyzing: 25,
	StepComposing: 50,
	StepNotifying: 75,
	StepDone:      100,
}

var StepMessages = map[string]string{
	StepAnalyzing: "Reading the application",
	StepComposing: "Writing the welcome email",
	StepNotifying: "Sending notifications",
	StepDone:      "Application processed",
	StepAborted:   "Processing stopped, manual follow-up needed",
}

type Publisher struct {
	client *redis.Client
}

func NewPublisher(client *redis.Client) *Publisher {
	return &Publisher{client: client}
}

// PublishProgress fills in type, progress and message from the step when
// they are unset.
func (p *Publisher) PublishProgress(ctx context.Context, msg *ProgressMessage) error {
	fill(msg)

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal progress message: %w", err)
	}

	return p.client.Publish(ctx, ChannelIntakeProgress, data).Err()
}

func fill(msg *ProgressMessage) {
	msg.Type = TypeIntakeProgress

	if msg.Progress == 0 && msg.Step != "" {
		if progress, ok := StepProgress[msg.Step]; ok {
			msg.Progress = progress
		}
	}
	if msg.Message == "" && msg.Step != "" {
		if message, ok := StepMessages[msg.Step]; ok {
			msg.Message = message
		}
	}
	if msg.Status == "" {
		switch msg.Step {
		case StepDone:
			msg.Status = StatusCompleted
		case StepAborted:
			msg.Status = StatusFailed
		default:
			msg.Status = StatusProcessing
		}
	}
}

type Subscriber struct {
	client *redis.Client
}

func NewSubscriber(client *redis.Client) *Subscriber {
	return &Subscriber{client: client}
}

// Subscribe calls handler for every progress message until ctx is done.
func (s *Subscriber) Subscribe(ctx context.Context, handler func(*ProgressMessage)) error {
	ps := s.client.Subscribe(ctx, ChannelIntakeProgress)
	defer ps.Close()

	ch := ps.Channel()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}

			var progressMsg ProgressMessage
			if err := json.Unmarshal([]byte(msg.Payload), &progressMsg); err != nil {
				continue
			}

			handler(&progressMsg)
		}
	}
}
