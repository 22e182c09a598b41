package sqs

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockConsumerClient is a mock implementation of ConsumerAPI for testing.
type mockConsumerClient struct {
	receiveMessageFunc func(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	deletedHandles     []string
}

func (m *mockConsumerClient) ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	if m.receiveMessageFunc != nil {
		return m.receiveMessageFunc(ctx, params, optFns...)
	}
	return &sqs.ReceiveMessageOutput{}, nil
}

func (m *mockConsumerClient) DeleteMessage(_ context.Context, params *sqs.DeleteMessageInput, _ ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	m.deletedHandles = append(m.deletedHandles, *params.ReceiptHandle)
	return &sqs.DeleteMessageOutput{}, nil
}

func TestConsumer_ReceiveMessages(t *testing.T) {
	t.Run("processes and deletes valid messages", func(t *testing.T) {
		// given
		queueURL := "https://sqs.us-east-1.amazonaws.com/123456789/catalog-sync-queue"
		body := `{"product_id":"123","external_id":"prod_123","synced_at":"2026-08-27T12:00:00Z"}`

		mockClient := &mockConsumerClient{
			receiveMessageFunc: func(_ context.Context, params *sqs.ReceiveMessageInput, _ ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
				assert.Equal(t, queueURL, *params.QueueUrl)
				return &sqs.ReceiveMessageOutput{
					Messages: []types.Message{
						{Body: aws.String(body), ReceiptHandle: aws.String("handle-1")},
					},
				}, nil
			},
		}

		consumer := NewConsumer(mockClient, queueURL)

		// when
		err := consumer.receiveMessages(context.Background())

		// then
		require.NoError(t, err)
		assert.Equal(t, []string{"handle-1"}, mockClient.deletedHandles)
	})

	t.Run("keeps malformed messages on the queue", func(t *testing.T) {
		// given
		mockClient := &mockConsumerClient{
			receiveMessageFunc: func(_ context.Context, _ *sqs.ReceiveMessageInput, _ ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
				return &sqs.ReceiveMessageOutput{
					Messages: []types.Message{
						{Body: aws.String("not-json"), ReceiptHandle: aws.String("handle-1")},
					},
				}, nil
			},
		}

		consumer := NewConsumer(mockClient, "queue-url")

		// when
		err := consumer.receiveMessages(context.Background())

		// then
		require.NoError(t, err)
		assert.Empty(t, mockClient.deletedHandles)
	})
}

func TestConsumer_StartStopsOnContextCancel(t *testing.T) {
	mockClient := &mockConsumerClient{}
	consumer := NewConsumer(mockClient, "queue-url")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- consumer.Start(ctx)
	}()

	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not stop after context cancellation")
	}
}
