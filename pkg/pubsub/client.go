package pubsub

import (
	"context"
	"errors"
	"fmt"
	"strings"

	pubsub "cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/angelmondragon/pickupz-backend/pkg/config"
	"github.com/angelmondragon/pickupz-backend/pkg/logger"
)

// orderingAttribute names the message attribute used as the ordering key.
const orderingAttribute = "order_id"

var errNotInitialized = errors.New("pubsub client not initialized")

// Client publishes order lifecycle events to a single Pub/Sub topic.
type Client struct {
	client  *pubsub.Client
	topic   string
	ordered bool
	events  *pubsub.Publisher
}

// NewClient connects and fails fast when the order events topic is missing.
func NewClient(ctx context.Context, gcp config.GCPConfig, cfg config.PubSubConfig, logg *logger.Logger) (*Client, error) {
	project := strings.TrimSpace(gcp.ProjectID)
	if project == "" {
		return nil, errors.New("gcp project id is required")
	}
	topic := topicPath(project, cfg.OrderEventsTopic)
	if topic == "" {
		return nil, errors.New("pubsub order events topic is required")
	}

	psClient, err := pubsub.NewClient(ctx, project, clientOptions(gcp)...)
	if err != nil {
		return nil, fmt.Errorf("pubsub client: %w", err)
	}
	c := &Client{client: psClient, topic: topic, ordered: cfg.OrderedDelivery}
	if err := c.Ping(ctx); err != nil {
		_ = psClient.Close()
		return nil, err
	}

	c.events = psClient.Publisher(topic)
	c.events.EnableMessageOrdering = c.ordered

	if logg != nil {
		logg.Info(logg.WithFields(ctx, map[string]any{"topic": topic, "ordered": c.ordered}), "pubsub publisher ready")
	}
	return c, nil
}

func clientOptions(gcp config.GCPConfig) []option.ClientOption {
	if js := strings.TrimSpace(gcp.CredentialsJSON); js != "" {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(js))}
	}
	if path := strings.TrimSpace(gcp.ApplicationCredentials); path != "" {
		return []option.ClientOption{option.WithCredentialsFile(path)}
	}
	return nil
}

// topicPath accepts a short topic id or a full projects/<p>/topics/<t> name.
func topicPath(project, topic string) string {
	topic = strings.TrimSpace(topic)
	switch {
	case topic == "":
		return ""
	case strings.HasPrefix(topic, "projects/") && strings.Contains(topic, "/topics/"):
		return topic
	case project == "":
		return ""
	}
	return "projects/" + project + "/topics/" + topic
}

// PublishOrderEvent blocks until the server acks. With ordered delivery the order_id
// attribute becomes the ordering key and a failed key is resumed before returning.
func (c *Client) PublishOrderEvent(ctx context.Context, data []byte, attributes map[string]string) (string, error) {
	if c == nil || c.events == nil {
		return "", errNotInitialized
	}
	msg := &pubsub.Message{Data: data, Attributes: attributes}
	if c.ordered {
		msg.OrderingKey = attributes[orderingAttribute]
	}

	id, err := c.events.Publish(ctx, msg).Get(ctx)
	if err != nil {
		if msg.OrderingKey != "" {
			c.events.ResumePublish(msg.OrderingKey)
		}
		return "", fmt.Errorf("publish to %s: %w", c.topic, err)
	}
	return id, nil
}

// Ping confirms the topic exists and the credentials can see it.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.client == nil {
		return errNotInitialized
	}
	_, err := c.client.TopicAdminClient.GetTopic(ctx, &pubsubpb.GetTopicRequest{Topic: c.topic})
	switch {
	case err == nil:
		return nil
	case status.Code(err) == codes.NotFound:
		return fmt.Errorf("topic %s does not exist", c.topic)
	default:
		return fmt.Errorf("get topic %s: %w", c.topic, err)
	}
}

// Close flushes in-flight publishes first.
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	if c.events != nil {
		c.events.Stop()
	}
	return c.client.Close()
}
