package notifications

import (
	"context"

	"github.com/ansel1/merry/v2"
	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/go-resty/resty/v2"
)

// Client delivers CloudEvents to a webhook in structured JSON mode.
type Client struct {
	url string

	restyClient *resty.Client
}

func NewClient(url string) *Client {
	client := resty.New()
	client.SetDisableWarn(true)
	client.SetRetryCount(3)
	client.SetHeader("Content-Type", "application/cloudevents+json")

	return &Client{
		url:         url,
		restyClient: client,
	}
}

// Enabled reports whether a webhook is configured.
func (c *Client) Enabled() bool {
	return c != nil && c.url != ""
}

func (c *Client) Publish(ctx context.Context, event cloudevents.Event) error {
	if !c.Enabled() {
		return nil
	}

	resp, err := c.restyClient.R().
		SetContext(ctx).
		SetBody(event).
		Post(c.url)
	if err != nil {
		return merry.Wrap(err)
	}
	if resp.IsError() {
		return merry.New("webhook rejected event",
			merry.WithHTTPCode(resp.StatusCode()),
			merry.WithValue("body", resp.String()),
		)
	}
	return nil
}
