package alert

import (
	"context"
	"fmt"
	"time"

	"github.com/imroc/req/v3"
)

// Message 是 WPS / 企业微信机器人的文本消息
type Message struct {
	Msgtype string `json:"msgtype"`
	Text    struct {
		Content string `json:"content"`
	} `json:"text"`
}

type webhookAlerter struct {
	url    string
	client *req.Client
}

func newWebhookAlerter(url string, timeoutSeconds int) alertHandlerInterface {
	client := req.C().SetTimeout(time.Duration(timeoutSeconds) * time.Second)
	return &webhookAlerter{url: url, client: client}
}

func (w *webhookAlerter) Name() string { return "webhook" }

// SendMessageTo posts to the group chat; the robot has no per-user receiver.
func (w *webhookAlerter) SendMessageTo(ctx context.Context, _, subject, body string) error {
	msg := Message{Msgtype: "text"}
	msg.Text.Content = subject + "\n" + body

	resp, err := w.client.R().
		SetContext(ctx).
		SetBodyJsonMarshal(msg).
		Post(w.url)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	if resp.IsErrorState() {
		return fmt.Errorf("webhook responded %s", resp.Status)
	}
	return nil
}
