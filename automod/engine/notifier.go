package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Notifies moderators about automated enforcement via a slack "incoming
// webhook". The webhook must already be configured in the slack workspace.
type SlackNotifier struct {
	SlackWebhookURL string
}

type SlackWebhookBody struct {
	Text string `json:"text"`
}

func (n *SlackNotifier) SendEnforcement(ctx context.Context, out *Outcome) error {
	msg := "⚠️ Automod Enforcement ⚠️\n"
	msg += fmt.Sprintf("community `%s` / author `%s`\n", out.Post.CommunityID, out.Post.Author)
	if len(out.Violations) > 0 {
		msg += fmt.Sprintf("Violations: `%s`\n", strings.Join(out.Violations, ", "))
	}
	if out.Rejected {
		msg += "Post rejected\n"
	}
	if out.TimeoutUntil != nil {
		msg += fmt.Sprintf("Member timeout until %s\n", out.TimeoutUntil.Format("2006-01-02 15:04:05 MST"))
	}
	return n.sendSlackMsg(ctx, msg)
}

func (n *SlackNotifier) sendSlackMsg(ctx context.Context, msg string) error {
	body, err := json.Marshal(SlackWebhookBody{Text: msg})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.SlackWebhookURL, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Add("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	buf := new(bytes.Buffer)
	buf.ReadFrom(resp.Body)
	if resp.StatusCode != 200 || buf.String() != "ok" {
		return fmt.Errorf("failed slack webhook POST request. status=%d", resp.StatusCode)
	}
	return nil
}
