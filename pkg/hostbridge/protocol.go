package hostbridge

import (
	"context"

	"github.com/randalmurphal/hostbridge/pkg/hostbridge/message"
)

// DialogButton labels one button of a host dialog.
type DialogButton struct {
	Name string `json:"name"`
}

// ShowDialog asks the host to present a dialog and blocks until the
// ShowDialogResponse arrives. The response's "result" field carries the
// name of the pressed button.
func (c *Client) ShowDialog(ctx context.Context, text string, buttons []DialogButton) (message.Message, error) {
	return c.Request(ctx, message.New(message.NameShowDialogRequest, map[string]any{
		"dialogText": text,
		"buttons":    buttons,
	}))
}
