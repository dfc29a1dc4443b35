package realtime

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/Polqt/iComplain/types"
)

// event is the inbound message envelope. Ticket events discriminate on
// action, everything else on type; pushed notifications arrive as the
// serialized notification itself, whose type field is its severity.
type event struct {
	Action       string               `json:"action"`
	Type         string               `json:"type"`
	TicketID     int                  `json:"ticket_id"`
	CommentID    int                  `json:"comment_id"`
	Message      string               `json:"message"`
	Comment      *types.TicketComment `json:"comment"`
	Notification *types.Notification  `json:"notification"`
}

// dispatch routes one inbound message into the stores. Malformed payloads
// are logged and dropped; unrecognized discriminators are ignored so newer
// servers can speak past older clients.
func (c *Channel) dispatch(ctx context.Context, data []byte) {
	var ev event
	if err := json.Unmarshal(data, &ev); err != nil {
		c.log.Warn("dropping malformed socket message", zap.Error(err))
		return
	}

	switch {
	case ev.Action != "":
		c.dispatchTicket(ctx, ev)
	case ev.Type != "":
		c.dispatchTyped(ctx, ev, data)
	default:
		c.log.Debug("ignoring socket message without discriminator")
	}
}

func (c *Channel) dispatchTicket(ctx context.Context, ev event) {
	tickets := c.cfg.Stores.Tickets
	if tickets == nil {
		return
	}

	switch ev.Action {
	case "created":
		// The create broadcast carries only the id, so the cheapest
		// consistent move is repeating the last list load.
		go tickets.Reload(ctx)
	case "updated", "commented", "status_changed":
		if ev.TicketID != 0 {
			go tickets.LoadByID(ctx, ev.TicketID)
		}
	case "deleted":
		if ev.TicketID != 0 {
			tickets.RemoveTicket(ev.TicketID)
		}
	default:
		c.log.Debug("ignoring unknown ticket action", zap.String("action", ev.Action))
	}
}

func (c *Channel) dispatchTyped(ctx context.Context, ev event, data []byte) {
	switch ev.Type {
	case "comment_created":
		if c.cfg.Stores.Comments != nil && ev.Comment != nil {
			c.cfg.Stores.Comments.AddComment(*ev.Comment)
		}
	case "comment_updated":
		if c.cfg.Stores.Comments != nil && ev.Comment != nil {
			updated := *ev.Comment
			c.cfg.Stores.Comments.PatchComment(updated.ID, func(dst *types.TicketComment) {
				*dst = updated
			})
		}
	case "comment_deleted":
		id := ev.CommentID
		if id == 0 && ev.Comment != nil {
			id = ev.Comment.ID
		}
		if c.cfg.Stores.Comments != nil && id != 0 {
			c.cfg.Stores.Comments.RemoveComment(id)
		}
	case "info", "success", "warning", "error":
		if c.cfg.Stores.Notifications == nil {
			return
		}
		if ev.Notification != nil {
			c.cfg.Stores.Notifications.Add(*ev.Notification)
			return
		}
		var n types.Notification
		if err := json.Unmarshal(data, &n); err != nil || n.ID == "" {
			c.log.Warn("dropping malformed notification push", zap.Error(err))
			return
		}
		c.cfg.Stores.Notifications.Add(n)
	default:
		c.log.Debug("ignoring unknown socket message type", zap.String("type", ev.Type))
	}
}
