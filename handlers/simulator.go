package handlers

import (
	"net/http"

	"coffee-order-bot/journey"

	"github.com/gin-gonic/gin"
)

// Journey lets the dashboard drive the conversation without a chat transport
var Journey *journey.Service

type UpdateRequest struct {
	Kind    string `json:"kind" binding:"required,oneof=message callback"`
	ChatID  int64  `json:"chat_id" binding:"required"`
	Text    string `json:"text"`
	Data    string `json:"data"`
	Contact string `json:"contact"`
}

// recordedConversation captures everything a step renders so the simulator
// can return it as JSON
type recordedConversation struct {
	Responses []gin.H
}

func buttons(keyboard [][]journey.Button) [][]gin.H {
	var out [][]gin.H
	for _, row := range keyboard {
		var r []gin.H
		for _, b := range row {
			r = append(r, gin.H{"text": b.Text, "data": b.Data, "url": b.URL})
		}
		out = append(out, r)
	}
	return out
}

func (rc *recordedConversation) Reply(text string, keyboard [][]journey.Button) error {
	rc.Responses = append(rc.Responses, gin.H{"type": "reply", "text": text, "keyboard": buttons(keyboard)})
	return nil
}

func (rc *recordedConversation) Edit(text string, keyboard [][]journey.Button) error {
	rc.Responses = append(rc.Responses, gin.H{"type": "edit", "text": text, "keyboard": buttons(keyboard)})
	return nil
}

func (rc *recordedConversation) Delete() error {
	rc.Responses = append(rc.Responses, gin.H{"type": "delete"})
	return nil
}

func (rc *recordedConversation) Answer(text string, alert bool) error {
	rc.Responses = append(rc.Responses, gin.H{"type": "answer", "text": text, "alert": alert})
	return nil
}

// SimulateUpdate feeds one chat update through the journey and returns what
// the customer would have seen. Used by the dashboard's test console.
func SimulateUpdate(c *gin.Context) {
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	kind := journey.EventMessage
	if req.Kind == "callback" {
		kind = journey.EventCallback
	}
	upd := journey.Update{
		Kind:    kind,
		ChatID:  req.ChatID,
		Text:    req.Text,
		Data:    req.Data,
		Contact: req.Contact,
	}

	conv := &recordedConversation{}
	if err := Journey.HandleUpdate(upd, conv); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"responses": conv.Responses})
}
