package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"brainboost/internal/chat"
)

// ChatHandler 处理 AI 学习助手对话。
type ChatHandler struct {
	chats *chat.Service
}

func NewChatHandler(chats *chat.Service) *ChatHandler {
	return &ChatHandler{chats: chats}
}

type sendMessageRequest struct {
	Message string `json:"message"`
}

// Send 发送一条消息并返回助手回复。
func (h *ChatHandler) Send(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Message is required")
		return
	}
	reply, err := h.chats.Send(c.Request.Context(), *user, req.Message)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": reply})
}

// History 返回全部对话记录。
func (h *ChatHandler) History(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	messages, err := h.chats.History(c.Request.Context(), user.ID)
	if err != nil {
		RespondError(c, err)
		return
	}
	out := make([]chatMessageView, 0, len(messages))
	for _, m := range messages {
		out = append(out, chatMessageView{Role: m.Role, Content: m.Content, Timestamp: m.Timestamp})
	}
	c.JSON(http.StatusOK, gin.H{"messages": out})
}

// Clear 清空对话记录。
func (h *ChatHandler) Clear(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	if err := h.chats.Clear(c.Request.Context(), user.ID); err != nil {
		RespondError(c, err)
		return
	}
	Message(c, http.StatusOK, "Chat history cleared")
}
