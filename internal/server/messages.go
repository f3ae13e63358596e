package server

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"messenger-backend/internal/storage"
)

type messagePayload struct {
	ID           int64   `json:"id"`
	ChatID       int64   `json:"chatId"`
	SenderID     int64   `json:"senderId"`
	SenderName   string  `json:"senderName"`
	SenderAvatar *string `json:"senderAvatar"`
	Text         *string `json:"text"`
	MediaURL     *string `json:"mediaUrl"`
	MediaType    *string `json:"mediaType"`
	Time         string  `json:"time"`
	IsOwn        bool    `json:"isOwn"`
}

type messageListResponse struct {
	Messages []messagePayload `json:"messages"`
}

// messagesByChatID handles GET requests on the "/messages" endpoint
func (h *handler) messagesByChatID(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userIDHeader(w, r)
	if !ok {
		return
	}

	raw := r.URL.Query().Get("chat_id")
	if raw == "" {
		h.writeError(w, http.StatusBadRequest, `Missing query parameter "chat_id"`)
		return
	}

	chatID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || chatID < 1 {
		h.writeError(w, http.StatusBadRequest, `Query parameter "chat_id" must be a valid chat id greater than zero`)
		return
	}

	messages, err := h.store.MessagesByChatID(r.Context(), chatID)
	if err != nil {
		if errors.Is(err, storage.ErrChatNotExist) {
			h.writeError(w, http.StatusBadRequest, "Chat with provided id does not exist")
			return
		}
		h.internalError(w, err)
		return
	}

	payload := make([]messagePayload, 0, len(messages))
	for _, m := range messages {
		payload = append(payload, newMessagePayload(m, m.SenderID == userID))
	}

	h.writeJSON(w, messageListResponse{Messages: payload})
}

// createMessage handles POST requests on the "/messages" endpoint
func (h *handler) createMessage(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userIDHeader(w, r)
	if !ok {
		return
	}

	body, _ := io.ReadAll(r.Body)

	parser := h.parsers.createMessagePool.Get()
	defer h.parsers.createMessagePool.Put(parser)
	v, _ := parser.ParseBytes(body)

	if !v.Exists("chatId") {
		h.writeError(w, http.StatusBadRequest, `Missing field "chatId"`)
		return
	}

	chatID, err := v.Get("chatId").Int64()
	if err != nil {
		h.writeError(w, http.StatusBadRequest, `Field "chatId" must be a 64-bit integer value`)
		return
	}

	if chatID < 1 {
		h.writeError(w, http.StatusBadRequest, `Field "chatId" must be a valid chat id greater than zero`)
		return
	}

	msg := storage.NewMessage{
		ChatID:   chatID,
		SenderID: userID,
		IsVoice:  v.GetBool("isVoice"),
	}

	if text := string(v.GetStringBytes("text")); text != "" {
		msg.Text = &text
	}

	mediaType := string(v.GetStringBytes("mediaType"))
	if mediaType != "" {
		msg.MediaType = &mediaType
	}

	if mediaURL := string(v.GetStringBytes("mediaUrl")); mediaURL != "" {
		msg.MediaURL = &mediaURL
	} else if mediaFile := string(v.GetStringBytes("mediaFile")); mediaFile != "" {
		// inline uploads arrive base64-encoded and are stored as a data URL
		dataURL := "data:" + mediaType + ";base64," + mediaFile
		msg.MediaURL = &dataURL
	}

	if v.Exists("voiceDuration") {
		d, err := v.Get("voiceDuration").Int()
		if err != nil {
			h.writeError(w, http.StatusBadRequest, `Field "voiceDuration" must be an integer value`)
			return
		}
		duration := int32(d)
		msg.VoiceDuration = &duration
	}

	if msg.Text == nil && msg.MediaURL == nil && !msg.IsVoice {
		h.writeError(w, http.StatusBadRequest, "Message must carry text, media or voice content")
		return
	}

	stored, err := h.store.CreateMessage(r.Context(), msg)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrChatNotExist):
			h.writeError(w, http.StatusBadRequest, "Chat with provided id does not exist")
		case errors.Is(err, storage.ErrNotChatMember):
			h.writeError(w, http.StatusForbidden, "Sender is not a chat member")
		default:
			h.internalError(w, err)
		}
		return
	}

	h.writeJSON(w, struct {
		Message messagePayload `json:"message"`
	}{newMessagePayload(stored, true)})
}

func newMessagePayload(m storage.Message, isOwn bool) messagePayload {
	return messagePayload{
		ID:           m.ID,
		ChatID:       m.ChatID,
		SenderID:     m.SenderID,
		SenderName:   m.SenderName,
		SenderAvatar: m.SenderAvatar,
		Text:         m.Text,
		MediaURL:     m.MediaURL,
		MediaType:    m.MediaType,
		Time:         clock(m.CreatedAt),
		IsOwn:        isOwn,
	}
}
