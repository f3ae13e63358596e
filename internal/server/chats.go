package server

import (
	"errors"
	"io"
	"net/http"

	"messenger-backend/internal/storage"

	"github.com/valyala/fastjson"
)

type peerPayload struct {
	ID     int64   `json:"id"`
	Name   string  `json:"name"`
	Avatar *string `json:"avatar"`
	Online bool    `json:"online"`
}

type chatPayload struct {
	ID          int64        `json:"id"`
	Name        string       `json:"name"`
	IsGroup     bool         `json:"isGroup"`
	IsGlobal    bool         `json:"isGlobal"`
	User        *peerPayload `json:"user"`
	LastMessage string       `json:"lastMessage"`
	Time        string       `json:"time"`
	Unread      int          `json:"unread"`
}

type chatListResponse struct {
	Chats []chatPayload `json:"chats"`
}

// chatsByUserID handles GET requests on the "/chats" endpoint
func (h *handler) chatsByUserID(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userIDHeader(w, r)
	if !ok {
		return
	}

	chats, err := h.store.ChatsByUserID(r.Context(), userID)
	if err != nil {
		h.internalError(w, err)
		return
	}

	payload := make([]chatPayload, 0, len(chats))
	for _, c := range chats {
		p := chatPayload{
			ID:          c.ID,
			Name:        c.Name,
			IsGroup:     c.IsGroup,
			IsGlobal:    c.IsGlobal,
			LastMessage: c.LastMessage,
		}
		if c.Peer != nil {
			p.User = &peerPayload{
				ID:     c.Peer.ID,
				Name:   c.Peer.Name,
				Avatar: c.Peer.Avatar,
				Online: c.Peer.Online,
			}
		}
		if c.LastMessageAt != nil {
			p.Time = clock(*c.LastMessageAt)
		}
		payload = append(payload, p)
	}

	h.writeJSON(w, chatListResponse{Chats: payload})
}

// createChat handles POST requests on the "/chats" endpoint: direct chat
// find-or-create by contact id, or group chat creation with explicit members
func (h *handler) createChat(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userIDHeader(w, r)
	if !ok {
		return
	}

	body, _ := io.ReadAll(r.Body)

	parser := h.parsers.createChatPool.Get()
	defer h.parsers.createChatPool.Put(parser)
	v, _ := parser.ParseBytes(body)

	if v.GetBool("isGroup") {
		h.createGroupChat(w, r, userID, v)
		return
	}

	h.createDirectChat(w, r, userID, v)
}

func (h *handler) createDirectChat(w http.ResponseWriter, r *http.Request, userID int64, v *fastjson.Value) {
	if !v.Exists("contactId") {
		h.writeError(w, http.StatusBadRequest, `Missing field "contactId"`)
		return
	}

	contactID, err := v.Get("contactId").Int64()
	if err != nil {
		h.writeError(w, http.StatusBadRequest, `Field "contactId" must be a 64-bit integer value`)
		return
	}

	if contactID < 1 {
		h.writeError(w, http.StatusBadRequest, `Field "contactId" must be a valid user id greater than zero`)
		return
	}

	if contactID == userID {
		h.writeError(w, http.StatusBadRequest, "Can not start a direct chat with yourself")
		return
	}

	chatID, _, err := h.store.CreateDirectChat(r.Context(), userID, contactID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotExist) {
			h.writeError(w, http.StatusBadRequest, "Contact with provided id does not exist")
			return
		}
		h.internalError(w, err)
		return
	}

	h.writeJSON(w, struct {
		ChatID int64 `json:"chatId"`
	}{chatID})
}

func (h *handler) createGroupChat(w http.ResponseWriter, r *http.Request, userID int64, v *fastjson.Value) {
	groupName := string(v.GetStringBytes("groupName"))
	groupAvatar := string(v.GetStringBytes("groupAvatar"))

	memberValues := v.GetArray("memberIds")
	memberIDs := make([]int64, 0, len(memberValues))
	for _, mv := range memberValues {
		id, err := mv.Int64()
		if err != nil {
			h.writeError(w, http.StatusBadRequest, `Each item in "memberIds" array field must be a 64-bit integer value`)
			return
		}

		if id < 1 {
			h.writeError(w, http.StatusBadRequest, `Each integer in "memberIds" array must be a valid user id greater than zero`)
			return
		}
		memberIDs = append(memberIDs, id)
	}

	chatID, err := h.store.CreateGroupChat(r.Context(), userID, groupName, groupAvatar, memberIDs)
	if err != nil {
		if errors.Is(err, storage.ErrChatBadMembers) {
			h.writeError(w, http.StatusBadRequest, "Bad member list")
			return
		}
		h.internalError(w, err)
		return
	}

	h.writeJSON(w, struct {
		ChatID    int64  `json:"chatId"`
		GroupName string `json:"groupName"`
	}{chatID, groupName})
}
