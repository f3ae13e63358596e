package server

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"messenger-backend/internal/storage"
)

type favoritePayload struct {
	ID            int64   `json:"id"`
	ChatID        int64   `json:"chatId"`
	SenderID      int64   `json:"senderId"`
	SenderName    string  `json:"senderName"`
	SenderAvatar  *string `json:"senderAvatar"`
	Text          *string `json:"text"`
	MediaURL      *string `json:"mediaUrl"`
	MediaType     *string `json:"mediaType"`
	IsVoice       bool    `json:"isVoice"`
	VoiceDuration *int32  `json:"voiceDuration"`
	Time          string  `json:"time"`
	FavoritedAt   string  `json:"favoritedAt"`
}

type favoriteListResponse struct {
	Favorites []favoritePayload `json:"favorites"`
}

type successResponse struct {
	Success bool `json:"success"`
}

// favoritesByUserID handles GET requests on the "/favorites" endpoint
func (h *handler) favoritesByUserID(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userIDHeader(w, r)
	if !ok {
		return
	}

	favorites, err := h.store.FavoritesByUserID(r.Context(), userID)
	if err != nil {
		h.internalError(w, err)
		return
	}

	payload := make([]favoritePayload, 0, len(favorites))
	for _, f := range favorites {
		payload = append(payload, favoritePayload{
			ID:            f.ID,
			ChatID:        f.ChatID,
			SenderID:      f.SenderID,
			SenderName:    f.SenderName,
			SenderAvatar:  f.SenderAvatar,
			Text:          f.Text,
			MediaURL:      f.MediaURL,
			MediaType:     f.MediaType,
			IsVoice:       f.IsVoice,
			VoiceDuration: f.VoiceDuration,
			Time:          clock(f.CreatedAt),
			FavoritedAt:   f.FavoritedAt.Format("02.01.2006 15:04"),
		})
	}

	h.writeJSON(w, favoriteListResponse{Favorites: payload})
}

// addFavorite handles POST requests on the "/favorites" endpoint; bookmarking
// an already favorited message succeeds silently
func (h *handler) addFavorite(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userIDHeader(w, r)
	if !ok {
		return
	}

	body, _ := io.ReadAll(r.Body)

	parser := h.parsers.favoritePool.Get()
	defer h.parsers.favoritePool.Put(parser)
	v, _ := parser.ParseBytes(body)

	if !v.Exists("messageId") {
		h.writeError(w, http.StatusBadRequest, `Missing field "messageId"`)
		return
	}

	messageID, err := v.Get("messageId").Int64()
	if err != nil {
		h.writeError(w, http.StatusBadRequest, `Field "messageId" must be a 64-bit integer value`)
		return
	}

	if messageID < 1 {
		h.writeError(w, http.StatusBadRequest, `Field "messageId" must be a valid message id greater than zero`)
		return
	}

	if err = h.store.AddFavorite(r.Context(), userID, messageID); err != nil {
		switch {
		case errors.Is(err, storage.ErrMessageNotExist):
			h.writeError(w, http.StatusBadRequest, "Message with provided id does not exist")
		case errors.Is(err, storage.ErrUserNotExist):
			h.writeError(w, http.StatusBadRequest, "User with provided id does not exist")
		default:
			h.internalError(w, err)
		}
		return
	}

	h.writeJSON(w, successResponse{Success: true})
}

// removeFavorite handles DELETE requests on the "/favorites" endpoint;
// removing an absent bookmark succeeds silently
func (h *handler) removeFavorite(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userIDHeader(w, r)
	if !ok {
		return
	}

	raw := r.URL.Query().Get("message_id")
	if raw == "" {
		h.writeError(w, http.StatusBadRequest, `Missing query parameter "message_id"`)
		return
	}

	messageID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || messageID < 1 {
		h.writeError(w, http.StatusBadRequest, `Query parameter "message_id" must be a valid message id greater than zero`)
		return
	}

	if err = h.store.RemoveFavorite(r.Context(), userID, messageID); err != nil {
		h.internalError(w, err)
		return
	}

	h.writeJSON(w, successResponse{Success: true})
}
