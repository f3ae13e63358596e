package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"messenger-backend/internal/identity"
	"messenger-backend/internal/storage"

	"github.com/valyala/fastjson"
	"go.uber.org/zap"
)

// TODO limit reading from body

type parsers struct {
	authPool          fastjson.ParserPool
	createChatPool    fastjson.ParserPool
	createMessagePool fastjson.ParserPool
	favoritePool      fastjson.ParserPool
}

type handler struct {
	logger   *zap.SugaredLogger
	store    *storage.Store
	verifier identity.Verifier
	parsers  parsers
}

// routes binds every endpoint to its method set together with the CORS
// surface each one advertises on preflight
func (h *handler) routes() map[string]http.Handler {
	return map[string]http.Handler{
		"/auth": cors("POST, OPTIONS", methods{
			http.MethodPost: enforceJSONBody(http.HandlerFunc(h.authenticate)),
		}),
		"/chats": cors("GET, POST, OPTIONS", methods{
			http.MethodGet:  http.HandlerFunc(h.chatsByUserID),
			http.MethodPost: enforceJSONBody(http.HandlerFunc(h.createChat)),
		}),
		"/contacts": cors("GET, OPTIONS", methods{
			http.MethodGet: http.HandlerFunc(h.contactsByUserID),
		}),
		"/messages": cors("GET, POST, OPTIONS", methods{
			http.MethodGet:  http.HandlerFunc(h.messagesByChatID),
			http.MethodPost: enforceJSONBody(http.HandlerFunc(h.createMessage)),
		}),
		"/favorites": cors("GET, POST, DELETE, OPTIONS", methods{
			http.MethodGet:    http.HandlerFunc(h.favoritesByUserID),
			http.MethodPost:   enforceJSONBody(http.HandlerFunc(h.addFavorite)),
			http.MethodDelete: http.HandlerFunc(h.removeFavorite),
		}),
	}
}

// writeJSON marshals v and writes it with a 200 status
func (h *handler) writeJSON(w http.ResponseWriter, v interface{}) {
	payload, err := json.Marshal(v)
	if err != nil {
		h.logger.Error(err)
		h.writeError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err = w.Write(payload); err != nil {
		h.logger.Errorf("writing marshaled data to ResponseWriter: %v", err)
	}
}

// writeError reports a failure as an {"error": msg} payload
func (h *handler) writeError(w http.ResponseWriter, status int, msg string) {
	payload, _ := json.Marshal(map[string]string{"error": msg})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(payload); err != nil {
		h.logger.Errorf("writing error payload to ResponseWriter: %v", err)
	}
}

// internalError logs err and reports a generic 500 so raw store or verifier
// error text never reaches the client
func (h *handler) internalError(w http.ResponseWriter, err error) {
	h.logger.Error(err)
	h.writeError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
}

// userIDHeader extracts the requesting user id from the X-User-Id header.
// Session tokens are minted at login but requests are trusted on this header
// alone, mirroring the client contract.
func (h *handler) userIDHeader(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := r.Header.Get("X-User-Id")
	if raw == "" {
		h.writeError(w, http.StatusBadRequest, `Missing header "X-User-Id"`)
		return 0, false
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		h.writeError(w, http.StatusBadRequest, `Header "X-User-Id" must be a valid user id greater than zero`)
		return 0, false
	}

	return id, true
}

// clock renders a timestamp the way chat previews show it
func clock(t time.Time) string {
	return t.Format("15:04")
}
