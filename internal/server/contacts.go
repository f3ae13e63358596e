package server

import (
	"net/http"
)

type contactPayload struct {
	ID     int64   `json:"id"`
	Name   string  `json:"name"`
	Avatar *string `json:"avatar"`
	Online bool    `json:"online"`
	Phone  *string `json:"phone"`
}

type contactListResponse struct {
	Contacts []contactPayload `json:"contacts"`
}

// contactsByUserID handles GET requests on the "/contacts" endpoint
func (h *handler) contactsByUserID(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userIDHeader(w, r)
	if !ok {
		return
	}

	contacts, err := h.store.ContactsByUserID(r.Context(), userID)
	if err != nil {
		h.internalError(w, err)
		return
	}

	payload := make([]contactPayload, 0, len(contacts))
	for _, c := range contacts {
		payload = append(payload, contactPayload{
			ID:     c.ID,
			Name:   c.Name,
			Avatar: c.Avatar,
			Online: c.Online,
			Phone:  c.Phone,
		})
	}

	h.writeJSON(w, contactListResponse{Contacts: payload})
}
