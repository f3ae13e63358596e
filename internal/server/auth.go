package server

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"messenger-backend/internal/identity"
	"messenger-backend/internal/storage"
)

type userPayload struct {
	ID     int64   `json:"id"`
	Phone  *string `json:"phone"`
	Name   string  `json:"name"`
	Avatar *string `json:"avatar"`
	Online bool    `json:"online"`
	Email  *string `json:"email"`
}

type authResponse struct {
	User  userPayload `json:"user"`
	Token string      `json:"token"`
}

// credential is the tagged union of the two accepted login variants: a phone
// number with an optional display name, or a third-party identity token
type credential struct {
	phone         string
	name          string
	identityToken string
}

// authenticate handles HTTP requests on the "/auth" endpoint: both login
// variants end in a user upsert plus a freshly minted session
func (h *handler) authenticate(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	parser := h.parsers.authPool.Get()
	defer h.parsers.authPool.Put(parser)
	v, _ := parser.ParseBytes(body)

	cred := credential{
		phone:         strings.TrimSpace(string(v.GetStringBytes("phone"))),
		name:          string(v.GetStringBytes("name")),
		identityToken: string(v.GetStringBytes("identityToken")),
	}

	switch {
	case cred.identityToken != "":
		h.authenticateByToken(w, r, cred)
	case cred.phone != "":
		h.authenticateByPhone(w, r, cred)
	default:
		h.writeError(w, http.StatusBadRequest, `Either "phone" or "identityToken" must be provided`)
	}
}

// authenticateByPhone resolves the phone credential. Any non-empty string is
// accepted as an identifier; no phone format validation is performed.
func (h *handler) authenticateByPhone(w http.ResponseWriter, r *http.Request, cred credential) {
	name := cred.name
	if name == "" {
		name = "User"
	}

	user, session, err := h.store.Authenticate(r.Context(), storage.AuthIdentity{
		Phone: cred.phone,
		Name:  name,
	})
	if err != nil {
		h.internalError(w, err)
		return
	}

	h.writeJSON(w, authResponse{User: newUserPayload(user), Token: session.Token})
}

// authenticateByToken resolves the identity-token credential through the
// configured verifier. A rejected token never creates or mutates a user.
func (h *handler) authenticateByToken(w http.ResponseWriter, r *http.Request, cred credential) {
	if h.verifier == nil {
		h.writeError(w, http.StatusInternalServerError, "Identity verifier is not configured")
		return
	}

	claims, err := h.verifier.Verify(r.Context(), cred.identityToken)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidToken) {
			h.writeError(w, http.StatusUnauthorized, "Invalid identity token")
			return
		}
		h.internalError(w, err)
		return
	}

	name := claims.Name
	if name == "" {
		name = "User"
	}

	user, session, err := h.store.Authenticate(r.Context(), storage.AuthIdentity{
		GoogleID: claims.Subject,
		Name:     name,
		Avatar:   claims.Avatar,
		Email:    claims.Email,
	})
	if err != nil {
		h.internalError(w, err)
		return
	}

	h.writeJSON(w, authResponse{User: newUserPayload(user), Token: session.Token})
}

func newUserPayload(u storage.User) userPayload {
	return userPayload{
		ID:     u.ID,
		Phone:  u.Phone,
		Name:   u.Name,
		Avatar: u.Avatar,
		Online: u.Online,
		Email:  u.Email,
	}
}
