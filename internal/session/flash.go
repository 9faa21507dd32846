package session

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
)

// FlashCookieName is the cookie carrying a one-shot notice across a redirect.
const FlashCookieName = "flash"

// Flash kinds, used as CSS classes by the templates.
const (
	FlashSuccess = "success"
	FlashInfo    = "info"
	FlashWarning = "warning"
	FlashDanger  = "danger"
)

// Flash is a transient notice shown once by the next rendered page.
type Flash struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// SetFlash stores a notice for the next page.
func (m *Manager) SetFlash(w http.ResponseWriter, kind, message string) {
	raw, err := json.Marshal(Flash{Kind: kind, Message: message})
	if err != nil {
		return
	}
	m.setCookie(w, FlashCookieName, base64.RawURLEncoding.EncodeToString(raw), 60)
}

// PopFlash returns the pending notice, if any, and deletes it.
func (m *Manager) PopFlash(w http.ResponseWriter, r *http.Request) *Flash {
	cookie, err := r.Cookie(FlashCookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}
	m.setCookie(w, FlashCookieName, "", -1)

	raw, err := base64.RawURLEncoding.DecodeString(cookie.Value)
	if err != nil {
		return nil
	}
	var f Flash
	if err := json.Unmarshal(raw, &f); err != nil || f.Message == "" {
		return nil
	}
	return &f
}
