package handlers

import (
	"crypto/sha256"
	"io"
	"net/http"
	"time"

	"file-dashboard/internal/logging"

	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
	"golang.org/x/crypto/hkdf"
)

const (
	flashCookieName = "file_dashboard_flash"
	flashKeyInfo    = "file-dashboard flash cookie v2"

	// flashMaxAge bounds how long a queued notice stays valid.
	flashMaxAge = 10 * time.Minute

	// maxPendingFlashes bounds the cookie when notices pile up unread.
	maxPendingFlashes = 5

	flashSuccess = "success"
	flashError   = "error"
)

// Flash is a one-shot notice shown on the next rendered page.
type Flash struct {
	ID      string `json:"id"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// flashCodec authenticates, encrypts and timestamps the flash cookie.
type flashCodec struct {
	sc     *securecookie.SecureCookie
	maxAge time.Duration
}

// newFlashCodec derives the cookie hash and block keys from secret.
func newFlashCodec(secret string, maxAge time.Duration) *flashCodec {
	hashKey := make([]byte, 64)
	blockKey := make([]byte, 32)
	kdf := hkdf.New(sha256.New, []byte(secret), nil, []byte(flashKeyInfo))
	for _, key := range [][]byte{hashKey, blockKey} {
		if _, err := io.ReadFull(kdf, key); err != nil {
			// hkdf only fails after 255 blocks of output.
			panic(err)
		}
	}

	sc := securecookie.New(hashKey, blockKey).
		MaxAge(int(maxAge / time.Second)).
		SetSerializer(securecookie.JSONEncoder{})
	return &flashCodec{sc: sc, maxAge: maxAge}
}

func (c *flashCodec) encode(flashes []Flash) (string, error) {
	return c.sc.Encode(flashCookieName, flashes)
}

// decode returns the notices in value. Tampered, expired or malformed
// values yield false.
func (c *flashCodec) decode(value string) ([]Flash, bool) {
	var flashes []Flash
	if err := c.sc.Decode(flashCookieName, value, &flashes); err != nil {
		return nil, false
	}
	return flashes, true
}

func (h *Handlers) pendingFlashes(r *http.Request) []Flash {
	cookie, err := r.Cookie(flashCookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}
	flashes, ok := h.flash.decode(cookie.Value)
	if !ok {
		logging.Debug("Discarding invalid flash cookie from %s", r.RemoteAddr)
		return nil
	}
	return flashes
}

// addFlash queues a notice for the next page the browser renders.
func (h *Handlers) addFlash(w http.ResponseWriter, r *http.Request, kind, message string) {
	flashes := append(h.pendingFlashes(r), Flash{
		ID:      uuid.NewString(),
		Kind:    kind,
		Message: message,
	})
	if len(flashes) > maxPendingFlashes {
		flashes = flashes[len(flashes)-maxPendingFlashes:]
	}

	value, err := h.flash.encode(flashes)
	if err != nil {
		logging.Error("failed to encode flash cookie: %v", err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   int(h.flash.maxAge / time.Second),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// popFlashes returns the queued notices and clears the cookie.
func (h *Handlers) popFlashes(w http.ResponseWriter, r *http.Request) []Flash {
	if _, err := r.Cookie(flashCookieName); err != nil {
		return nil
	}

	flashes := h.pendingFlashes(r)
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return flashes
}
