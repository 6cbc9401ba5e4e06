package www

import (
	"crypto/rand"
	"encoding/base64"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"

	"greenbowl/auth"
)

const sessionName = "greenbowl_session"

// sessionStore wraps the cookie session that carries the auth service token
// and the local cart id.
type sessionStore struct {
	store *sessions.CookieStore
}

func newSessionStore(secret string) *sessionStore {
	var key []byte
	if secret != "" {
		key, _ = base64.StdEncoding.DecodeString(secret)
	}
	if len(key) < 32 {
		key = make([]byte, 32)
		rand.Read(key)
	}
	cs := sessions.NewCookieStore(key)
	cs.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   7 * 24 * 60 * 60, // 7 days
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return &sessionStore{store: cs}
}

func (s *sessionStore) get(r *http.Request) *sessions.Session {
	sess, _ := s.store.Get(r, sessionName)
	return sess
}

// login returns the stored auth session, if any.
func (s *sessionStore) login(r *http.Request) (token, userID, userName string, ok bool) {
	sess := s.get(r)
	t, _ := sess.Values["token"].(string)
	if t == "" {
		return "", "", "", false
	}
	id, _ := sess.Values["user_id"].(string)
	name, _ := sess.Values["user_name"].(string)
	return t, id, name, true
}

func (s *sessionStore) setLogin(w http.ResponseWriter, r *http.Request, as auth.Session) {
	sess := s.get(r)
	sess.Values["token"] = as.Token
	sess.Values["user_id"] = as.User.ID
	sess.Values["user_name"] = as.User.Name
	sess.Save(r, w)
}

func (s *sessionStore) clearLogin(w http.ResponseWriter, r *http.Request) {
	sess := s.get(r)
	delete(sess.Values, "token")
	delete(sess.Values, "user_id")
	delete(sess.Values, "user_name")
	sess.Save(r, w)
}

// cartID returns the session's cart key, minting one on first use.
func (s *sessionStore) cartID(w http.ResponseWriter, r *http.Request) string {
	sess := s.get(r)
	if id, _ := sess.Values["cart_id"].(string); id != "" {
		return id
	}
	id := uuid.New().String()
	sess.Values["cart_id"] = id
	sess.Save(r, w)
	return id
}
