package fakeapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Ryan-Har/gymsync/pkg/models"
	"github.com/Ryan-Har/gymsync/pkg/models/passwd"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// tokenClaims is the payload the backend signs: sub is the username, id the user id.
type tokenClaims struct {
	UserID int64 `json:"id"`
	jwt.RegisteredClaims
}

func (s *Server) issueToken(u *user) (string, error) {
	now := s.clock.Now()
	claims := tokenClaims{
		UserID: u.id,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
			ID:        uuid.NewString(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// IssueToken signs a token for an existing user without a password check.
func (s *Server) IssueToken(username string) (string, error) {
	s.mu.Lock()
	u, ok := s.users[username]
	s.mu.Unlock()
	if !ok {
		return "", fmt.Errorf("unknown user %q", username)
	}
	return s.issueToken(u)
}

func (s *Server) parseBearer(r *http.Request) (*tokenClaims, error) {
	header := r.Header.Get("Authorization")
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || raw == "" {
		return nil, errors.New("missing bearer token")
	}

	claims := &tokenClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.clock.Now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	if claims.Subject == "" || claims.UserID == 0 {
		return nil, errors.New("token missing subject or id")
	}

	s.mu.Lock()
	u, ok := s.users[claims.Subject]
	s.mu.Unlock()
	if !ok || u.id != claims.UserID {
		return nil, errors.New("token names an unknown user")
	}
	return claims, nil
}

// AddUser registers a user directly, bypassing HTTP.
func (s *Server) AddUser(username, password string) (int64, error) {
	hash, err := passwd.HashPasswordWithCost(password, s.bcryptCost)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[username]; exists {
		return 0, errUsernameTaken
	}
	u := &user{id: s.nextUserID, username: username, passwordHash: hash}
	s.nextUserID++
	s.users[username] = u
	return u.id, nil
}

var errUsernameTaken = errors.New("username already registered")

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req models.Credentials
	if err := decodeBody(w, r, &req); err != nil {
		writeValidation(w, "body", "invalid JSON body")
		return
	}
	if req.Username == "" {
		writeValidation(w, "username", "field required")
		return
	}
	if req.Password == "" {
		writeValidation(w, "password", "field required")
		return
	}

	id, err := s.AddUser(req.Username, req.Password)
	switch {
	case errors.Is(err, errUsernameTaken):
		writeDetail(w, http.StatusBadRequest, "Username already registered")
		return
	case errors.Is(err, passwd.ErrPasswordTooLong):
		writeValidation(w, "password", err.Error())
		return
	case err != nil:
		s.log.Error("failed to hash password", "err", err)
		writeDetail(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	s.log.Info("registered user", "username", req.Username, "user_id", id)
	writeJSON(w, http.StatusCreated, map[string]any{"id": id, "username": req.Username})
}

func (s *Server) authenticate(username, password string) *user {
	s.mu.Lock()
	u, ok := s.users[username]
	s.mu.Unlock()
	if !ok || !passwd.Authenticate(password, u.passwordHash) {
		return nil
	}
	return u
}

func (s *Server) respondWithToken(w http.ResponseWriter, u *user) {
	if u == nil {
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeDetail(w, http.StatusUnauthorized, "Incorrect username or password")
		return
	}
	token, err := s.issueToken(u)
	if err != nil {
		s.log.Error("failed to sign token", "err", err)
		writeDetail(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"access_token": token, "token_type": "bearer"})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req models.Credentials
	if err := decodeBody(w, r, &req); err != nil {
		writeValidation(w, "body", "invalid JSON body")
		return
	}
	s.respondWithToken(w, s.authenticate(req.Username, req.Password))
}

// loginForm is the OAuth2 password flow variant of login.
func (s *Server) loginForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeValidation(w, "body", "invalid form body")
		return
	}
	s.respondWithToken(w, s.authenticate(r.PostForm.Get("username"), r.PostForm.Get("password")))
}
