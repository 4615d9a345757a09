package devserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/quill-chat/quill/pkg/api"
	"github.com/quill-chat/quill/pkg/store"
	"github.com/quill-chat/quill/pkg/upload"
)

const sessionCookie = "quill_session"

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeReason(w http.ResponseWriter, status int, reason string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"reason": reason})
}

// currentUser resolves the session cookie, 0 when not signed in.
func (s *Server) currentUser(r *http.Request) int {
	cookie, err := r.Cookie(sessionCookie)
	if err != nil {
		return 0
	}
	return s.db.sessionUser(cookie.Value)
}

// requireAuth rejects unauthenticated requests with the JSON shape the
// client's error classifier expects.
func (s *Server) requireAuth(next func(w http.ResponseWriter, r *http.Request, userID int)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := s.currentUser(r)
		if userID == 0 {
			writeReason(w, http.StatusUnauthorized, "Cookie is not valid")
			return
		}
		next(w, r, userID)
	}
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Login    string `json:"login"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeReason(w, http.StatusBadRequest, "Malformed request body")
		return
	}

	acc := s.db.userByLogin(req.Login)
	if acc == nil || acc.Password != req.Password {
		writeReason(w, http.StatusUnauthorized, "Invalid login or password")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    s.db.openSession(acc.ID),
		Path:     "/",
		HttpOnly: true,
	})
	w.Write([]byte("OK"))
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req api.SignUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeReason(w, http.StatusBadRequest, "Malformed request body")
		return
	}
	if req.Login == "" || req.Password == "" {
		writeReason(w, http.StatusBadRequest, "Login and password are required")
		return
	}
	if s.db.userByLogin(req.Login) != nil {
		writeReason(w, http.StatusBadRequest, "Login already exists")
		return
	}

	acc := s.db.createUser(account{
		User: store.User{
			FirstName:  req.FirstName,
			SecondName: req.SecondName,
			Login:      req.Login,
			Email:      req.Email,
			Phone:      req.Phone,
		},
		Password: req.Password,
	})

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    s.db.openSession(acc.ID),
		Path:     "/",
		HttpOnly: true,
	})
	writeJSON(w, map[string]int{"id": acc.ID})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookie); err == nil {
		s.db.closeSession(cookie.Value)
	}
	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: "", Path: "/", MaxAge: -1})
	w.Write([]byte("OK"))
}

func (s *Server) handleUser(w http.ResponseWriter, r *http.Request, userID int) {
	acc := s.db.user(userID)
	if acc == nil {
		writeReason(w, http.StatusUnauthorized, "Cookie is not valid")
		return
	}
	writeJSON(w, acc.User)
}

func (s *Server) handleChats(w http.ResponseWriter, r *http.Request, userID int) {
	chats := s.db.chatsFor(userID)
	if chats == nil {
		chats = []store.Chat{}
	}
	writeJSON(w, chats)
}

func (s *Server) handleCreateChat(w http.ResponseWriter, r *http.Request, userID int) {
	var req struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Title == "" {
		writeReason(w, http.StatusBadRequest, "Title is required")
		return
	}
	created := s.db.createChat(req.Title, userID)
	writeJSON(w, map[string]int{"id": created.ID})
}

func (s *Server) handleDeleteChat(w http.ResponseWriter, r *http.Request, userID int) {
	var req struct {
		ChatID int `json:"chatId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeReason(w, http.StatusBadRequest, "Malformed request body")
		return
	}
	if !s.db.deleteChat(req.ChatID, userID) {
		writeReason(w, http.StatusBadRequest, "Chat not found")
		return
	}
	w.Write([]byte("OK"))
}

func (s *Server) handleChatMembers(w http.ResponseWriter, r *http.Request, userID int) {
	var req struct {
		Users  []int `json:"users"`
		ChatID int   `json:"chatId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeReason(w, http.StatusBadRequest, "Malformed request body")
		return
	}

	add := r.Method == http.MethodPut
	for _, id := range req.Users {
		if !s.db.changeMembers(req.ChatID, id, add) {
			writeReason(w, http.StatusBadRequest, "Chat not found")
			return
		}
	}
	w.Write([]byte("OK"))
}

func (s *Server) handleChatToken(w http.ResponseWriter, r *http.Request, userID int) {
	chatID, err := strconv.Atoi(chi.URLParam(r, "chatID"))
	if err != nil {
		writeReason(w, http.StatusBadRequest, "Invalid chat id")
		return
	}
	token, ok := s.db.issueChatToken(chatID, userID)
	if !ok {
		writeReason(w, http.StatusBadRequest, "Not a member of this chat")
		return
	}
	writeJSON(w, map[string]string{"token": token})
}

func (s *Server) handleUserSearch(w http.ResponseWriter, r *http.Request, userID int) {
	var req struct {
		Login string `json:"login"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeReason(w, http.StatusBadRequest, "Malformed request body")
		return
	}
	users := s.db.searchUsers(req.Login)
	if users == nil {
		users = []store.User{}
	}
	writeJSON(w, users)
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request, userID int) {
	var req api.ProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeReason(w, http.StatusBadRequest, "Malformed request body")
		return
	}

	acc := s.db.updateUser(userID, func(a *account) {
		a.FirstName = req.FirstName
		a.SecondName = req.SecondName
		a.DisplayName = req.DisplayName
		a.Login = req.Login
		a.Email = req.Email
		a.Phone = req.Phone
	})
	if acc == nil {
		// Session cookie outlived the account.
		writeReason(w, http.StatusUnauthorized, "Cookie is not valid")
		return
	}
	writeJSON(w, acc.User)
}

func (s *Server) handlePassword(w http.ResponseWriter, r *http.Request, userID int) {
	var req struct {
		OldPassword string `json:"oldPassword"`
		NewPassword string `json:"newPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.NewPassword == "" {
		writeReason(w, http.StatusBadRequest, "Malformed request body")
		return
	}

	acc := s.db.user(userID)
	if acc == nil {
		writeReason(w, http.StatusUnauthorized, "Cookie is not valid")
		return
	}
	if acc.Password != req.OldPassword {
		writeReason(w, http.StatusBadRequest, "Old password is incorrect")
		return
	}
	s.db.updateUser(userID, func(a *account) { a.Password = req.NewPassword })
	w.Write([]byte("OK"))
}

func (s *Server) handleAvatar(w http.ResponseWriter, r *http.Request, userID int) {
	r.Body = http.MaxBytesReader(w, r.Body, upload.MaxAvatarSize+1)
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		writeReason(w, http.StatusRequestEntityTooLarge, "File too large")
		return
	}

	file, header, err := r.FormFile("avatar")
	if err != nil {
		writeReason(w, http.StatusBadRequest, "No avatar provided")
		return
	}
	defer file.Close()

	url, err := s.avatars.Put(r.Context(), userID, header.Header.Get("Content-Type"), header.Size, file)
	if err != nil {
		switch {
		case errors.Is(err, upload.ErrTooLarge):
			writeReason(w, http.StatusRequestEntityTooLarge, "File too large")
		case errors.Is(err, upload.ErrUnsupportedType):
			writeReason(w, http.StatusBadRequest, "Avatar must be an image")
		default:
			s.log.Error("devserver: avatar store", "error", err)
			writeReason(w, http.StatusInternalServerError, "Upload failed")
		}
		return
	}

	acc := s.db.updateUser(userID, func(a *account) { a.Avatar = url })
	if acc == nil {
		writeReason(w, http.StatusUnauthorized, "Cookie is not valid")
		return
	}
	writeJSON(w, acc.User)
}

// handleServeAvatar streams a stored avatar back; only meaningful for the
// disk backend, S3 serves its own URLs.
func (s *Server) handleServeAvatar(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(stripExt(chi.URLParam(r, "file")))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	avatar, err := s.avatars.Open(r.Context(), id)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer avatar.Close()

	w.Header().Set("Content-Type", avatar.ContentType)
	io.Copy(w, avatar.Reader)
}

func stripExt(name string) string {
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '.' {
			return name[:i]
		}
	}
	return name
}

func (s *Server) handleSocket(w http.ResponseWriter, r *http.Request) {
	userID, err1 := strconv.Atoi(chi.URLParam(r, "userID"))
	chatID, err2 := strconv.Atoi(chi.URLParam(r, "chatID"))
	token := chi.URLParam(r, "token")
	if err1 != nil || err2 != nil || token == "" {
		http.Error(w, "bad socket path", http.StatusBadRequest)
		return
	}
	s.hub.serve(w, r, userID, chatID, token)
}
