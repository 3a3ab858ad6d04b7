// Package apitest runs an in-process fake of the auth API for tests.
//
// It keeps users, cases and cookie sessions in memory and answers the auth
// and history endpoints the way the real API does: login and register reply
// 400 with {ok:false,msg} on rejection, /me replies 200 with a null user when
// there is no session, and the history endpoint replies 401 without one.
package apitest

import (
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/irvision/portal/internal/apipaths"
)

const sessionCookieName = "session"

// Messages returned by the fake, matching the real API
const (
	MsgBadCredentials = "用户名或密码错误"
	MsgUserExists     = "用户名已存在"
	MsgEmptyUsername  = "username 不能为空"
	MsgShortPassword  = "password 至少 6 位"
	MsgNotLoggedIn    = "未登录"
)

// createdAtLayout is the timestamp format cases are stored with
const createdAtLayout = "2006-01-02T15:04:05"

// usageDays is the length of the recent usage window, today included
const usageDays = 7

type user struct {
	id       int
	password string
}

type caseRecord struct {
	owner     string
	id        string
	createdAt time.Time
	result    *float64
}

// Server is a fake auth API listening on a local port
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	users    map[string]user
	sessions map[string]string // token -> username
	cases    []caseRecord
	nextID   int
	calls    map[string]int
	failures map[string]int // path -> forced status
	meGate   chan struct{}
	meHeld   chan struct{}
}

// New starts the fake. Callers must Close it.
func New() *Server {
	gin.SetMode(gin.TestMode)

	s := &Server{
		users:    make(map[string]user),
		sessions: make(map[string]string),
		nextID:   1,
		calls:    make(map[string]int),
		failures: make(map[string]int),
	}

	engine := gin.New()
	engine.Use(s.countCalls(), s.injectFailures())
	engine.GET(apipaths.AuthMe, s.me)
	engine.POST(apipaths.AuthLogin, s.login)
	engine.POST(apipaths.AuthRegister, s.register)
	engine.POST(apipaths.AuthLogout, s.logout)
	engine.GET(apipaths.UserHistory, s.requireLogin(), s.history)

	s.Server = httptest.NewServer(engine)
	return s
}

// AddUser seeds an account and returns its id
func (s *Server) AddUser(username, password string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addUserLocked(username, password)
}

// Calls returns how many requests hit path
func (s *Server) Calls(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[path]
}

// FailWith makes every request to path answer status with an error body.
// A zero status clears the failure.
func (s *Server) FailWith(path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status == 0 {
		delete(s.failures, path)
		return
	}
	s.failures[path] = status
}

// HoldMe blocks /me requests until the returned release func is called.
// The returned channel receives once for every /me request that starts waiting.
func (s *Server) HoldMe() (held <-chan struct{}, release func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	gate := make(chan struct{})
	s.meGate = gate
	s.meHeld = make(chan struct{}, 64)
	var once sync.Once
	return s.meHeld, func() {
		once.Do(func() {
			s.mu.Lock()
			s.meGate = nil
			s.mu.Unlock()
			close(gate)
		})
	}
}

// AddCase records a detection case owned by username. A nil result is
// reported as null, like a case still being processed.
func (s *Server) AddCase(username, caseID string, createdAt time.Time, result *float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cases = append(s.cases, caseRecord{
		owner:     username,
		id:        caseID,
		createdAt: createdAt,
		result:    result,
	})
}

// ExpireSessions drops every server-side session, as a restart or timeout would
func (s *Server) ExpireSessions() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = make(map[string]string)
}

func (s *Server) addUserLocked(username, password string) int {
	id := s.nextID
	s.nextID++
	s.users[username] = user{id: id, password: password}
	return id
}

func (s *Server) countCalls() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.mu.Lock()
		s.calls[c.Request.URL.Path]++
		s.mu.Unlock()
		c.Next()
	}
}

func (s *Server) injectFailures() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.mu.Lock()
		status, ok := s.failures[c.Request.URL.Path]
		s.mu.Unlock()
		if ok {
			c.AbortWithStatusJSON(status, gin.H{"error": http.StatusText(status)})
			return
		}
		c.Next()
	}
}

func (s *Server) me(c *gin.Context) {
	s.mu.Lock()
	gate, held := s.meGate, s.meHeld
	s.mu.Unlock()
	if gate != nil {
		held <- struct{}{}
		<-gate
	}

	username, ok := s.currentUser(c)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"ok": true, "user": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "user": s.identity(username)})
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) login(c *gin.Context) {
	var req credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "msg": err.Error()})
		return
	}
	username := strings.TrimSpace(req.Username)

	s.mu.Lock()
	u, ok := s.users[username]
	s.mu.Unlock()
	if !ok || u.password != req.Password {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "msg": MsgBadCredentials})
		return
	}

	s.startSession(c, username)
	c.JSON(http.StatusOK, gin.H{"ok": true, "user": s.identity(username)})
}

func (s *Server) register(c *gin.Context) {
	var req credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "msg": err.Error()})
		return
	}
	username := strings.TrimSpace(req.Username)
	if username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "msg": MsgEmptyUsername})
		return
	}
	if len(req.Password) < 6 {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "msg": MsgShortPassword})
		return
	}

	s.mu.Lock()
	if _, exists := s.users[username]; exists {
		s.mu.Unlock()
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "msg": MsgUserExists})
		return
	}
	s.addUserLocked(username, req.Password)
	s.mu.Unlock()

	s.startSession(c, username)
	c.JSON(http.StatusOK, gin.H{"ok": true, "user": s.identity(username)})
}

func (s *Server) logout(c *gin.Context) {
	if token, err := c.Cookie(sessionCookieName); err == nil {
		s.mu.Lock()
		delete(s.sessions, token)
		s.mu.Unlock()
	}
	c.SetCookie(sessionCookieName, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) requireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		username, ok := s.currentUser(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"ok": false, "msg": MsgNotLoggedIn})
			return
		}
		c.Set("user", username)
		c.Next()
	}
}

func (s *Server) history(c *gin.Context) {
	username := c.GetString("user")

	s.mu.Lock()
	var owned []caseRecord
	for _, rec := range s.cases {
		if rec.owner == username {
			owned = append(owned, rec)
		}
	}
	s.mu.Unlock()

	sort.SliceStable(owned, func(i, j int) bool {
		return owned[i].createdAt.After(owned[j].createdAt)
	})

	cases := make([]gin.H, 0, len(owned))
	for _, rec := range owned {
		cases = append(cases, gin.H{
			"case_id":    rec.id,
			"created_at": rec.createdAt.Format(createdAtLayout),
			"result":     rec.result,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":           true,
		"username":     username,
		"recent_usage": recentUsage(owned, time.Now()),
		"cases":        cases,
	})
}

// recentUsage counts cases per day over the last usageDays days, oldest first
func recentUsage(cases []caseRecord, now time.Time) []gin.H {
	usage := make([]gin.H, 0, usageDays)
	for i := usageDays - 1; i >= 0; i-- {
		day := now.AddDate(0, 0, -i).Format("2006-01-02")
		count := 0
		for _, rec := range cases {
			if rec.createdAt.Format("2006-01-02") == day {
				count++
			}
		}
		usage = append(usage, gin.H{"date": day, "count": count})
	}
	return usage
}

func (s *Server) startSession(c *gin.Context, username string) {
	token := uuid.NewString()

	s.mu.Lock()
	s.sessions[token] = username
	s.mu.Unlock()

	c.SetCookie(sessionCookieName, token, 0, "/", "", false, true)
}

func (s *Server) currentUser(c *gin.Context) (string, bool) {
	token, err := c.Cookie(sessionCookieName)
	if err != nil || token == "" {
		return "", false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	username, ok := s.sessions[token]
	return username, ok
}

func (s *Server) identity(username string) gin.H {
	s.mu.Lock()
	defer s.mu.Unlock()
	return gin.H{"id": s.users[username].id, "username": username}
}

// IDString formats an id returned by AddUser the way Identity.ID holds it
func IDString(id int) string { return strconv.Itoa(id) }
