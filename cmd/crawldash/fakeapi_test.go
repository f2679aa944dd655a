package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

const testToken = "test-token"

// fakeAPI is an in-memory report API serving the routes the commands use.
type fakeAPI struct {
	mu        sync.Mutex
	nextID    int64
	urls      map[int64]gin.H
	users     map[string]string
	failCrawl map[int64]bool
	server    *httptest.Server
	dir       string
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()

	gin.SetMode(gin.TestMode)
	f := &fakeAPI{
		nextID:    1,
		urls:      make(map[int64]gin.H),
		users:     make(map[string]string),
		failCrawl: make(map[int64]bool),
		dir:       t.TempDir(),
	}

	r := gin.New()
	r.POST("/auth/registration", f.register)
	r.POST("/auth/login", f.login)

	authed := r.Group("/")
	authed.Use(func(c *gin.Context) {
		if c.GetHeader("Authorization") != "Bearer "+testToken {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}
		c.Next()
	})
	authed.GET("/urls", f.list)
	authed.POST("/urls", f.create)
	authed.GET("/url/:id", f.get)
	authed.DELETE("/url/:id", f.remove)
	authed.POST("/crawl/:id", f.crawl)

	f.server = httptest.NewServer(r)
	t.Cleanup(f.server.Close)
	return f
}

// args returns cmdArgs followed by the global flags pointing the command at
// the fake API, with credentials and cache kept in a temporary directory.
func (f *fakeAPI) args(cmdArgs ...string) []string {
	return append(cmdArgs,
		"--api-url", f.server.URL,
		"--credentials", filepath.Join(f.dir, "credentials.json"),
		"--data-dir", filepath.Join(f.dir, "data"),
	)
}

// authedArgs is args with the test token.
func (f *fakeAPI) authedArgs(cmdArgs ...string) []string {
	return append(f.args(cmdArgs...), "--token", testToken)
}

func (f *fakeAPI) seed(rawURL string) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := f.nextID
	f.nextID++
	f.urls[id] = gin.H{
		"ID":         id,
		"url":        rawURL,
		"status":     "pending",
		"created_at": time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(id) * time.Minute),
	}
	return id
}

func (f *fakeAPI) has(id int64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.urls[id]
	return ok
}

func (f *fakeAPI) register(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[req.Email]; ok {
		c.JSON(http.StatusConflict, gin.H{"error": "User already exists"})
		return
	}
	f.users[req.Email] = req.Password
	c.JSON(http.StatusCreated, gin.H{"token": testToken})
}

func (f *fakeAPI) login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if pw, ok := f.users[req.Email]; !ok || pw != req.Password {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": testToken})
}

func (f *fakeAPI) list(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))

	f.mu.Lock()
	defer f.mu.Unlock()

	ids := make([]int64, 0, len(f.urls))
	for id := range f.urls {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] > ids[j] })

	out := []gin.H{}
	for i := (page - 1) * size; i < len(ids) && i < page*size; i++ {
		out = append(out, f.urls[ids[i]])
	}
	c.JSON(http.StatusOK, gin.H{
		"page":        page,
		"page_size":   size,
		"total_count": len(ids),
		"urls":        out,
	})
}

func (f *fakeAPI) create(c *gin.Context) {
	var req struct {
		URL string `json:"url" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || !strings.HasPrefix(req.URL, "http") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input or missing URL field"})
		return
	}
	id := f.seed(req.URL)
	f.mu.Lock()
	defer f.mu.Unlock()
	c.JSON(http.StatusCreated, f.urls[id])
}

func (f *fakeAPI) lookup(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID"})
		return 0, false
	}
	if !f.has(id) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Record not found"})
		return 0, false
	}
	return id, true
}

func (f *fakeAPI) get(c *gin.Context) {
	id, ok := f.lookup(c)
	if !ok {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	detail := gin.H{}
	for k, v := range f.urls[id] {
		detail[k] = v
	}
	detail["broken_links_details"] = []gin.H{{"link": "https://example.com/missing", "status_code": 404}}
	c.JSON(http.StatusOK, detail)
}

func (f *fakeAPI) remove(c *gin.Context) {
	id, ok := f.lookup(c)
	if !ok {
		return
	}
	f.mu.Lock()
	delete(f.urls, id)
	f.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"message": "URL deleted successfully"})
}

func (f *fakeAPI) crawl(c *gin.Context) {
	id, ok := f.lookup(c)
	if !ok {
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	u := f.urls[id]
	if f.failCrawl[id] {
		u["status"] = "error"
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Crawl failed"})
		return
	}
	u["status"] = "completed"
	u["title"] = "Example Domain"
	u["html_version"] = "HTML5"
	u["h1_count"] = 1
	u["internal_links"] = 3
	u["external_links"] = 2
	u["broken_links"] = 2
	c.JSON(http.StatusOK, u)
}

// runCLI executes the root command with args and returns what it wrote.
func runCLI(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}
