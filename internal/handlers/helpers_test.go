package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/go-logr/logr"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/pandora-pm/internal/access"
	"github.com/yukikurage/pandora-pm/internal/config"
	"github.com/yukikurage/pandora-pm/internal/constants"
	"github.com/yukikurage/pandora-pm/internal/database"
	"github.com/yukikurage/pandora-pm/internal/dto"
	"github.com/yukikurage/pandora-pm/internal/repository"
	"github.com/yukikurage/pandora-pm/internal/services"
)

type apiEnv struct {
	router   *gin.Engine
	users    repository.UserRepository
	projects repository.ProjectRepository
}

func newAPIEnv(t *testing.T, policy access.Policy) *apiEnv {
	t.Helper()

	db, err := database.Connect(&config.Config{DBDriver: config.DriverSQLite, SQLitePath: ":memory:", GinMode: "release"})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	users := repository.NewUserRepository(db)
	projects := repository.NewProjectRepository(db)
	planning := repository.NewPlanningRepository(db)
	evaluator := access.NewEvaluator(policy)
	log := logr.Discard()

	projectService := services.NewProjectService(services.ProjectServiceConfig{
		Projects:  projects,
		Planning:  planning,
		Users:     users,
		Evaluator: evaluator,
		Log:       log,
	})

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(sessions.Sessions(constants.SessionCookieName, cookie.NewStore([]byte("secret"))))
	Routes{
		Auth:           NewAuthHandler(services.NewAuthService(users, log)),
		Projects:       NewProjectHandler(projectService),
		Tasks:          NewTaskHandler(projectService),
		Planning:       NewPlanningHandler(services.NewPlanningService(projects, planning, evaluator, false, log)),
		Admin:          NewAdminHandler(services.NewUserService(users, projects, evaluator, log), projectService),
		Users:          users,
		RequestTimeout: 5 * time.Second,
	}.Register(r)

	return &apiEnv{router: r, users: users, projects: projects}
}

// client is one browser: it replays the session cookie it was given.
type client struct {
	t       *testing.T
	env     *apiEnv
	cookies []*http.Cookie
	user    dto.UserDTO
}

func (e *apiEnv) anonymous(t *testing.T) *client {
	return &client{t: t, env: e}
}

// signUp registers username and logs in. The first account is an admin.
func (e *apiEnv) signUp(t *testing.T, username string) *client {
	t.Helper()
	c := e.anonymous(t)

	w := c.do(http.MethodPost, "/api/auth/register", map[string]string{
		"username":         username,
		"email":            username + "@example.com",
		"password":         "password123",
		"confirm_password": "password123",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = c.do(http.MethodPost, "/api/auth/login", map[string]string{
		"identifier": username,
		"password":   "password123",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	c.cookies = w.Result().Cookies()
	require.NotEmpty(t, c.cookies, "expected session cookie to be set")
	c.user = decode[dto.UserDTO](t, w)
	return c
}

func (c *client) do(method, path string, body any) *httptest.ResponseRecorder {
	c.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}

	w := httptest.NewRecorder()
	c.env.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

type errorBody struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details"`
}
