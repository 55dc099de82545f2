// Package httpapi serves the service as a JSON HTTP API.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"todoshare/internal/apperr"
	"todoshare/internal/identity"
	"todoshare/internal/model"
	"todoshare/internal/role"
	"todoshare/internal/service"
)

// ShutdownTimeout bounds graceful shutdown.
const ShutdownTimeout = 10 * time.Second

// Options configure a Server.
type Options struct {
	// LoginRate is sustained sign-in attempts per second per client IP.
	LoginRate float64
	// LoginBurst is the number of attempts allowed at once.
	LoginBurst int
}

// Server is the HTTP front end. The service must take its identity from
// identity.ContextSource; the bearer middleware fills it in.
type Server struct {
	e    *echo.Echo
	svc  service.Service
	auth identity.Authenticator
	log  *log.Logger
}

// New builds the routes.
func New(svc service.Service, auth identity.Authenticator, logger *log.Logger, opts Options) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{e: e, svc: svc, auth: auth, log: logger}
	e.HTTPErrorHandler = s.handleError
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.Info("request", "method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency)
			return nil
		},
	}))

	if opts.LoginRate <= 0 {
		opts.LoginRate = 1
	}
	if opts.LoginBurst <= 0 {
		opts.LoginBurst = 5
	}
	limiter := middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(opts.LoginRate),
			Burst:     opts.LoginBurst,
			ExpiresIn: 3 * time.Minute,
		}),
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		DenyHandler: func(c echo.Context, _ string, _ error) error {
			return echo.NewHTTPError(http.StatusTooManyRequests, "too many attempts, try again later")
		},
	})

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	api := e.Group("/api")
	api.POST("/register", s.register, limiter)
	api.POST("/login", s.login, limiter)

	authed := api.Group("", s.bearer)
	authed.GET("/me", s.me)
	authed.PATCH("/me", s.updateProfile)
	authed.GET("/lists", s.listLists)
	authed.POST("/lists", s.createList)
	authed.GET("/lists/:listId", s.getList)
	authed.PATCH("/lists/:listId", s.renameList)
	authed.DELETE("/lists/:listId", s.removeList)
	authed.POST("/lists/:listId/participants", s.addParticipant)
	authed.GET("/lists/:listId/tasks", s.listTasks)
	authed.POST("/lists/:listId/tasks", s.createTask)
	authed.GET("/lists/:listId/tasks/:taskId", s.getTask)
	authed.PATCH("/lists/:listId/tasks/:taskId", s.updateTask)
	authed.DELETE("/lists/:listId/tasks/:taskId", s.deleteTask)
	authed.POST("/lists/:listId/tasks/:taskId/toggle", s.toggleTask)
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.e
}

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", "addr", addr)
		errCh <- s.e.Start(addr)
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	return s.e.Shutdown(shutdownCtx)
}

// bearer verifies the Authorization header and stores the session in the
// request context. Requests without a header continue unauthenticated.
func (s *Server) bearer(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		if header == "" {
			return next(c)
		}
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			return apperr.ErrInvalidCredentials
		}
		req := c.Request()
		id, err := s.auth.Verify(req.Context(), token)
		if err != nil {
			return err
		}
		ctx := identity.WithSession(req.Context(), identity.Session{
			Identity: id,
			Token:    &oauth2.Token{AccessToken: token, TokenType: "Bearer"},
		})
		c.SetRequest(req.WithContext(ctx))
		return next(c)
	}
}

func (s *Server) register(c echo.Context) error {
	var req credentialsRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	sess, err := s.svc.Register(c.Request().Context(), req.Email, req.Password, req.Name)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toSessionJSON(sess))
}

func (s *Server) login(c echo.Context) error {
	var req credentialsRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	sess, err := s.svc.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toSessionJSON(sess))
}

func (s *Server) me(c echo.Context) error {
	u, err := s.svc.Me(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserJSON(u))
}

func (s *Server) updateProfile(c echo.Context) error {
	var req profileRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	u, err := s.svc.UpdateProfile(c.Request().Context(), req.Name)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserJSON(u))
}

func (s *Server) listLists(c echo.Context) error {
	views, err := s.svc.ListLists(c.Request().Context())
	if err != nil {
		return err
	}
	out := make([]listJSON, 0, len(views))
	for _, v := range views {
		out = append(out, toListJSON(v))
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) createList(c echo.Context) error {
	var req listRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	v, err := s.svc.CreateList(c.Request().Context(), req.Title)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toListJSON(v))
}

func (s *Server) getList(c echo.Context) error {
	v, err := s.svc.GetList(c.Request().Context(), c.Param("listId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toListJSON(v))
}

func (s *Server) renameList(c echo.Context) error {
	var req listRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	v, err := s.svc.RenameList(c.Request().Context(), c.Param("listId"), req.Title)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toListJSON(v))
}

func (s *Server) removeList(c echo.Context) error {
	if err := confirmed(c); err != nil {
		return err
	}
	a, err := s.svc.RemoveList(c.Request().Context(), c.Param("listId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, removeResponse{Action: a})
}

func (s *Server) addParticipant(c echo.Context) error {
	var req participantRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	r := role.Member
	if req.Role != "" {
		if !role.Valid(req.Role) {
			return apperr.Validation("role", "must be admin or member")
		}
		r = role.Role(req.Role)
	}
	p, err := s.svc.AddParticipant(c.Request().Context(), c.Param("listId"), req.Email, r)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, participantJSON{ID: p.ID, Name: p.Name, Role: string(p.Role)})
}

func (s *Server) listTasks(c echo.Context) error {
	ctx := c.Request().Context()
	ts, err := s.svc.ListTasks(ctx, c.Param("listId"))
	if err != nil {
		return err
	}
	names, err := s.svc.ResolveNames(ctx, assignees(ts))
	if err != nil {
		return err
	}
	out := make([]taskJSON, 0, len(ts))
	for _, t := range ts {
		out = append(out, toTaskJSON(t, names))
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) createTask(c echo.Context) error {
	var req taskRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	d, err := req.draft()
	if err != nil {
		return err
	}
	t, err := s.svc.CreateTask(c.Request().Context(), c.Param("listId"), d)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toTaskJSON(t, nil))
}

func (s *Server) getTask(c echo.Context) error {
	ctx := c.Request().Context()
	t, err := s.svc.GetTask(ctx, c.Param("listId"), c.Param("taskId"))
	if err != nil {
		return err
	}
	names, err := s.svc.ResolveNames(ctx, assignees([]model.Task{t}))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toTaskJSON(t, names))
}

func (s *Server) updateTask(c echo.Context) error {
	var req taskRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	p, err := req.patch()
	if err != nil {
		return err
	}
	t, err := s.svc.UpdateTask(c.Request().Context(), c.Param("listId"), c.Param("taskId"), p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toTaskJSON(t, nil))
}

func (s *Server) toggleTask(c echo.Context) error {
	t, err := s.svc.ToggleTask(c.Request().Context(), c.Param("listId"), c.Param("taskId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toTaskJSON(t, nil))
}

func (s *Server) deleteTask(c echo.Context) error {
	if err := confirmed(c); err != nil {
		return err
	}
	if err := s.svc.DeleteTask(c.Request().Context(), c.Param("listId"), c.Param("taskId")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func bind(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return apperr.Validation("body", "malformed JSON body")
	}
	return nil
}

func confirmed(c echo.Context) error {
	if c.QueryParam("confirm") != "true" {
		return apperr.Validation("confirm", "destructive request requires ?confirm=true")
	}
	return nil
}

func assignees(ts []model.Task) []string {
	var ids []string
	for _, t := range ts {
		if t.AssignedTo != "" {
			ids = append(ids, t.AssignedTo)
		}
	}
	return ids
}
