// Package server exposes report computation over HTTP.
//
// The server is stateless: every request carries its own CSV upload and the
// report is computed and returned in the same response.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/matsen/bix/internal/config"
	"github.com/matsen/bix/internal/normalize"
	"github.com/matsen/bix/internal/publication"
	"github.com/matsen/bix/internal/render"
	"github.com/matsen/bix/internal/report"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MaxUploadSize limits request bodies.
const MaxUploadSize = "10M"

// formFile is the multipart field carrying the CSV export.
const formFile = "file"

// Options configures the server.
type Options struct {
	// ReferenceYear is the m-index reference year used when a request does
	// not supply one.
	ReferenceYear int
	Logger        *slog.Logger
	// Registry receives the server metrics. A fresh registry is used when nil.
	Registry *prometheus.Registry
	// RateLimit bounds report requests per client IP. Zero disables it.
	RateLimit config.RateLimit
}

// Server computes reports for uploaded CSV exports.
type Server struct {
	echo          *echo.Echo
	referenceYear int
	logger        *slog.Logger
	metrics       *metrics
}

// APIResponse is the JSON body of /api/report.
type APIResponse struct {
	Report  report.Report          `json:"report"`
	Entries []report.Entry         `json:"entries"`
	Dropped []normalize.DroppedRow `json:"dropped,omitempty"`
}

// New builds a server with all routes registered.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	reg := opts.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	s := &Server{
		echo:          echo.New(),
		referenceYear: opts.ReferenceYear,
		logger:        logger,
		metrics:       newMetrics(reg),
	}

	e := s.echo
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit(MaxUploadSize))
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
	e.HTTPErrorHandler = s.handleError

	e.GET("/", s.handleIndex)
	var reportMW []echo.MiddlewareFunc
	if rl := opts.RateLimit; rl.RequestsPerMinute > 0 {
		limiter := newIPLimiter(rl.RequestsPerMinute, rl.Burst)
		reportMW = append(reportMW, limiter.middleware(func() {
			s.metrics.reports.WithLabelValues(outcomeLimited).Inc()
		}))
	}
	e.POST("/report", s.handleReportHTML, reportMW...)
	e.POST("/api/report", s.handleReportJSON, reportMW...)
	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	return s
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- s.echo.Start(addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}

func (s *Server) handleIndex(c echo.Context) error {
	page, err := render.UploadForm("")
	if err != nil {
		return err
	}
	return c.HTML(http.StatusOK, page)
}

func (s *Server) handleReportHTML(c echo.Context) error {
	name, r, dropped, err := s.compute(c)
	if err != nil {
		return err
	}
	page, err := render.GenerateHTML(r, render.HTMLOptions{Source: name, Yearly: true, Dropped: len(dropped)})
	if err != nil {
		return err
	}
	return c.HTML(http.StatusOK, page)
}

func (s *Server) handleReportJSON(c echo.Context) error {
	_, r, dropped, err := s.compute(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, APIResponse{Report: r, Entries: r.Entries(), Dropped: dropped})
}

// compute reads the CSV from the request, either a multipart "file" field or
// a raw text/csv body, and assembles its report.
func (s *Server) compute(c echo.Context) (string, report.Report, []normalize.DroppedRow, error) {
	year, err := s.requestYear(c)
	if err != nil {
		return "", report.Report{}, nil, err
	}

	name, data, err := readUpload(c)
	if err != nil {
		return "", report.Report{}, nil, err
	}

	parsed, err := normalize.Parse(data)
	if err != nil {
		s.metrics.reports.WithLabelValues(outcomeRejected).Inc()
		return "", report.Report{}, nil, echo.NewHTTPError(statusFor(err), err.Error()).SetInternal(err)
	}

	r := report.Assemble(parsed.Dataset, year)
	s.metrics.reports.WithLabelValues(outcomeOK).Inc()
	s.metrics.publications.Observe(float64(r.Publications))
	s.metrics.dropped.Add(float64(len(parsed.Dropped)))
	return name, r, parsed.Dropped, nil
}

func (s *Server) requestYear(c echo.Context) (int, error) {
	v := c.FormValue("year")
	if v == "" {
		v = c.QueryParam("year")
	}
	if v == "" {
		return s.referenceYear, nil
	}
	year, err := strconv.Atoi(strings.TrimSpace(v))
	if err == nil {
		err = config.ValidateReferenceYear(year)
	}
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid year %q", v))
	}
	if year == 0 {
		return s.referenceYear, nil
	}
	return year, nil
}

func readUpload(c echo.Context) (string, []byte, error) {
	req := c.Request()
	if strings.HasPrefix(req.Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		fh, err := c.FormFile(formFile)
		if err != nil {
			return "", nil, echo.NewHTTPError(http.StatusBadRequest, "no file uploaded")
		}
		if !strings.EqualFold(fileExt(fh.Filename), ".csv") {
			return "", nil, echo.NewHTTPError(http.StatusUnsupportedMediaType, "only .csv files are accepted")
		}
		f, err := fh.Open()
		if err != nil {
			return "", nil, fmt.Errorf("opening upload: %w", err)
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			return "", nil, fmt.Errorf("reading upload: %w", err)
		}
		return fh.Filename, data, nil
	}

	data, err := io.ReadAll(req.Body)
	if err != nil {
		return "", nil, fmt.Errorf("reading body: %w", err)
	}
	return "", data, nil
}

func fileExt(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i:]
	}
	return ""
}

// statusFor maps normalization failures to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, normalize.ErrMissingColumns),
		errors.Is(err, normalize.ErrEmpty),
		errors.Is(err, normalize.ErrNoValidRows),
		errors.Is(err, publication.ErrDuplicateID):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadRequest
	}
}

// handleError writes JSON errors under /api and re-renders the upload form
// with the message elsewhere.
func (s *Server) handleError(err error, c echo.Context) {
	code := http.StatusInternalServerError
	msg := err.Error()
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if he.Message != nil {
			msg = fmt.Sprint(he.Message)
		}
	}

	req := c.Request()
	if code >= http.StatusInternalServerError {
		s.logger.Error("request failed", "method", req.Method, "path", req.URL.Path, "status", code, "err", err)
	} else {
		s.logger.Warn("request rejected", "method", req.Method, "path", req.URL.Path, "status", code, "err", msg)
	}
	if c.Response().Committed {
		return
	}

	if strings.HasPrefix(req.URL.Path, "/api/") {
		_ = c.JSON(code, map[string]string{"error": msg})
		return
	}
	page, rerr := render.UploadForm(msg)
	if rerr != nil {
		_ = c.String(code, msg)
		return
	}
	_ = c.HTML(code, page)
}
