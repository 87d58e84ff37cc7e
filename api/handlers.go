package api

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"github.com/SzematPro/ai-task-manager/board"
	"github.com/SzematPro/ai-task-manager/domain"
	"github.com/SzematPro/ai-task-manager/language"
	"github.com/SzematPro/ai-task-manager/pipeline"
)

const (
	routeProcessTask = "/api/process-task"
	routeTasks       = "/api/tasks"
)

var errInvalidBody = errors.New("invalid body")

// Register wires up all API routes on the provided Echo instance.
func Register(e *echo.Echo, deps Dependencies, logger *log.Logger) {
	if logger == nil {
		logger = log.StandardLogger()
	}
	started := time.Now()

	e.POST(routeProcessTask, processTask(deps.Processor, logger))
	e.GET("/api/health", health(started))

	g := e.Group("/api", requireUser(deps.Auth))
	g.GET("/tasks", listTasks(deps.Boards, logger))
	g.POST("/tasks", createTask(deps.Boards, deps.Deduper, logger))
	g.GET("/tasks/stats", taskStats(deps.Boards, logger))
	g.PATCH("/tasks/:id", updateTask(deps.Boards, logger))
	g.POST("/tasks/:id/toggle", toggleTask(deps.Boards, logger))
	g.DELETE("/tasks/:id", deleteTask(deps.Boards, logger))
	g.GET("/view", getView(deps.Boards, logger))
	g.PUT("/view", putView(deps.Boards, logger))
	g.GET("/suggestions", suggestions(deps.Boards, deps.Suggester, logger))
}

func health(started time.Time) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, healthResponse{
			Status:    "ok",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Uptime:    time.Since(started).Seconds(),
		})
	}
}

func processTask(processor Processor, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		metrics, ctx := newProcessRequestMetrics(c.Request().Context(), logger, routeProcessTask)
		c.SetRequest(c.Request().WithContext(ctx))
		var failure error
		defer func() {
			metrics.Log(c.Response().Status, errors.Join(failure, err))
		}()

		var req processRequest
		if derr := decodeBody(c, &req); derr != nil {
			metrics.SetErrorStage("decode")
			return c.JSON(http.StatusBadRequest, errorResponse{Error: errInvalidBody.Error()})
		}

		res, perr := processor.Process(ctx, req.Input, req.CurrentDate)
		if perr != nil {
			if errors.Is(perr, pipeline.ErrEmptyInput) {
				metrics.SetErrorStage("validate")
				return c.JSON(http.StatusBadRequest, errorResponse{Error: perr.Error()})
			}
			metrics.SetErrorStage("process")
			failure = perr
			logger.WithError(perr).Error("process task failed")
			return c.JSON(http.StatusInternalServerError, errorResponse{Error: "failed to process task"})
		}
		metrics.ObserveStages(res.Timings)
		metrics.SetResult(res.SourceLanguage, res.WasTranslated, res.Analysis.Confidence)
		return c.JSON(http.StatusOK, newProcessResponse(res))
	}
}

func listTasks(boards Boards, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		b, err := boards.Get(c.Request().Context(), userIDFrom(c))
		if err != nil {
			return loadFailed(c, err, logger)
		}
		current := b.View()
		view, changed, verr := viewFromQuery(c, current)
		if verr != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: verr.Error()})
		}
		var tasks []domain.Task
		if changed {
			tasks = b.Query(view)
		} else {
			tasks = b.FilteredTasks()
		}
		return c.JSON(http.StatusOK, tasksResponse{
			Tasks:    tasks,
			Total:    len(b.Tasks()),
			Filtered: len(tasks),
			View:     view,
		})
	}
}

func createTask(boards Boards, deduper Deduper, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		userID := userIDFrom(c)
		var req createRequest
		if derr := decodeBody(c, &req); derr != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: errInvalidBody.Error()})
		}
		if req.Task != nil {
			if verr := req.Task.Validate(); verr != nil {
				return c.JSON(http.StatusBadRequest, errorResponse{Error: verr.Error()})
			}
		}

		key := strings.TrimSpace(c.Request().Header.Get(headerIdempotencyKey))
		if key != "" && deduper != nil {
			added, derr := deduper.Add(c.Request().Context(), userID, key)
			if derr != nil {
				logger.WithError(derr).WithField("user", userID).Warn("idempotency check failed, continuing")
			} else if !added {
				return c.JSON(http.StatusConflict, errorResponse{Error: "duplicate request"})
			} else {
				defer func() {
					if c.Response().Status >= http.StatusBadRequest || err != nil {
						if rerr := deduper.Remove(c.Request().Context(), userID, key); rerr != nil {
							logger.Errorf("dedupe rollback failed, err: %v, key: %s, user: %s", rerr, key, userID)
						}
					}
				}()
			}
		}

		b, err := boards.Get(c.Request().Context(), userID)
		if err != nil {
			return loadFailed(c, err, logger)
		}

		if req.Task != nil {
			task, cerr := b.CreateTask(c.Request().Context(), *req.Task)
			if cerr != nil {
				return writeBoardError(c, cerr, logger)
			}
			return c.JSON(http.StatusCreated, createResponse{Task: task})
		}

		metrics, ctx := newProcessRequestMetrics(c.Request().Context(), logger, routeTasks)
		c.SetRequest(c.Request().WithContext(ctx))
		task, res, aerr := b.AddTask(ctx, req.Input, req.CurrentDate)
		if aerr != nil {
			metrics.SetErrorStage("process")
			err = writeBoardError(c, aerr, logger)
			metrics.Log(c.Response().Status, aerr)
			return err
		}
		metrics.ObserveStages(res.Timings)
		metrics.SetResult(res.SourceLanguage, res.WasTranslated, res.Analysis.Confidence)
		pr := newProcessResponse(res)
		err = c.JSON(http.StatusCreated, createResponse{Task: task, Process: &pr})
		metrics.Log(c.Response().Status, err)
		return err
	}
}

func taskStats(boards Boards, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		b, err := boards.Get(c.Request().Context(), userIDFrom(c))
		if err != nil {
			return loadFailed(c, err, logger)
		}
		return c.JSON(http.StatusOK, b.Stats())
	}
}

func updateTask(boards Boards, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		var u domain.TaskUpdate
		if err := decodeBody(c, &u); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: errInvalidBody.Error()})
		}
		if u.Empty() {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "no changes"})
		}
		if err := u.Validate(); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		}
		b, err := boards.Get(c.Request().Context(), userIDFrom(c))
		if err != nil {
			return loadFailed(c, err, logger)
		}
		task, uerr := b.UpdateTask(c.Request().Context(), c.Param("id"), u)
		if uerr != nil {
			return writeBoardError(c, uerr, logger)
		}
		return c.JSON(http.StatusOK, task)
	}
}

func toggleTask(boards Boards, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		b, err := boards.Get(c.Request().Context(), userIDFrom(c))
		if err != nil {
			return loadFailed(c, err, logger)
		}
		task, terr := b.ToggleTask(c.Request().Context(), c.Param("id"))
		if terr != nil {
			return writeBoardError(c, terr, logger)
		}
		return c.JSON(http.StatusOK, task)
	}
}

func deleteTask(boards Boards, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		b, err := boards.Get(c.Request().Context(), userIDFrom(c))
		if err != nil {
			return loadFailed(c, err, logger)
		}
		if derr := b.DeleteTask(c.Request().Context(), c.Param("id")); derr != nil {
			return writeBoardError(c, derr, logger)
		}
		return c.NoContent(http.StatusNoContent)
	}
}

func getView(boards Boards, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		b, err := boards.Get(c.Request().Context(), userIDFrom(c))
		if err != nil {
			return loadFailed(c, err, logger)
		}
		return c.JSON(http.StatusOK, b.View())
	}
}

// putView replaces the board's stored view; GET /api/tasks without query
// parameters then serves it.
func putView(boards Boards, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		var v board.View
		if err := decodeBody(c, &v); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: errInvalidBody.Error()})
		}
		v, err := normalizeView(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		}
		b, err := boards.Get(c.Request().Context(), userIDFrom(c))
		if err != nil {
			return loadFailed(c, err, logger)
		}
		b.SetView(v)
		return c.JSON(http.StatusOK, b.View())
	}
}

func suggestions(boards Boards, suggester Suggester, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		if suggester == nil {
			return c.JSON(http.StatusOK, suggestionsResponse{Suggestions: []string{}})
		}
		b, err := boards.Get(c.Request().Context(), userIDFrom(c))
		if err != nil {
			return loadFailed(c, err, logger)
		}
		recent := b.Query(board.View{Sort: board.Sort{Field: board.SortCreatedAt, Direction: board.Descending}})
		titles := make([]string, 0, recentTitlesForHints)
		for _, t := range recent {
			if len(titles) == recentTitlesForHints {
				break
			}
			titles = append(titles, t.Title)
		}
		return c.JSON(http.StatusOK, suggestionsResponse{Suggestions: suggester.Suggest(c.Request().Context(), titles)})
	}
}

// loadFailed reports a board that could not be loaded from the repository.
func loadFailed(c echo.Context, err error, logger *log.Logger) error {
	logger.WithError(err).WithField("user", userIDFrom(c)).Error("load board failed")
	return c.JSON(http.StatusInternalServerError, errorResponse{Error: "failed to load tasks"})
}

func writeBoardError(c echo.Context, err error, logger *log.Logger) error {
	switch {
	case errors.Is(err, pipeline.ErrEmptyInput):
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, board.ErrTaskLimitReached):
		return c.JSON(http.StatusForbidden, errorResponse{Error: err.Error()})
	case errors.Is(err, board.ErrTaskNotFound):
		return c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
	}
	logger.WithError(err).Error("task request failed")
	return c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
}

func decodeBody(c echo.Context, v any) error {
	lr := io.LimitReader(c.Request().Body, requestMaxSize)
	dec := sonic.ConfigStd.NewDecoder(lr)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func newProcessResponse(res pipeline.Result) processResponse {
	return processResponse{
		Success:               true,
		OriginalText:          res.OriginalText,
		TranslatedText:        res.TranslatedText,
		ProfessionalTitle:     res.ProfessionalTitle,
		SourceLanguage:        res.SourceLanguage,
		SourceLanguageName:    language.Name(res.SourceLanguage),
		WasTranslated:         res.WasTranslated,
		TranslationConfidence: res.TranslationConfidence,
		Analysis:              res.Analysis,
	}
}
