package echoapi

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/schoolconnect/core"
	"github.com/trezcool/schoolconnect/core/school"
)

type schoolApi struct {
	svc    *school.Service
	subs   school.Subscriptions
	logger core.Logger
}

func registerSchoolAPI(g *echo.Group, svc *school.Service, subs school.Subscriptions, logger core.Logger) {
	api := schoolApi{svc: svc, subs: subs, logger: logger}

	sg := g.Group("/students/:id", api.configured)
	sg.GET("", api.student)
	sg.GET("/assignments", api.assignments)
	sg.GET("/attendance", api.attendance)
	sg.GET("/attendance/stats", api.attendanceStats)

	g.POST("/attendance", api.markAttendance, api.configured, staffMiddleware())

	g.GET("/events", api.events, api.configured)
	g.POST("/events/:id/register", api.registerForEvent, api.configured)

	bg := g.Group("/bus/routes", api.configured)
	bg.GET("", api.busRoutes)
	bg.GET("/:id/location", api.busLocation)
	bg.GET("/:id/live", api.busLive)
}

// configured answers 503 when no school records backend is set up.
func (api *schoolApi) configured(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		if api.svc == nil {
			return errNotConfigured
		}
		return next(ctx)
	}
}

func (api *schoolApi) student(ctx echo.Context) error {
	st, err := api.svc.Student(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting student")
	}
	return ctx.JSON(http.StatusOK, st)
}

func (api *schoolApi) assignments(ctx echo.Context) error {
	assignments, err := api.svc.StudentAssignments(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying assignments")
	}
	if assignments == nil {
		assignments = []school.AssignmentDetail{}
	}
	return ctx.JSON(http.StatusOK, assignments)
}

func (api *schoolApi) attendance(ctx echo.Context) error {
	records, err := api.svc.StudentAttendance(ctx.Request().Context(), school.AttendanceFilter{
		StudentID: ctx.Param("id"),
		From:      ctx.QueryParam("from"),
		To:        ctx.QueryParam("to"),
	})
	if err != nil {
		return errors.Wrap(err, "querying attendance")
	}
	if records == nil {
		records = []school.Attendance{}
	}
	return ctx.JSON(http.StatusOK, records)
}

func (api *schoolApi) attendanceStats(ctx echo.Context) error {
	stats, err := api.svc.AttendanceStats(ctx.Request().Context(), ctx.Param("id"), ctx.QueryParam("month"))
	if err != nil {
		return errors.Wrap(err, "getting attendance stats")
	}
	return ctx.JSONBlob(http.StatusOK, stats)
}

type MarkAttendanceRequest struct {
	Records []school.Attendance `json:"records" validate:"required,dive"`
}

func (api *schoolApi) markAttendance(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	var data MarkAttendanceRequest
	if err = bindAndValidate(ctx, &data, "MarkAttendanceRequest"); err != nil {
		return err
	}

	saved, err := api.svc.MarkAttendance(ctx.Request().Context(), usr, data.Records)
	if err != nil {
		return errors.Wrap(err, "marking attendance")
	}
	return ctx.JSON(http.StatusOK, saved)
}

func (api *schoolApi) events(ctx echo.Context) error {
	events, err := api.svc.Events(ctx.Request().Context(), school.EventFilter{
		From:     ctx.QueryParam("from"),
		To:       ctx.QueryParam("to"),
		SchoolID: ctx.QueryParam("school_id"),
	})
	if err != nil {
		return errors.Wrap(err, "querying events")
	}
	if events == nil {
		events = []school.Event{}
	}
	return ctx.JSON(http.StatusOK, events)
}

func (api *schoolApi) registerForEvent(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	reg, err := api.svc.RegisterForEvent(ctx.Request().Context(), usr, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "registering for event")
	}
	return ctx.JSON(http.StatusCreated, reg)
}

func (api *schoolApi) busRoutes(ctx echo.Context) error {
	routes, err := api.svc.BusRoutes(ctx.Request().Context(), ctx.QueryParam("school_id"))
	if err != nil {
		return errors.Wrap(err, "querying bus routes")
	}
	if routes == nil {
		routes = []school.BusRouteDetail{}
	}
	return ctx.JSON(http.StatusOK, routes)
}

func (api *schoolApi) busLocation(ctx echo.Context) error {
	loc, err := api.svc.BusLocation(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting bus location")
	}
	return ctx.JSON(http.StatusOK, loc)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// busLive streams the bus positions inserted for one route, one JSON record per message,
// until the client goes away.
func (api *schoolApi) busLive(ctx echo.Context) error {
	if api.subs == nil {
		return errNotConfigured
	}

	changes := make(chan json.RawMessage, 16)
	done := make(chan struct{})
	var closeOnce sync.Once
	stop := func() { closeOnce.Do(func() { close(done) }) }

	sub, err := api.subs.SubscribeBusTracking(ctx.Request().Context(), ctx.Param("id"), func(ch school.Change) {
		select {
		case changes <- ch.Record:
		case <-done:
		default: // slow client: drop
		}
	})
	if err != nil {
		return errors.Wrap(err, "subscribing to bus tracking")
	}
	defer func() {
		if err := sub.Unsubscribe(); err != nil {
			api.logger.Warn("unsubscribing from bus tracking", err)
		}
	}()

	conn, err := upgrader.Upgrade(ctx.Response(), ctx.Request(), nil)
	if err != nil {
		return nil // the upgrader already answered
	}
	defer conn.Close()

	go func() {
		defer stop()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case rec := <-changes:
			if err := conn.WriteMessage(websocket.TextMessage, rec); err != nil {
				stop()
				return nil
			}
		case <-done:
			return nil
		}
	}
}
