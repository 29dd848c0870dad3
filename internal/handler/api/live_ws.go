package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	models "AstroCarto/internal/domain/models"
	"AstroCarto/internal/services/geometry"
	xhttp "AstroCarto/pkg/http"
	xlogger "AstroCarto/pkg/logger"
	"AstroCarto/pkg/util"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const (
	liveMinInterval = time.Second
	liveMaxInterval = time.Minute
	livePingPeriod  = 30 * time.Second
	liveWriteWait   = 10 * time.Second
)

// LiveHandler streams freshly recomputed line sets for the current
// instant over a WebSocket, for transiting-chart map views.
type LiveHandler struct {
	logger    *xlogger.Logger
	compute   Computer
	assembler *geometry.Assembler
	defaults  Defaults
	interval  time.Duration
	upgrader  websocket.Upgrader
}

func NewLiveHandler(logger *xlogger.Logger, compute Computer, assembler *geometry.Assembler, defaults Defaults, interval time.Duration) *LiveHandler {
	if interval < liveMinInterval {
		interval = liveMinInterval
	}
	return &LiveHandler{
		logger:    logger,
		compute:   compute,
		assembler: assembler,
		defaults:  defaults,
		interval:  interval,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 16384,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

func (h *LiveHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/lines/live", h.Live)
}

// Live upgrades the connection and pushes one line set per interval.
// Query parameters mirror POST /api/lines: bodies (comma separated,
// required), kinds, interval (seconds, clamped to [1, 60]).
func (h *LiveHandler) Live(c echo.Context) error {
	bodies := splitList(c.QueryParam("bodies"))
	if len(bodies) == 0 {
		return xhttp.BadRequestResponse(c, map[string]string{"bodies": "required"})
	}
	kinds := splitList(c.QueryParam("kinds"))

	interval := h.interval
	if s := c.QueryParam("interval"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return xhttp.BadRequestResponse(c, map[string]string{"interval": "must be an integer number of seconds"})
		}
		interval = time.Duration(n) * time.Second
		if interval < liveMinInterval {
			interval = liveMinInterval
		}
		if interval > liveMaxInterval {
			interval = liveMaxInterval
		}
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	// read loop, only to observe the peer closing
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := h.push(ctx, conn, bodies, kinds); err != nil {
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	ping := time.NewTicker(livePingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return nil
			}
		case <-ticker.C:
			if err := h.push(ctx, conn, bodies, kinds); err != nil {
				return nil
			}
		}
	}
}

func (h *LiveHandler) push(ctx context.Context, conn *websocket.Conn, bodies, kinds []string) error {
	req := &models.ComputeLinesRequest{
		Bodies:              bodies,
		JD:                  util.JulianDate(time.Now().UTC()),
		Kinds:               kinds,
		OrbDeg:              h.defaults.OrbDeg,
		PrecisionDeg:        h.defaults.PrecisionDeg,
		StepDeg:             h.defaults.StepDeg,
		StationaryThreshold: h.defaults.StationaryThreshold,
	}
	calc, err := req.ToCalcRequest()
	if err != nil {
		_ = conn.WriteJSON(map[string]string{"error": err.Error()})
		return err
	}

	res, err := h.compute.ComputeLines(ctx, *calc)
	if err != nil {
		h.logger.Warn("live recompute failed", xlogger.Error(err))
		_ = conn.WriteJSON(map[string]string{"error": err.Error()})
		return err
	}

	_ = conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
	return conn.WriteJSON(&ComputeLinesResponse{
		Fingerprint: res.Fingerprint,
		JD:          res.JD,
		Partial:     res.Partial,
		Warnings:    res.Warnings,
		Parans:      res.Parans,
		GeoJSON:     h.assembler.FeatureCollection(res),
		DurationMS:  res.DurationMS,
		ComputedAt:  res.ComputedAt,
	})
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
