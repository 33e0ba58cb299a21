package httpapi

import (
	"context"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/citygrid/traffic-scan/internal/store"
	"github.com/citygrid/traffic-scan/internal/traffic"
)

var validate = validator.New()

const probeTimeout = 10 * time.Second

// RegisterRoutes wires the HTTP handlers into the Fiber app. provider may be
// nil when no API key is configured; only /probe needs it.
func RegisterRoutes(app *fiber.App, st *store.Store, provider traffic.Provider) {
	app.Get("/health", func(c *fiber.Ctx) error {
		intersections, observations, err := st.Counts(c.UserContext())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to count rows")
		}
		return c.JSON(fiber.Map{
			"ok":            true,
			"intersections": intersections,
			"observations":  observations,
		})
	})

	// Synchronous passthrough to the upstream provider; bypasses storage.
	app.Get("/probe", func(c *fiber.Ctx) error {
		lat, lon, err := parseCoords(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if provider == nil {
			return fiber.NewError(fiber.StatusInternalServerError, "TOMTOM_API_KEY is not configured")
		}

		ctx, cancel := context.WithTimeout(c.UserContext(), probeTimeout)
		defer cancel()

		seg, err := provider.FlowByPoint(ctx, lat, lon)
		if err != nil {
			return fiber.NewError(fiber.StatusBadGateway, err.Error())
		}
		return c.JSON(seg)
	})

	app.Get("/latest", func(c *fiber.Ctx) error {
		limit, err := queryIntDefault(c, "limit", 100)
		if err != nil {
			return err
		}
		q := latestQuery{Limit: limit}
		if err := validate.Struct(q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		rows, err := st.Latest(c.UserContext(), q.Limit)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch latest observations")
		}
		if rows == nil {
			rows = []store.ObservationRow{}
		}
		return c.JSON(fiber.Map{"rows": rows})
	})

	app.Get("/latest_snapshot", func(c *fiber.Ctx) error {
		ts, rows, err := st.LatestSnapshot(c.UserContext())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch snapshot")
		}
		if rows == nil {
			rows = []store.ObservationRow{}
		}
		return c.JSON(fiber.Map{"ts": ts, "rows": rows})
	})

	app.Get("/series", func(c *fiber.Ctx) error {
		hours, err := queryIntDefault(c, "hours", 6)
		if err != nil {
			return err
		}
		q := hoursQuery{Hours: hours}
		if err := validate.Struct(q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		intersectionID, err := resolveSeriesTarget(c, st)
		if err != nil {
			return err
		}
		if intersectionID == nil {
			// Coordinates given but nothing stored yet: empty series.
			return c.JSON(fiber.Map{"rows": []store.SeriesPoint{}})
		}

		since := time.Now().UTC().Add(-time.Duration(q.Hours) * time.Hour)
		points, err := st.Series(c.UserContext(), *intersectionID, since)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch series")
		}
		if points == nil {
			points = []store.SeriesPoint{}
		}
		return c.JSON(fiber.Map{
			"intersection_id": *intersectionID,
			"rows":            points,
		})
	})

	app.Get("/stats", func(c *fiber.Ctx) error {
		hours, err := queryIntDefault(c, "hours", 6)
		if err != nil {
			return err
		}
		q := hoursQuery{Hours: hours}
		if err := validate.Struct(q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		since := time.Now().UTC().Add(-time.Duration(q.Hours) * time.Hour)
		per, worst, err := st.Stats(c.UserContext(), since)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to compute stats")
		}
		if per == nil {
			per = []store.IntersectionStats{}
		}
		return c.JSON(fiber.Map{
			"hours":            q.Hours,
			"per_intersection": per,
			"worst":            worst,
		})
	})
}

// queryIntDefault parses an optional integer query parameter. Unlike
// fiber's QueryInt it rejects malformed values instead of silently
// substituting the default.
func queryIntDefault(c *fiber.Ctx, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid "+key)
	}
	return n, nil
}

type latestQuery struct {
	Limit int `validate:"min=1,max=2000"`
}

type hoursQuery struct {
	Hours int `validate:"min=1,max=168"`
}

// resolveSeriesTarget picks the intersection for /series: an explicit
// intersection_id wins; otherwise lat+lon resolve to the nearest stored
// intersection. A nil id with a nil error means the registry is empty.
func resolveSeriesTarget(c *fiber.Ctx, st *store.Store) (*int64, error) {
	if raw := c.Query("intersection_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fiber.NewError(fiber.StatusBadRequest, "invalid intersection_id")
		}
		return &id, nil
	}

	lat, lon, err := parseCoords(c)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "provide intersection_id or lat+lon")
	}

	nearest, err := st.NearestIntersection(c.UserContext(), lat, lon)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "failed to resolve nearest intersection")
	}
	if nearest == nil {
		return nil, nil
	}
	return &nearest.ID, nil
}

func parseCoords(c *fiber.Ctx) (lat, lon float64, err error) {
	latRaw := c.Query("lat")
	lonRaw := c.Query("lon")
	if latRaw == "" || lonRaw == "" {
		return 0, 0, fiber.NewError(fiber.StatusBadRequest, "lat and lon query parameters are required")
	}
	lat, err = strconv.ParseFloat(latRaw, 64)
	if err != nil {
		return 0, 0, fiber.NewError(fiber.StatusBadRequest, "invalid lat")
	}
	lon, err = strconv.ParseFloat(lonRaw, 64)
	if err != nil {
		return 0, 0, fiber.NewError(fiber.StatusBadRequest, "invalid lon")
	}
	return lat, lon, nil
}
