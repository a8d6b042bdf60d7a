package httpapi

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/historical-risk-explorer/internal/geocode"
	"github.com/i474232898/historical-risk-explorer/internal/risk"
	"github.com/i474232898/historical-risk-explorer/internal/weather"
)

var validate = validator.New()

// Deps are the collaborators the HTTP handlers need.
type Deps struct {
	Service    *weather.Service
	Geocoder   geocode.Geocoder
	RiskMethod risk.Method
}

// ErrorHandler renders every error as {"error": true, "message": ...}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": err.Error(),
	})
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, deps Deps) {
	v1 := app.Group("/api/v1")

	v1.Get("/variables", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"variables": weather.Variables(),
			"providers": deps.Service.Providers(),
		})
	})

	v1.Get("/series", func(c *fiber.Ctx) error {
		var q seriesQuery
		if err := q.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		series := deps.Service.Fetch(c.UserContext(), q.Location.toLocation(), q.date, q.Variable)
		return c.JSON(series)
	})

	v1.Post("/analyze", func(c *fiber.Ctx) error {
		var req analyzeRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid JSON body")
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		date, err := time.Parse(weather.DateLayout, req.Date)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "date must be YYYY-MM-DD")
		}

		loc := weather.Location{Lat: *req.Lat, Lon: *req.Lon}
		names := make([]string, len(req.Variables))
		for i, v := range req.Variables {
			names[i] = v.Name
		}

		seriesList := deps.Service.FetchMany(c.UserContext(), loc, date, names)

		results := make([]variableResult, len(seriesList))
		for i, series := range seriesList {
			threshold := req.Variables[i].threshold()
			results[i] = variableResult{
				Variable:  names[i],
				Threshold: threshold,
				Series:    series,
				Analysis:  risk.Analyze(series, threshold, deps.RiskMethod),
				Summary:   weather.Summarize(series),
			}
		}

		return c.JSON(fiber.Map{
			"location": loc,
			"date":     req.Date,
			"results":  results,
		})
	})

	v1.Get("/geocode", func(c *fiber.Ctx) error {
		place := c.Query("q")
		if place == "" {
			return fiber.NewError(fiber.StatusBadRequest, "q query parameter is required")
		}

		loc, err := deps.Geocoder.Lookup(c.UserContext(), place)
		if err != nil {
			switch {
			case errors.Is(err, geocode.ErrDisabled):
				return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
			case errors.Is(err, geocode.ErrNotFound):
				return fiber.NewError(fiber.StatusNotFound, "no results found for requested place")
			case errors.Is(err, context.DeadlineExceeded):
				return fiber.NewError(fiber.StatusGatewayTimeout, "geocoding service timed out")
			}
			return fiber.NewError(fiber.StatusBadGateway, "failed to contact geocoding service")
		}

		return c.JSON(fiber.Map{"query": place, "location": loc})
	})
}

// locationQuery holds query parameters for identifying a location.
type locationQuery struct {
	Lat float64 `validate:"min=-90,max=90"`
	Lon float64 `validate:"min=-180,max=180"`
}

func (l locationQuery) toLocation() weather.Location {
	return weather.Location{
		Lat: l.Lat,
		Lon: l.Lon,
	}
}

func parseLocationQuery(c *fiber.Ctx) (locationQuery, error) {
	var q locationQuery

	latStr, lonStr := c.Query("lat"), c.Query("lon")
	if latStr == "" || lonStr == "" {
		return q, errors.New("lat and lon query parameters are required")
	}

	var err error
	if q.Lat, err = strconv.ParseFloat(latStr, 64); err != nil {
		return q, errors.New("lat must be a number")
	}
	if q.Lon, err = strconv.ParseFloat(lonStr, 64); err != nil {
		return q, errors.New("lon must be a number")
	}

	if err := validate.Struct(q); err != nil {
		return q, err
	}

	return q, nil
}

// seriesQuery holds query parameters for the series endpoint.
type seriesQuery struct {
	Location locationQuery
	Date     string `validate:"required,datetime=2006-01-02"`
	Variable string `validate:"required"`

	date time.Time
}

func (s *seriesQuery) bind(c *fiber.Ctx) error {
	loc, err := parseLocationQuery(c)
	if err != nil {
		return err
	}
	s.Location = loc
	s.Date = c.Query("date")
	s.Variable = c.Query("variable")

	if err := validate.Struct(s); err != nil {
		return err
	}

	s.date, err = time.Parse(weather.DateLayout, s.Date)
	return err
}

// analyzeRequest is the body of the analyze endpoint.
type analyzeRequest struct {
	Lat       *float64          `json:"lat" validate:"required,min=-90,max=90"`
	Lon       *float64          `json:"lon" validate:"required,min=-180,max=180"`
	Date      string            `json:"date" validate:"required,datetime=2006-01-02"`
	Variables []variableRequest `json:"variables" validate:"required,min=1,dive"`
}

type variableRequest struct {
	Name string `json:"name" validate:"required"`
	// Threshold defaults to the catalog threshold of the variable.
	Threshold *float64 `json:"threshold"`
}

func (v variableRequest) threshold() float64 {
	if v.Threshold != nil {
		return *v.Threshold
	}
	if known, ok := weather.LookupVariable(v.Name); ok {
		return known.DefaultThreshold
	}
	return 0
}

type variableResult struct {
	Variable  string             `json:"variable"`
	Threshold float64            `json:"threshold"`
	Series    weather.TimeSeries `json:"series"`
	Analysis  risk.Result        `json:"analysis"`
	Summary   weather.Summary    `json:"summary"`
}
