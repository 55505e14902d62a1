package httpHandler

import (
	"errors"
	"net/http"

	"health-monitor/entities"
	"health-monitor/logging"
	"health-monitor/metrics"
	"health-monitor/middlewares"
	"health-monitor/services"
	"health-monitor/usecases"

	"github.com/gin-gonic/gin"
)

const noPlotDataMessage = "No activity data available for plotting"

type HealthHandler struct {
	useCase *usecases.HealthUseCase
}

func NewHealthHandler(useCase *usecases.HealthUseCase) *HealthHandler {
	return &HealthHandler{
		useCase: useCase,
	}
}

// Index handles GET /
func (h *HealthHandler) Index(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", gin.H{"Username": middlewares.Username(c)})
}

// AddDataPage handles GET /add_data
func (h *HealthHandler) AddDataPage(c *gin.Context) {
	c.HTML(http.StatusOK, "add_data.html", gin.H{"Username": middlewares.Username(c), "Levels": activityLevels()})
}

// AddData handles POST /add_data
func (h *HealthHandler) AddData(c *gin.Context) {
	userID, _ := middlewares.UserID(c)

	var in usecases.ReadingInput
	if err := c.ShouldBind(&in); err != nil {
		c.HTML(http.StatusBadRequest, "add_data.html", gin.H{"Username": middlewares.Username(c), "Error": "Pulse and weight must be numbers", "Levels": activityLevels()})
		return
	}

	if _, err := h.useCase.AddReading(c.Request.Context(), userID, in); err != nil {
		status, msg := readingError(c, err)
		c.HTML(status, "add_data.html", gin.H{"Username": middlewares.Username(c), "Error": msg, "Levels": activityLevels()})
		return
	}

	c.Redirect(http.StatusFound, "/dashboard")
}

// Dashboard handles GET /dashboard
func (h *HealthHandler) Dashboard(c *gin.Context) {
	userID, _ := middlewares.UserID(c)

	d, err := h.useCase.Dashboard(c.Request.Context(), userID)
	if err != nil {
		logging.Ctx(c.Request.Context()).Error().Err(err).Msg("failed to load dashboard")
		c.String(http.StatusInternalServerError, "Failed to load dashboard")
		return
	}

	c.HTML(http.StatusOK, "dashboard.html", gin.H{
		"Username":       middlewares.Username(c),
		"Readings":       d.Readings,
		"Recommendation": d.Recommendation,
	})
}

// Plot handles GET /health_data_plot
func (h *HealthHandler) Plot(c *gin.Context) {
	userID, _ := middlewares.UserID(c)

	d, err := h.useCase.ActivityDistribution(c.Request.Context(), userID)
	if err != nil {
		metrics.ChartRenders.WithLabelValues("error").Inc()
		logging.Ctx(c.Request.Context()).Error().Err(err).Msg("failed to count activity levels")
		c.String(http.StatusInternalServerError, "Failed to load activity data")
		return
	}

	slices := make([]services.Slice, 0, len(d.Levels))
	for _, l := range d.Levels {
		slices = append(slices, services.Slice{Label: l.Level, Count: l.Count})
	}

	img, err := services.RenderActivityPie(slices)
	if err != nil {
		if errors.Is(err, services.ErrNoChartData) {
			metrics.ChartRenders.WithLabelValues("empty").Inc()
			c.String(http.StatusBadRequest, noPlotDataMessage)
			return
		}
		metrics.ChartRenders.WithLabelValues("error").Inc()
		logging.Ctx(c.Request.Context()).Error().Err(err).Msg("failed to render chart")
		c.String(http.StatusInternalServerError, "Failed to render chart")
		return
	}

	metrics.ChartRenders.WithLabelValues("ok").Inc()
	c.Data(http.StatusOK, "image/png", img)
}

// ListReadings handles GET /api/v1/readings
func (h *HealthHandler) ListReadings(c *gin.Context) {
	userID, _ := middlewares.UserID(c)

	d, err := h.useCase.Dashboard(c.Request.Context(), userID)
	if err != nil {
		logging.Ctx(c.Request.Context()).Error().Err(err).Msg("failed to list readings")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve readings",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":           d.Readings,
		"count":          len(d.Readings),
		"recommendation": d.Recommendation,
	})
}

// CreateReading handles POST /api/v1/readings
func (h *HealthHandler) CreateReading(c *gin.Context) {
	userID, _ := middlewares.UserID(c)

	var in usecases.ReadingInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	data, err := h.useCase.AddReading(c.Request.Context(), userID, in)
	if err != nil {
		status, msg := readingError(c, err)
		c.JSON(status, gin.H{"error": msg})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Reading stored successfully",
		"data":    data,
	})
}

// Distribution handles GET /api/v1/readings/distribution
func (h *HealthHandler) Distribution(c *gin.Context) {
	userID, _ := middlewares.UserID(c)

	d, err := h.useCase.ActivityDistribution(c.Request.Context(), userID)
	if err != nil {
		logging.Ctx(c.Request.Context()).Error().Err(err).Msg("failed to count activity levels")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve distribution",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": d})
}

func readingError(c *gin.Context, err error) (int, string) {
	switch {
	case errors.Is(err, usecases.ErrInvalidReading):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, usecases.ErrUserNotFound):
		return http.StatusUnauthorized, "User not found"
	default:
		logging.Ctx(c.Request.Context()).Error().Err(err).Msg("failed to store reading")
		return http.StatusInternalServerError, "Failed to store reading"
	}
}

func activityLevels() []string {
	return entities.ActivityLevels
}
