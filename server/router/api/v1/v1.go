// Package v1 exposes the tutoring API over JSON HTTP.
package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/edustack/mentora/insight"
	"github.com/edustack/mentora/internal/profile"
	"github.com/edustack/mentora/lesson"
)

// APIV1Service bundles the domain services behind the /api/v1 routes.
type APIV1Service struct {
	Profile      *profile.Profile
	Orchestrator *lesson.Orchestrator
	Insight      *insight.Engine
}

func NewAPIV1Service(instanceProfile *profile.Profile, orchestrator *lesson.Orchestrator, engine *insight.Engine) *APIV1Service {
	return &APIV1Service{
		Profile:      instanceProfile,
		Orchestrator: orchestrator,
		Insight:      engine,
	}
}

// Register mounts all v1 routes on the echo instance.
func (s *APIV1Service) Register(e *echo.Echo) {
	g := e.Group("/api/v1")

	g.POST("/lesson", s.createLesson)
	g.POST("/quiz", s.createQuiz)
	g.POST("/explain-image", s.explainImage)
	g.GET("/history", s.listHistory)
	g.DELETE("/history/:id", s.deleteHistory)
	g.GET("/profile", s.learningProfile)
	g.GET("/recommendation", s.recommendation)
}

type lessonRequest struct {
	Query    string `json:"query"`
	Language string `json:"language"`
}

func (s *APIV1Service) createLesson(c echo.Context) error {
	var req lessonRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	if req.Query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query is required")
	}

	result := s.Orchestrator.AnswerLesson(c.Request().Context(), req.Query, req.Language)
	return c.JSON(http.StatusOK, result)
}

type quizRequest struct {
	Topic string `json:"topic"`
}

type quizResponse struct {
	Quiz string `json:"quiz"`
}

func (s *APIV1Service) createQuiz(c echo.Context) error {
	var req quizRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	if req.Topic == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "topic is required")
	}

	quiz, err := s.Orchestrator.GenerateQuiz(c.Request().Context(), req.Topic)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	return c.JSON(http.StatusOK, quizResponse{Quiz: quiz})
}

type explainResponse struct {
	Answer string `json:"answer"`
}

func (s *APIV1Service) explainImage(c echo.Context) error {
	file, err := c.FormFile("image")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "image file is required")
	}
	dataURL, err := fileToDataURL(file)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	answer, err := s.Orchestrator.ExplainImage(c.Request().Context(), c.FormValue("query"), dataURL)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	return c.JSON(http.StatusOK, explainResponse{Answer: answer})
}

func (s *APIV1Service) listHistory(c echo.Context) error {
	limit := 0
	if err := echo.QueryParamsBinder(c).Int("limit", &limit).BindError(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "limit must be an integer")
	}

	records, err := s.Insight.ListHistory(c.Request().Context(), limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load history")
	}
	return c.JSON(http.StatusOK, records)
}

type deleteResponse struct {
	Deleted bool `json:"deleted"`
}

func (s *APIV1Service) deleteHistory(c echo.Context) error {
	deleted := s.Insight.DeleteRecord(c.Request().Context(), c.Param("id"))
	return c.JSON(http.StatusOK, deleteResponse{Deleted: deleted})
}

type learningProfileResponse struct {
	*insight.Snapshot
	NextTopic string `json:"next_topic"`
}

func (s *APIV1Service) learningProfile(c echo.Context) error {
	ctx := c.Request().Context()
	return c.JSON(http.StatusOK, learningProfileResponse{
		Snapshot:  s.Insight.AnalyzeLearningPatterns(ctx),
		NextTopic: s.Insight.SuggestNextTopic(ctx),
	})
}

type recommendationResponse struct {
	Recommendations []string `json:"recommendations"`
}

func (s *APIV1Service) recommendation(c echo.Context) error {
	return c.JSON(http.StatusOK, recommendationResponse{
		Recommendations: s.Insight.Recommendations(c.Request().Context()),
	})
}
