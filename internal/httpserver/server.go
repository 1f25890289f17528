package httpserver

import (
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Ekow24/Digi-Francais/internal/config"
	"github.com/Ekow24/Digi-Francais/internal/llm"
	"github.com/Ekow24/Digi-Francais/internal/quiz"
	"github.com/Ekow24/Digi-Francais/internal/session"
	"github.com/Ekow24/Digi-Francais/internal/synth"
	"github.com/Ekow24/Digi-Francais/internal/translate"
)

// Providers bundles the generative backends the routes depend on.
// Configured is false when no Gemini key is present: every generative route
// then answers 503 with an explicit configuration error.
type Providers struct {
	Translator  session.Translator
	Synthesizer session.Synthesizer
	Quizzes     session.QuizGenerator
	Configured  bool
}

// NewProviders wires providers from configuration: Gemini by default, an
// OpenAI-compatible endpoint for translation and Deepgram for synthesis when
// their keys are set.
func NewProviders(cfg config.Config) Providers {
	gemini := llm.NewGeminiClient(cfg.GeminiKey, cfg.GeminiTextModel, cfg.GeminiTTSModel)

	var translator session.Translator = translate.New(gemini)
	if cfg.OpenAIKey != "" {
		translator = translate.New(llm.NewOpenAIClient(cfg.OpenAIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL))
	}
	var synthesizer session.Synthesizer = synth.NewGemini(gemini, cfg.GeminiTTSVoice)
	if cfg.DeepgramKey != "" {
		synthesizer = synth.NewDeepgram(cfg.DeepgramKey, cfg.DeepgramTTSModel)
	}
	return Providers{
		Translator:  translator,
		Synthesizer: synthesizer,
		Quizzes:     quiz.NewGenerator(gemini),
		Configured:  gemini.Configured() || cfg.OpenAIKey != "",
	}
}

// Server bundles the router and its dependencies.
type Server struct {
	Router http.Handler
	cfg    config.Config
	deps   Providers
}

type errorResponse struct {
	Error string `json:"error"`
}

// New constructs the HTTP server with routes.
func New(cfg config.Config, deps Providers) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	s := &Server{Router: e, cfg: cfg, deps: deps}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/languages", func(c echo.Context) error {
		return c.JSON(http.StatusOK, translate.Languages())
	})
	e.POST("/translate", s.handleTranslate)
	e.POST("/speak", s.handleSpeak)
	e.POST("/quiz", s.handleQuiz)
	e.GET("/session", s.handleSession)

	return s
}

func (s *Server) notConfigured(c echo.Context) error {
	return c.JSON(http.StatusServiceUnavailable, errorResponse{
		Error: "service not configured: GEMINI_API_KEY is missing",
	})
}

type translateRequest struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

type translateResponse struct {
	Translation string `json:"translation"`
}

func (s *Server) handleTranslate(c echo.Context) error {
	if !s.deps.Configured {
		return s.notConfigured(c)
	}
	var req translateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}
	if strings.TrimSpace(req.Text) == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "text is required"})
	}
	lang, err := translate.Parse(req.Language)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}
	out, err := s.deps.Translator.Translate(c.Request().Context(), req.Text, lang)
	if err != nil {
		return c.JSON(http.StatusBadGateway, errorResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusOK, translateResponse{Translation: out})
}

type speakRequest struct {
	Text string `json:"text"`
}

type speakResponse struct {
	Audio      string `json:"audio"` // base64 s16le PCM
	SampleRate int    `json:"sampleRate"`
	Channels   int    `json:"channels"`
}

func (s *Server) handleSpeak(c echo.Context) error {
	if !s.deps.Configured {
		return s.notConfigured(c)
	}
	var req speakRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}
	if strings.TrimSpace(req.Text) == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "text is required"})
	}
	seg, err := s.deps.Synthesizer.Synthesize(c.Request().Context(), req.Text)
	if err != nil {
		return c.JSON(http.StatusBadGateway, errorResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusOK, speakResponse{
		Audio:      base64.StdEncoding.EncodeToString(seg.PCM),
		SampleRate: seg.SampleRate,
		Channels:   seg.Channels,
	})
}

type quizRequest struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

func (s *Server) handleQuiz(c echo.Context) error {
	if !s.deps.Configured {
		return s.notConfigured(c)
	}
	var req quizRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}
	if strings.TrimSpace(req.Text) == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "text is required"})
	}
	language := req.Language
	if language == "" {
		language = s.cfg.DefaultLanguage
	}
	q, err := s.deps.Quizzes.Generate(c.Request().Context(), req.Text, language)
	if err != nil {
		return c.JSON(http.StatusBadGateway, errorResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusOK, q)
}
