package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	HTTPAddress string

	// Gemini powers translation, speech synthesis and quiz generation.
	// An empty key disables those features with a configuration error
	// instead of failing on first use.
	GeminiKey       string
	GeminiTextModel string
	GeminiTTSModel  string
	GeminiTTSVoice  string

	// Optional OpenAI-compatible endpoint used for translation when set.
	OpenAIKey     string
	OpenAIModel   string
	OpenAIBaseURL string

	// Optional Deepgram synthesis provider.
	DeepgramKey      string
	DeepgramTTSModel string

	// TranslateDebounce is the quiet period after the last finalized
	// fragment before translation fires.
	TranslateDebounce time.Duration

	DefaultLanguage string
}

// Load reads environment variables and returns Config with sane defaults.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Error loading .env file")
	}

	addr := os.Getenv("HTTP_ADDRESS")
	if addr == "" {
		addr = ":8080"
	}

	geminiKey := os.Getenv("GEMINI_API_KEY")
	if geminiKey == "" {
		log.Println("Warning: GEMINI_API_KEY not set - translation, synthesis and quizzes will not work")
	}
	textModel := os.Getenv("GEMINI_TEXT_MODEL")
	if textModel == "" {
		textModel = "gemini-2.5-flash"
	}
	ttsModel := os.Getenv("GEMINI_TTS_MODEL")
	if ttsModel == "" {
		ttsModel = "gemini-2.5-flash-preview-tts"
	}
	ttsVoice := os.Getenv("GEMINI_TTS_VOICE")
	if ttsVoice == "" {
		ttsVoice = "Kore"
	}

	openAIKey := os.Getenv("OPENAI_API_KEY")
	openAIModel := os.Getenv("OPENAI_MODEL")
	if openAIModel == "" {
		openAIModel = "gpt-4o-mini"
	}
	openAIBase := os.Getenv("OPENAI_BASE_URL")

	deepgramKey := os.Getenv("DEEPGRAM_API_KEY")
	deepgramModel := os.Getenv("DEEPGRAM_TTS_MODEL")

	debounce := 2000 * time.Millisecond
	if v := os.Getenv("TRANSLATE_DEBOUNCE_MS"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil || ms <= 0 {
			log.Printf("Warning: invalid TRANSLATE_DEBOUNCE_MS=%q, using default", v)
		} else {
			debounce = time.Duration(ms) * time.Millisecond
		}
	}

	lang := os.Getenv("DEFAULT_LANGUAGE")
	if lang == "" {
		lang = "French"
	}

	log.Printf("config: HTTP_ADDRESS=%s debounce=%s", addr, debounce)
	return Config{
		HTTPAddress:       addr,
		GeminiKey:         geminiKey,
		GeminiTextModel:   textModel,
		GeminiTTSModel:    ttsModel,
		GeminiTTSVoice:    ttsVoice,
		OpenAIKey:         openAIKey,
		OpenAIModel:       openAIModel,
		OpenAIBaseURL:     openAIBase,
		DeepgramKey:       deepgramKey,
		DeepgramTTSModel:  deepgramModel,
		TranslateDebounce: debounce,
		DefaultLanguage:   lang,
	}
}
