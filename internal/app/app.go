package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/joyfuladam/voskcaption/internal/archive"
	"github.com/joyfuladam/voskcaption/internal/audio"
	"github.com/joyfuladam/voskcaption/internal/broadcast"
	"github.com/joyfuladam/voskcaption/internal/caption"
	"github.com/joyfuladam/voskcaption/internal/dictionary"
	"github.com/joyfuladam/voskcaption/internal/httpapi"
	"github.com/joyfuladam/voskcaption/internal/jobs"
	"github.com/joyfuladam/voskcaption/internal/notifications"
	"github.com/joyfuladam/voskcaption/internal/recognizer"
	"github.com/joyfuladam/voskcaption/internal/schedule"
	"github.com/joyfuladam/voskcaption/internal/settings"
)

type App struct {
	cfg    Config
	logger *log.Logger

	dict     *dictionary.Store
	norm     *dictionary.Normalizer
	display  *settings.Store
	userPref *settings.Store
	sched    *schedule.Store
	arch     *archive.Store
	recorder *archive.Recorder
	discord  *notifications.Discord
	hub      *broadcast.Hub
	engine   *caption.Engine
	control  *controller

	scheduler *jobs.SchedulerJob
	health    *jobs.HealthJob
}

func New(cfg Config, logger *log.Logger) (*App, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("app: creating data dir %s: %w", cfg.DataDir, err)
	}

	dict, err := dictionary.NewStore(filepath.Join(cfg.DataDir, "dictionary.json"))
	if err != nil {
		return nil, err
	}
	norm := dictionary.NewNormalizer(dict)

	display, err := settings.NewDisplayStore(filepath.Join(cfg.DataDir, "settings.json"))
	if err != nil {
		return nil, err
	}
	userPref, err := settings.NewUserStore(filepath.Join(cfg.DataDir, "user_settings.json"))
	if err != nil {
		return nil, err
	}
	sched, err := schedule.NewStore(filepath.Join(cfg.DataDir, "schedule.json"))
	if err != nil {
		return nil, err
	}

	arch, err := archive.Open(filepath.Join(cfg.DataDir, "captions.db"))
	if err != nil {
		return nil, err
	}
	recorder := archive.NewRecorder(arch, logger)
	discord := notifications.NewDiscord(cfg.DiscordWebhookURL, logger)

	hub := broadcast.NewHub(logger)

	// Projection tuning lives in the settings files; it is read once
	// here, so edits apply on the next process start.
	engineCfg := caption.Config{
		PrimaryLanguage:     cfg.PrimaryLanguage,
		ProductionLineWidth: display.Int("max_line_length", 90),
		PauseThreshold:      secondsToDuration(display.Float("pause_threshold_seconds", 2)),
		MaxTranscriptLines:  display.Int("max_transcript_lines", 200),
		AudienceLineWidth:   userPref.Int("user_max_line_length", 500),
		AudienceMaxLines:    userPref.Int("user_lines", 3),
		AutoFinalizeDelay:   secondsToDuration(userPref.Float("user_auto_finalize_delay", 10)),
	}
	engine := caption.NewEngine(engineCfg, norm, hub, logger)

	a := &App{
		cfg:      cfg,
		logger:   logger,
		dict:     dict,
		norm:     norm,
		display:  display,
		userPref: userPref,
		sched:    sched,
		arch:     arch,
		recorder: recorder,
		discord:  discord,
		hub:      hub,
		engine:   engine,
	}

	provider, err := a.buildProvider()
	if err != nil {
		_ = arch.Close()
		hub.Stop()
		return nil, err
	}
	engine.SetProvider(provider)

	a.control = &controller{
		engine:   engine,
		recorder: recorder,
		discord:  discord,
		provider: cfg.Provider,
		language: cfg.PrimaryLanguage,
	}

	a.scheduler = jobs.NewSchedulerJob(sched, a.control, logger, cfg.SchedulerInterval.Std())
	a.health = jobs.NewHealthJob(a.control, logger, cfg.HealthCheckInterval.Std())

	if cfg.AdminPassword == "" {
		logger.Printf("app: ADMIN_PASSWORD not set; admin endpoints are disabled")
	}

	return a, nil
}

// buildProvider constructs the configured speech provider with its
// callbacks teed into the engine, the session recorder and the ops
// notifier.
func (a *App) buildProvider() (caption.Provider, error) {
	cb := recognizer.Callbacks{
		OnInterim: a.engine.HandleInterim,
		OnFinal: func(lang, text string) {
			a.engine.HandleFinal(lang, text)
			a.recorder.RecordFinal(lang, a.norm.Normalize(text))
		},
		OnError: a.handleProviderError,
	}

	switch a.cfg.Provider {
	case ProviderVosk:
		return recognizer.NewVosk(recognizer.VoskConfig{
			URL:        a.cfg.VoskURL,
			Language:   a.cfg.PrimaryLanguage,
			SampleRate: a.cfg.SampleRate,
			ChunkSize:  a.cfg.AudioChunkSize,
			Phrases:    a.dict.Get().CustomPhrases,
		}, a.captureSource(), cb, a.logger), nil
	case ProviderDeepgram:
		return recognizer.NewDeepgram(recognizer.DeepgramConfig{
			APIKey:     a.cfg.DeepgramAPIKey,
			Language:   a.cfg.PrimaryLanguage,
			Model:      a.cfg.DeepgramModel,
			SampleRate: a.cfg.SampleRate,
			ChunkSize:  a.cfg.AudioChunkSize,
			Keywords:   a.dict.Get().CustomPhrases,
		}, a.captureSource(), cb, a.logger), nil
	case ProviderScript:
		return recognizer.NewScript(recognizer.ScriptConfig{
			Path:     a.cfg.ScriptPath,
			Language: a.cfg.PrimaryLanguage,
		}, cb, a.logger), nil
	default:
		return nil, fmt.Errorf("app: unknown speech provider %q", a.cfg.Provider)
	}
}

func (a *App) captureSource() *audio.Recorder {
	return audio.NewRecorder(audio.Config{
		Command:    a.cfg.CaptureCommand,
		Device:     a.cfg.AudioDevice,
		SampleRate: a.cfg.SampleRate,
	}, a.logger)
}

func (a *App) handleProviderError(err error) {
	a.engine.HandleProviderError(err)
	a.recorder.RecordError(err)
	a.discord.NotifyRecognizerError(context.Background(), a.cfg.Provider, err)
	sentry.CaptureException(err)
}

// Router builds the HTTP handler over the app's components.
func (a *App) Router() http.Handler {
	routerCfg := httpapi.RouterConfig{
		AdminUsername:    a.cfg.AdminUsername,
		AdminPassword:    a.cfg.AdminPassword,
		WebsocketToken:   a.cfg.WebsocketToken,
		JWTSecret:        a.cfg.JWTSecret,
		JWTExpiry:        a.cfg.JWTExpiry.Std(),
		DataDir:          a.cfg.DataDir,
		AudioListCommand: a.cfg.CaptureCommand,
		Provider:         a.cfg.Provider,
		PrimaryLanguage:  a.cfg.PrimaryLanguage,
	}
	return httpapi.NewRouter(routerCfg, httpapi.Deps{
		Captions:   a.control,
		Hub:        a.hub,
		Dictionary: a.dict,
		Normalizer: a.norm,
		Display:    a.display,
		UserPrefs:  a.userPref,
		Schedules:  a.sched,
		Archive:    a.arch,
	}, a.logger)
}

// Start launches the background jobs.
func (a *App) Start() {
	a.scheduler.Start()
	a.health.Start()
}

// Close stops the background jobs, ends any active session and
// releases the archive.
func (a *App) Close() error {
	a.health.Stop()
	a.scheduler.Stop()
	a.control.Stop()
	a.engine.Close()
	a.hub.Stop()
	return a.arch.Close()
}

func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}
