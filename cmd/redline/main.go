package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/mwhitfield/redline/internal/config"
	"github.com/mwhitfield/redline/internal/export"
	"github.com/mwhitfield/redline/internal/gdrive"
	"github.com/mwhitfield/redline/internal/ingest"
	"github.com/mwhitfield/redline/internal/llm"
	"github.com/mwhitfield/redline/internal/logging"
	"github.com/mwhitfield/redline/internal/paginate"
	"github.com/mwhitfield/redline/internal/server"
	"github.com/mwhitfield/redline/internal/storage"
	"github.com/mwhitfield/redline/internal/summary"
	"github.com/mwhitfield/redline/internal/transcript"
)

func main() {
	configPath := flag.String("config", os.Getenv(config.EnvPrefix+"CONFIG"), "path to config.yaml")
	flag.Parse()

	cfg, warnings, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logging.Init(cfg.LogLevel, cfg.LogFormat)
	log := logging.WithComponent("main")
	for _, w := range warnings {
		log.Warn().Msg(w)
	}

	store, err := storage.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("open storage")
	}
	defer func() { _ = store.Close() }()

	args := flag.Args()
	cmd := "serve"
	if len(args) > 0 {
		cmd = args[0]
		args = args[1:]
	}

	switch cmd {
	case "serve":
		err = runServe(cfg, store)
	case "ingest":
		err = runIngest(cfg, store, args)
	case "export":
		err = runExport(cfg, store, args)
	default:
		err = fmt.Errorf("unknown command %q (expected serve, ingest, or export)", cmd)
	}
	if err != nil {
		log.Fatal().Err(err).Str("command", cmd).Msg("command failed")
	}
}

func runServe(cfg config.Config, store *storage.SQLiteStore) error {
	log := logging.WithComponent("serve")

	hub := server.NewHub()

	var summarizer server.Summarizer
	if cfg.OpenAIAPIKey != "" || cfg.AnthropicAPIKey != "" || cfg.GeminiAPIKey != "" {
		summarizer = summary.New(cfg.SummaryModel, llmFactory(cfg))
	}

	handler := server.Handler(hub, store, summarizer, cfg.PaginateConfig())
	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.ListenAddr).Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
	}
	return nil
}

func llmFactory(cfg config.Config) summary.ClientFactory {
	return func(provider, model string) (llm.Client, error) {
		var key string
		switch provider {
		case "openai":
			key = cfg.OpenAIAPIKey
		case "anthropic":
			key = cfg.AnthropicAPIKey
		case "gemini":
			key = cfg.GeminiAPIKey
		}
		if key == "" {
			return nil, fmt.Errorf("no API key configured for provider %q", provider)
		}
		return llm.NewClient(provider, key, model)
	}
}

func runIngest(cfg config.Config, store *storage.SQLiteStore, args []string) error {
	fs := flag.NewFlagSet("ingest", flag.ContinueOnError)
	title := fs.String("title", "", "transcript title (defaults to the file name)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: redline ingest [-title t] <audio-file>")
	}
	audioPath := fs.Arg(0)

	if cfg.DeepgramAPIKey == "" {
		return errors.New("ingestion requires " + config.EnvPrefix + "DEEPGRAM_API_KEY")
	}

	log := logging.WithComponent("ingest")

	ingester := ingest.NewIngester(cfg.DeepgramAPIKey, cfg.DeepgramModel)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	utterances, err := ingester.FromFile(ctx, audioPath)
	if err != nil {
		return err
	}
	if len(utterances) == 0 {
		return fmt.Errorf("no utterances detected in %s", audioPath)
	}

	id, err := gonanoid.New()
	if err != nil {
		return fmt.Errorf("generate transcript id: %w", err)
	}
	name := *title
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	}

	meta := storage.Transcript{
		ID:        id,
		Title:     name,
		Source:    filepath.Base(audioPath),
		CreatedAt: time.Now().UTC(),
	}
	if err := store.CreateTranscript(meta, utterances); err != nil {
		return err
	}

	log.Info().Str("transcriptId", id).Int("utterances", len(utterances)).Msg("transcript ingested")
	fmt.Println(id)
	return nil
}

func runExport(cfg config.Config, store *storage.SQLiteStore, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	formatName := fs.String("format", "text", "export format: text, pdf, or docx")
	outPath := fs.String("out", "", "output file (defaults to <transcript-id>.<ext>)")
	toDrive := fs.Bool("drive", false, "also upload the export to the configured Drive folder")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: redline export [-format f] [-out path] [-drive] <transcript-id>")
	}
	transcriptID := fs.Arg(0)

	format, err := export.ParseFormat(*formatName)
	if err != nil {
		return err
	}

	meta, err := store.GetTranscript(transcriptID)
	if err != nil {
		return err
	}

	pages, err := renderPages(store, transcriptID, cfg.PaginateConfig())
	if err != nil {
		return err
	}
	data, err := export.Render(format, meta.Title, pages)
	if err != nil {
		return err
	}

	path := *outPath
	if path == "" {
		path = transcriptID + format.Ext()
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	log := logging.WithComponent("export")
	log.Info().Str("transcriptId", transcriptID).Str("format", string(format)).Str("path", path).Msg("export written")

	if *toDrive {
		if cfg.GDriveFolderID == "" {
			return errors.New("drive upload requires gdrive_folder_id")
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		uploader, err := gdrive.NewUploader(ctx, cfg.GoogleCredentialsFile, cfg.GDriveFolderID)
		if err != nil {
			return err
		}
		if err := uploader.Upload(ctx, filepath.Base(path), format.MIME(), data); err != nil {
			return err
		}
		log.Info().Str("transcriptId", transcriptID).Msg("export uploaded to drive")
	}
	return nil
}

// renderPages rebuilds the transcript's edit state from storage and runs it
// through flatten and pagination, the same path the HTTP export uses.
func renderPages(store *storage.SQLiteStore, transcriptID string, pageCfg paginate.Config) ([]paginate.Page, error) {
	utterances, err := store.GetUtterances(transcriptID)
	if err != nil {
		return nil, err
	}
	edits, err := store.GetEdits(transcriptID)
	if err != nil {
		return nil, err
	}

	editStore := transcript.NewEditStore(utterances)
	for utteranceID, segs := range edits {
		if err := editStore.SetEdit(utteranceID, segs); err != nil {
			return nil, fmt.Errorf("rehydrate edit %s: %w", utteranceID, err)
		}
	}

	return paginate.Paginate(transcript.Flatten(editStore), pageCfg)
}
