package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"whisper-bridge/domain"
	"whisper-bridge/history"
	"whisper-bridge/moderation"
	"whisper-bridge/presence"
	"whisper-bridge/repositories"
	"whisper-bridge/runtime/workers"
	"whisper-bridge/session"
	"whisper-bridge/sink"
	"whisper-bridge/translate"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"github.com/olekukonko/tablewriter"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the client lifecycle, and
// centralizes error reporting so every defer executes before exit.
func run() error {
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.ERROR))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() { _ = db.Close() }()

	var index *history.Index
	if config.BlugeFilepath != "" {
		if index, err = history.OpenIndex(config.BlugeFilepath); err != nil {
			return fmt.Errorf("search index opening failed: %w", err)
		}
		defer func() { _ = index.Close() }()
	}

	censor, err := loadCensor(config.CensoredWordsFile)
	if err != nil {
		return fmt.Errorf("censored words loading failed: %w", err)
	}

	store := repositories.NewBadgerStore(db, log)
	tracker := presence.NewTracker(store, log)
	synchronizer := history.NewSynchronizer(store, index, log)
	dispatcher := translate.NewDispatcher(translate.NewLLMTranslator(translate.LLMConfig{
		BaseURL: config.LLMBaseURL,
		APIKey:  config.LLMAPIKey,
		Model:   config.LLMModel,
	}), log)

	feed := sink.NewFeed()
	coordinator := session.NewCoordinator(log, tracker, synchronizer, dispatcher).
		WithCensor(censor).
		AddSinks(feed)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reader := bufio.NewReader(os.Stdin)
	sess, err := join(ctx, coordinator, reader)
	if err != nil {
		return err
	}
	defer func() { _ = coordinator.Leave(context.Background()) }()

	sup := workers.NewSupervisor(log, config.RestartInterval)
	sup.Add(
		workers.NewReconcilerWorker(coordinator, config.PollInterval, log),
		workers.NewStatsWorker(coordinator, config.StatsInterval, log),
	)
	go sup.Run(ctx)
	defer sup.Stop()

	for _, msg := range coordinator.Messages() {
		printMessage(msg, sess)
	}
	go printIncoming(ctx, feed, sess, config.PollInterval)

	color.Cyan.Println("Type a message, or /users, /search <text>, /leave")
	return loop(ctx, coordinator, index, reader, sess)
}

func join(ctx context.Context, coordinator *session.Coordinator, reader *bufio.Reader) (domain.Session, error) {
	name := ask(reader, "Your name: ")
	group := ask(reader, "Group: ")
	language := ask(reader, "Language code (empty to detect from a sample sentence): ")
	if language == "" {
		sample := ask(reader, "Write a sentence in your language: ")
		if language = domain.DetectLanguage(sample); language == "" {
			return domain.Session{}, fmt.Errorf("could not detect a language, pass one explicitly")
		}
		color.Yellow.Printf("Detected language: %s\n", language)
	}

	err := coordinator.Join(ctx, domain.JoinRequest{
		UserName:  name,
		GroupName: group,
		Language:  language,
	})
	if err != nil {
		return domain.Session{}, fmt.Errorf("join failed: %w", err)
	}
	sess, _ := coordinator.Session()
	color.Green.Printf("Joined %s as %s [%s]\n", sess.GroupName, sess.UserName, sess.Language)
	return sess, nil
}

func loop(ctx context.Context, coordinator *session.Coordinator, index *history.Index,
	reader *bufio.Reader, sess domain.Session) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		line, err := reader.ReadString('\n')
		if err != nil {
			return nil
		}
		line = strings.TrimSpace(line)

		switch {
		case line == "":
			continue
		case line == "/leave":
			return coordinator.Leave(ctx)
		case line == "/users":
			printUsers(coordinator.OnlineUsers(), sess)
		case strings.HasPrefix(line, "/search "):
			search(ctx, index, sess.GroupName, strings.TrimPrefix(line, "/search "))
		default:
			if _, err := coordinator.SendMessage(ctx, line); err != nil {
				color.Red.Printf("Not delivered: %v\n", err)
			}
			if !coordinator.Connected() {
				color.Red.Println("Disconnected, reconnecting...")
			}
		}
	}
}

func printIncoming(ctx context.Context, feed *sink.Feed, sess domain.Session, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, msg := range feed.Drain() {
				if !msg.Own(sess) {
					printMessage(msg, sess)
				}
			}
		}
	}
}

func printMessage(msg domain.Message, viewer domain.Session) {
	stamp := msg.SentAt.Local().Format("15:04")
	if msg.Own(viewer) {
		color.Green.Printf("[%s] %s: %s\n", stamp, msg.SenderName, msg.DisplayText(viewer))
		return
	}
	color.Cyan.Printf("[%s] %s: %s\n", stamp, msg.SenderName, msg.DisplayText(viewer))
}

func printUsers(users []domain.Presence, sess domain.Session) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"User", "Language", "Last seen"})
	table.SetBorder(false)
	for _, user := range users {
		name := user.UserName
		if name == sess.UserName {
			name += " (you)"
		}
		table.Append([]string{name, user.Language, user.LastSeen.Local().Format("15:04:05")})
	}
	table.Render()
}

func search(ctx context.Context, index *history.Index, group, query string) {
	if index == nil {
		color.Yellow.Println("Search index disabled (set BLUGE_FILEPATH)")
		return
	}
	hits, err := index.Search(ctx, group, query, 10)
	if err != nil {
		color.Red.Printf("Search failed: %v\n", err)
		return
	}
	for _, hit := range hits {
		color.Yellow.Printf("%s: %s\n", hit.Sender, hit.Original)
	}
	if len(hits) == 0 {
		color.Yellow.Println("No match")
	}
}

func ask(reader *bufio.Reader, prompt string) string {
	fmt.Print(prompt)
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}

func loadCensor(path string) (moderation.Moderator, error) {
	if path == "" {
		return moderation.Moderator{}, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return moderation.Moderator{}, err
	}
	var words []string
	for _, line := range strings.Split(string(raw), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			words = append(words, line)
		}
	}
	return moderation.NewModerator(words, '*')
}
