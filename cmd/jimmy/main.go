package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/askjimmy/go-client/internal/api"
	"github.com/askjimmy/go-client/internal/app"
	"github.com/askjimmy/go-client/internal/config"
	"github.com/askjimmy/go-client/internal/game"
	"github.com/askjimmy/go-client/internal/session"
)

var errQuit = errors.New("quit")

func main() {
	configPath := flag.String("config", "jimmy.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	log, err := buildLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil && !errors.Is(err, errQuit) && !errors.Is(err, context.Canceled) {
		log.Fatal("jimmy exited", zap.Error(err))
	}
}

func buildLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = lvl
	zcfg.OutputPaths = []string{"stderr"}
	return zcfg.Build()
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	records, err := session.Open(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer records.Close()

	client := api.NewClient(cfg.APIBaseURL, log)
	client.SetTimeout(time.Duration(cfg.RequestTimeoutSec) * time.Second)

	store := game.NewStore()
	nav := newTermNav()
	a := app.New(client, store, records, nav, clockwork.NewRealClock(), log)

	// restore before anything renders, like a page load
	a.Restore(ctx, nav.Current())

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return supervisePoller(ctx, a, store, nav) })
	g.Go(func() error { return commandLoop(ctx, a, store) })
	return g.Wait()
}

// supervisePoller keeps exactly one poller alive while a session exists,
// restarting it when navigation changes the polling cadence.
func supervisePoller(ctx context.Context, a *app.App, store *game.Store, nav *termNav) error {
	for {
		if !store.SessionActive() {
			select {
			case <-ctx.Done():
				return nil
			case <-store.Changed():
			}
			continue
		}

		pctx, cancel := context.WithCancel(ctx)
		done := make(chan struct{})
		page := nav.Current()
		go func() {
			a.NewPoller(page).Run(pctx)
			close(done)
		}()

		select {
		case <-ctx.Done():
			cancel()
			<-done
			return nil
		case <-nav.Changes():
			cancel()
			<-done
		case <-done:
			cancel()
		}
	}
}

func commandLoop(ctx context.Context, a *app.App, store *game.Store) error {
	fmt.Println("Ask Jimmy. Type 'help' for commands")
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := dispatch(ctx, a, store, line); err != nil {
			if errors.Is(err, errQuit) {
				return errQuit
			}
			fmt.Println("error:", err)
		}
	}
	return scanner.Err()
}

func dispatch(ctx context.Context, a *app.App, store *game.Store, line string) error {
	cmd, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	switch cmd {
	case "help":
		printHelp()
	case "create":
		// create <name> | <concept> | <topic> [| context [| minutes]]
		parts := splitFields(rest)
		if len(parts) < 3 {
			return errors.New("usage: create <name> | <concept> | <topic> [| <context> [| <minutes>]]")
		}
		gameContext := ""
		minutes := 10
		if len(parts) > 3 {
			gameContext = parts[3]
		}
		if len(parts) > 4 {
			m, err := strconv.Atoi(parts[4])
			if err != nil {
				return fmt.Errorf("bad minutes %q", parts[4])
			}
			minutes = m
		}
		lobby, err := a.CreateLobby(ctx, parts[0], parts[1], gameContext, parts[2], minutes*60)
		if err != nil {
			return err
		}
		fmt.Println("lobby code:", lobby.Code)
	case "join":
		parts := splitFields(rest)
		if len(parts) != 2 {
			return errors.New("usage: join <code> | <name>")
		}
		lobby, err := a.JoinLobby(ctx, strings.ToUpper(parts[0]), parts[1])
		if err != nil {
			return err
		}
		fmt.Println("joined lobby:", lobby.Code)
	case "start":
		return a.StartGame(ctx, "", "", "", 0)
	case "ask":
		if rest == "" {
			return errors.New("usage: ask <question>")
		}
		q, remaining, err := a.AskQuestion(ctx, rest)
		if err != nil {
			return err
		}
		fmt.Printf("Jimmy says: %s (%d questions left)\n", q.Answer, remaining)
	case "guess":
		if rest == "" {
			return errors.New("usage: guess <concept>")
		}
		correct, err := a.Guess(ctx, rest)
		if err != nil {
			return err
		}
		if correct {
			fmt.Println("CORRECT! You win.")
		} else {
			fmt.Println("Not it. Keep asking.")
		}
	case "select":
		if rest == "" {
			return errors.New("usage: select <participant name>")
		}
		lobby := store.CurrentLobby()
		if lobby == nil {
			return errors.New("no lobby")
		}
		for _, u := range lobby.Users {
			if u.Role == game.RoleParticipant && strings.EqualFold(u.Name, rest) {
				store.SetSelectedParticipant(u.ID)
				fmt.Println("selected", u.Name)
				return nil
			}
		}
		return fmt.Errorf("no participant named %q", rest)
	case "who":
		printLobby(store.CurrentLobby(), store.SelectedParticipant())
	case "log":
		printQuestions(store.CurrentLobby())
	case "leave":
		return a.Leave(ctx)
	case "quit", "exit":
		return errQuit
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
	return nil
}

// splitFields splits on '|' and trims each part, so names and questions may
// contain spaces.
func splitFields(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, "|")
	parts := make([]string, 0, len(raw))
	for _, p := range raw {
		parts = append(parts, strings.TrimSpace(p))
	}
	return parts
}

func printHelp() {
	fmt.Println(`commands:
  create <name> | <concept> | <topic> [| <context> [| <minutes>]]
  join <code> | <name>
  start
  ask <question>
  guess <concept>
  select <name>   highlight a participant
  who     show lobby members
  log     show the question log
  leave
  quit`)
}

func printLobby(lobby *game.Lobby, selectedID string) {
	if lobby == nil {
		fmt.Println("no lobby")
		return
	}
	fmt.Printf("lobby %s (%s)\n", lobby.Code, lobby.Status)
	for _, u := range lobby.Users {
		marker := ""
		if u.Role == game.RoleHost {
			marker = " [host]"
		}
		if u.ID == selectedID {
			marker += " *"
		}
		fmt.Printf("  %s%s\n", u.Name, marker)
	}
}

func printQuestions(lobby *game.Lobby) {
	if lobby == nil {
		fmt.Println("no lobby")
		return
	}
	if len(lobby.Questions) == 0 {
		fmt.Println("no questions yet")
		return
	}
	for _, q := range lobby.Questions {
		fmt.Printf("  %s: %q -> %s\n", q.AskerName, q.Text, q.Answer)
	}
}
