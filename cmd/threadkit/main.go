package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	"github.com/ericfisherdev/threadkit/internal/adapter/driven/httpapi"
	"github.com/ericfisherdev/threadkit/internal/adapter/driven/redisdraft"
	sqliteadapter "github.com/ericfisherdev/threadkit/internal/adapter/driven/sqlite"
	"github.com/ericfisherdev/threadkit/internal/adapter/driving/view"
	"github.com/ericfisherdev/threadkit/internal/application"
	"github.com/ericfisherdev/threadkit/internal/config"
	"github.com/ericfisherdev/threadkit/internal/domain/port/driven"
)

const usage = `usage: threadkit <command> [args]

commands:
  show   <post-id>                        print the comment thread
  post   <post-id> <content>              submit a root comment
  reply  <post-id> <parent-id> <content>  submit a reply
  edit   <post-id> <comment-id> <content> edit an owned comment
  delete <post-id> <comment-id> --yes     delete an owned comment and its replies
  resume <post-id> [parent-id]            resubmit a draft stashed before login
  cancel                                  discard the stashed draft
`

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	args := os.Args[1:]
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("missing command")
	}

	// 1. Load configuration (fail fast on missing required env vars).
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Wire the draft stash: Redis when configured, SQLite otherwise.
	drafts, cleanup, err := newDraftStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	// 4. Wire the API client and dispatch.
	api := httpapi.NewClient(cfg.APIBaseURL, cfg.APIToken)
	auth := application.AuthStateFunc(func(context.Context) bool { return cfg.HasToken() })

	newController := func(postID string) *application.ThreadController {
		returnTo := cfg.APIBaseURL + "/posts/" + postID
		return application.NewThreadController(api, drafts, auth, postID, cfg.LoginURL, returnTo, slog.Default())
	}

	switch cmd := args[0]; cmd {
	case "show":
		if len(args) != 2 {
			return fmt.Errorf("show: want <post-id>")
		}
		return show(ctx, newController(args[1]))

	case "post":
		if len(args) != 3 {
			return fmt.Errorf("post: want <post-id> <content>")
		}
		return submit(ctx, newController(args[1]), args[2], nil)

	case "reply":
		if len(args) != 4 {
			return fmt.Errorf("reply: want <post-id> <parent-id> <content>")
		}
		return submit(ctx, newController(args[1]), args[3], &args[2])

	case "edit":
		if len(args) != 4 {
			return fmt.Errorf("edit: want <post-id> <comment-id> <content>")
		}
		tc := newController(args[1])
		if err := tc.Refresh(ctx); err != nil {
			return err
		}
		updated, err := tc.Edit(ctx, args[2], args[3])
		if err != nil {
			return err
		}
		fmt.Printf("edited %s\n", updated.ID)
		return nil

	case "delete":
		if len(args) < 3 {
			return fmt.Errorf("delete: want <post-id> <comment-id> --yes")
		}
		confirmed := len(args) == 4 && args[3] == "--yes"
		tc := newController(args[1])
		if err := tc.Refresh(ctx); err != nil {
			return err
		}
		err := tc.Delete(ctx, args[2], confirmed)
		if errors.Is(err, application.ErrConfirmationRequired) {
			return fmt.Errorf("deleting removes the comment and all its replies; re-run with --yes to confirm")
		}
		if err != nil {
			return err
		}
		fmt.Printf("deleted %s\n", args[2])
		return nil

	case "resume":
		if len(args) < 2 || len(args) > 3 {
			return fmt.Errorf("resume: want <post-id> [parent-id]")
		}
		var parentID *string
		if len(args) == 3 {
			parentID = &args[2]
		}
		tc := newController(args[1])
		comment, err := tc.ResumeAfterAuth(ctx, parentID)
		if err != nil {
			return err
		}
		if comment == nil {
			fmt.Println("no pending draft for this location")
			return nil
		}
		fmt.Printf("resumed submission posted as %s\n", comment.ID)
		return nil

	case "cancel":
		tc := newController("")
		if err := tc.CancelPending(ctx); err != nil {
			return err
		}
		fmt.Println("pending draft discarded")
		return nil

	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// newDraftStore opens the configured draft stash backend and returns it with
// its cleanup function.
func newDraftStore(ctx context.Context, cfg *config.Config) (driven.DraftStore, func(), error) {
	if cfg.RedisURL != "" {
		store, err := redisdraft.New(cfg.RedisURL, slog.Default())
		if err != nil {
			return nil, nil, err
		}
		slog.Debug("draft stash on redis")
		return store, func() { _ = store.Close() }, nil
	}

	db, err := sqliteadapter.NewDB(ctx, cfg.DBPath)
	if err != nil {
		return nil, nil, err
	}
	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	slog.Debug("draft stash on sqlite", "path", cfg.DBPath)
	return sqliteadapter.NewDraftRepo(db, slog.Default()), func() { _ = db.Close() }, nil
}

// show prints the whole thread, newest roots first.
func show(ctx context.Context, tc *application.ThreadController) error {
	if err := tc.Refresh(ctx); err != nil {
		return err
	}

	if tc.Len() == 0 {
		fmt.Println("no comments yet")
		return nil
	}

	fmt.Print(view.RenderThread(tc.Roots()))
	return nil
}

// submit posts content and handles the logged-out deferral path.
func submit(ctx context.Context, tc *application.ThreadController, content string, parentID *string) error {
	result, err := tc.Submit(ctx, content, parentID)
	if err != nil {
		return err
	}

	if result.Redirect != nil {
		fmt.Printf("not logged in: draft saved for 5 minutes\n")
		fmt.Printf("log in at %s then run: threadkit resume\n", result.Redirect.LoginURL)
		return nil
	}

	fmt.Printf("posted %s\n", result.Comment.ID)
	return nil
}
