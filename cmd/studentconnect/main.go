package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"sort"

	"student-connect/internal/api"
	"student-connect/internal/config"
	"student-connect/internal/session"
	"student-connect/internal/storage"
)

type app struct {
	client  *api.Client
	session *session.Session
	out     io.Writer
	in      *bufio.Reader
}

func newApp(cfg *config.Config, out io.Writer, in io.Reader) (*app, error) {
	tokens, err := storage.NewJSONStorage(cfg.TokenFile)
	if err != nil {
		return nil, fmt.Errorf("open token file: %w", err)
	}
	client := api.NewClient(cfg.APIURL, tokens)
	client.HTTPClient.Timeout = cfg.APITimeout

	return &app{
		client:  client,
		session: session.New(tokens, client.Users),
		out:     out,
		in:      bufio.NewReader(in),
	}, nil
}

func (a *app) run(ctx context.Context, args []string) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" {
		a.usage()
		return nil
	}
	cmd, ok := commands[args[0]]
	if !ok {
		a.usage()
		return fmt.Errorf("unknown command %q", args[0])
	}

	if err := a.session.Init(ctx); err != nil {
		log.Printf("Stored session dropped: %v", err)
	}
	if cmd.auth && !a.session.Authenticated() {
		return fmt.Errorf("%s: not signed in, run \"login\" first", args[0])
	}
	return cmd.run(a, ctx, args[1:])
}

func (a *app) usage() {
	fmt.Fprintln(a.out, "usage: studentconnect <command> [flags]")
	fmt.Fprintln(a.out)
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(a.out, "  %-16s %s\n", name, commands[name].help)
	}
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("studentconnect: ")

	cfg := config.LoadConfig()

	a, err := newApp(cfg, os.Stdout, os.Stdin)
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := a.run(ctx, os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}
