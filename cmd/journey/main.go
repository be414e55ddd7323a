package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/five82/journey/internal/api"
	"github.com/five82/journey/internal/app"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
	exitAuth  = 3
)

// usageError marks bad command-line input.
type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return usageError{msg: fmt.Sprintf(format, args...)}
}

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

func run(args []string, stderr io.Writer) int {
	global := flag.NewFlagSet("journey", flag.ContinueOnError)
	global.SetOutput(stderr)
	configPath := global.String("config", "", "override config path (optional)")
	pollSeconds := global.Int("poll", 0, "watch refresh interval in seconds (optional)")
	global.Usage = func() { printUsage(stderr, global) }
	if err := global.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	rest := global.Args()
	if len(rest) == 0 {
		printUsage(stderr, global)
		return exitUsage
	}
	if rest[0] == "help" {
		printUsage(stderr, global)
		return exitOK
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := app.New(app.Options{ConfigPath: *configPath, PollEvery: *pollSeconds})
	if err != nil {
		fmt.Fprintf(stderr, "journey: %v\n", err)
		return exitError
	}
	defer func() { _ = a.Close() }()

	err = dispatch(ctx, a, rest[0], rest[1:], stderr)
	var uerr usageError
	switch {
	case err == nil:
		return exitOK
	case errors.As(err, &uerr):
		fmt.Fprintf(stderr, "journey: %v\n", err)
		return exitUsage
	case errors.Is(err, flag.ErrHelp):
		return exitOK
	case api.IsAuthenticationRequired(err):
		fmt.Fprintf(stderr, "journey: %v (run: journey login)\n", err)
		return exitAuth
	default:
		fmt.Fprintf(stderr, "journey: %v\n", err)
		return exitError
	}
}

func dispatch(ctx context.Context, a *app.App, cmd string, args []string, stderr io.Writer) error {
	switch cmd {
	case "login":
		fs := newFlagSet("login", stderr)
		email := fs.String("email", "", "account email")
		password := fs.String("password", "", "account password (or JOURNEY_PASSWORD)")
		if err := parseFlags(fs, args); err != nil {
			return err
		}
		if *password == "" {
			*password = os.Getenv("JOURNEY_PASSWORD")
		}
		if *email == "" || *password == "" {
			return usagef("login requires -email and -password")
		}
		return a.Login(ctx, *email, *password)

	case "logout":
		return a.Logout(ctx)

	case "status":
		return a.Status(ctx)

	case "current":
		return a.Current(ctx)

	case "list":
		return a.List(ctx)

	case "show", "location", "delete":
		id, err := parseID(cmd, args)
		if err != nil {
			return err
		}
		switch cmd {
		case "show":
			return a.Show(ctx, id)
		case "location":
			return a.Location(ctx, id)
		default:
			return a.Delete(ctx, id)
		}

	case "cities":
		a.Cities()
		return nil

	case "create":
		fs := newFlagSet("create", stderr)
		from := fs.String("from", "", "start city id (see: journey cities)")
		to := fs.String("to", "", "destination city id")
		name := fs.String("name", "", "journey name (default \"Start → Dest\")")
		if err := parseFlags(fs, args); err != nil {
			return err
		}
		if *from == "" || *to == "" {
			return usagef("create requires -from and -to")
		}
		return a.Create(ctx, *from, *to, *name)

	case "run":
		fs := newFlagSet("run", stderr)
		journeyID := fs.Int64("journey", 0, "journey id")
		miles := fs.Float64("miles", 0, "distance in miles")
		date := fs.String("date", "", "run date YYYY-MM-DD (default today)")
		mood := fs.Int("mood", 0, "mood rating 1-10 (optional)")
		activity := fs.String("type", "", "activity type (default \"run\")")
		if err := parseFlags(fs, args); err != nil {
			return err
		}
		if *journeyID <= 0 || *miles <= 0 {
			return usagef("run requires -journey and -miles")
		}
		return a.LogRun(ctx, app.RunInput{
			JourneyID:    *journeyID,
			Miles:        *miles,
			Date:         *date,
			Mood:         *mood,
			ActivityType: *activity,
		})

	case "watch":
		return a.Watch(ctx)

	default:
		return usagef("unknown command %q", cmd)
	}
}

func newFlagSet(name string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet("journey "+name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	return fs
}

// parseFlags reports bad flags as usage errors; flag has already printed them.
func parseFlags(fs *flag.FlagSet, args []string) error {
	err := fs.Parse(args)
	if err == nil || errors.Is(err, flag.ErrHelp) {
		return err
	}
	return usageError{msg: err.Error()}
}

func parseID(cmd string, args []string) (int64, error) {
	if len(args) != 1 {
		return 0, usagef("%s requires a journey id", cmd)
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, usagef("invalid journey id %q", args[0])
	}
	return id, nil
}

func printUsage(w io.Writer, global *flag.FlagSet) {
	fmt.Fprint(w, `usage: journey [flags] <command> [args]

commands:
  login -email <e> -password <p>   sign in and store the token
  logout                           forget the stored token
  status                           show API and session state
  current                          show the active journey
  list                             list journeys by status
  show <id>                        show one journey's progress
  location <id>                    show the interpolated position
  cities                           list known cities
  create -from <id> -to <id>       start a journey between cities
  run -journey <id> -miles <n>     log a run
  delete <id>                      delete a journey
  watch                            poll and print progress

flags:
`)
	global.PrintDefaults()
}
