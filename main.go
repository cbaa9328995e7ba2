package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/warr-app/warr/internal/apiclient"
	"github.com/warr-app/warr/internal/auth"
	"github.com/warr-app/warr/internal/bootstrap"
	"github.com/warr-app/warr/internal/config"
	"github.com/warr-app/warr/internal/version"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	flag.Usage = printUsage
	flag.Parse()

	if *showVersion {
		version.PrintVersion()
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	cfg := config.Load()
	setupLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch args[0] {
	case "serve", "server":
		err = bootstrap.Run(ctx, cfg)
	case "version":
		version.PrintVersion()
	case "login", "logout", "whoami", "entry", "request", "upload":
		err = runClientCommand(ctx, cfg, args[0], args[1:])
	default:
		fmt.Printf("Unknown command: %s\n\n", args[0])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf("Usage: %s [OPTIONS] COMMAND [ARGS]\n\n", os.Args[0])
	fmt.Println("Client for the WARR pet-daycare API")
	fmt.Println("\nCommands:")
	fmt.Println("  serve                          Start the web shell")
	fmt.Println("  login -id ID [-password PW]    Sign in (password is read from stdin when omitted)")
	fmt.Println("  logout                         Sign out and clear stored credentials")
	fmt.Println("  whoami                         Show the signed-in member")
	fmt.Println("  entry                          Show the landing page for the stored session")
	fmt.Println("  request METHOD PATH [BODY]     Call the API as the signed-in member")
	fmt.Println("  upload FILE                    Upload a file and print its storage key")
	fmt.Println("  version                        Show version information")
	fmt.Println("\nOptions:")
	fmt.Println("  -v, --version    Show version information")
	fmt.Println("  -h, --help       Show this help message")
	fmt.Println("\nConfiguration is read from the environment and an optional .env file.")
}

// setupLogger configures the global zerolog logger from LOG_LEVEL and LOG_FORMAT
func setupLogger(cfg *config.Config) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	if cfg.LogFormat == config.LogFormatJSON {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
		return
	}
	log.Logger = zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.Kitchen,
	}).With().Timestamp().Logger()
}

// errReported marks a failure whose message the user has already seen
var errReported = errors.New("already reported")

func runClientCommand(ctx context.Context, cfg *config.Config, name string, args []string) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	var notified atomic.Bool
	clients, err := bootstrap.NewClients(ctx, cfg,
		apiclient.WithNotifier(apiclient.NotifierFunc(func(_ context.Context, e *apiclient.Error) {
			notified.Store(true)
			fmt.Fprintf(os.Stderr, "Error: %s\n", e.Message)
		})),
		apiclient.WithSessionListener(func(e apiclient.SessionExpired) {
			if e.Reason == apiclient.ReasonRefreshRejected {
				fmt.Fprintf(os.Stderr, "Your session has ended. Sign in again with: %s login -id <member id>\n", os.Args[0])
			}
		}),
	)
	if err != nil {
		return err
	}
	defer clients.Close()

	switch name {
	case "login":
		err = runLogin(ctx, clients, args)
	case "logout":
		err = clients.Auth.Logout(ctx)
		if err == nil {
			fmt.Println("Signed out.")
		}
	case "whoami":
		err = runWhoami(ctx, clients)
	case "entry":
		var path string
		path, err = clients.Auth.Entry(ctx)
		fmt.Println(path)
	case "request":
		err = runRequest(ctx, clients, args)
	case "upload":
		err = runUpload(ctx, clients, args)
	}

	if err != nil && notified.Load() {
		return errReported
	}
	return err
}

func runLogin(ctx context.Context, c *bootstrap.Clients, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	memberID := fs.String("id", "", "Member ID")
	password := fs.String("password", "", "Password (read from stdin when omitted)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *password == "" {
		fmt.Fprint(os.Stderr, "Password: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("failed to read password: %w", err)
		}
		*password = strings.TrimRight(line, "\r\n")
	}

	user, err := c.Auth.Login(ctx, auth.Credentials{MemberID: *memberID, Password: *password})
	if err != nil {
		return err
	}
	if user == nil {
		fmt.Println("Signed in.")
		return nil
	}
	fmt.Printf("Signed in as %s (%s). Continue at %s\n", displayName(user.Name, user.Email), user.Role, user.Role.EntryPath())
	return nil
}

func runWhoami(ctx context.Context, c *bootstrap.Clients) error {
	user, err := c.Auth.CurrentUser(ctx)
	if err != nil {
		return err
	}
	return printJSON(user)
}

func runRequest(ctx context.Context, c *bootstrap.Clients, args []string) error {
	if len(args) < 2 {
		return errors.New("usage: request METHOD PATH [BODY]")
	}
	method := strings.ToUpper(args[0])
	path := args[1]
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	var body any
	if len(args) > 2 {
		body = json.RawMessage(args[2])
	}

	resp, err := c.API.Do(ctx, method, path, body)
	if err != nil {
		return err
	}
	if len(resp.Data) == 0 {
		fmt.Printf("HTTP %d\n", resp.StatusCode)
		return nil
	}
	return printJSON(resp.Data)
}

func runUpload(ctx context.Context, c *bootstrap.Clients, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: upload FILE")
	}
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	result, err := c.Uploader.Upload(ctx, args[0], f)
	if err != nil {
		return err
	}
	return printJSON(result)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func displayName(name, email string) string {
	if name != "" {
		return name
	}
	return email
}
