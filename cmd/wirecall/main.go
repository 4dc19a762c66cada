package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"github.com/alexcesaro/log"
	"github.com/alexcesaro/log/golog"
	flags "github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"github.com/wirecall/wirecall"
)

// Version of the binary, assigned during build.
var Version string = "dev"

var dialTimeout = time.Second * 5

// debugRPC wraps transports so every payload is logged. Enabled at the
// highest verbosity level.
var debugRPC = false

// Options contains the flag options
type Options struct {
	Verbose []bool `short:"v" long:"verbose" description:"Show verbose logging."`
	Version bool   `long:"version" description:"Print version and exit."`
	Config  string `long:"config" description:"Path to a config file with endpoint aliases."`

	Call   callOptions  `command:"call" description:"Call a method and print the result."`
	Notify callOptions  `command:"notify" description:"Send a notification, expecting no result."`
	Batch  batchOptions `command:"batch" description:"Send several calls as a single batch request."`
}

type callOptions struct {
	Args struct {
		Endpoint string   `positional-arg-name:"endpoint" description:"Endpoint URL or config alias." required:"yes"`
		Method   string   `positional-arg-name:"method" description:"Method name to invoke." required:"yes"`
		Params   []string `positional-arg-name:"params" description:"Parameters, as JSON values."`
	} `positional-args:"yes"`
	Header  []string      `short:"H" long:"header" description:"Extra request header, as 'Name: Value'."`
	Named   bool          `long:"named" description:"Treat parameters as name=value pairs."`
	Timeout time.Duration `long:"timeout" description:"Time to wait for a response." default:"10s"`
}

type batchOptions struct {
	Args struct {
		Endpoint string   `positional-arg-name:"endpoint" description:"Endpoint URL or config alias." required:"yes"`
		Calls    []string `positional-arg-name:"calls" description:"Calls, as METHOD or METHOD=PARAMS." required:"1"`
	} `positional-args:"yes"`
	Header   []string      `short:"H" long:"header" description:"Extra request header, as 'Name: Value'."`
	Timeout  time.Duration `long:"timeout" description:"Time to wait for responses." default:"10s"`
	Parallel bool          `long:"parallel" description:"Send separate concurrent requests instead of one batch."`
}

const callUsage = `Examples:
* Call a method with positional parameters:
  $ wirecall call https://api.example.com/rpc scoop_count 2026

* Call a method with named parameters:
  $ wirecall call --named https://api.example.com/rpc scoop_order flavor=pistachio scoops=2

* Call through a config alias:
  $ wirecall call prod scoop_count 2026
`

var logLevels = []log.Level{
	log.Warning,
	log.Info,
	log.Debug,
}

func subcommand(cmd string, options Options) error {
	switch cmd {
	case "call":
		return runCall(options.Config, options.Call, false)
	case "notify":
		return runCall(options.Config, options.Notify, true)
	case "batch":
		return runBatch(options.Config, options.Batch)
	}
	return nil
}

func main() {
	options := Options{}
	parser := flags.NewParser(&options, flags.Default)
	parser.SubcommandsOptional = true
	p, err := parser.Parse()
	if err != nil {
		if p == nil {
			fmt.Println(err)
		}
		if flagErr, ok := err.(*flags.Error); ok && flagErr.Type == flags.ErrHelp && parser.Active != nil {
			// Print additional usage help when run with --help
			switch parser.Active.Name {
			case "call":
				exit(0, callUsage)
			}
		}
		return
	}

	if options.Version {
		fmt.Println(Version)
		os.Exit(0)
	}

	// Figure out the log level
	numVerbose := len(options.Verbose)
	if numVerbose >= len(logLevels) {
		numVerbose = len(logLevels) - 1
	}

	logLevel := logLevels[numVerbose]
	logWriter := os.Stderr

	SetLogger(golog.New(logWriter, logLevel))
	if logLevel == log.Debug {
		// Enable logging from subpackages
		wirecall.SetLogger(logWriter)
		debugRPC = true
	}

	if err := godotenv.Load(); err == nil {
		logger.Debug("Loaded environment overrides from .env")
	}

	if parser.Active == nil {
		parser.WriteHelp(os.Stderr)
		os.Exit(1)
	}

	cmd := parser.Active.Name
	err = subcommand(cmd, options)
	if err == nil {
		return
	}

	if err == io.EOF {
		exit(3, "Connection closed.\n")
	}

	switch typedErr := err.(type) {
	case net.Error:
		err = ErrExplain{err, `Could not talk to the endpoint. Could be a connectivity issue or the server is down. Try again?`}
	case wirecall.UsageError:
		err = ErrExplain{err, `The request could not be constructed. Check the method name and parameters.`}
	case wirecall.TransportError:
		explanation := `The endpoint did not accept the request. Check that the URL is correct and the server is up.`
		if errors.Is(typedErr, context.DeadlineExceeded) || errors.Is(typedErr, os.ErrDeadlineExceeded) {
			explanation = `The call timed out before the server answered. Raise --timeout if the server is just slow.`
		} else if typedErr.Status != "" {
			explanation = fmt.Sprintf(`The server answered "%s" instead of a JSON-RPC response. Is the endpoint path correct?`, typedErr.Status)
		}
		err = ErrExplain{err, explanation}
	case wirecall.ParseError:
		err = ErrExplain{err, `The server's reply is not valid JSON. Is the endpoint actually a JSON-RPC server?`}
	case interface{ ErrorCode() int }:
		switch typedErr.ErrorCode() {
		case -32601:
			err = ErrExplain{err, `The server does not provide this method. Check the method name for typos.`}
		case -32602:
			err = ErrExplain{err, `The server rejected the parameters. Check their order and names.`}
		default:
			err = ErrExplain{err, fmt.Sprintf(`The server returned an error (code %d).`, typedErr.ErrorCode())}
		}
	case ErrExplain:
		// All good.
	default:
		err = ErrExplain{err, fmt.Sprintf(`Error type %T is missing an explanation. Please open an issue at https://github.com/wirecall/wirecall`, err)}
	}

	if err != nil {
		exit(2, "%s failed: %s\n", cmd, err)
	}
}

func exit(code int, format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format, args...)
	os.Exit(code)
}

// ErrExplain annotates an error with an explanation.
type ErrExplain struct {
	Cause       error
	Explanation string
}

func (err ErrExplain) Error() string {
	return fmt.Sprintf("%s\n -> %s", err.Cause, err.Explanation)
}
