package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog"

	"github.com/williamokano/s3compat/pkg/config"
	"github.com/williamokano/s3compat/pkg/httpapi"
	"github.com/williamokano/s3compat/pkg/logger"
	"github.com/williamokano/s3compat/pkg/metrics"
	"github.com/williamokano/s3compat/pkg/storage"
	"github.com/williamokano/s3compat/pkg/storage/s3"
	"github.com/williamokano/s3compat/pkg/transport"
)

const usage = `usage: s3compat [-config file] <command> [args]

commands:
  buckets                          list bucket names
  ls [folder]                      list one folder of the configured bucket
  presign <key | managed-url>      print a pre-signed download URL
  upload <folder> <file>...        upload local files into folder
  serve                            run the HTTP API
`

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("s3compat", flag.ContinueOnError)
	fs.Usage = func() { fmt.Fprint(fs.Output(), usage) }
	configFile := fs.String("config", os.Getenv("S3COMPAT_CONFIG"), "path to a JSON or YAML config file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errors.New("missing command")
	}

	settings, err := config.Load(*configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(settings.GetLogLevel(), settings.GetLogFormat())
	log := logger.Get()
	log.Debug().Str("config_file", *configFile).Str("command", fs.Arg(0)).Msg("starting s3compat")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	store := config.NewStore(*settings)
	sender := transport.New(
		transport.WithObserver(metrics.NewClientMetrics(m.Registry())),
		transport.WithLogger(*log),
	)
	client := s3.New(store, sender, *log)

	cmdArgs := fs.Args()[1:]
	switch fs.Arg(0) {
	case "buckets":
		names, err := client.ListBuckets(ctx)
		if err != nil {
			return err
		}
		return printJSON(stdout, names)

	case "ls":
		folder := ""
		if len(cmdArgs) > 0 {
			folder = cmdArgs[0]
		}
		entries, err := client.ListObjects(ctx, folder)
		if err != nil {
			return err
		}
		return printJSON(stdout, entries)

	case "presign":
		if len(cmdArgs) != 1 {
			return errors.New("presign takes exactly one key or managed URL")
		}
		link, err := presign(client, cmdArgs[0])
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(stdout, link)
		return err

	case "upload":
		if len(cmdArgs) < 2 {
			return errors.New("upload needs a folder and at least one file")
		}
		uploader := storage.NewMultiUploader(client, settings.GetUploadConcurrency(), *log)
		results := uploader.Upload(ctx, cmdArgs[0], cmdArgs[1:])
		if err := printJSON(stdout, uploadSummary(results)); err != nil {
			return err
		}
		for _, r := range results {
			if !r.Success {
				return fmt.Errorf("%s: %w", r.Source, r.Error)
			}
		}
		return nil

	case "serve":
		return serve(ctx, *configFile, store, client, m, *log)

	default:
		fs.Usage()
		return fmt.Errorf("unknown command %q", fs.Arg(0))
	}
}

func presign(client *s3.Client, target string) (string, error) {
	if client.IsManagedURL(target) {
		return client.DownloadURL(target)
	}
	return client.PresignGet(target)
}

// serve runs the HTTP API. SIGHUP reloads the config file; requests already in
// flight keep the settings they started with.
func serve(ctx context.Context, configFile string, store *config.Store, client storage.Store, m *metrics.Metrics, log zerolog.Logger) error {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-hup:
				reloaded, err := config.Load(configFile)
				if err != nil {
					log.Error().Err(err).Msg("config reload failed, keeping previous settings")
					continue
				}
				store.Swap(*reloaded)
				log.Info().Msg("config reloaded")
			}
		}
	}()

	srv := httpapi.NewServer(client, m, log)
	return srv.ListenAndServe(ctx, store.Load().GetListenAddr())
}

type uploadLine struct {
	Source     string `json:"source"`
	Key        string `json:"key,omitempty"`
	Size       uint64 `json:"size,omitempty"`
	Success    bool   `json:"success"`
	Error      string `json:"error,omitempty"`
	DurationMS int64  `json:"duration_ms"`
}

func uploadSummary(results []storage.Result) []uploadLine {
	out := make([]uploadLine, 0, len(results))
	for _, r := range results {
		line := uploadLine{Source: r.Source, Key: r.Key, Success: r.Success, DurationMS: r.Duration.Milliseconds()}
		if r.Upload != nil {
			line.Size = r.Upload.Size
		}
		if r.Error != nil {
			line.Error = r.Error.Error()
		}
		out = append(out, line)
	}
	return out
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
