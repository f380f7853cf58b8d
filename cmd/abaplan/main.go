package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/joeblew999/aba-plan/internal/log"
	"github.com/joeblew999/aba-plan/internal/server"
)

// Options defines all CLI flags and env vars for the AbaPlan server.
// Flags: --host, --port, --data-dir, --web-dir, --store, --seed, --lang,
// --geocoder-url, --log-level, --log-dir
// Env vars: SERVICE_HOST, SERVICE_PORT, SERVICE_DATA_DIR, ...
type Options struct {
	Host        string `doc:"Host to bind to" default:"0.0.0.0"`
	Port        int    `doc:"Port to listen on" short:"p" default:"8086"`
	DataDir     string `doc:"Directory for saved maps" default:".data"`
	WebDir      string `doc:"Path to web/ directory" default:"web"`
	Store       string `doc:"Map store backend" enum:"file,duckdb" default:"file"`
	Seed        bool   `doc:"Fill an empty store with sample maps" default:"true"`
	Lang        string `doc:"Language of geocoder results" default:"fr"`
	GeocoderURL string `doc:"Nominatim base URL" default:"https://nominatim.openstreetmap.org"`
	LogLevel    string `doc:"Log level (debug, info, warn, error)" default:"info"`
	LogDir      string `doc:"Directory for rotated log files, empty logs to stderr only"`
}

func newServer(opts *Options) *server.Server {
	logger := log.New(opts.LogLevel, opts.LogDir)
	srv, err := server.New(server.Config{
		Host:        opts.Host,
		Port:        strconv.Itoa(opts.Port),
		DataDir:     opts.DataDir,
		WebDir:      opts.WebDir,
		Store:       opts.Store,
		Seed:        opts.Seed,
		Lang:        opts.Lang,
		GeocoderURL: opts.GeocoderURL,
		Logger:      logger,
	})
	if err != nil {
		logger.Error("server setup failed", "error", err)
		os.Exit(1)
	}
	return srv
}

func main() {
	cli := humacli.New(func(hooks humacli.Hooks, opts *Options) {
		var srv *server.Server

		hooks.OnStart(func() {
			srv = newServer(opts)
			addr := fmt.Sprintf("%s:%d", opts.Host, opts.Port)
			displayHost := opts.Host
			if displayHost == "0.0.0.0" {
				displayHost = "localhost"
			}
			baseURL := fmt.Sprintf("http://%s:%d", displayHost, opts.Port)

			fmt.Println()
			fmt.Printf("AbaPlan server starting...\n")
			fmt.Printf("  Server:  %s\n", baseURL)
			fmt.Printf("  Data:    %s (%s store)\n", opts.DataDir, opts.Store)
			fmt.Println()
			fmt.Printf("  Pages:   %s/editor, %s/touchpad\n", baseURL, baseURL)
			fmt.Printf("  Docs:    %s/docs\n", baseURL)
			fmt.Printf("  OpenAPI: %s/openapi.json\n", baseURL)
			fmt.Println()

			if err := http.ListenAndServe(addr, srv); err != nil {
				fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
				os.Exit(1)
			}
		})
		hooks.OnStop(func() {
			if srv != nil {
				srv.Close()
			}
		})
	})

	cli.Root().Use = "abaplan"
	cli.Root().Short = "Tactile city maps for visually impaired users"
	cli.Root().Version = "1.0.0"

	// spec subcommand: export OpenAPI spec
	specCmd := &cobra.Command{
		Use:   "spec",
		Short: "Export OpenAPI spec (JSON by default, --yaml for YAML)",
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			srv := newServer(opts)
			defer srv.Close()
			spec := srv.OpenAPI()

			useYAML, _ := cmd.Flags().GetBool("yaml")

			var output []byte
			var err error
			if useYAML {
				output, err = yaml.Marshal(spec)
			} else {
				output, err = json.MarshalIndent(spec, "", "  ")
			}
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error marshaling spec: %v\n", err)
				os.Exit(1)
			}
			fmt.Println(string(output))
		}),
	}
	specCmd.Flags().BoolP("yaml", "y", false, "Output as YAML instead of JSON")
	cli.Root().AddCommand(specCmd)

	// kml subcommand: export the shapes of a saved map
	kmlCmd := &cobra.Command{
		Use:   "kml <id>",
		Short: "Export a saved map as KML",
		Args:  cobra.ExactArgs(1),
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			uid, err := strconv.Atoi(args[0])
			if err != nil {
				fmt.Fprintf(os.Stderr, "Invalid map id %q\n", args[0])
				os.Exit(1)
			}
			srv := newServer(opts)
			defer srv.Close()

			doc, err := srv.Services().Maps.KML(uid)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error exporting map %d: %v\n", uid, err)
				os.Exit(1)
			}
			out, _ := cmd.Flags().GetString("output")
			if out == "" {
				os.Stdout.Write(doc)
				return
			}
			if err := os.WriteFile(out, doc, 0o644); err != nil {
				fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", out, err)
				os.Exit(1)
			}
			fmt.Printf("Map %d written to %s\n", uid, out)
		}),
	}
	kmlCmd.Flags().StringP("output", "o", "", "Output file, stdout when empty")
	cli.Root().AddCommand(kmlCmd)

	cli.Run()
}
