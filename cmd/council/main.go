package main

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/alienxp03/council/internal/completion"
	"github.com/alienxp03/council/internal/config"
	"github.com/alienxp03/council/internal/engine"
	"github.com/alienxp03/council/internal/persona"
	"github.com/alienxp03/council/internal/storage"
	"github.com/alienxp03/council/web/handlers"
)

var version = "dev"

var (
	cfgPath   string
	dbPath    string
	appConfig *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "council",
	Short: "Multi-persona AI chat",
	Long: `council is a self-hosted chat room where configurable AI personas
respond to every prompt in parallel, then debate each other in bounded
automatic rounds.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfgPath != "" {
			appConfig, err = config.LoadFrom(cfgPath)
		} else {
			appConfig, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "Config path (default: ~/.council/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Database path (default: ~/.council/council.db)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(personasCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)

	personasCmd.AddCommand(personasListCmd)
	personasCmd.AddCommand(personasResetCmd)
	configCmd.AddCommand(configExampleCmd)
}

func openStorage() (storage.Storage, error) {
	path := dbPath
	if path == "" {
		path = appConfig.Storage.Path
	}
	if path == "" {
		path = storage.DefaultDBPath()
	}

	store, err := storage.NewSQLiteStorage(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	if err := store.Initialize(); err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	return store, nil
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	RunE: func(cmd *cobra.Command, args []string) error {
		port, _ := cmd.Flags().GetInt("port")
		debug, _ := cmd.Flags().GetBool("debug")
		mock, _ := cmd.Flags().GetBool("mock")

		opts := &slog.HandlerOptions{Level: slog.LevelInfo}
		if debug {
			opts.Level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, opts)))

		store, err := openStorage()
		if err != nil {
			return err
		}
		defer store.Close()

		personas, err := persona.NewStore(store)
		if err != nil {
			return err
		}

		var streamer completion.Streamer
		if mock || appConfig.Completion.Mock {
			slog.Info("Using simulated completion streamer")
			streamer = completion.NewScriptMock()
		} else {
			streamer = completion.NewClient(completion.Config{
				Endpoint:    appConfig.Completion.Endpoint,
				Model:       appConfig.Completion.Model,
				APIKey:      appConfig.Completion.APIKey,
				Temperature: appConfig.Completion.Temperature,
				Timeout:     appConfig.Completion.Timeout,
				MaxRetries:  appConfig.Completion.MaxRetries,
			})
		}

		eng := engine.New(personas, streamer, engine.Config{
			MaxAutoDepth: appConfig.Engine.MaxAutoDepth,
			DebateDelay:  appConfig.Engine.DebateDelay,
		})
		defer eng.Close()

		h := handlers.New(eng, personas)

		if port == 0 {
			port = appConfig.Server.Port
		}
		addr := fmt.Sprintf(":%d", port)
		server := &http.Server{
			Addr:    addr,
			Handler: h.Routes(),
		}

		go func() {
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
			<-sigCh
			slog.Info("Shutting down...")
			eng.Close()
			server.Close()
		}()

		slog.Info("Starting council web server", "url", fmt.Sprintf("http://localhost%s", addr))
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	},
}

var personasCmd = &cobra.Command{
	Use:   "personas",
	Short: "Manage the persona roster",
}

var personasListCmd = &cobra.Command{
	Use:   "list",
	Short: "List personas",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStorage()
		if err != nil {
			return err
		}
		defer store.Close()

		personas, err := persona.NewStore(store)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tROLE\tACTIVE")
		for _, p := range personas.List() {
			fmt.Fprintf(w, "%s\t%s\t%s\t%v\n", p.ID, p.Name, p.Role, p.IsActive)
		}
		return w.Flush()
	},
}

var personasResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset the roster to the built-in defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStorage()
		if err != nil {
			return err
		}
		defer store.Close()

		personas, err := persona.NewStore(store)
		if err != nil {
			return err
		}
		personas.ResetToDefaults()
		fmt.Println("Roster reset to defaults.")
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export [markdown|json|pdf]",
	Short: "Download the current session transcript from a running server",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format := "markdown"
		if len(args) > 0 {
			format = args[0]
		}
		serverURL, _ := cmd.Flags().GetString("url")
		if serverURL == "" {
			serverURL = fmt.Sprintf("http://localhost:%d", appConfig.Server.Port)
		}
		output, _ := cmd.Flags().GetString("output")

		resp, err := http.Get(fmt.Sprintf("%s/api/export/%s", serverURL, format))
		if err != nil {
			return fmt.Errorf("failed to reach server at %s: %w", serverURL, err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
			return fmt.Errorf("export failed: %s", strings.TrimSpace(string(detail)))
		}

		if output == "" {
			output = "council_session." + format
			if cd := resp.Header.Get("Content-Disposition"); cd != "" {
				if idx := strings.Index(cd, "filename="); idx != -1 {
					output = strings.Trim(cd[idx+len("filename="):], `"`)
				}
			}
		}

		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		if _, err := io.Copy(f, resp.Body); err != nil {
			return fmt.Errorf("failed to write export: %w", err)
		}

		fmt.Printf("Exported session to %s\n", output)
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configExampleCmd = &cobra.Command{
	Use:   "example",
	Short: "Print an example configuration file",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Print(config.GenerateExample())
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("council %s\n", version)
	},
}

func init() {
	serveCmd.Flags().Int("port", 0, "Server port (default: config value)")
	serveCmd.Flags().Bool("debug", false, "Enable debug logging")
	serveCmd.Flags().Bool("mock", false, "Use simulated completions instead of a remote endpoint")

	exportCmd.Flags().String("url", "", "Server URL (default: http://localhost:<config port>)")
	exportCmd.Flags().StringP("output", "o", "", "Output file (default: server-suggested filename)")
}
