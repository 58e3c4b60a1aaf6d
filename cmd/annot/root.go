package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/LdDl/annot-go/annot"
	"github.com/LdDl/annot-go/internal/config"
	"github.com/LdDl/annot-go/internal/logging"
	"github.com/LdDl/annot-go/internal/store"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// app is shared by every subcommand once the root pre-run has loaded configuration
type app struct {
	configPath string
	dbPath     string
	logLevel   string

	cfg    config.Config
	logger zerolog.Logger
	store  *store.Store
}

func newRootCommand(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "annot",
		Short:        "Annotation jobs: import, export and edit shapes and tracks",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "Path to configuration file (JSON, YAML or TOML)")
	rootCmd.PersistentFlags().StringVar(&a.dbPath, "db", "", "Path to sqlite database, overrides db.path")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level, overrides logLevel")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return a.initialize(cmd.ErrOrStderr())
	}

	rootCmd.AddCommand(
		importCommand(a),
		exportCommand(a),
		dumpCommand(a),
		propagateCommand(a),
		predictCommand(a),
	)
	return rootCmd
}

func (a *app) initialize(logOutput io.Writer) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.dbPath != "" {
		cfg.DB.Path = a.dbPath
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	a.cfg = cfg
	a.logger, err = logging.New(cfg.LogLevel, logOutput)
	if err != nil {
		return errors.Wrapf(err, "log level %q", cfg.LogLevel)
	}
	a.store, err = store.Open(cfg.DB.Path, a.logger)
	return err
}

func (a *app) close() error {
	if a.store == nil {
		return nil
	}
	err := a.store.Close()
	a.store = nil
	return err
}

// collection loads the job into a fresh collection configured from the config file
func (a *app) collection(ctx context.Context, jobID string) (*annot.Collection, error) {
	labels, err := a.store.Labels(ctx, jobID)
	if err != nil {
		return nil, err
	}
	inj := annot.NewInjection(labels, a.cfg.FrameProvider())
	a.cfg.Apply(inj)
	inj.Logger = a.logger.With().Str("job", jobID).Logger()
	inj.History = annot.NewHistory(inj.Logger)
	collection := annot.NewCollection(labels, inj, annot.WithIoUThreshold(a.cfg.Propagate.IoUThreshold))
	if err := collection.Load(ctx, a.store, jobID); err != nil {
		return nil, err
	}
	return collection, nil
}

// objectByServerID resolves a persisted object id to the loaded object
func objectByServerID(collection *annot.Collection, serverID int) (annot.Annotation, error) {
	raw := collection.Export()
	clientID := 0
	for _, shape := range raw.Shapes {
		if shape.ID != nil && *shape.ID == serverID {
			clientID = shape.ClientID
		}
	}
	for _, track := range raw.Tracks {
		if track.ID != nil && *track.ID == serverID {
			clientID = track.ClientID
		}
	}
	for _, tag := range raw.Tags {
		if tag.ID != nil && *tag.ID == serverID {
			clientID = tag.ClientID
		}
	}
	object, ok := collection.Object(clientID)
	if !ok {
		return nil, fmt.Errorf("object %d does not exist", serverID)
	}
	return object, nil
}

func readJSON(path string, target any) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(content, target); err != nil {
		return errors.Wrapf(err, "decode %s", path)
	}
	return nil
}

func writeJSON(w io.Writer, value any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}
