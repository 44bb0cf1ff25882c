package cmd

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/autobrr/tbsync/pkg/config"
	"github.com/autobrr/tbsync/pkg/expression"
	"github.com/autobrr/tbsync/pkg/importer"
	"github.com/autobrr/tbsync/pkg/logger"
	"github.com/autobrr/tbsync/pkg/magnet"
	"github.com/autobrr/tbsync/pkg/notification"
	"github.com/autobrr/tbsync/pkg/torbox"
)

var ErrNoRecords = stderrors.New("no magnet links loaded")

func SyncCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Import magnet links that are not yet on TorBox",
		Long:  `This command adds every magnet link from the backup file that is neither active nor queued on TorBox.`,
		Example: `  tbsync sync --api-key <key> --input-file dmm-backup.json
  TORBOX_API_KEY=<key> tbsync sync --dry-run`,

		Args: cobra.NoArgs,
		RunE: runSync,
	}
}

func runSync(cmd *cobra.Command, _ []string) error {
	start := time.Now()

	cfg, err := config.Load(FlagConfigFile, cmd.Flags())
	if err != nil {
		return errors.Wrap(err, "loading configuration")
	}

	logFile := ""
	if !cfg.NoLogFile {
		logFile = cfg.LogFile
		if logFile == "" {
			logFile = logger.RunLogFile(start)
		}
	}

	lg := logger.New(logger.Options{
		Console:  true,
		FilePath: logFile,
		Level:    logger.VerbosityLevel(FlagLogLevel),
	})
	defer lg.Close()

	return runImport(cmd.Context(), cfg, lg)
}

func runImport(ctx context.Context, cfg *config.Configuration, lg *logger.Logger) error {
	start := time.Now()
	log := lg.Prefixed("sync")

	if err := cfg.Validate(); err != nil {
		log.WithError(err).Error("Invalid configuration")
		return err
	}

	if cfg.DryRun {
		log.Info("Running in dry-run mode - no changes will be made")
	}

	filter, err := expression.NewFilter(cfg.Filter.Include, cfg.Filter.Exclude)
	if err != nil {
		log.WithError(err).Error("Failed compiling filter expressions")
		return err
	}

	records, err := magnet.Load(cfg.InputFile, lg.Prefixed("input"))
	if err != nil {
		log.WithError(err).Error("Error loading magnet links from JSON file")
	}
	if len(records) == 0 {
		log.Error("No magnet links loaded. Exiting.")
		return ErrNoRecords
	}

	records, filtered, err := applyFilter(records, filter, lg.Prefixed("filter"))
	if err != nil {
		log.WithError(err).Error("Failed evaluating filter expressions")
		return err
	}
	if filtered > 0 {
		log.Infof("Filtered out %d magnet links, %d left to process", filtered, len(records))
	}

	client := torbox.New(torbox.Config{
		BaseURL:    cfg.BaseURL,
		APIKey:     cfg.APIKey,
		MaxRetries: cfg.MaxRetries,
		PaceUnit:   cfg.Delay,
		Timeout:    cfg.Timeout,
	}, lg.Prefixed("torbox"))

	engine := importer.New(client, importer.Options{
		DryRun: cfg.DryRun,
		Delay:  cfg.Delay,
	}, lg.Prefixed("importer"))

	outcome := engine.Run(ctx, records)
	outcome.Filtered = filtered

	log.Infof("Finished in %s: %d processed, %d added, %d already present, %d failed",
		outcome.Duration.Truncate(time.Second), outcome.Processed, outcome.Added, outcome.Skipped(), outcome.Failed())
	log.Debugf("Run started %s", humanize.Time(start))

	notify(ctx, notification.NewDiscordSender(lg.Prefixed("notification"), cfg.Notifications), outcome, cfg.DryRun, log)

	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, "import interrupted")
	}
	return nil
}

func applyFilter(records []magnet.Record, filter *expression.Filter, log *logrus.Entry) ([]magnet.Record, int, error) {
	kept := make([]magnet.Record, 0, len(records))

	for _, rec := range records {
		allowed, reason, err := filter.Allow(rec)
		if err != nil {
			return nil, 0, errors.Wrapf(err, "filtering %s", rec.Hash)
		}
		if !allowed {
			log.Debugf("Filtered %s: %s", rec.Hash, reason)
			continue
		}
		kept = append(kept, rec)
	}

	return kept, len(records) - len(kept), nil
}

func notify(ctx context.Context, sender notification.Sender, outcome importer.Outcome, dryRun bool, log *logrus.Entry) {
	if !sender.CanSend() {
		return
	}

	// the run's own context may already be cancelled; the summary is still worth sending
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()

	err := sender.Send(ctx, notification.Summary{
		Title:     "TorBox Import",
		Processed: outcome.Processed,
		Attempted: outcome.Attempted,
		Added:     outcome.Added,
		Filtered:  outcome.Filtered,
		DryRun:    dryRun,
		RunTime:   outcome.Duration,
	})
	if err != nil {
		log.WithError(err).Warnf("Failed sending %s notification", sender.Name())
	}
}
