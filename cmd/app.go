package cmd

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mr-tron/base58"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	xrate "golang.org/x/time/rate"

	"github.com/code-payments/vault-governor/pkg/governor"
	"github.com/code-payments/vault-governor/pkg/metrics"
	"github.com/code-payments/vault-governor/pkg/rate"
	"github.com/code-payments/vault-governor/pkg/solana"
)

const metricsShutdownTimeout = 5 * time.Second

// newClient is swapped out in tests
var newClient = solana.New

type app struct {
	configPath string
	dryRun     bool

	log             *logrus.Entry
	config          *governor.FileConfig
	metricsProvider *newrelic.Application
	governor        *governor.Governor
}

func (a *app) init(cmd *cobra.Command) error {
	// Built in commands like help don't talk to the chain
	if cmd.RunE == nil {
		return nil
	}

	config, err := governor.LoadFileConfig(a.configPath)
	if err != nil {
		return err
	}
	if a.dryRun {
		config.DryRun = true
	}
	if err := config.Validate(); err != nil {
		return errors.Wrap(err, "invalid config")
	}
	a.config = config

	// todo: Better abstraction so we're not directly tied to NR
	if len(config.NewRelicLicenseKey) > 0 {
		nr, err := newrelic.NewApplication(
			newrelic.ConfigFromEnvironment(),
			newrelic.ConfigAppName(config.AppName),
			newrelic.ConfigLicense(config.NewRelicLicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			return errors.Wrap(err, "error connecting to new relic")
		}
		a.metricsProvider = nr
	}

	configureLogger(cmd, config, a.metricsProvider)
	a.log = logrus.StandardLogger().WithField("type", "cmd/governor")

	signer, err := loadWallet(config.WalletPath)
	if err != nil {
		return err
	}

	multisig, err := config.Multisig()
	if err != nil {
		return err
	}
	tables, err := config.LookupTableAddresses()
	if err != nil {
		return err
	}

	var clientOpts []solana.ClientOption
	if config.RpcRequestsPerSecond > 0 {
		clientOpts = append(clientOpts, solana.WithRateLimiter(
			rate.NewLocalRateLimiter(xrate.Limit(config.RpcRequestsPerSecond)),
		))
	}

	a.governor, err = governor.New(
		newClient(config.RpcEndpoint, clientOpts...),
		signer,
		multisig,
		config.VaultIndex,
		governor.WithEnvConfigs(config),
		governor.WithLookupTables(tables...),
		governor.WithLookupTableCacheSize(config.LookupTableCacheSize),
	)
	if err != nil {
		return err
	}

	a.log.WithFields(logrus.Fields{
		"member":   base58.Encode(a.governor.Member()),
		"multisig": base58.Encode(multisig),
		"vault":    base58.Encode(a.governor.Vault()),
		"dry_run":  config.DryRun,
	}).Debug("governor initialized")
	return nil
}

// run executes fn as a single traced unit of work
func (a *app) run(cmd *cobra.Command, fn func(ctx context.Context) error) error {
	runID := uuid.NewString()
	log := a.log.WithFields(logrus.Fields{
		"command": cmd.Name(),
		"run_id":  runID,
	})

	ctx := metrics.NewContext(cmd.Context(), a.metricsProvider)
	ctx, end := metrics.StartTransaction(ctx, "cli/"+cmd.Name())
	defer end()
	newrelic.FromContext(ctx).AddAttribute("run_id", runID)

	log.Debug("running command")
	if err := fn(ctx); err != nil {
		log.WithError(err).Warn("command failed")
		return err
	}
	return nil
}

func (a *app) shutdown() {
	if a.metricsProvider != nil {
		a.metricsProvider.Shutdown(metricsShutdownTimeout)
	}
}

func configureLogger(cmd *cobra.Command, config *governor.FileConfig, metricsProvider *newrelic.Application) {
	if metricsProvider != nil {
		logrus.SetFormatter(metrics.NewCustomNewRelicLogFormatter(metricsProvider, &logrus.JSONFormatter{}))
	} else {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}

	level, err := logrus.ParseLevel(strings.ToLower(config.LogLevel))
	if err != nil {
		logrus.StandardLogger().WithField("log_level", config.LogLevel).Warn("unknown log level, ignoring")
	} else {
		logrus.SetLevel(level)
	}

	// Command output goes to stdout
	logrus.SetOutput(cmd.ErrOrStderr())
}
