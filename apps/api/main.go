package main

import (
	"context"
	"expvar"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	echoapi "github.com/trezcool/alama/apps/api/echo"
	"github.com/trezcool/alama/core"
	"github.com/trezcool/alama/core/gradebook"
	"github.com/trezcool/alama/core/report"
	"github.com/trezcool/alama/core/user"
	emailsvc "github.com/trezcool/alama/services/email"
	logsvc "github.com/trezcool/alama/services/logger"
	"github.com/trezcool/alama/storage"
	inmemdb "github.com/trezcool/alama/storage/inmem"
)

func main() {
	conf := core.NewConfig()
	logsvc.ConfigureRollbar(conf)
	logger := logsvc.NewRollbarLogger("API", os.Stdout, conf)

	if err := run(conf, logger); err != nil {
		logger.Fatal("api stopped with an error", err)
	}
}

func run(conf *core.Config, logger *logsvc.RollbarLogger) error {
	// =========================================================================
	// Set up Dependencies

	storeLogger := logsvc.NewRollbarLogger("STORAGE", os.Stdout, conf)
	repos, err := storage.Open(context.Background(), conf)
	if err != nil {
		return errors.Wrapf(err, "setting up %q storage", conf.StorageEngine)
	}
	defer func() {
		if err := repos.Close(); err != nil {
			storeLogger.Error("closing storage", err)
		}
	}()

	mailSvc := emailsvc.NewService(conf, logger)
	gradebookSvc := gradebook.NewService(repos.Gradebooks)
	usrSvc := user.NewService(repos.Users, gradebookSvc, mailSvc)
	reports := report.NewRenderer(gradebookSvc, conf.Chart.Width, conf.Chart.Height)

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	core.ParseEmailTemplates(conf, logger)

	logger.Info("Application initializing", map[string]interface{}{"version": conf.Build, "storage": conf.StorageEngine})
	defer logger.Info("Application stopped")

	startDebugServer(conf, logger)

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(echoapi.ServerDeps{
		Conf:         conf,
		Logger:       logger,
		UserSvc:      usrSvc,
		GradebookSvc: gradebookSvc,
		Reports:      reports,
		Revoker:      inmemdb.NewRevocationList(),
		Validate:     validate,
		Translator:   translator,
	})
	go server.Start()

	// =========================================================================
	// Shutdown

	select {
	case err := <-server.Errors():
		return errors.Wrap(err, "server error")

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Error("could not stop server gracefully", err)
			if err = server.Close(); err != nil {
				return errors.Wrap(err, "could not force stop server")
			}
		}
	}
	return nil
}

// startDebugServer serves /debug/pprof (net/http/pprof) and /debug/vars (expvar) on the default mux.
func startDebugServer(conf *core.Config, logger core.Logger) {
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)
	expvar.NewString("storage").Set(conf.StorageEngine)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugAddress, http.DefaultServeMux); err != nil {
			logger.Error("debug server closed", err)
		}
	}()
}
