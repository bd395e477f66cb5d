package main

import (
	"context"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/alama/core"
	"github.com/trezcool/alama/core/gradebook"
	"github.com/trezcool/alama/core/user"
	logsvc "github.com/trezcool/alama/services/logger"
	"github.com/trezcool/alama/storage"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger("ADMIN", os.Stderr, conf)
	logsvc.EnableRollbar(false)

	// set up storage
	repos, err := storage.Open(context.Background(), conf)
	if err != nil {
		logger.Fatal("setting up storage", err)
	}

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	// start CLI
	cli := commandLine{
		usrSvc:     user.NewService(repos.Users, gradebook.NewService(repos.Gradebooks), nil /* no welcome mail */),
		validate:   validate,
		translator: translator,
		out:        os.Stdout,
	}
	err = cli.run(os.Args)
	if cErr := repos.Close(); cErr != nil {
		logger.Error("closing storage", cErr)
	}
	if err != nil {
		if err != errHelp {
			logger.Error("command failed", err)
		}
		os.Exit(1)
	}
}
