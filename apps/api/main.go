package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jmoiron/sqlx"

	echoapi "github.com/mwalimu/darasa/apps/api/echo"
	"github.com/mwalimu/darasa/core"
	"github.com/mwalimu/darasa/core/course"
	"github.com/mwalimu/darasa/core/schedule"
	"github.com/mwalimu/darasa/core/user"
	emailsvc "github.com/mwalimu/darasa/services/email"
	logsvc "github.com/mwalimu/darasa/services/logger"
	storagesvc "github.com/mwalimu/darasa/services/storage"
	"github.com/mwalimu/darasa/storage/database"
	sqlxrepos "github.com/mwalimu/darasa/storage/database/sqlx"
)

func main() {
	conf := core.Conf

	// set up logger
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	// set up DB
	db, err := setUpDB(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			logger.Error("closing database", err)
		}
	}()

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		mailSvc = emailsvc.NewSendgridService(logger)
	}
	fileSvc := storagesvc.NewLocalService()

	usrSvc := user.NewService(sqlxrepos.NewUserRepository(db), mailSvc)
	crsSvc := course.NewService(sqlxrepos.NewCourseRepository(db), usrSvc, mailSvc, fileSvc)
	schedSvc := schedule.NewService(sqlxrepos.NewScheduleRepository(db))

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	// start API server
	server := echoapi.NewServer(&echoapi.Options{
		Addr:        conf.Server.Host + ":" + conf.Server.Port,
		Logger:      logger,
		UserSvc:     usrSvc,
		CourseSvc:   crsSvc,
		ScheduleSvc: schedSvc,
	})

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	// graceful shutdown
	select {
	case err = <-serverErrors:
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		if err = server.Stop(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)
		}
	}
}

func setUpDB(conf *core.Config) (*sqlx.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}
