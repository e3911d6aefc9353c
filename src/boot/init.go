package boot

import (
	"comebookus/src/common"
	"comebookus/src/db"
	"comebookus/src/lib"
	"comebookus/src/models"
	"log"
	"time"

	"gorm.io/gorm"
)

func InitDb() *gorm.DB {
	db := db.GetDb()

	err := db.AutoMigrate(
		&models.User{},
		&models.Service{},
		&models.Client{},
		&models.Booking{},
	)
	if err != nil {
		log.Fatalf("error migration: %s", err.Error())
	}

	return db
}

// InitConsumers starts the long-running background consumers.
func InitConsumers() {
	go common.NotificationsConsumer()
}

func InitScheduler() {
	sched, err := lib.GetScheduler()
	if err != nil {
		log.Println("An error has occurred. Check logs for info")
		return
	}
	reminders, err := lib.CreateCronJob(common.SendBookingReminders, time.Minute)
	if err != nil {
		log.Printf("Error scheduling reminder job: %s\n", err.Error())
		return
	}
	log.Printf("Reminder job ID: %s\n", *reminders)

	sweeper, err := lib.CreateCronJob(common.CompleteElapsedBookings, 5*time.Minute)
	if err != nil {
		log.Printf("Error scheduling completion sweep: %s\n", err.Error())
		return
	}
	log.Printf("Completion sweep job ID: %s\n", *sweeper)

	jobsWaitingInQueue := len(sched.Jobs())
	log.Println("Jobs in queue:", jobsWaitingInQueue)
	sched.Start()
}

func StopScheduler() {
	sched, err := lib.GetScheduler()
	if err != nil {
		log.Println("Error retrieving Scheduler. Check logs for info")
		return
	}
	err = sched.Shutdown()
	if err != nil {
		log.Println("An error has occurred while stopping Scheduler. Check logs for info")
		return
	}
}
