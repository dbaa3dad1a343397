package main

import (
	"fmt"

	_ "github.com/go-sql-driver/mysql"

	"FuelDesk/CronJobs"
	"FuelDesk/FiberConfig"
	"FuelDesk/Models"
)

func main() {
	Models.Connect()

	auditor := CronJobs.NewLedgerAuditor(
		Models.DB,
		Models.Settings.AuditSchedule,
		Models.Settings.AuditAutoRepair,
		false,
	)
	if err := auditor.Start(); err != nil {
		fmt.Printf("Failed to start ledger auditor: %v\n", err)
	}
	defer auditor.Stop()

	FiberConfig.FiberConfig()
}
