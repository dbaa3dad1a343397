package CronJobs

import (
	"fmt"
	"log"

	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"FuelDesk/Ledger"
	"FuelDesk/Models"
)

// LedgerAuditor replays both ledgers nightly and reports rows whose stored
// balance no longer matches the replayed value. With autoRepair set it also
// rewrites the drifted columns.
type LedgerAuditor struct {
	cronScheduler  *cron.Cron
	db             *gorm.DB
	schedule       string
	autoRepair     bool
	runImmediately bool
	jobID          cron.EntryID
}

// NewLedgerAuditor creates a new ledger auditor with the given configuration
func NewLedgerAuditor(db *gorm.DB, schedule string, autoRepair, runImmediately bool) *LedgerAuditor {
	return &LedgerAuditor{
		cronScheduler:  cron.New(cron.WithSeconds()),
		db:             db,
		schedule:       schedule,
		autoRepair:     autoRepair,
		runImmediately: runImmediately,
	}
}

// Start initiates the auditor cron job
func (a *LedgerAuditor) Start() error {
	var err error
	a.jobID, err = a.cronScheduler.AddFunc(a.schedule, func() {
		log.Println("Running scheduled ledger audit")
		a.RunAudit()
	})
	if err != nil {
		return fmt.Errorf("error scheduling cron job: %w", err)
	}

	a.cronScheduler.Start()
	fmt.Println("Ledger audit scheduler started -", a.schedule)

	if a.runImmediately {
		fmt.Println("Running initial ledger audit")
		a.RunAudit()
	}
	return nil
}

// Stop terminates the auditor
func (a *LedgerAuditor) Stop() {
	if a.cronScheduler != nil {
		a.cronScheduler.Stop()
		log.Println("Ledger audit scheduler stopped")
	}
}

// RunAudit checks the cash ledger and every depot pool for drift between
// stored and replayed balances.
func (a *LedgerAuditor) RunAudit() {
	cashDrift, err := a.auditCash()
	if err != nil {
		log.Printf("Cash ledger audit failed: %v", err)
	} else if cashDrift > 0 {
		log.Printf("Cash ledger audit: %d drifted row(s)", cashDrift)
	}

	var depos []Models.Depo
	if err := a.db.Find(&depos).Error; err != nil {
		log.Printf("Pool audit failed to list depots: %v", err)
		return
	}
	for _, depo := range depos {
		drift, err := a.auditPool(depo.ID)
		if err != nil {
			log.Printf("Pool audit failed for depot %d: %v", depo.ID, err)
			continue
		}
		if drift > 0 {
			log.Printf("Pool audit: depot %d (%s) has %d drifted row(s)", depo.ID, depo.Name, drift)
		}
	}
}

func (a *LedgerAuditor) auditCash() (int, error) {
	var entries []Models.CashEntry
	err := a.db.Order("date ASC, id ASC").Find(&entries).Error
	if err != nil {
		return 0, err
	}

	ledgerEntries := make([]Ledger.Entry, len(entries))
	for i, e := range entries {
		ledgerEntries[i] = Ledger.Entry{Debit: e.Debit, Credit: e.Credit}
	}
	balances := Ledger.Replay(decimal.Zero, ledgerEntries)

	drift := 0
	for i, e := range entries {
		if !e.Balance.Equal(balances[i]) {
			drift++
			log.Printf("Cash row %d: stored %s, replayed %s", e.ID, e.Balance.String(), balances[i].String())
		}
	}
	if drift > 0 && a.autoRepair {
		if err := Models.RecomputeCash(a.db); err != nil {
			return drift, fmt.Errorf("repair failed: %w", err)
		}
		log.Println("Cash ledger repaired")
	}
	return drift, nil
}

func (a *LedgerAuditor) auditPool(depoID uint) (int, error) {
	var rows []Models.PoolEntry
	err := a.db.Where("depo_id = ?", depoID).Order("id ASC").Find(&rows).Error
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}

	// The sentinel's credit seeds the replay over the remaining rows.
	var seed decimal.Decimal
	var rest []Models.PoolEntry
	drift := 0
	for _, r := range rows {
		if r.IsSentinel() {
			seed = r.Credit
			if !r.DepoLimit.Equal(seed) {
				drift++
				log.Printf("Pool row %d (sentinel): stored %s, expected %s", r.ID, r.DepoLimit.String(), seed.String())
			}
			continue
		}
		rest = append(rest, r)
	}

	ledgerEntries := make([]Ledger.Entry, len(rest))
	for i, r := range rest {
		ledgerEntries[i] = Ledger.Entry{Debit: r.Debit, Credit: r.Credit}
	}
	limits := Ledger.Replay(seed, ledgerEntries)
	for i, r := range rest {
		if !r.DepoLimit.Equal(limits[i]) {
			drift++
			log.Printf("Pool row %d: stored %s, replayed %s", r.ID, r.DepoLimit.String(), limits[i].String())
		}
	}

	if drift > 0 && a.autoRepair {
		if err := Models.RecalculatePool(a.db, depoID, 0); err != nil {
			return drift, fmt.Errorf("repair failed: %w", err)
		}
		log.Printf("Pool repaired for depot %d", depoID)
	}
	return drift, nil
}
