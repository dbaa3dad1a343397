package Models

import (
	"log"
	"os"

	"github.com/yosuke-furukawa/json5/encoding/json5"
)

// AppSettings holds deploy-specific knobs that don't belong in the
// environment. Loaded from an optional settings.json5 next to the binary.
type AppSettings struct {
	UploadDir       string `json:"upload_dir"`
	CORSOrigins     string `json:"cors_origins"`
	AuditAutoRepair bool   `json:"audit_auto_repair"`
	AuditSchedule   string `json:"audit_schedule"`
}

var Settings = AppSettings{
	UploadDir:     "uploads",
	CORSOrigins:   "*",
	AuditSchedule: "0 30 2 * * *",
}

// LoadSettings overlays settings.json5 onto the defaults. A missing file is
// fine, a malformed one is logged and ignored.
func LoadSettings() {
	f, err := os.Open("settings.json5")
	if err != nil {
		return
	}
	defer f.Close()

	if err := json5.NewDecoder(f).Decode(&Settings); err != nil {
		log.Printf("settings.json5: %v", err)
	}
}
