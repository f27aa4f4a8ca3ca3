package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/terraincognita07/duet/internal/db"
	"github.com/terraincognita07/duet/internal/services"
)

// RunPairCommand links partnerID to ownerID and prints the couple code the
// partner enters in their app.
func RunPairCommand(ctx context.Context, dbPath string, ownerID string, partnerID string, out io.Writer) error {
	database, err := db.OpenSQLite(dbPath)
	if err != nil {
		return fmt.Errorf("database init failed: %w", err)
	}
	if sqlDB, err := database.DB(); err == nil {
		defer sqlDB.Close()
	}

	couple, err := services.NewCoupleService(db.NewCoupleRepository(database)).Pair(ctx, ownerID, partnerID)
	if err != nil {
		return fmt.Errorf("pair partner: %w", err)
	}

	fmt.Fprintln(out, "Partner paired")
	fmt.Fprintf(out, "Couple code: %s\n", couple.Code)
	return nil
}
