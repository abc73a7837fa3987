package catalog

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rcastellanos/modemtrack-backend/pkg/db/models"
	"github.com/rcastellanos/modemtrack-backend/pkg/enums"
)

type seedSku struct {
	Code          string
	ItemNumber    string
	SerialPattern string
}

// v5SerialPattern is the label format printed on V5-family units.
const v5SerialPattern = `^[A-Z0-9]{10,15}$`

// defaultSkus is the modem catalog currently in production. Only the V5
// family carries a serial pattern; the remaining SKUs accept any normalized
// serial until their label formats are confirmed with the plant.
var defaultSkus = []seedSku{
	{Code: "4KM37", ItemNumber: "69746"},
	{Code: "4KM36B", ItemNumber: "69360"},
	{Code: "4KM36A", ItemNumber: "81809"},
	{Code: "EXTENDERAP", ItemNumber: "72608"},
	{Code: "EXTENDERHUAWEI", ItemNumber: "67278"},
	{Code: "APEH7", ItemNumber: "80333"},
	{Code: "4KALEXA", ItemNumber: "73488"},
	{Code: "V5SMALL", ItemNumber: "72676", SerialPattern: v5SerialPattern},
	{Code: "V5", ItemNumber: "66262", SerialPattern: v5SerialPattern},
	{Code: "FIBERHOME", ItemNumber: "69643"},
	{Code: "ZTE", ItemNumber: "69644"},
	{Code: "X6", ItemNumber: "76735"},
	{Code: "FIBERHOMEEXTENDED", ItemNumber: "74497"},
	{Code: "SOUNDBOX", ItemNumber: "69358"},
}

type seedState struct {
	Name     enums.ProcessPhase
	Label    string
	Sequence int
	Terminal bool
}

var defaultStates = []seedState{
	{Name: enums.PhaseRegistration, Label: "REG", Sequence: 1},
	{Name: enums.PhaseInitialTest, Label: "TI", Sequence: 2},
	{Name: enums.PhaseAssembly, Label: "ENS", Sequence: 3},
	{Name: enums.PhaseRetest, Label: "RET", Sequence: 4},
	{Name: enums.PhasePackaging, Label: "EMP", Sequence: 5, Terminal: true},
	{Name: enums.PhaseScrap, Label: "SCR", Terminal: true},
	{Name: enums.PhaseRepair, Label: "REP"},
}

// Seed upserts the SKU catalog and process states. It is idempotent and safe
// to run on every deploy.
func Seed(ctx context.Context, tx *gorm.DB) error {
	for _, item := range defaultSkus {
		sku := models.Sku{
			Code:       item.Code,
			Name:       item.Code,
			ItemNumber: item.ItemNumber,
			Active:     true,
		}
		if item.SerialPattern != "" {
			pattern := item.SerialPattern
			sku.SerialPattern = &pattern
		}
		err := tx.WithContext(ctx).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "code"}},
				DoUpdates: clause.AssignmentColumns([]string{"item_number", "serial_pattern"}),
			}).
			Create(&sku).Error
		if err != nil {
			return fmt.Errorf("seeding sku %s: %w", item.Code, err)
		}
	}

	for _, item := range defaultStates {
		state := models.ProcessState{
			Name:     item.Name,
			Label:    item.Label,
			Sequence: item.Sequence,
			Terminal: item.Terminal,
		}
		err := tx.WithContext(ctx).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "name"}},
				DoUpdates: clause.AssignmentColumns([]string{"label", "sequence", "terminal"}),
			}).
			Create(&state).Error
		if err != nil {
			return fmt.Errorf("seeding process state %s: %w", item.Name, err)
		}
	}

	return nil
}
