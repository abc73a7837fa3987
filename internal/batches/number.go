package batches

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rcastellanos/modemtrack-backend/pkg/enums"
)

// BatchNumber builds the human-readable batch number:
//
//	inbound           4KM37-20260830-A1B2C3
//	outbound          S-4KM37-20260830-A1B2C3
//	outbound scrap    SCR-COSMETICA-4KM37-20260830-A1B2C3
//
// The random suffix keeps numbers unique under concurrent creation for the
// same sku+operator; the date keeps them sortable at a glance.
func BatchNumber(loteType enums.LoteType, skuCode string, isScrap bool, reason *enums.ScrapReason, now time.Time) string {
	suffix := strings.ToUpper(uuid.NewString()[:6])
	base := fmt.Sprintf("%s-%s-%s", strings.ToUpper(skuCode), now.Format("20060102"), suffix)

	if loteType == enums.LoteTypeInbound {
		return base
	}
	if isScrap {
		r := enums.ScrapReasonOther
		if reason != nil {
			r = *reason
		}
		return fmt.Sprintf("SCR-%s-%s", r, base)
	}
	return "S-" + base
}
