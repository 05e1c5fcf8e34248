package attribution

import (
	"time"

	"BetenlaceSync/internal/model"
	"BetenlaceSync/internal/utils/parseutil"
)

// Eligible partner 侧能否在 d 这一天获得记账
func Eligible(pla *model.PartnerLinkAccumulated, c *model.Campaign, d time.Time) bool {
	if pla == nil {
		return false
	}
	switch pla.Status {
	case model.PartnerLinkInactive:
		return false
	case model.PartnerLinkByCampaign:
		if c != nil && c.Status == model.CampaignInactive && c.LastInactiveAt != nil &&
			!parseutil.Day(d).Before(parseutil.Day(*c.LastInactiveAt)) {
			return false
		}
	}
	return true
}
