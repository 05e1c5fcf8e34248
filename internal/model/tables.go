package model

// Tables 需要迁移的全部表，按依赖顺序
func Tables() []interface{} {
	return []interface{}{
		&Bookmaker{},
		&Campaign{},
		&Partner{},
		&PartnerBankAccount{},
		&Link{},
		&PartnerLinkAccumulated{},
		&BetenlaceCPA{},
		&FxPartner{},
		&FxPartnerPercentage{},
		&AccountReport{},
		&AccountDay{},
		&BetenlaceDailyReport{},
		&PartnerLinkDailyReport{},
		&WithdrawalPartnerMoney{},
		&WithdrawalPartnerMoneyAccum{},
		&MinWithdrawalPartnerMoney{},
		&PipelineRun{},
	}
}
