package attribution

import (
	"math"

	"BetenlaceSync/internal/model"
)

// PartnerShare 当日 N 个 CPA 中分给 partner 的数量
func PartnerShare(n int, tracker float64, minCPATrackerDay int) int {
	if n <= 0 {
		return 0
	}
	if tracker >= 1 || n <= minCPATrackerDay {
		return n
	}
	if tracker <= 0 {
		return 0
	}
	k := int(math.Floor(tracker*float64(n) + 1e-9))
	if k > n {
		k = n
	}
	return k
}

// Allocate 桶内按加入顺序前 k 个给 partner，最后加入的先被降级；返回分给 partner 的数量
func Allocate(bucket []*model.AccountReport, tracker float64, minCPATrackerDay int, eligible bool) int {
	k := 0
	if eligible {
		k = PartnerShare(len(bucket), tracker, minCPATrackerDay)
	}
	for i, acc := range bucket {
		if i < k {
			acc.CPAPartner = 1
		} else {
			acc.CPAPartner = 0
		}
	}
	return k
}
