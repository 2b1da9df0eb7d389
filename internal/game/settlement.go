package game

// splitPot 正常结算分账：抽水向下取整归平台，其余归胜者
func splitPot(pot int64, houseCutBps int) (winnings, houseCut int64) {
	if pot <= 0 {
		return 0, 0
	}
	houseCut = pot * int64(houseCutBps) / 10000
	winnings = pot - houseCut
	return winnings, houseCut
}

// splitForfeit 中途弃赛分账，按弃赛者本人的押注拆分：
// 平台份额和对手份额按基点计算，对手份额在在场对手间均分，
// 除不尽的余数归平台，弃赛者拿回剩余部分。
func splitForfeit(stake int64, houseBps, opponentBps, numOpponents int) (refund, house, perOpponent int64) {
	if stake <= 0 || numOpponents <= 0 {
		return stake, 0, 0
	}
	house = stake * int64(houseBps) / 10000
	opponentTotal := stake * int64(opponentBps) / 10000
	perOpponent = opponentTotal / int64(numOpponents)
	// 均分后的余数归平台
	house += opponentTotal - perOpponent*int64(numOpponents)
	refund = stake - house - perOpponent*int64(numOpponents)
	return refund, house, perOpponent
}
