package rules

// NextTurn 按座位顺序取下一个回合玩家，到末尾后绕回开头。
// 当前玩家不在列表中（例如中途弃赛）时回到第一位。
func NextTurn(current uint, order []uint) uint {
	if len(order) == 0 {
		return 0
	}
	for i, id := range order {
		if id == current {
			return order[(i+1)%len(order)]
		}
	}
	return order[0]
}

// HasWon 对局是否已分出胜负
func (s *State) HasWon() bool {
	switch {
	case s.Njuga != nil:
		return s.Njuga.HasWinner
	case s.Shansha != nil:
		return s.Shansha.HasWinner
	case s.Chinshingwa != nil:
		return s.Chinshingwa.HasWinner
	}
	return false
}

// Winner 胜者ID，未分出胜负时返回0
func (s *State) Winner() uint {
	switch {
	case s.Njuga != nil && s.Njuga.HasWinner:
		return s.Njuga.WinnerID
	case s.Shansha != nil && s.Shansha.HasWinner:
		return s.Shansha.WinnerID
	case s.Chinshingwa != nil && s.Chinshingwa.HasWinner:
		return s.Chinshingwa.WinnerID
	}
	return 0
}
