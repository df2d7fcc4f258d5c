package domain

// Greeks 希腊字母值对象。
// Theta 为每日时间衰减，Vega/Rho 为每 1% 变动的敏感度，其余为标准单位。
// 可加合：组合希腊字母等于各持仓希腊字母之和。
type Greeks struct {
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Theta float64 `json:"theta"`
	Vega  float64 `json:"vega"`
	Rho   float64 `json:"rho"`
	Vanna float64 `json:"vanna"`
	Charm float64 `json:"charm"`
	Vomma float64 `json:"vomma"`
}

// Add 返回两组希腊字母逐项相加的结果
func (g Greeks) Add(other Greeks) Greeks {
	return Greeks{
		Delta: g.Delta + other.Delta,
		Gamma: g.Gamma + other.Gamma,
		Theta: g.Theta + other.Theta,
		Vega:  g.Vega + other.Vega,
		Rho:   g.Rho + other.Rho,
		Vanna: g.Vanna + other.Vanna,
		Charm: g.Charm + other.Charm,
		Vomma: g.Vomma + other.Vomma,
	}
}

// Scale 按带符号数量缩放
func (g Greeks) Scale(factor float64) Greeks {
	return Greeks{
		Delta: g.Delta * factor,
		Gamma: g.Gamma * factor,
		Theta: g.Theta * factor,
		Vega:  g.Vega * factor,
		Rho:   g.Rho * factor,
		Vanna: g.Vanna * factor,
		Charm: g.Charm * factor,
		Vomma: g.Vomma * factor,
	}
}
