// Package domain 定价上下文的领域模型：Black-Scholes-Merton 定价、希腊字母、隐含波动率与错价检测
package domain

import (
	"context"
	"math"

	"github.com/wyfcoding/optionstrading/pkg/logger"
)

// OptionType 期权类型
type OptionType string

const (
	OptionTypeCall OptionType = "CALL"
	OptionTypePut  OptionType = "PUT"
)

const (
	// CalculationMethodBSM 正常 BSM 闭式解
	CalculationMethodBSM = "black_scholes_merton"
	// CalculationMethodExpired 已到期，希腊字母全零
	CalculationMethodExpired = "expired"

	// MinVolatility 波动率下限，输入低于该值时取下限并记录日志
	MinVolatility = 0.01

	daysPerYear = 365.0
)

// PricingInput 定价输入
type PricingInput struct {
	OptionType    OptionType `json:"option_type"`
	Spot          float64    `json:"spot"`
	Strike        float64    `json:"strike"`
	TimeToExpiry  float64    `json:"time_to_expiry"`
	Volatility    float64    `json:"volatility"`
	RiskFreeRate  float64    `json:"risk_free_rate"`
	DividendYield float64    `json:"dividend_yield"`
}

// GreeksCalculation 希腊字母计算结果。
// Theta 为每日衰减，Vega/Rho 为每 1% 变动的敏感度，Vanna/Charm/Vomma 为原始单位。
type GreeksCalculation struct {
	Delta             float64 `json:"delta"`
	Gamma             float64 `json:"gamma"`
	Theta             float64 `json:"theta"`
	Vega              float64 `json:"vega"`
	Rho               float64 `json:"rho"`
	Vanna             float64 `json:"vanna"`
	Charm             float64 `json:"charm"`
	Vomma             float64 `json:"vomma"`
	CalculationMethod string  `json:"calculation_method"`
}

// normCdf 标准正态分布累积分布函数
func normCdf(x float64) float64 {
	return 0.5 * math.Erfc(-x/math.Sqrt2)
}

// normPdf 标准正态分布概率密度函数
func normPdf(x float64) float64 {
	return math.Exp(-x*x/2) / math.Sqrt(2*math.Pi)
}

// d1d2 计算 BSM 的 d1 与 d2
func d1d2(spot, strike, t, vol, rate, dividend float64) (float64, float64) {
	sqrtT := math.Sqrt(t)
	d1 := (math.Log(spot/strike) + (rate-dividend+vol*vol/2)*t) / (vol * sqrtT)
	d2 := d1 - vol*sqrtT
	return d1, d2
}

// IntrinsicValue 内在价值
func IntrinsicValue(optionType OptionType, spot, strike float64) float64 {
	if optionType == OptionTypeCall {
		return math.Max(0, spot-strike)
	}
	return math.Max(0, strike-spot)
}

// Price 计算期权理论价格。
// 已到期（T<=0）返回内在价值；波动率必须为正，由上游保证。
func Price(in PricingInput) float64 {
	if in.TimeToExpiry <= 0 {
		return IntrinsicValue(in.OptionType, in.Spot, in.Strike)
	}

	d1, d2 := d1d2(in.Spot, in.Strike, in.TimeToExpiry, in.Volatility, in.RiskFreeRate, in.DividendYield)
	discSpot := in.Spot * math.Exp(-in.DividendYield*in.TimeToExpiry)
	discStrike := in.Strike * math.Exp(-in.RiskFreeRate*in.TimeToExpiry)

	if in.OptionType == OptionTypeCall {
		return discSpot*normCdf(d1) - discStrike*normCdf(d2)
	}
	return discStrike*normCdf(-d2) - discSpot*normCdf(-d1)
}

// Greeks 计算希腊字母。
// 已到期返回全零并标记 expired；波动率非正时取下限 1% 并记录日志。
func Greeks(ctx context.Context, in PricingInput) GreeksCalculation {
	if in.TimeToExpiry <= 0 {
		return GreeksCalculation{CalculationMethod: CalculationMethodExpired}
	}

	if in.Volatility < MinVolatility {
		logger.Warn(ctx, "Volatility below floor, clamping",
			"volatility", in.Volatility,
			"floor", MinVolatility,
		)
		in.Volatility = MinVolatility
	}

	t := in.TimeToExpiry
	vol := in.Volatility
	sqrtT := math.Sqrt(t)
	d1, d2 := d1d2(in.Spot, in.Strike, t, vol, in.RiskFreeRate, in.DividendYield)

	expQT := math.Exp(-in.DividendYield * t)
	expRT := math.Exp(-in.RiskFreeRate * t)
	pdfD1 := normPdf(d1)

	gamma := expQT * pdfD1 / (in.Spot * vol * sqrtT)
	vegaRaw := in.Spot * expQT * pdfD1 * sqrtT

	var delta, thetaAnnual, rhoRaw float64
	if in.OptionType == OptionTypeCall {
		delta = expQT * normCdf(d1)
		thetaAnnual = -in.Spot*expQT*pdfD1*vol/(2*sqrtT) -
			in.RiskFreeRate*in.Strike*expRT*normCdf(d2) +
			in.DividendYield*in.Spot*expQT*normCdf(d1)
		rhoRaw = in.Strike * t * expRT * normCdf(d2)
	} else {
		delta = expQT * (normCdf(d1) - 1)
		thetaAnnual = -in.Spot*expQT*pdfD1*vol/(2*sqrtT) +
			in.RiskFreeRate*in.Strike*expRT*normCdf(-d2) -
			in.DividendYield*in.Spot*expQT*normCdf(-d1)
		rhoRaw = -in.Strike * t * expRT * normCdf(-d2)
	}

	vanna := -expQT * pdfD1 * d2 / vol
	vomma := vegaRaw * d1 * d2 / vol

	// Charm: delta 对时间的衰减，按日折算
	charmCommon := expQT * pdfD1 * (2*(in.RiskFreeRate-in.DividendYield)*t - d2*vol*sqrtT) / (2 * t * vol * sqrtT)
	var charmAnnual float64
	if in.OptionType == OptionTypeCall {
		charmAnnual = in.DividendYield*expQT*normCdf(d1) - charmCommon
	} else {
		charmAnnual = -in.DividendYield*expQT*normCdf(-d1) - charmCommon
	}

	return GreeksCalculation{
		Delta:             delta,
		Gamma:             gamma,
		Theta:             thetaAnnual / daysPerYear,
		Vega:              vegaRaw / 100,
		Rho:               rhoRaw / 100,
		Vanna:             vanna,
		Charm:             charmAnnual / daysPerYear,
		Vomma:             vomma,
		CalculationMethod: CalculationMethodBSM,
	}
}
