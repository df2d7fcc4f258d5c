package domain

import (
	"context"
	"math"

	"github.com/wyfcoding/optionstrading/pkg/logger"
)

const (
	// IVLowerBound 隐含波动率搜索下界
	IVLowerBound = 0.01
	// IVUpperBound 隐含波动率搜索上界
	IVUpperBound = 5.00
	// IVDefault 求解失败时返回的保守默认值
	IVDefault = 0.30

	ivMaxIterations = 100
	ivTolerance     = 1e-6
)

// IVResult 隐含波动率求解结果
type IVResult struct {
	Volatility float64 `json:"volatility"`
	Converged  bool    `json:"converged"`
	Iterations int     `json:"iterations"`
}

// ImpliedVolatility 用二分法在 [0.01, 5.00] 内求解隐含波动率。
// 无法收敛时返回默认值 30% 并标记低置信度，不返回错误。
func ImpliedVolatility(ctx context.Context, optionType OptionType, marketPrice, spot, strike, timeToExpiry, rate, dividend float64) IVResult {
	priceAt := func(vol float64) float64 {
		return Price(PricingInput{
			OptionType:    optionType,
			Spot:          spot,
			Strike:        strike,
			TimeToExpiry:  timeToExpiry,
			Volatility:    vol,
			RiskFreeRate:  rate,
			DividendYield: dividend,
		})
	}

	lo, hi := IVLowerBound, IVUpperBound
	fLo := priceAt(lo) - marketPrice
	fHi := priceAt(hi) - marketPrice

	// 市场价格超出搜索区间可达的价格范围，无法夹逼
	if fLo*fHi > 0 {
		logger.Warn(ctx, "Implied volatility not bracketed, using default",
			"market_price", marketPrice,
			"spot", spot,
			"strike", strike,
			"default", IVDefault,
		)
		return IVResult{Volatility: IVDefault, Converged: false}
	}

	for i := 1; i <= ivMaxIterations; i++ {
		mid := (lo + hi) / 2
		fMid := priceAt(mid) - marketPrice

		if math.Abs(fMid) < ivTolerance || (hi-lo)/2 < ivTolerance {
			return IVResult{Volatility: mid, Converged: true, Iterations: i}
		}

		if fLo*fMid < 0 {
			hi = mid
		} else {
			lo = mid
			fLo = fMid
		}
	}

	logger.Warn(ctx, "Implied volatility did not converge, using default",
		"market_price", marketPrice,
		"default", IVDefault,
	)
	return IVResult{Volatility: IVDefault, Converged: false, Iterations: ivMaxIterations}
}
