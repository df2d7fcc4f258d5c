package domain

import (
	"context"
	"fmt"
	"math"

	"github.com/wyfcoding/optionstrading/pkg/logger"
)

// OpportunityType 错价机会类型
type OpportunityType string

const (
	OpportunityIVMispricing     OpportunityType = "IV_MISPRICING"
	OpportunityDeltaMismatch    OpportunityType = "DELTA_MISMATCH"
	OpportunityThetaDiscrepancy OpportunityType = "THETA_DISCREPANCY"
)

// OpportunitySeverity 错价严重程度
type OpportunitySeverity string

const (
	SeverityHigh   OpportunitySeverity = "HIGH"
	SeverityMedium OpportunitySeverity = "MEDIUM"
)

// MispricingThresholds 错价检测阈值
type MispricingThresholds struct {
	// 隐含波动率差异阈值（绝对值，0.03 = 3 个波动率点）
	IVDiff float64 `json:"iv_diff"`
	// Delta 差异阈值
	DeltaDiff float64 `json:"delta_diff"`
	// 每日 Theta 差异阈值（美元）
	ThetaDiffPerDay float64 `json:"theta_diff_per_day"`
}

// DefaultMispricingThresholds 默认阈值
func DefaultMispricingThresholds() MispricingThresholds {
	return MispricingThresholds{
		IVDiff:          0.03,
		DeltaDiff:       0.10,
		ThetaDiffPerDay: 5.0,
	}
}

// BrokerGreeks 经纪商回传的希腊字母，缺失字段为 nil
type BrokerGreeks struct {
	IV    *float64 `json:"iv,omitempty"`
	Delta *float64 `json:"delta,omitempty"`
	Theta *float64 `json:"theta,omitempty"`
}

// Opportunity 检测到的错价机会
type Opportunity struct {
	Type        OpportunityType     `json:"type"`
	Severity    OpportunitySeverity `json:"severity"`
	Description string              `json:"description"`
	// 差异值：经纪商值 - 理论值
	Difference float64 `json:"difference"`
	// 建议方向（仅 IV 错价）：SELL 表示期权被高估
	Action string `json:"action,omitempty"`
	// 对冲所需的标的股数（仅 delta 失配）
	HedgeNeeded float64 `json:"hedge_needed,omitempty"`
	// 30 天投影隐藏盈亏（仅 theta 差异）
	ProjectedPnL30D float64 `json:"projected_pnl_30d,omitempty"`
}

const severeIVDiff = 0.05

// DetectMispricing 比较理论希腊字母与经纪商回传值，返回检测到的机会列表。
// 经纪商字段缺失时跳过对应检查，不报错。
func DetectMispricing(ctx context.Context, calculated GreeksCalculation, calculatedIV float64, broker BrokerGreeks, quantity int64, thresholds MispricingThresholds) []Opportunity {
	opportunities := make([]Opportunity, 0, 3)

	if broker.IV != nil {
		diff := *broker.IV - calculatedIV
		if math.Abs(diff) > thresholds.IVDiff {
			severity := SeverityMedium
			if math.Abs(diff) > severeIVDiff {
				severity = SeverityHigh
			}
			action := "BUY"
			if diff > 0 {
				// 市场隐含波动率高于理论值，期权偏贵
				action = "SELL"
			}
			opportunities = append(opportunities, Opportunity{
				Type:        OpportunityIVMispricing,
				Severity:    severity,
				Action:      action,
				Difference:  diff,
				Description: fmt.Sprintf("IV diff %.2f%% exceeds threshold %.2f%%", diff*100, thresholds.IVDiff*100),
			})
		}
	} else {
		logger.Debug(ctx, "Broker IV missing, skipping IV mispricing check")
	}

	if broker.Delta != nil {
		diff := *broker.Delta - calculated.Delta
		if math.Abs(diff) > thresholds.DeltaDiff {
			opportunities = append(opportunities, Opportunity{
				Type:        OpportunityDeltaMismatch,
				Severity:    SeverityHigh,
				Difference:  diff,
				HedgeNeeded: -diff * float64(quantity) * 100,
				Description: fmt.Sprintf("delta diff %.4f exceeds threshold %.4f", diff, thresholds.DeltaDiff),
			})
		}
	} else {
		logger.Debug(ctx, "Broker delta missing, skipping delta mismatch check")
	}

	if broker.Theta != nil {
		diff := *broker.Theta - calculated.Theta
		if math.Abs(diff) > thresholds.ThetaDiffPerDay {
			opportunities = append(opportunities, Opportunity{
				Type:            OpportunityThetaDiscrepancy,
				Severity:        SeverityMedium,
				Difference:      diff,
				ProjectedPnL30D: diff * 30 * float64(quantity),
				Description:     fmt.Sprintf("theta diff $%.2f/day exceeds threshold $%.2f/day", diff, thresholds.ThetaDiffPerDay),
			})
		}
	} else {
		logger.Debug(ctx, "Broker theta missing, skipping theta discrepancy check")
	}

	return opportunities
}
