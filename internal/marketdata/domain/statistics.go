package domain

import "github.com/shopspring/decimal"

// Statistics 价格序列的聚合统计
type Statistics struct {
	Average     decimal.Decimal `json:"average"`
	Min         decimal.Decimal `json:"min"`
	Max         decimal.Decimal `json:"max"`
	TotalVolume int64           `json:"totalVolume"`
	Count       int             `json:"count"`
}

// ComputeStatistics 计算价格序列的统计值，空序列返回 nil。
// 均值对精确和做除法后四舍五入保留两位小数
func ComputeStatistics(prices []*Price) *Statistics {
	if len(prices) == 0 {
		return nil
	}

	sum := decimal.Zero
	min := prices[0].Price
	max := prices[0].Price
	var totalVolume int64

	for _, p := range prices {
		sum = sum.Add(p.Price)
		if p.Price.LessThan(min) {
			min = p.Price
		}
		if p.Price.GreaterThan(max) {
			max = p.Price
		}
		totalVolume += p.Volume
	}

	count := int64(len(prices))
	average := sum.Div(decimal.NewFromInt(count)).Round(2)

	return &Statistics{
		Average:     average,
		Min:         min,
		Max:         max,
		TotalVolume: totalVolume,
		Count:       len(prices),
	}
}
