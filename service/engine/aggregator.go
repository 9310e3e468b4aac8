/*
 * @module service/engine/aggregator
 * @description 结果聚合器：周桶化与区间标量聚合，以及响应方案成本效益派生指标
 * @architecture 分层架构 - 领域核心层
 * @documentReference dev_docs/model_conventions.md
 * @stateFlow 稠密模拟序列 -> 锚定周算术平均桶 -> 按变量聚合方式计算区间标量
 * @rules SUM 聚合按步长缩放并做单位回转(按月单位除回 30.437)；
 *        成本效益缩放因子按单位配置，不得硬编码到特定变量 id
 * @dependencies samra-service/service/models, time
 * @refs runner.go, service/simulation/simulation_service.go
 */

package engine

import (
	"fmt"
	"sort"
	"time"

	"samra-service/service/models"
)

// AggregatedPoint 一个周桶的聚合值
type AggregatedPoint struct {
	Date  time.Time `json:"date"` // 桶的锚定起始日
	Value float64   `json:"value"`
}

// Aggregator 结果聚合器，桶锚定星期与成本效益缩放因子可配置
type Aggregator struct {
	WeekAnchor     time.Weekday       // 周桶锚定的星期，默认周一
	UnitDividers   map[string]float64 // 成本效益缩放因子，按单位标签
	DefaultDivider float64            // 单位未配置时的缩放因子
}

// NewAggregator 创建默认配置的聚合器
// 单位 "1"(人头计数)缩放 1,000,000，其余单位缩放 1,000
func NewAggregator() *Aggregator {
	return &Aggregator{
		WeekAnchor:     time.Monday,
		UnitDividers:   map[string]float64{"1": 1_000_000},
		DefaultDivider: 1_000,
	}
}

// BucketWeekly 稠密序列按锚定周桶化，桶值为桶内样本的算术平均
func (a *Aggregator) BucketWeekly(points []ResultPoint) []AggregatedPoint {
	if len(points) == 0 {
		return nil
	}

	sums := make(map[time.Time]float64)
	counts := make(map[time.Time]int)
	for _, p := range points {
		bucket := WeekStart(p.Date, a.WeekAnchor)
		sums[bucket] += p.Value
		counts[bucket]++
	}

	buckets := make([]AggregatedPoint, 0, len(sums))
	for date, sum := range sums {
		buckets = append(buckets, AggregatedPoint{Date: date, Value: sum / float64(counts[date])})
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Date.Before(buckets[j].Date) })
	return buckets
}

// Scalar 按聚合方式计算区间标量
// MEAN: 区间算术平均；SUM: 样本和 x 步长，按月单位再除回 30.437；
// CHANGE: 末值减初值；%CHANGE: 变化百分比，初值为零时返回 0
func (a *Aggregator) Scalar(values []float64, mode, unit string, stepDays float64) (float64, error) {
	if len(values) == 0 {
		return 0, fmt.Errorf("聚合序列为空")
	}

	switch mode {
	case models.AggregateByMean, "":
		sum := 0.0
		for _, v := range values {
			sum += v
		}
		return sum / float64(len(values)), nil

	case models.AggregateBySum:
		sum := 0.0
		for _, v := range values {
			sum += v
		}
		sum *= stepDays
		if IsPerMonthUnit(unit) {
			sum /= DaysPerMonth
		}
		return sum, nil

	case models.AggregateByChange:
		return values[len(values)-1] - values[0], nil

	case models.AggregateByChangePercent:
		first := values[0]
		if first == 0 {
			return 0, nil
		}
		return (values[len(values)-1] - first) / first * 100, nil

	default:
		return 0, fmt.Errorf("未知聚合方式 %q", mode)
	}
}

// CostEffectiveness 响应方案相对基线方案的成本效益
// (效果差) / (成本差) x 单位缩放因子；成本差为零时无定义
func (a *Aggregator) CostEffectiveness(value, baselineValue, cost, baselineCost float64, unit string) (float64, error) {
	costDelta := cost - baselineCost
	if costDelta == 0 {
		return 0, fmt.Errorf("响应方案与基线方案成本相同，成本效益无定义")
	}
	divider := a.DefaultDivider
	if d, ok := a.UnitDividers[unit]; ok {
		divider = d
	}
	return (value - baselineValue) / costDelta * divider, nil
}
