/*
 * @module service/engine/table
 * @description 输入变量查找表：序数日到数值的分段线性插值，支持季节性年内循环
 * @architecture 分层架构 - 领域核心层
 * @documentReference dev_docs/model_conventions.md
 * @stateFlow 外部数据点 -> 排序去重 -> 插值查找
 * @rules 超出数据范围时夹取端点值；季节性表按年内日序取值
 * @dependencies sort
 * @refs compiler.go
 */

package engine

import "sort"

// TablePoint 查找表中的一个样本点
type TablePoint struct {
	T     float64 // 序数日，季节性表为年内日序
	Value float64
}

// LookupTable 分段线性查找表
type LookupTable struct {
	points   []TablePoint
	seasonal bool // 按年内日序循环取值
}

// NewLookupTable 构建查找表，样本按时间排序，同一时间点取均值
func NewLookupTable(points []TablePoint, seasonal bool) *LookupTable {
	sort.Slice(points, func(i, j int) bool { return points[i].T < points[j].T })

	// 合并重复时间点
	merged := make([]TablePoint, 0, len(points))
	for i := 0; i < len(points); {
		j := i
		sum := 0.0
		for j < len(points) && points[j].T == points[i].T {
			sum += points[j].Value
			j++
		}
		merged = append(merged, TablePoint{T: points[i].T, Value: sum / float64(j-i)})
		i = j
	}
	return &LookupTable{points: merged, seasonal: seasonal}
}

// Len 样本点数量
func (lt *LookupTable) Len() int {
	return len(lt.points)
}

// At 查找时刻 t 的插值结果
func (lt *LookupTable) At(t float64) float64 {
	if len(lt.points) == 0 {
		return 0
	}
	if lt.seasonal {
		t = DayOfYear(t)
	}

	pts := lt.points
	if t <= pts[0].T {
		return pts[0].Value
	}
	if t >= pts[len(pts)-1].T {
		return pts[len(pts)-1].Value
	}

	idx := sort.Search(len(pts), func(i int) bool { return pts[i].T >= t })
	lo, hi := pts[idx-1], pts[idx]
	frac := (t - lo.T) / (hi.T - lo.T)
	return lo.Value + frac*(hi.Value-lo.Value)
}
