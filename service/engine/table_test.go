/*
 * @module service/engine/table_test
 * @description 分段线性查找表测试
 * @architecture 测试层
 * @documentReference dev_docs/model.md
 * @stateFlow 样本点构造 -> 查找 -> 插值结果验证
 * @rules 覆盖线性插值、端点钳制、重复时间点合并和季节性年内循环
 * @dependencies testing, github.com/stretchr/testify/assert
 * @refs table.go, dates.go
 */

package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestTableInterpolation 测试两点间线性插值
func TestTableInterpolation(t *testing.T) {
	table := NewLookupTable([]TablePoint{
		{T: 0, Value: 10},
		{T: 10, Value: 20},
	}, false)

	assert.Equal(t, 10.0, table.At(0))
	assert.InDelta(t, 15.0, table.At(5), 1e-9)
	assert.InDelta(t, 17.0, table.At(7), 1e-9)
	assert.Equal(t, 20.0, table.At(10))
}

// TestTableClampsAtEnds 测试范围外取端点值
func TestTableClampsAtEnds(t *testing.T) {
	table := NewLookupTable([]TablePoint{
		{T: 10, Value: 5},
		{T: 20, Value: 15},
	}, false)

	assert.Equal(t, 5.0, table.At(-100))
	assert.Equal(t, 15.0, table.At(1000))
}

// TestTableMergesDuplicates 测试同一时间点的样本取均值
func TestTableMergesDuplicates(t *testing.T) {
	table := NewLookupTable([]TablePoint{
		{T: 5, Value: 10},
		{T: 5, Value: 20},
		{T: 5, Value: 30},
		{T: 10, Value: 100},
	}, false)

	assert.Equal(t, 2, table.Len())
	assert.Equal(t, 20.0, table.At(5))
}

// TestTableUnsortedInput 测试乱序样本自动排序
func TestTableUnsortedInput(t *testing.T) {
	table := NewLookupTable([]TablePoint{
		{T: 20, Value: 30},
		{T: 0, Value: 10},
		{T: 10, Value: 20},
	}, false)

	assert.InDelta(t, 15.0, table.At(5), 1e-9)
	assert.InDelta(t, 25.0, table.At(15), 1e-9)
}

// TestTableSeasonalWraps 测试季节性表按年内日序循环
func TestTableSeasonalWraps(t *testing.T) {
	// 年内日序 32(2月1日) 取值 7，日序 182(7月初) 取值 20
	table := NewLookupTable([]TablePoint{
		{T: 32, Value: 7},
		{T: 182, Value: 20},
	}, true)

	// 2024-02-01 与 2025-02-01 的年内日序一致
	assert.InDelta(t, 7.0, table.At(Ordinal(testDay(31))), 1e-9)
	assert.InDelta(t, 7.0, table.At(Ordinal(testDay(31).AddDate(1, 0, 0))), 1e-9)
}

// TestTableEmpty 测试空表恒为零
func TestTableEmpty(t *testing.T) {
	table := NewLookupTable(nil, false)
	assert.Equal(t, 0, table.Len())
	assert.Equal(t, 0.0, table.At(42))
}
